// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlockstat: 同步原语竞争指标，基于 OpenTelemetry metric API
//
// 设计原则：
//   - 遵循 OpenTelemetry 语义规范
//   - 只在慢路径上记录，非竞争路径零开销
package observability
