// Package xlockstat 基于 OpenTelemetry 记录 xsync 原语的竞争情况。
//
// [Stats] 实现 xsync.Observer，通过 xsync.WithObserver 注入原语：
//
//	stats, err := xlockstat.New(xlockstat.WithMeterProvider(mp))
//	if err != nil { ... }
//	mu, err := xsync.NewMutex(xsync.WithObserver(stats))
//
// 只有进入阻塞路径的获取会被记录，无竞争的快速路径没有任何开销。
//
// # 指标
//
//   - xsync.contended.total（Counter）阻塞获取次数
//   - xsync.wait.duration（Histogram，秒）阻塞等待耗时
//
// 两者都带 kind 属性：mutex、rwlock.read、rwlock.write、semaphore、spin。
package xlockstat
