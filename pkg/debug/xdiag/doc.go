// Package xdiag 提供同步原语层的进程级诊断设施。
//
// # 日志级别
//
// 级别是 0~20 的整数，数值越小越严重：[LevelBad](2)、[LevelWarn](4)、
// [LevelInfo](8)、[LevelDebug](10)、[LevelDebug2](20)。[LevelNone](0) 关闭全部输出。
// 一条消息仅在其级别不大于当前阈值时输出。
//
// 阈值在首次使用时从环境变量 OCPI_LOG_LEVEL 惰性初始化一次（数字或名称，
// 如 "8"、"debug"），之后可通过 [SetLevel] 或配置文件调整。
//
// # 独立的锁
//
// 初始化路径与 [LogPrint] 各自使用专用的 sync.Mutex，不与任何 xsync 原语共享。
// 原语在自身失败路径里调用 LogPrint 或 [Violate] 不会形成循环依赖。
//
// # 关闭期与异常终止
//
//   - [BeginShutdown] 之后所有输出走 xerrno.WriteDirect 直写路径
//   - [DumpStack] 使用静态缓冲区，不依赖堆分配成功，并发转储时不会阻塞
//
// # 契约违规
//
// [Violate] / [Assert] 用于报告编程缺陷（未匹配的 Unlock、销毁仍持有的锁等）。
// 默认构建下记录日志、按调用点去重转储堆栈并 panic(*Violation)；
// 使用 -tags xsync_release 构建时仅记录并返回错误。
//
// # 配置文件
//
// [LoadConfig] 读取 YAML/JSON 中的 log 段（level、format、file、轮转参数），
// [Apply] 使其生效；[WatchConfig] 基于 fsnotify 监视文件变化并热更新。
package xdiag
