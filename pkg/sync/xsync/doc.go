// Package xsync 提供跨平台统一语义的同步原语：Mutex、RWLock、Semaphore、SpinLock。
//
// # 后端族
//
// 每个原语背后有两套结构不同的实现：
//
//   - POSIX 族：互斥锁 + 条件变量（condRWLock、condSemaphore）
//   - Windows 族：临界区 + 事件（eventRWLock、eventSemaphore）
//
// 构建时按目标平台选择其一（windows 选事件族，其余平台选 POSIX 族），
// 两族对外语义完全一致。两族都是纯 Go 实现，在所有平台编译，测试同时覆盖两族。
//
// # 固定存储
//
// 每个原语对象内嵌固定大小的后端存储（opaqueMutexSize 等常量），
// 所选后端超出预算时编译失败。原语不做任何逐对象堆分配（事件族在等待
// 路径上分配通知 channel 除外），对象不可复制，只能通过指针共享。
//
// # 生命周期
//
// 零值处于未初始化状态。调用 Init（或 NewMutex 等构造函数）后可在任意
// goroutine 中反复使用，最后由持有者调用一次 Destroy。对未初始化或已销毁
// 的对象调用任何操作返回 EINVAL（[ErrInvalid]）。
//
// # 错误
//
// 操作错误以 *xerrno.Error 返回，可用哨兵判断：
//
//	if errors.Is(err, xsync.ErrDeadlock) { ... }
//
// 契约违规（无匹配的 Unlock、持有时 Destroy）属于编程缺陷：默认构建下
// 以 *xdiag.Violation panic；使用 -tags xsync_release 构建时改为返回错误，
// 可用 errors.Is(err, xsync.ErrNotHeld) 判断。
//
// # 阻塞与取消
//
// Lock、RLock、Wait 无限期阻塞，不接受超时或 context；需要上界的调用方
// 轮询 TryLock/TryRLock/TryWait。本包不重试任何操作。
//
// # 竞争观测
//
// 通过 [WithObserver] 注入 [Observer]，原语在快速路径失败、进入阻塞路径时
// 报告等待耗时。xlockstat 包提供基于 OpenTelemetry 的实现。
package xsync
