// Package xerrno 将平台原生错误码翻译为统一、可安全格式化的错误表示。
//
// 同步原语层的所有失败路径都经过本包：Unix 上的 errno 与 Windows 上的
// Win32 错误码在这里被折叠成同一个 [Error] 类型，调用方无需关心具体平台。
//
// # 消息格式
//
// [Describe] 产出稳定的单行文本：
//
//	[context: ]NAME (code N): native text
//
// 例如：
//
//	mutex.lock: EDEADLK (code 35): resource deadlock avoided
//
// # 关闭期安全
//
// Describe 使用一把专用的序列化锁（不与任何用户可见的锁共享），因此可以在
// 某个原语自身的失败路径里安全调用。格式化过程中若发生 panic，会降级为
// [WriteDirect] 直接写 stderr，不依赖堆分配成功。
//
// # 与 errors 包协作
//
// [Error.Unwrap] 返回 syscall.Errno，因此以下两种判断都成立：
//
//	errors.Is(err, syscall.EDEADLK)
//	errors.Is(err, &xerrno.Error{Code: xerrno.CodeDeadlock})
package xerrno
