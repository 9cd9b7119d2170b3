// Package goid 提供当前 goroutine 的标识，用于互斥锁的持有者跟踪。
//
// 错误检查型与递归型互斥锁在每次加锁和解锁时都要取 ID，
// 因此这里直接读取运行时 g 结构（github.com/petermattis/goid），
// 不走 runtime.Stack 文本解析。
package goid

import "github.com/petermattis/goid"

// Get 返回当前 goroutine 的 ID。
func Get() int64 {
	return goid.Get()
}
