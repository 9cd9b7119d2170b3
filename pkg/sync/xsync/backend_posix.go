//go:build !windows

package xsync

// POSIX 族：互斥锁 + 条件变量。
type (
	rwBackend  = condRWLock
	semBackend = condSemaphore
)

// backendFamily 当前构建选择的后端族名称。
const backendFamily = "posix"
