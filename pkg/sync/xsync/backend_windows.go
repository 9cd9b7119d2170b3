//go:build windows

package xsync

// Windows 族：临界区 + 事件。
type (
	rwBackend  = eventRWLock
	semBackend = eventSemaphore
)

// backendFamily 当前构建选择的后端族名称。
const backendFamily = "windows"
