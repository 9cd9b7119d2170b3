package xdiag

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

var (
	processNameOnce  sync.Once
	processNameValue string
)

// processName 返回当前进程名（不含路径），首次调用后缓存。
// 优先使用 os.Executable，失败时回退到 os.Args[0]。
func processName() string {
	processNameOnce.Do(func() {
		if exe, err := os.Executable(); err == nil && exe != "" {
			processNameValue = filepath.Base(exe)
			return
		}
		if len(os.Args) > 0 && os.Args[0] != "" {
			processNameValue = filepath.Base(os.Args[0])
		}
	})
	return processNameValue
}

// instanceID 本进程实例的随机标识，区分同名进程的多次运行。
var instanceID = sync.OnceValue(func() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return "unknown"
	}
	return id.String()
})

// InstanceID 返回写入每条诊断记录的进程实例标识。
func InstanceID() string {
	return instanceID()
}
