//go:build !unix && !windows

package xerrno

import (
	"os"
	"syscall"
)

// 可移植错误码。
const (
	CodeInvalid  = Code(syscall.EINVAL)
	CodeBusy     = Code(syscall.EBUSY)
	CodeDeadlock = Code(syscall.EDEADLK)
	CodeNotOwner = Code(syscall.EPERM)
	CodeAgain    = Code(syscall.EAGAIN)
	CodeOverflow = Code(syscall.ERANGE)
	CodeNoMemory = Code(syscall.ENOMEM)
)

// 标准输出文件描述符。
const (
	Stdout = 1
	Stderr = 2
)

func nativeName(Code) string { return "" }

func nativeText(c Code) string {
	return syscall.Errno(c).Error()
}

// WriteDirect 在无原生写接口的平台上退化为 os.File 写入。
func WriteDirect(fd int, msg string) {
	f := os.Stderr
	if fd == Stdout {
		f = os.Stdout
	}
	_, _ = f.WriteString(msg)
}
