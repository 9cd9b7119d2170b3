//go:build unix

package xerrno

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// 可移植错误码，映射到 errno。
const (
	CodeInvalid  = Code(unix.EINVAL)
	CodeBusy     = Code(unix.EBUSY)
	CodeDeadlock = Code(unix.EDEADLK)
	CodeNotOwner = Code(unix.EPERM)
	CodeAgain    = Code(unix.EAGAIN)
	CodeOverflow = Code(unix.EOVERFLOW)
	CodeNoMemory = Code(unix.ENOMEM)
)

// 标准输出文件描述符。
const (
	Stdout = 1
	Stderr = 2
)

func nativeName(c Code) string {
	return unix.ErrnoName(syscall.Errno(c))
}

func nativeText(c Code) string {
	return syscall.Errno(c).Error()
}

// WriteDirect 通过 write(2) 直接写出 msg，不经过 os.File 与缓冲，也不分配内存。
// 用于关闭阶段或原语失败路径中的诊断输出。写失败时静默放弃。
func WriteDirect(fd int, msg string) {
	if msg == "" {
		return
	}
	b := unsafe.Slice(unsafe.StringData(msg), len(msg))
	for len(b) > 0 {
		n, err := unix.Write(fd, b)
		if err == unix.EINTR {
			continue
		}
		if err != nil || n <= 0 {
			return
		}
		b = b[n:]
	}
}
