//go:build windows

package xerrno

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// 可移植错误码，映射到 Win32 错误码。
const (
	CodeInvalid  = Code(windows.ERROR_INVALID_PARAMETER)
	CodeBusy     = Code(windows.ERROR_BUSY)
	CodeDeadlock = Code(1131) // ERROR_POSSIBLE_DEADLOCK
	CodeNotOwner = Code(288)  // ERROR_NOT_OWNER
	CodeAgain    = Code(103)  // ERROR_TOO_MANY_SEM_REQUESTS
	CodeOverflow = Code(298)  // ERROR_TOO_MANY_POSTS
	CodeNoMemory = Code(windows.ERROR_NOT_ENOUGH_MEMORY)
)

// 标准输出"文件描述符"，WriteDirect 将其映射到标准句柄。
const (
	Stdout = 1
	Stderr = 2
)

var win32Names = map[Code]string{
	CodeInvalid:  "ERROR_INVALID_PARAMETER",
	CodeBusy:     "ERROR_BUSY",
	CodeDeadlock: "ERROR_POSSIBLE_DEADLOCK",
	CodeNotOwner: "ERROR_NOT_OWNER",
	CodeAgain:    "ERROR_TOO_MANY_SEM_REQUESTS",
	CodeOverflow: "ERROR_TOO_MANY_POSTS",
	CodeNoMemory: "ERROR_NOT_ENOUGH_MEMORY",
}

func nativeName(c Code) string {
	return win32Names[c]
}

func nativeText(c Code) string {
	return syscall.Errno(c).Error()
}

// WriteDirect 通过 WriteFile 直接写出 msg，不经过 os.File 与缓冲，也不分配内存。
func WriteDirect(fd int, msg string) {
	if msg == "" {
		return
	}
	std := uint32(windows.STD_ERROR_HANDLE)
	if fd == Stdout {
		std = uint32(windows.STD_OUTPUT_HANDLE)
	}
	h, err := windows.GetStdHandle(std)
	if err != nil || h == windows.InvalidHandle {
		return
	}
	b := unsafe.Slice(unsafe.StringData(msg), len(msg))
	for len(b) > 0 {
		var n uint32
		if err := windows.WriteFile(h, b, &n, nil); err != nil || n == 0 {
			return
		}
		b = b[n:]
	}
}
