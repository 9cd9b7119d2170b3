package xdiag

import (
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/opencpi/xkit/pkg/os/xerrno"
)

const (
	// dumpBufSize 静态转储缓冲区大小，超出部分被截断。
	dumpBufSize = 64 * 1024

	initialStackSize = 4096
	maxStackSize     = 64 * 1024
)

var (
	// dumpMu 保护 dumpBuf。转储路径只 TryLock，绝不阻塞。
	dumpMu  sync.Mutex
	dumpBuf [dumpBufSize]byte

	// dumpFD 契约违规时堆栈转储的目标描述符，负数表示不转储。
	dumpFD atomic.Int32
)

func init() {
	dumpFD.Store(xerrno.Stderr)
}

// SetDumpFD 设置契约违规时堆栈转储的目标文件描述符。fd < 0 关闭转储。
func SetDumpFD(fd int) {
	dumpFD.Store(int32(fd))
}

// DumpStack 将堆栈直写到 fd，all 为 true 时包含所有 goroutine。
//
// 使用静态缓冲区与 write(2)，不依赖堆分配成功，适用于异常终止路径。
// 若另一个转储正在进行，写出一行提示后立即返回，不会阻塞。
// 返回写入的堆栈字节数（截断后），未转储时返回 0。
func DumpStack(fd int, all bool) int {
	if fd < 0 {
		return 0
	}
	if !dumpMu.TryLock() {
		xerrno.WriteDirect(fd, "xdiag: stack dump already in progress\n")
		return 0
	}
	defer dumpMu.Unlock()

	n := runtime.Stack(dumpBuf[:], all)
	xerrno.WriteDirect(fd, "xdiag: backtrace:\n")
	xerrno.WriteDirect(fd, unsafe.String(&dumpBuf[0], n))
	if n == len(dumpBuf) {
		xerrno.WriteDirect(fd, "\nxdiag: backtrace truncated\n")
	}
	return n
}

// stackPool 堆栈缓冲区池，避免每次 Stack 调用都分配内存
var stackPool = sync.Pool{
	New: func() any {
		buf := make([]byte, initialStackSize)
		return &buf
	},
}

// Stack 返回堆栈文本，用于正常路径下的日志。
// 缓冲区从池中获取，堆栈被截断时翻倍扩展，上限 64KB。
func Stack(all bool) string {
	bufp, ok := stackPool.Get().(*[]byte)
	if !ok {
		buf := make([]byte, initialStackSize)
		bufp = &buf
	}

	buf := *bufp
	n := runtime.Stack(buf, all)
	for n == len(buf) && len(buf) < maxStackSize {
		buf = make([]byte, min(len(buf)*2, maxStackSize))
		n = runtime.Stack(buf, all)
	}

	// 必须在 Put 前完成拷贝，否则 buf 与 *bufp 共享底层数组
	s := string(buf[:n])
	stackPool.Put(bufp)
	return s
}
