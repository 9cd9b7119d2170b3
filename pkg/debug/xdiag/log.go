package xdiag

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/opencpi/xkit/internal/goid"
	"github.com/opencpi/xkit/pkg/os/xerrno"
)

// 日志记录中的固定属性键。
const (
	KeyLevel    = "ocpi_level"
	KeyPID      = "pid"
	KeyProcess  = "process"
	KeyInstance = "instance"
	KeyStack    = "stack"
)

var (
	// logMu 串行化 LogPrint，与任何用户可见的锁无关。
	logMu sync.Mutex

	// logOwner 持有 logMu 的 goroutine ID，0 表示无人持有。
	logOwner atomic.Int64

	// logger 当前的 slog.Logger，nil 表示尚未创建默认 logger。
	logger atomic.Pointer[slog.Logger]

	// logCloser 当前输出需要在替换时关闭的资源（如轮转文件），受 logMu 保护。
	logCloser io.Closer

	// shuttingDown 为 true 时所有输出走直写路径。
	shuttingDown atomic.Bool

	// directBuf 直写路径使用的静态缓冲区，受 logMu 保护。
	directBuf [1024]byte
)

// newHandlerLogger 创建输出到 w 的 logger。
// 级别过滤由阈值完成，handler 接受所有 slog 级别。
func newHandlerLogger(w io.Writer, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// currentLogger 返回当前 logger，未设置时惰性创建默认 stderr logger。
func currentLogger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	l := newHandlerLogger(os.Stderr, "text")
	if logger.CompareAndSwap(nil, l) {
		return l
	}
	return logger.Load()
}

// swapLogger 替换当前 logger，并关闭旧输出资源。调用方不得持有 logMu。
func swapLogger(l *slog.Logger, closer io.Closer) error {
	logMu.Lock()
	old := logCloser
	logger.Store(l)
	logCloser = closer
	logMu.Unlock()

	if old != nil {
		return old.Close()
	}
	return nil
}

// SetOutput 将诊断输出重定向到 w（text 格式）。w 为 nil 时恢复 stderr。
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	_ = swapLogger(newHandlerLogger(w, "text"), nil)
}

// resetLogger 恢复默认 logger（仅用于测试重置）。
func resetLogger() {
	logMu.Lock()
	old := logCloser
	logger.Store(nil)
	logCloser = nil
	logMu.Unlock()
	if old != nil {
		_ = old.Close()
	}
}

// BeginShutdown 标记进程开始退出。
// 此后 LogPrint 与契约违规输出改走 xerrno.WriteDirect，不再经过 slog handler。
func BeginShutdown() {
	shuttingDown.Store(true)
}

// ShuttingDown 报告是否已调用 BeginShutdown。
func ShuttingDown() bool {
	return shuttingDown.Load()
}

// LogPrint 以 printf 风格输出一条诊断消息。
// 仅当 level 不大于当前阈值时输出；并发调用被专用锁串行化。
//
// 可在原语自身的失败路径以及关闭阶段安全调用：
// 参数在加锁前格式化，String/Error 方法中再次调用 LogPrint 不会死锁；
// handler 发生 panic、handler 内重入或已进入关闭阶段时，退化为直写 stderr。
func LogPrint(level Level, format string, args ...any) {
	if !ShouldLog(level) {
		return
	}
	output(level, formatMessage(format, args))
}

// logStack 输出一条附带堆栈属性的消息。关闭阶段只直写消息本身。
func logStack(level Level, msg, stack string) {
	if !ShouldLog(level) {
		return
	}
	output(level, msg, slog.String(KeyStack, stack))
}

// formatMessage 在不持有 logMu 的情况下格式化消息。格式化 panic 时返回 format 原文。
func formatMessage(format string, args []any) (msg string) {
	if len(args) == 0 {
		return format
	}
	defer func() {
		if r := recover(); r != nil {
			msg = format
		}
	}()
	return fmt.Sprintf(format, args...)
}

// output 在 logMu 下输出已格式化的消息。
// 持锁的 goroutine 重入（如 handler 的 Writer 调用 LogPrint）时不再加锁，直接直写。
func output(level Level, msg string, extra ...slog.Attr) {
	me := goid.Get()
	if logOwner.Load() == me {
		writeDirectRaw(msg)
		return
	}
	logMu.Lock()
	logOwner.Store(me)
	defer func() {
		logOwner.Store(0)
		logMu.Unlock()
	}()

	if shuttingDown.Load() {
		writeDirect(level, msg)
		return
	}
	emit(level, msg, extra...)
}

// emit 通过 slog 输出。调用方持有 logMu。
func emit(level Level, msg string, extra ...slog.Attr) {
	defer func() {
		if r := recover(); r != nil {
			writeDirectRaw(msg)
		}
	}()
	attrs := append([]slog.Attr{
		slog.Int(KeyLevel, int(level)),
		slog.Int(KeyPID, os.Getpid()),
		slog.String(KeyProcess, processName()),
		slog.String(KeyInstance, InstanceID()),
	}, extra...)
	currentLogger().LogAttrs(context.Background(), level.slogLevel(), msg, attrs...)
}

// writeDirect 在静态缓冲区内拼接前缀与消息并直写 stderr。调用方持有 logMu。
// 超出缓冲区时 append 才会分配内存。
func writeDirect(level Level, msg string) {
	b := append(directBuf[:0], "OCPI("...)
	if level < 10 {
		b = append(b, ' ')
	}
	b = strconv.AppendInt(b, int64(level), 10)
	b = append(b, "): "...)
	b = append(b, msg...)
	b = append(b, '\n')
	xerrno.WriteDirect(xerrno.Stderr, unsafe.String(unsafe.SliceData(b), len(b)))
}

// writeDirectRaw 不使用共享缓冲区，直接写出消息原文。
func writeDirectRaw(msg string) {
	xerrno.WriteDirect(xerrno.Stderr, "OCPI: ")
	xerrno.WriteDirect(xerrno.Stderr, msg)
	xerrno.WriteDirect(xerrno.Stderr, "\n")
}
