package xerrno

import (
	"strconv"
	"sync"
	"syscall"
)

// Code 是平台原生错误码（Unix errno 或 Win32 错误码）。
type Code int

// Errno 返回对应的 syscall.Errno。
func (c Code) Errno() syscall.Errno {
	return syscall.Errno(c)
}

// Name 返回错误码的符号名（如 "EDEADLK"）。未知错误码返回 "E?"。
func (c Code) Name() string {
	if n := nativeName(c); n != "" {
		return n
	}
	return "E?"
}

// Text 返回平台提供的错误描述文本。
func (c Code) Text() string {
	return nativeText(c)
}

// String 等价于 Describe(c, "")。
func (c Code) String() string {
	return Describe(c, "")
}

// describeMu 是 Describe 专用的序列化锁。
// 设计决策: 不复用任何 xsync 原语，避免原语失败路径递归进入自身。
var (
	describeMu  sync.Mutex
	describeBuf [256]byte
)

// Describe 将原生错误码和可选上下文格式化为稳定的可读消息：
// "[context: ]NAME (code N): native text"。
//
// 并发安全，可在关闭阶段和原语自身的错误路径中调用。
func Describe(code Code, context string) (s string) {
	defer func() {
		if r := recover(); r != nil {
			WriteDirect(Stderr, "xerrno: describe failed, using fallback\n")
			s = fallbackText(code)
		}
	}()

	describeMu.Lock()
	defer describeMu.Unlock()

	b := describeBuf[:0]
	if context != "" {
		b = append(b, context...)
		b = append(b, ": "...)
	}
	b = append(b, code.Name()...)
	b = append(b, " (code "...)
	b = strconv.AppendInt(b, int64(code), 10)
	b = append(b, "): "...)
	b = append(b, code.Text()...)
	return string(b)
}

// fallbackText 在格式化失败时使用的最小化文本。
func fallbackText(code Code) string {
	return "errno " + strconv.Itoa(int(code))
}

// Error 是同步原语层统一的错误类型（LockError）。
//
// Op 标识失败的操作（如 "mutex.lock"），Context 为可选的补充说明，
// Code 为平台原生错误码。
type Error struct {
	Op      string
	Context string
	Code    Code
}

// New 创建一个 *Error。
func New(op string, code Code, context string) *Error {
	return &Error{Op: op, Context: context, Code: code}
}

// Error 实现 error 接口。
func (e *Error) Error() string {
	ctx := e.Op
	switch {
	case ctx == "":
		ctx = e.Context
	case e.Context != "":
		ctx = ctx + " (" + e.Context + ")"
	}
	return Describe(e.Code, ctx)
}

// Unwrap 返回原生 errno，使 errors.Is(err, syscall.EXXX) 成立。
func (e *Error) Unwrap() error {
	return e.Code.Errno()
}

// Is 按错误码匹配 *Error 目标。
// 目标的 Op 为空时只比较 Code，便于使用哨兵值判断。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return t.Code == e.Code && (t.Op == "" || t.Op == e.Op)
}
