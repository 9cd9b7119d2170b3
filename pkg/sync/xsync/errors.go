package xsync

import (
	"errors"

	"github.com/opencpi/xkit/pkg/debug/xdiag"
	"github.com/opencpi/xkit/pkg/os/xerrno"
)

// 操作错误哨兵，按错误码匹配任意 *xerrno.Error。
var (
	// ErrInvalid 对象未初始化、已销毁或选项非法（EINVAL）。
	ErrInvalid = &xerrno.Error{Code: xerrno.CodeInvalid}

	// ErrBusy 对已初始化的对象再次 Init（EBUSY）。
	ErrBusy = &xerrno.Error{Code: xerrno.CodeBusy}

	// ErrDeadlock 错误检查型互斥锁被持有者再次加锁（EDEADLK）。
	ErrDeadlock = &xerrno.Error{Code: xerrno.CodeDeadlock}

	// ErrNotOwner 非持有者释放锁，或释放未持有的读写锁/自旋锁（EPERM）。
	ErrNotOwner = &xerrno.Error{Code: xerrno.CodeNotOwner}

	// ErrAgain 递归深度达到上限（EAGAIN）。
	ErrAgain = &xerrno.Error{Code: xerrno.CodeAgain}

	// ErrOverflow 信号量计数溢出（EOVERFLOW）。
	ErrOverflow = &xerrno.Error{Code: xerrno.CodeOverflow}
)

// 契约违规哨兵。
var (
	// ErrNotHeld 释放未被持有的互斥锁。
	ErrNotHeld = errors.New("xsync: unlock of unheld mutex")

	// ErrDestroyHeld 销毁仍被持有或仍有等待者的原语。
	ErrDestroyHeld = errors.New("xsync: destroy while held")
)

// opError 构造操作错误。
func opError(op string, code xerrno.Code, context string) error {
	return xerrno.New(op, code, context)
}

// violation 报告契约违规。检查开启时 panic，否则返回可用
// errors.Is 匹配 sentinel 的错误。
func violation(op string, sentinel error) error {
	return xdiag.Violate(&violationError{op: op, err: sentinel})
}

// violationError 为违规哨兵附加操作名。
type violationError struct {
	op  string
	err error
}

func (e *violationError) Error() string { return e.op + ": " + e.err.Error() }
func (e *violationError) Unwrap() error { return e.err }
