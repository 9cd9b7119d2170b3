package xsync

import (
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/opencpi/xkit/pkg/os/xerrno"
)

// spinLimit 让出处理器前的最大自旋次数。
const spinLimit = 128

type spinStorage struct {
	word atomic.Uint32
	_    [opaqueSpinSize - unsafe.Sizeof(atomic.Uint32{})]byte
}

// SpinLock 忙等待排他锁，仅用于极短的临界区。
//
// 等待时从不进入内核等待队列：自旋 spinLimit 次后调用 runtime.Gosched 让出。
// 无持有计数、不可递归，同一 goroutine 重复加锁会永久自旋。零值未初始化，不可复制。
type SpinLock struct {
	_    noCopy
	life lifecycle
	obs  Observer
	s    spinStorage
}

// NewSpinLock 创建并初始化一个自旋锁。
func NewSpinLock(opts ...Option) (*SpinLock, error) {
	l := &SpinLock{}
	if err := l.Init(opts...); err != nil {
		return nil, err
	}
	return l, nil
}

// Init 就地初始化自旋锁。仅接受 WithObserver 选项。
func (l *SpinLock) Init(opts ...Option) error {
	const op = "spin.init"
	if err := l.life.beginInit(op); err != nil {
		return err
	}
	o, err := applyOptions("spinlock", false, opts)
	if err != nil {
		l.life.finishInit(true)
		return opError(op, xerrno.CodeInvalid, err.Error())
	}
	l.obs = o.observer
	l.s.word.Store(0)
	l.life.finishInit(false)
	return nil
}

// Lock 忙等待直到取得锁。
func (l *SpinLock) Lock() error {
	if err := l.life.check("spin.lock"); err != nil {
		return err
	}
	if l.s.word.CompareAndSwap(0, 1) {
		return nil
	}
	c := beginContention(l.obs)
	for i := 0; ; i++ {
		// 先读后 CAS，避免持有期间反复独占缓存行
		if l.s.word.Load() == 0 && l.s.word.CompareAndSwap(0, 1) {
			break
		}
		if i >= spinLimit {
			runtime.Gosched()
			i = 0
		}
	}
	c.done(KindSpin)
	return nil
}

// TryLock 非阻塞加锁，恰在锁被持有时返回 false。
func (l *SpinLock) TryLock() (bool, error) {
	if err := l.life.check("spin.trylock"); err != nil {
		return false, err
	}
	return l.s.word.CompareAndSwap(0, 1), nil
}

// Unlock 释放锁。锁未被持有时返回 EPERM。
func (l *SpinLock) Unlock() error {
	const op = "spin.unlock"
	if err := l.life.check(op); err != nil {
		return err
	}
	if !l.s.word.CompareAndSwap(1, 0) {
		return opError(op, xerrno.CodeNotOwner, "spinlock not held")
	}
	return nil
}

// Locked 报告锁当前是否被持有。
func (l *SpinLock) Locked() bool {
	return l.s.word.Load() != 0
}

// Destroy 销毁自旋锁。仍被持有时属于契约违规。
func (l *SpinLock) Destroy() error {
	const op = "spin.destroy"
	if err := l.life.check(op); err != nil {
		return err
	}
	if l.Locked() {
		return violation(op, ErrDestroyHeld)
	}
	return l.life.destroy(op)
}
