package xsync

import (
	"unsafe"

	"github.com/opencpi/xkit/pkg/os/xerrno"
)

type rwStorage struct {
	b rwBackend
	_ [opaqueRWLockSize - unsafe.Sizeof(rwBackend{})]byte
}

// RWLock 读写锁：任意多个读者并发持有，写者独占且只在无读者时进入。
//
// 读者与写者之间不保证公平，持续到达的读者可能使写者饥饿。
// 读锁只做简单计数，不对重入做特殊处理。零值未初始化，不可复制。
type RWLock struct {
	_    noCopy
	life lifecycle
	obs  Observer
	s    rwStorage
}

// NewRWLock 创建并初始化一个读写锁。
func NewRWLock(opts ...Option) (*RWLock, error) {
	l := &RWLock{}
	if err := l.Init(opts...); err != nil {
		return nil, err
	}
	return l, nil
}

// Init 就地初始化读写锁，读者数为零。仅接受 WithObserver 选项。
func (l *RWLock) Init(opts ...Option) error {
	const op = "rwlock.init"
	if err := l.life.beginInit(op); err != nil {
		return err
	}
	o, err := applyOptions("rwlock", false, opts)
	if err != nil {
		l.life.finishInit(true)
		return opError(op, xerrno.CodeInvalid, err.Error())
	}
	l.obs = o.observer
	l.s.b.init()
	l.life.finishInit(false)
	return nil
}

// RLock 阻塞直到没有写者，然后登记为读者。
func (l *RWLock) RLock() error {
	if err := l.life.check("rwlock.rdlock"); err != nil {
		return err
	}
	if l.s.b.tryRLock() {
		return nil
	}
	c := beginContention(l.obs)
	l.s.b.rlock()
	c.done(KindRWLockRead)
	return nil
}

// TryRLock 非阻塞获取读锁，仅在竞争时返回 false。
func (l *RWLock) TryRLock() (bool, error) {
	if err := l.life.check("rwlock.rdtrylock"); err != nil {
		return false, err
	}
	return l.s.b.tryRLock(), nil
}

// RUnlock 释放读锁；读者数归零时唤醒等待的写者。
// 没有读者时返回 EPERM。
func (l *RWLock) RUnlock() error {
	const op = "rwlock.rdunlock"
	if err := l.life.check(op); err != nil {
		return err
	}
	if !l.s.b.runlock() {
		return opError(op, xerrno.CodeNotOwner, "no readers")
	}
	return nil
}

// Lock 阻塞直到读者数为零，然后独占持有。
func (l *RWLock) Lock() error {
	if err := l.life.check("rwlock.wrlock"); err != nil {
		return err
	}
	if l.s.b.tryLock() {
		return nil
	}
	c := beginContention(l.obs)
	l.s.b.lock()
	c.done(KindRWLockWrite)
	return nil
}

// TryLock 非阻塞获取写锁。有写者或读者时返回 false。
func (l *RWLock) TryLock() (bool, error) {
	if err := l.life.check("rwlock.wrtrylock"); err != nil {
		return false, err
	}
	return l.s.b.tryLock(), nil
}

// Unlock 释放写锁并唤醒等待者。写锁未被持有时返回 EPERM。
func (l *RWLock) Unlock() error {
	const op = "rwlock.wrunlock"
	if err := l.life.check(op); err != nil {
		return err
	}
	if !l.s.b.unlock() {
		return opError(op, xerrno.CodeNotOwner, "write lock not held")
	}
	return nil
}

// Readers 返回当前读者数。
func (l *RWLock) Readers() int32 {
	return l.s.b.numReaders()
}

// Destroy 销毁读写锁。仍有读者或写者时属于契约违规。
func (l *RWLock) Destroy() error {
	const op = "rwlock.destroy"
	if err := l.life.check(op); err != nil {
		return err
	}
	if l.s.b.numReaders() > 0 || l.s.b.writerHeld() {
		return violation(op, ErrDestroyHeld)
	}
	return l.life.destroy(op)
}
