package xsync

import (
	"unsafe"

	"github.com/opencpi/xkit/pkg/os/xerrno"
)

type semStorage struct {
	b semBackend
	_ [opaqueSemaphoreSize - unsafe.Sizeof(semBackend{})]byte
}

// Semaphore 计数信号量。
//
// 只保证计数守恒（累计 Post 减去已完成的 Wait 等于当前计数），
// 不保证唤醒顺序。零值未初始化，不可复制。
type Semaphore struct {
	_    noCopy
	life lifecycle
	obs  Observer
	s    semStorage
}

// NewSemaphore 创建初始计数为 initial 的信号量。
func NewSemaphore(initial uint32, opts ...Option) (*Semaphore, error) {
	s := &Semaphore{}
	if err := s.Init(initial, opts...); err != nil {
		return nil, err
	}
	return s, nil
}

// Init 就地初始化信号量。仅接受 WithObserver 选项。
func (s *Semaphore) Init(initial uint32, opts ...Option) error {
	const op = "semaphore.init"
	if err := s.life.beginInit(op); err != nil {
		return err
	}
	o, err := applyOptions("semaphore", false, opts)
	if err != nil {
		s.life.finishInit(true)
		return opError(op, xerrno.CodeInvalid, err.Error())
	}
	s.obs = o.observer
	s.s.b.init(initial)
	s.life.finishInit(false)
	return nil
}

// Post 递增计数并至多唤醒一个等待者。计数溢出返回 EOVERFLOW。
func (s *Semaphore) Post() error {
	const op = "semaphore.post"
	if err := s.life.check(op); err != nil {
		return err
	}
	if !s.s.b.post() {
		return opError(op, xerrno.CodeOverflow, "count at maximum")
	}
	return nil
}

// Wait 在计数为零时阻塞，随后递减计数。
func (s *Semaphore) Wait() error {
	if err := s.life.check("semaphore.wait"); err != nil {
		return err
	}
	if s.s.b.tryWait() {
		return nil
	}
	c := beginContention(s.obs)
	s.s.b.wait()
	c.done(KindSemaphore)
	return nil
}

// TryWait 非阻塞递减计数，计数为零时返回 false。
func (s *Semaphore) TryWait() (bool, error) {
	if err := s.life.check("semaphore.trywait"); err != nil {
		return false, err
	}
	return s.s.b.tryWait(), nil
}

// Value 返回当前计数的快照。
func (s *Semaphore) Value() uint32 {
	return s.s.b.value()
}

// Destroy 销毁信号量。仍有等待者时属于契约违规。
func (s *Semaphore) Destroy() error {
	const op = "semaphore.destroy"
	if err := s.life.check(op); err != nil {
		return err
	}
	if s.s.b.numWaiters() > 0 {
		return violation(op, ErrDestroyHeld)
	}
	return s.life.destroy(op)
}
