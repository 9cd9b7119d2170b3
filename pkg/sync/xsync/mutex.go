package xsync

import (
	"math"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/opencpi/xkit/internal/goid"
	"github.com/opencpi/xkit/pkg/debug/xdiag"
	"github.com/opencpi/xkit/pkg/os/xerrno"
)

// mutexKind 互斥锁类型。
type mutexKind uint8

const (
	// mutexNormal 普通型：不跟踪持有者，自锁死锁。
	mutexNormal mutexKind = iota
	// mutexErrorCheck 错误检查型：自锁返回 EDEADLK，非持有者解锁返回 EPERM。
	mutexErrorCheck
	// mutexRecursive 递归型：持有者可重复加锁。
	mutexRecursive
)

func (k mutexKind) String() string {
	switch k {
	case mutexErrorCheck:
		return "errorcheck"
	case mutexRecursive:
		return "recursive"
	default:
		return "normal"
	}
}

// maxRecursion 递归型互斥锁的最大加锁深度。
const maxRecursion = math.MaxInt32

// nativeMutex 互斥锁后端：排他锁 + 持有者 + 递归深度。
// owner 与 depth 只在 errorcheck/recursive 型下维护。
type nativeMutex struct {
	mu    sync.Mutex
	owner atomic.Int64
	depth int32 // 只由持有者读写
}

type mutexStorage struct {
	b nativeMutex
	_ [opaqueMutexSize - unsafe.Sizeof(nativeMutex{})]byte
}

// Mutex 排他锁，可选递归模式，并跟踪持有计数。
//
// 零值未初始化，使用前调用 Init 或通过 NewMutex 创建。不可复制。
type Mutex struct {
	_    noCopy
	life lifecycle
	kind mutexKind
	obs  Observer

	// held 本对象认为当前被加锁的次数，独立于后端递归深度。
	held atomic.Int32
	s    mutexStorage
}

// NewMutex 创建并初始化一个互斥锁。
func NewMutex(opts ...Option) (*Mutex, error) {
	m := &Mutex{}
	if err := m.Init(opts...); err != nil {
		return nil, err
	}
	return m, nil
}

// Init 就地初始化互斥锁。对已初始化的对象返回 EBUSY，选项非法返回 EINVAL。
// 已销毁的对象可以重新初始化。
func (m *Mutex) Init(opts ...Option) error {
	const op = "mutex.init"
	if err := m.life.beginInit(op); err != nil {
		return err
	}
	o, err := applyOptions("mutex", true, opts)
	if err != nil {
		m.life.finishInit(true)
		return opError(op, xerrno.CodeInvalid, err.Error())
	}
	m.kind = o.mutexKind()
	m.obs = o.observer
	m.held.Store(0)
	m.s.b.owner.Store(0)
	m.s.b.depth = 0
	m.life.finishInit(false)
	xdiag.LogPrint(xdiag.LevelDebug2, "xsync: mutex %p initialized (%s)", m, m.kind)
	return nil
}

// Lock 阻塞直到取得锁，并递增持有计数。
//
// 错误检查型被持有者再次加锁返回 EDEADLK；递归型深度达到上限返回 EAGAIN。
// 普通型被持有者再次加锁会永久阻塞。
func (m *Mutex) Lock() error {
	const op = "mutex.lock"
	if err := m.life.check(op); err != nil {
		return err
	}
	b := &m.s.b
	switch m.kind {
	case mutexErrorCheck:
		me := goid.Get()
		if b.owner.Load() == me {
			return opError(op, xerrno.CodeDeadlock, "already held by caller")
		}
		m.acquire()
		b.owner.Store(me)
	case mutexRecursive:
		me := goid.Get()
		if b.owner.Load() == me {
			if b.depth >= maxRecursion {
				return opError(op, xerrno.CodeAgain, "recursion limit reached")
			}
			b.depth++
			m.held.Add(1)
			return nil
		}
		m.acquire()
		b.owner.Store(me)
		b.depth = 1
	default:
		m.acquire()
	}
	m.held.Add(1)
	return nil
}

// acquire 先尝试非阻塞获取，失败后进入阻塞路径并报告竞争。
func (m *Mutex) acquire() {
	if m.s.b.mu.TryLock() {
		return
	}
	c := beginContention(m.obs)
	m.s.b.mu.Lock()
	c.done(KindMutex)
}

// TryLock 非阻塞加锁。锁已被持有（EBUSY）时返回 false，从不阻塞。
// 递归型的持有者调用时递增深度并返回 true。
func (m *Mutex) TryLock() (bool, error) {
	const op = "mutex.trylock"
	if err := m.life.check(op); err != nil {
		return false, err
	}
	b := &m.s.b
	switch m.kind {
	case mutexErrorCheck:
		me := goid.Get()
		if b.owner.Load() == me || !b.mu.TryLock() {
			return false, nil
		}
		b.owner.Store(me)
	case mutexRecursive:
		me := goid.Get()
		if b.owner.Load() == me {
			if b.depth >= maxRecursion {
				return false, opError(op, xerrno.CodeAgain, "recursion limit reached")
			}
			b.depth++
			m.held.Add(1)
			return true, nil
		}
		if !b.mu.TryLock() {
			return false, nil
		}
		b.owner.Store(me)
		b.depth = 1
	default:
		if !b.mu.TryLock() {
			return false, nil
		}
	}
	m.held.Add(1)
	return true, nil
}

// Unlock 递减持有计数并释放锁。
//
// 持有计数为零时调用属于契约违规：默认构建 panic，
// xsync_release 构建返回可用 errors.Is(err, ErrNotHeld) 判断的错误。
// 错误检查型与递归型由非持有者调用时返回 EPERM。
func (m *Mutex) Unlock() error {
	return m.unlock("mutex.unlock", false)
}

// UnlockIdempotent 与 Unlock 相同，但持有计数已为零时静默返回 nil。
//
// 仅供幂等清理路径显式使用：它会掩盖重复解锁缺陷，不要作为常规解锁方式。
func (m *Mutex) UnlockIdempotent() error {
	return m.unlock("mutex.unlock", true)
}

func (m *Mutex) unlock(op string, okIfUnlocked bool) error {
	if err := m.life.check(op); err != nil {
		return err
	}
	if m.held.Load() <= 0 {
		if okIfUnlocked {
			return nil
		}
		return violation(op, ErrNotHeld)
	}

	b := &m.s.b
	if m.kind != mutexNormal && b.owner.Load() != goid.Get() {
		return opError(op, xerrno.CodeNotOwner, "caller does not own the mutex")
	}
	if !m.decHeld() {
		if okIfUnlocked {
			return nil
		}
		return violation(op, ErrNotHeld)
	}

	switch m.kind {
	case mutexRecursive:
		b.depth--
		if b.depth > 0 {
			return nil
		}
		b.owner.Store(0)
	case mutexErrorCheck:
		b.owner.Store(0)
	}
	b.mu.Unlock()
	return nil
}

// decHeld 递减持有计数，保证不为负。计数已为零时返回 false。
func (m *Mutex) decHeld() bool {
	for {
		n := m.held.Load()
		if n <= 0 {
			return false
		}
		if m.held.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

// Held 返回当前持有计数。
func (m *Mutex) Held() int32 {
	return m.held.Load()
}

// Recursive 报告是否为递归型。
func (m *Mutex) Recursive() bool {
	return m.kind == mutexRecursive
}

// ErrorChecking 报告是否跟踪持有者（错误检查型或递归型）。
func (m *Mutex) ErrorChecking() bool {
	return m.kind != mutexNormal
}

// Destroy 销毁互斥锁。仍被持有时属于契约违规。
func (m *Mutex) Destroy() error {
	const op = "mutex.destroy"
	if err := m.life.check(op); err != nil {
		return err
	}
	if m.held.Load() > 0 {
		return violation(op, ErrDestroyHeld)
	}
	return m.life.destroy(op)
}
