package xsync

import (
	"math"
	"sync"
	"sync/atomic"
)

// condSemaphore POSIX 族计数信号量：互斥锁 + 条件变量模拟。
//
// 单个条件变量上的计数信号量必须主动传递多余的额度：等待者扣减后
// 若计数仍大于零且还有等待者，自己再 Signal 一次，否则其余等待者会被搁置。
type condSemaphore struct {
	mu      sync.Mutex
	cond    sync.Cond
	count   uint32
	waiters atomic.Int32
}

func (s *condSemaphore) init(initial uint32) {
	s.cond.L = &s.mu
	s.count = initial
	s.waiters.Store(0)
}

// post 返回 false 表示计数已达上限。
func (s *condSemaphore) post() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == math.MaxUint32 {
		return false
	}
	s.count++
	if s.waiters.Load() > 0 {
		s.cond.Signal()
	}
	return true
}

func (s *condSemaphore) wait() {
	s.mu.Lock()
	for s.count == 0 {
		s.waiters.Add(1)
		s.cond.Wait()
		s.waiters.Add(-1)
	}
	s.count--
	if s.count > 0 && s.waiters.Load() > 0 {
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *condSemaphore) tryWait() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return false
	}
	s.count--
	return true
}

func (s *condSemaphore) value() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *condSemaphore) numWaiters() int32 { return s.waiters.Load() }
