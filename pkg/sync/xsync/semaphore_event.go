package xsync

import (
	"math"
	"sync/atomic"
)

// eventSemaphore Windows 族计数信号量：原子计数 + 自动重置事件。
//
// 不变量：只要计数大于零且有等待者，事件处于触发状态。post 增加计数后
// 触发事件；被唤醒的等待者扣减成功后若仍有余额，再次触发事件。
type eventSemaphore struct {
	count   atomic.Uint32
	waiters atomic.Int32
	event   autoResetEvent
}

func (s *eventSemaphore) init(initial uint32) {
	s.count.Store(initial)
	s.waiters.Store(0)
	s.event = newAutoResetEvent()
}

// post 返回 false 表示计数已达上限。
func (s *eventSemaphore) post() bool {
	for {
		n := s.count.Load()
		if n == math.MaxUint32 {
			return false
		}
		if s.count.CompareAndSwap(n, n+1) {
			break
		}
	}
	s.event.signal()
	return true
}

func (s *eventSemaphore) wait() {
	s.waiters.Add(1)
	defer s.waiters.Add(-1)
	for {
		if s.tryWait() {
			if s.count.Load() > 0 {
				s.event.signal()
			}
			return
		}
		s.event.wait()
	}
}

func (s *eventSemaphore) tryWait() bool {
	for {
		n := s.count.Load()
		if n == 0 {
			return false
		}
		if s.count.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

func (s *eventSemaphore) value() uint32     { return s.count.Load() }
func (s *eventSemaphore) numWaiters() int32 { return s.waiters.Load() }
