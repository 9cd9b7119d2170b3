package xsync

import (
	"sync"
	"sync/atomic"
)

// eventRWLock Windows 族读写锁：临界区 + 手动重置事件。
//
// 写者在整个写期间持有临界区 cs，新读者因此阻塞在 cs 上。
// 读者只在登记时短暂进入 cs，读期间不持有。写者取得 cs 后循环：
// 重置事件，检查读者数，不为零则等待事件；每个读者释放时触发事件。
type eventRWLock struct {
	cs      sync.Mutex
	readers atomic.Int32
	writer  atomic.Bool
	event   manualResetEvent
}

func (l *eventRWLock) init() {
	l.readers.Store(0)
	l.writer.Store(false)
}

func (l *eventRWLock) rlock() {
	l.cs.Lock()
	l.readers.Add(1)
	l.cs.Unlock()
}

func (l *eventRWLock) tryRLock() bool {
	if !l.cs.TryLock() {
		return false
	}
	l.readers.Add(1)
	l.cs.Unlock()
	return true
}

// runlock 返回 false 表示没有读者可释放。
func (l *eventRWLock) runlock() bool {
	for {
		n := l.readers.Load()
		if n <= 0 {
			return false
		}
		if l.readers.CompareAndSwap(n, n-1) {
			break
		}
	}
	l.event.signal()
	return true
}

func (l *eventRWLock) lock() {
	l.cs.Lock()
	for {
		// 先重置再检查：检查之后的释放一定会触发本轮通道
		ch := l.event.reset()
		if l.readers.Load() == 0 {
			break
		}
		<-ch
	}
	l.writer.Store(true)
}

// tryLock 取得临界区与检查读者数不是原子的，
// 取得后必须重新确认没有读者，否则释放并失败。
func (l *eventRWLock) tryLock() bool {
	if !l.cs.TryLock() {
		return false
	}
	if l.readers.Load() > 0 {
		l.cs.Unlock()
		return false
	}
	l.writer.Store(true)
	return true
}

// unlock 返回 false 表示写锁未被持有。
func (l *eventRWLock) unlock() bool {
	if !l.writer.CompareAndSwap(true, false) {
		return false
	}
	l.cs.Unlock()
	l.event.signal()
	return true
}

func (l *eventRWLock) numReaders() int32 { return l.readers.Load() }
func (l *eventRWLock) writerHeld() bool  { return l.writer.Load() }
