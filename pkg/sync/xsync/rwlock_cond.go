package xsync

import (
	"sync"
	"sync/atomic"
)

// condRWLock POSIX 族读写锁：互斥锁 + 条件变量。
//
// 读者与写者都在 mu 下检查谓词，谓词不满足时在 cond 上等待；
// 任一方释放后 Broadcast，等待方醒来重新检查。
type condRWLock struct {
	mu      sync.Mutex
	cond    sync.Cond
	readers atomic.Int32
	writer  atomic.Bool
}

func (l *condRWLock) init() {
	l.cond.L = &l.mu
	l.readers.Store(0)
	l.writer.Store(false)
}

func (l *condRWLock) rlock() {
	l.mu.Lock()
	for l.writer.Load() {
		l.cond.Wait()
	}
	l.readers.Add(1)
	l.mu.Unlock()
}

func (l *condRWLock) tryRLock() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writer.Load() {
		return false
	}
	l.readers.Add(1)
	return true
}

// runlock 返回 false 表示没有读者可释放。
func (l *condRWLock) runlock() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.readers.Load() <= 0 {
		return false
	}
	if l.readers.Add(-1) == 0 {
		l.cond.Broadcast()
	}
	return true
}

func (l *condRWLock) lock() {
	l.mu.Lock()
	// 每次唤醒后重新检查谓词，单次唤醒并不意味着读者已清空
	for l.writer.Load() || l.readers.Load() > 0 {
		l.cond.Wait()
	}
	l.writer.Store(true)
	l.mu.Unlock()
}

func (l *condRWLock) tryLock() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writer.Load() || l.readers.Load() > 0 {
		return false
	}
	l.writer.Store(true)
	return true
}

// unlock 返回 false 表示写锁未被持有。
func (l *condRWLock) unlock() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.writer.Load() {
		return false
	}
	l.writer.Store(false)
	l.cond.Broadcast()
	return true
}

func (l *condRWLock) numReaders() int32 { return l.readers.Load() }
func (l *condRWLock) writerHeld() bool  { return l.writer.Load() }
