package xsync

import "sync"

// manualResetEvent 手动重置事件：set 后保持触发状态，直到 reset。
//
// 等待方必须先 reset 取得通道，再检查谓词，最后在通道上等待；
// 这样 reset 之后发生的 set 一定能唤醒它。
type manualResetEvent struct {
	mu  sync.Mutex
	ch  chan struct{}
	set bool
}

// reset 清除触发状态，返回本轮等待使用的通道。
func (e *manualResetEvent) reset() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ch == nil || e.set {
		e.ch = make(chan struct{})
		e.set = false
	}
	return e.ch
}

// signal 触发事件，唤醒所有在当前通道上等待的 goroutine。
func (e *manualResetEvent) signal() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ch != nil && !e.set {
		close(e.ch)
		e.set = true
	}
}

// autoResetEvent 自动重置事件：一次触发至多唤醒一个等待者，
// 无等待者时保持触发状态，重复触发不累加。
type autoResetEvent chan struct{}

func newAutoResetEvent() autoResetEvent {
	return make(autoResetEvent, 1)
}

func (e autoResetEvent) signal() {
	select {
	case e <- struct{}{}:
	default:
	}
}

func (e autoResetEvent) wait() {
	<-e
}
