package xsync

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// rwFamily 两族读写锁后端的公共方法集。
type rwFamily interface {
	init()
	rlock()
	tryRLock() bool
	runlock() bool
	lock()
	tryLock() bool
	unlock() bool
	numReaders() int32
	writerHeld() bool
}

func rwFamilies() map[string]func() rwFamily {
	return map[string]func() rwFamily{
		"cond": func() rwFamily {
			l := &condRWLock{}
			l.init()
			return l
		},
		"event": func() rwFamily {
			l := &eventRWLock{}
			l.init()
			return l
		},
	}
}

// waitBlocked 断言 done 在 d 内未关闭。
func waitBlocked(t *testing.T, done <-chan struct{}, d time.Duration) {
	t.Helper()
	select {
	case <-done:
		t.Fatal("operation returned while it should block")
	case <-time.After(d):
	}
}

// waitDone 断言 done 在超时前关闭。
func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("operation did not return in time")
	}
}

// =============================================================================
// 后端族
// =============================================================================

func TestRWBackend_ReadersCoexist(t *testing.T) {
	for name, newLock := range rwFamilies() {
		t.Run(name, func(t *testing.T) {
			l := newLock()
			for range 3 {
				l.rlock()
			}
			assert.EqualValues(t, 3, l.numReaders())
			assert.False(t, l.tryLock(), "writer must not enter with readers")
			assert.False(t, l.writerHeld())

			for range 3 {
				require.True(t, l.runlock())
			}
			assert.False(t, l.runlock(), "no readers left")
			assert.True(t, l.tryLock())
			assert.True(t, l.writerHeld())
			assert.True(t, l.unlock())
			assert.False(t, l.unlock(), "write lock already released")
		})
	}
}

func TestRWBackend_WriterExcludesReaders(t *testing.T) {
	for name, newLock := range rwFamilies() {
		t.Run(name, func(t *testing.T) {
			l := newLock()
			l.lock()
			assert.False(t, l.tryRLock())
			assert.False(t, l.tryLock())

			done := make(chan struct{})
			go func() {
				l.rlock()
				close(done)
			}()
			waitBlocked(t, done, 50*time.Millisecond)

			require.True(t, l.unlock())
			waitDone(t, done)
			assert.EqualValues(t, 1, l.numReaders())
			require.True(t, l.runlock())
		})
	}
}

// 读者持有期间写者阻塞，读者释放后写者在有限时间内返回。
func TestRWBackend_WriterWaitsForReaders(t *testing.T) {
	for name, newLock := range rwFamilies() {
		t.Run(name, func(t *testing.T) {
			l := newLock()
			l.rlock()
			l.rlock()

			done := make(chan struct{})
			go func() {
				l.lock()
				close(done)
			}()
			waitBlocked(t, done, 50*time.Millisecond)

			require.True(t, l.runlock())
			waitBlocked(t, done, 20*time.Millisecond)

			require.True(t, l.runlock())
			waitDone(t, done)
			assert.True(t, l.writerHeld())
			require.True(t, l.unlock())
		})
	}
}

func TestRWBackend_Stress(t *testing.T) {
	for name, newLock := range rwFamilies() {
		t.Run(name, func(t *testing.T) {
			l := newLock()
			const writers, readers, iterations = 4, 8, 200

			var (
				value       int
				activeRead  atomic.Int32
				activeWrite atomic.Int32
				wg          sync.WaitGroup
			)
			for range writers {
				wg.Go(func() {
					for range iterations {
						l.lock()
						assert.EqualValues(t, 1, activeWrite.Add(1))
						assert.Zero(t, activeRead.Load())
						value++
						activeWrite.Add(-1)
						assert.True(t, l.unlock())
					}
				})
			}
			for range readers {
				wg.Go(func() {
					for range iterations {
						l.rlock()
						activeRead.Add(1)
						assert.Zero(t, activeWrite.Load())
						_ = value
						activeRead.Add(-1)
						assert.True(t, l.runlock())
					}
				})
			}
			wg.Wait()
			assert.Equal(t, writers*iterations, value)
			assert.Zero(t, l.numReaders())
			assert.False(t, l.writerHeld())
		})
	}
}

func TestManualResetEvent(t *testing.T) {
	var e manualResetEvent
	e.signal() // 从未 reset 时无效果

	ch := e.reset()
	select {
	case <-ch:
		t.Fatal("event should not be set after reset")
	default:
	}
	assert.Equal(t, ch, e.reset(), "reset while unset keeps the channel")

	e.signal()
	e.signal()
	<-ch

	next := e.reset()
	assert.NotEqual(t, ch, next, "reset after signal arms a fresh channel")
	select {
	case <-next:
		t.Fatal("fresh channel must not be closed")
	default:
	}
}

func TestAutoResetEvent(t *testing.T) {
	e := newAutoResetEvent()
	e.signal()
	e.signal() // 不累加
	e.wait()

	select {
	case <-e:
		t.Fatal("second signal must not accumulate")
	default:
	}
}

// =============================================================================
// RWLock 包装
// =============================================================================

func TestRWLock_Lifecycle(t *testing.T) {
	var l RWLock
	assert.ErrorIs(t, l.RLock(), ErrInvalid)
	_, err := l.TryLock()
	assert.ErrorIs(t, err, ErrInvalid)

	require.NoError(t, l.Init())
	assert.ErrorIs(t, l.Init(), ErrBusy)

	require.NoError(t, l.RLock())
	expectViolation(t, ErrDestroyHeld, l.Destroy)
	require.NoError(t, l.RUnlock())

	require.NoError(t, l.Lock())
	expectViolation(t, ErrDestroyHeld, l.Destroy)
	require.NoError(t, l.Unlock())

	require.NoError(t, l.Destroy())
	assert.ErrorIs(t, l.Unlock(), ErrInvalid)
}

func TestRWLock_InvalidOptions(t *testing.T) {
	_, err := NewRWLock(WithRecursive(true))
	assert.ErrorIs(t, err, ErrInvalid)

	var l RWLock
	assert.ErrorIs(t, l.Init(WithErrorCheck(true)), ErrInvalid)
	require.NoError(t, l.Init(), "failed Init leaves the object initializable")
}

func TestRWLock_UnmatchedUnlock(t *testing.T) {
	l, err := NewRWLock()
	require.NoError(t, err)

	assert.ErrorIs(t, l.RUnlock(), ErrNotOwner)
	assert.ErrorIs(t, l.Unlock(), ErrNotOwner)
	assert.Zero(t, l.Readers())
}

func TestRWLock_TryVariants(t *testing.T) {
	l, err := NewRWLock()
	require.NoError(t, err)

	ok, err := l.TryRLock()
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.TryLock()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.RUnlock())

	ok, err = l.TryLock()
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.TryRLock()
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, l.Unlock())
}

func TestRWLock_WriterWaitsForReaders(t *testing.T) {
	l, err := NewRWLock()
	require.NoError(t, err)
	require.NoError(t, l.RLock())

	done := make(chan struct{})
	go func() {
		assert.NoError(t, l.Lock())
		close(done)
	}()
	waitBlocked(t, done, 50*time.Millisecond)
	assert.EqualValues(t, 1, l.Readers())

	require.NoError(t, l.RUnlock())
	waitDone(t, done)
	require.NoError(t, l.Unlock())
	require.NoError(t, l.Destroy())
}

func TestRWLock_ObserverOnContention(t *testing.T) {
	ctrl := gomock.NewController(t)
	obs := NewMockObserver(ctrl)
	obs.EXPECT().Contended(KindRWLockWrite, gomock.Any()).Times(1)
	obs.EXPECT().Contended(KindRWLockRead, gomock.Any()).Times(1)

	l, err := NewRWLock(WithObserver(obs))
	require.NoError(t, err)

	require.NoError(t, l.RLock())
	done := make(chan struct{})
	go func() {
		assert.NoError(t, l.Lock())
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, l.RUnlock())
	waitDone(t, done)

	done = make(chan struct{})
	go func() {
		assert.NoError(t, l.RLock())
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, l.Unlock())
	waitDone(t, done)
	require.NoError(t, l.RUnlock())
}
