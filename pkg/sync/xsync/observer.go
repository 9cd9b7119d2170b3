package xsync

import "time"

// Kind 标识报告竞争的原语类别。
type Kind uint8

// 原语类别。
const (
	KindMutex Kind = iota + 1
	KindRWLockRead
	KindRWLockWrite
	KindSemaphore
	KindSpin
)

// String 返回类别名，用作指标属性值。
func (k Kind) String() string {
	switch k {
	case KindMutex:
		return "mutex"
	case KindRWLockRead:
		return "rwlock.read"
	case KindRWLockWrite:
		return "rwlock.write"
	case KindSemaphore:
		return "semaphore"
	case KindSpin:
		return "spin"
	default:
		return "unknown"
	}
}

// Observer 接收竞争事件。
//
// Contended 只在阻塞路径上调用（非阻塞尝试已失败），wait 为从进入阻塞
// 路径到获取成功的耗时。调用发生在获取之后、返回调用方之前，实现必须
// 快速返回，且不得操作触发它的原语。
type Observer interface {
	Contended(kind Kind, wait time.Duration)
}

// contention 记录一次阻塞路径的起点。
type contention struct {
	obs   Observer
	start time.Time
}

// beginContention 在 obs 为 nil 时不读取时钟。
func beginContention(obs Observer) contention {
	if obs == nil {
		return contention{}
	}
	return contention{obs: obs, start: time.Now()}
}

func (c contention) done(kind Kind) {
	if c.obs != nil {
		c.obs.Contended(kind, time.Since(c.start))
	}
}
