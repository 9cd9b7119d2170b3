package xsync

import (
	"sync/atomic"

	"github.com/opencpi/xkit/pkg/os/xerrno"
)

// 各原语内嵌后端存储的固定大小（字节）。
//
// 存储按两族后端中较大者确定；当前构建所选后端超出预算时，
// 各 *Storage 类型的填充数组长度为负，编译失败。
const (
	opaqueMutexSize     = 32
	opaqueRWLockSize    = 96
	opaqueSemaphoreSize = 96
	opaqueSpinSize      = 8
)

// BackendFamily 返回当前构建选择的后端族："posix" 或 "windows"。
func BackendFamily() string {
	return backendFamily
}

// noCopy 嵌入原语对象，使 go vet copylocks 检查报告按值复制。
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// 生命周期状态。
const (
	stateZero uint32 = iota
	stateInitializing
	stateReady
	stateDestroyed
)

// lifecycle 原语对象的生命周期状态机：
//
//	zero/destroyed --Init--> initializing --> ready --Destroy--> destroyed
type lifecycle struct {
	state atomic.Uint32
}

// beginInit 进入初始化状态。对象已初始化（或正在初始化）时返回 EBUSY。
func (l *lifecycle) beginInit(op string) error {
	if l.state.CompareAndSwap(stateZero, stateInitializing) ||
		l.state.CompareAndSwap(stateDestroyed, stateInitializing) {
		return nil
	}
	return opError(op, xerrno.CodeBusy, "already initialized")
}

// finishInit 结束初始化。failed 为 true 时回到未初始化状态。
func (l *lifecycle) finishInit(failed bool) {
	if failed {
		l.state.Store(stateZero)
		return
	}
	l.state.Store(stateReady)
}

// check 校验对象可用。
func (l *lifecycle) check(op string) error {
	switch l.state.Load() {
	case stateReady:
		return nil
	case stateDestroyed:
		return opError(op, xerrno.CodeInvalid, "destroyed")
	default:
		return opError(op, xerrno.CodeInvalid, "not initialized")
	}
}

// destroy 将 ready 状态转为 destroyed。
func (l *lifecycle) destroy(op string) error {
	if l.state.CompareAndSwap(stateReady, stateDestroyed) {
		return nil
	}
	return l.check(op)
}
