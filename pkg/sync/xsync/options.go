package xsync

import (
	"fmt"

	"github.com/opencpi/xkit/pkg/debug/xdiag"
)

// Option 原语构造选项。
type Option func(*options)

type options struct {
	recursive  bool
	errorCheck *bool
	observer   Observer
}

func defaultOptions() options {
	return options{}
}

// WithRecursive 选择递归互斥锁：持有者可重复加锁，需等量解锁。
// 递归型总是跟踪持有者，与构建模式无关。仅对 Mutex 有效。
func WithRecursive(recursive bool) Option {
	return func(o *options) {
		o.recursive = recursive
	}
}

// WithErrorCheck 显式选择互斥锁的严格程度。
//
// true 选择错误检查型（跟踪持有者，自锁返回 EDEADLK，非持有者解锁返回 EPERM），
// false 选择普通型。未指定时跟随构建模式：默认构建为错误检查型，
// -tags xsync_release 构建为普通型。仅对 Mutex 有效。
func WithErrorCheck(enabled bool) Option {
	return func(o *options) {
		o.errorCheck = &enabled
	}
}

// WithObserver 注入竞争观测者，nil 表示不观测。
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// applyOptions 应用选项并校验适用范围。
func applyOptions(what string, mutexOnly bool, opts []Option) (options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if !mutexOnly && (o.recursive || o.errorCheck != nil) {
		return o, fmt.Errorf("recursive/error-check options do not apply to %s", what)
	}
	return o, nil
}

// mutexKind 根据选项与构建模式确定互斥锁类型。
func (o *options) mutexKind() mutexKind {
	switch {
	case o.recursive:
		return mutexRecursive
	case o.errorCheck != nil && *o.errorCheck:
		return mutexErrorCheck
	case o.errorCheck != nil:
		return mutexNormal
	case xdiag.ChecksEnabled():
		return mutexErrorCheck
	default:
		return mutexNormal
	}
}
