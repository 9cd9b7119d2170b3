package xdiag

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc 配置重载回调。err 非 nil 表示加载或应用失败，此时 cfg 为 nil。
type ReloadFunc func(cfg *Config, err error)

// WatchOption Watcher 配置选项。
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
	onReload ReloadFunc
}

func defaultWatchOptions() *watchOptions {
	return &watchOptions{debounce: 100 * time.Millisecond}
}

// WithDebounce 设置防抖时间，窗口内的多次变更只触发一次重载。默认 100ms。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithOnReload 设置重载回调。回调在 Watcher 的后台 goroutine 中同步执行。
func WithOnReload(fn ReloadFunc) WatchOption {
	return func(o *watchOptions) {
		o.onReload = fn
	}
}

// Watcher 监视诊断配置文件，变更时重新加载并 Apply。
type Watcher struct {
	path     string
	fw       *fsnotify.Watcher
	opts     *watchOptions
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// WatchConfig 开始监视 path 并在后台运行，调用方负责 Stop。
//
// 监视的是文件所在目录而非文件本身：编辑器保存时常先删除再创建，
// 直接监视文件会丢失后续事件。
func WatchConfig(path string, opts ...WatchOption) (*Watcher, error) {
	if _, err := detectFormat(path); err != nil {
		return nil, err
	}
	o := defaultWatchOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xdiag: create watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("xdiag: watch directory %s: %w", dir, err), fw.Close())
	}

	w := &Watcher{
		path: filepath.Clean(path),
		fw:   fw,
		opts: o,
		done: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Stop 停止监视并等待后台 goroutine 退出。重复调用返回 ErrWatcherStopped。
func (w *Watcher) Stop() error {
	err := ErrWatcherStopped
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path ||
				!ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.opts.debounce)
			} else {
				timer.Reset(w.opts.debounce)
			}
			timerC = timer.C

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.notify(nil, fmt.Errorf("xdiag: watch %s: %w", w.path, err))

		case <-timerC:
			timerC = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadConfig(w.path)
	if err == nil {
		err = Apply(cfg)
	}
	if err != nil {
		LogPrint(LevelWarn, "xdiag: reload %s failed: %v", w.path, err)
		w.notify(nil, err)
		return
	}
	LogPrint(LevelInfo, "xdiag: reloaded %s", w.path)
	w.notify(cfg, nil)
}

func (w *Watcher) notify(cfg *Config, err error) {
	if w.opts.onReload != nil {
		w.opts.onReload(cfg, err)
	}
}
