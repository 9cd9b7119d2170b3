package xdiag

import "errors"

var (
	// ErrInvalidLevel 表示级别字符串无法解析或超出范围。
	ErrInvalidLevel = errors.New("xdiag: invalid log level")

	// ErrInvalidFormat 表示不支持的日志输出格式。
	ErrInvalidFormat = errors.New("xdiag: invalid log format")

	// ErrUnsupportedConfig 表示不支持的配置文件格式。
	ErrUnsupportedConfig = errors.New("xdiag: unsupported config format")

	// ErrLoadConfig 表示配置文件读取或解析失败。
	ErrLoadConfig = errors.New("xdiag: failed to load config")

	// ErrWatcherStopped 表示 Watcher 已停止。
	ErrWatcherStopped = errors.New("xdiag: watcher stopped")
)
