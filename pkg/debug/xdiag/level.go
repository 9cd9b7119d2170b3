package xdiag

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Level 诊断日志级别，数值越小越严重。
type Level int

// 日志级别常量。
const (
	LevelNone   Level = 0
	LevelBad    Level = 2
	LevelWarn   Level = 4
	LevelInfo   Level = 8
	LevelDebug  Level = 10
	LevelDebug2 Level = 20

	// MaxLevel 是允许的最大级别。
	MaxLevel = LevelDebug2

	// DefaultLevel 是未配置 OCPI_LOG_LEVEL 时的阈值。
	DefaultLevel = LevelBad
)

// String 返回级别的字符串表示。非命名级别返回数字。
func (l Level) String() string {
	switch l {
	case LevelNone:
		return "NONE"
	case LevelBad:
		return "BAD"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelDebug2:
		return "DEBUG2"
	default:
		return strconv.Itoa(int(l))
	}
}

// MarshalText 实现 encoding.TextMarshaler。
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler，支持配置文件直接反序列化。
func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := ParseLevel(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// slogLevel 将诊断级别映射到 slog 输出级别。
func (l Level) slogLevel() slog.Level {
	switch {
	case l <= LevelBad:
		return slog.LevelError
	case l <= LevelWarn:
		return slog.LevelWarn
	case l <= LevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// ParseLevel 解析级别字符串。
// 支持 0~20 的数字，以及 none/bad/error/warn/warning/info/debug/debug2/trace（大小写不敏感）。
func ParseLevel(s string) (Level, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "none", "off":
		return LevelNone, nil
	case "bad", "error":
		return LevelBad, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "debug2", "trace":
		return LevelDebug2, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return DefaultLevel, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
	if n < int(LevelNone) || n > int(MaxLevel) {
		return DefaultLevel, fmt.Errorf("%w: %d out of range [0, %d]", ErrInvalidLevel, n, MaxLevel)
	}
	return Level(n), nil
}
