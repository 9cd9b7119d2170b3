package xdiag

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ConfigFormat 配置文件格式。
type ConfigFormat string

// 支持的配置文件格式。
const (
	FormatYAML ConfigFormat = "yaml"
	FormatJSON ConfigFormat = "json"
)

// configSection 诊断配置在文件中的顶层键。
const configSection = "log"

// 轮转参数默认值
const (
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 30
)

// Config 诊断输出配置，对应配置文件中的 log 段：
//
//	log:
//	  level: debug        # 或 0~20 的数字
//	  format: json        # text（默认）或 json
//	  file: /var/log/ocpi/diag.log
//	  max_size_mb: 100
//	  max_backups: 5
//	  max_age_days: 30
//	  compress: true
type Config struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}

// validate 校验并归一化配置。
func (c *Config) validate() error {
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Format != "text" && c.Format != "json" {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Format)
	}
	if c.Level != "" {
		if _, err := ParseLevel(c.Level); err != nil {
			return err
		}
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = DefaultMaxSizeMB
	}
	if c.MaxBackups < 0 {
		c.MaxBackups = 0
	}
	if c.MaxAgeDays < 0 {
		c.MaxAgeDays = 0
	}
	return nil
}

// LoadConfig 从文件加载诊断配置，按扩展名识别 YAML（.yaml/.yml）或 JSON（.json）。
func LoadConfig(path string) (*Config, error) {
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	return LoadConfigBytes(data, format)
}

// LoadConfigBytes 从字节数据加载诊断配置。空数据得到默认配置。
func LoadConfigBytes(data []byte, format ConfigFormat) (*Config, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedConfig, format)
	}

	k := koanf.New(".")
	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf(configSection, cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Apply 使配置生效：重建输出 logger（File 非空时启用 lumberjack 轮转），
// Level 非空时更新阈值。旧的轮转文件会被关闭。
func Apply(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	c := *cfg
	if err := c.validate(); err != nil {
		return err
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer
	)
	if c.File != "" {
		lj := &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    c.MaxSizeMB,
			MaxBackups: c.MaxBackups,
			MaxAge:     c.MaxAgeDays,
			Compress:   c.Compress,
		}
		w, closer = lj, lj
	}
	if err := swapLogger(newHandlerLogger(w, c.Format), closer); err != nil {
		return fmt.Errorf("xdiag: close previous log output: %w", err)
	}

	if c.Level != "" {
		// validate 已确认可解析
		level, _ := ParseLevel(c.Level)
		SetLevel(level)
	}
	return nil
}

// detectFormat 根据扩展名识别配置格式。
func detectFormat(path string) (ConfigFormat, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedConfig, ext)
	}
}
