package config

import (
	"fmt"
	"strings"
)

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别
	// 可选值: "debug", "info", "warn", "error"
	Level string `json:"level" yaml:"level"`

	// Format 输出格式
	// 可选值: "text", "json", "console"
	Format string `json:"format" yaml:"format"`

	// AddSource 是否输出源码位置
	AddSource bool `json:"add_source" yaml:"add_source"`

	// Dir 滚动日志目录，为空时输出到 stderr
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// MaxFileSize 单个日志文件最大字节数
	MaxFileSize uint64 `json:"max_file_size" yaml:"max_file_size"`

	// MaxFiles 最多保留的滚动文件数
	MaxFiles uint64 `json:"max_files" yaml:"max_files"`
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "text",
		AddSource:   false,
		Dir:         "",
		MaxFileSize: 10 << 20, // 10 MB
		MaxFiles:    5,
	}
}

// Validate 验证日志配置
func (c LogConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Level)
	}

	switch strings.ToLower(c.Format) {
	case "text", "json", "console":
	default:
		return fmt.Errorf("invalid log format %q", c.Format)
	}

	if c.Dir != "" && c.MaxFileSize == 0 {
		return fmt.Errorf("max file size must be positive when log dir is set")
	}
	return nil
}

// WithLevel 设置日志级别
func (c LogConfig) WithLevel(level string) LogConfig {
	c.Level = level
	return c
}

// WithFormat 设置输出格式
func (c LogConfig) WithFormat(format string) LogConfig {
	c.Format = format
	return c
}

// WithDir 设置滚动日志目录
func (c LogConfig) WithDir(dir string) LogConfig {
	c.Dir = dir
	return c
}
