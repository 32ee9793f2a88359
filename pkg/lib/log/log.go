// Package log 提供 go-evbus 统一日志接口
//
// 基于 Go 标准库 log/slog 封装，提供简洁的日志 API。
// 直接使用，无需抽象接口。
//
// 输出格式支持 text、json 以及 console（github.com/phsym/console-slog），
// 设置 Dir 后日志写入滚动文件（github.com/alchemy/rotoslog）。
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alchemy/rotoslog"
	console "github.com/phsym/console-slog"
)

// 默认 logger
var defaultLogger = slog.Default()

// 日志级别常量（从 slog 导出，方便使用）
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// 日志格式
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatConsole = "console"
)

// consoleTimeFormat console 格式的时间布局
const consoleTimeFormat = "2006-01-02 15:04:05.000"

// SetDefault 设置默认 logger
func SetDefault(l *slog.Logger) {
	defaultLogger = l
	slog.SetDefault(l)
}

// Default 返回默认 logger
func Default() *slog.Logger {
	return slog.Default()
}

// New 创建新的 logger
func New(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewJSON 创建 JSON 格式的 logger
func NewJSON(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// SetOutput 设置日志输出目标
//
// 重新创建默认 logger，将输出重定向到指定的 Writer。
func SetOutput(w io.Writer) {
	SetOutputWithLevel(w, slog.LevelInfo)
}

// SetOutputWithLevel 同时设置日志输出目标和级别
//
// 示例：
//
//	file, _ := os.OpenFile("evbus.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
//	log.SetOutputWithLevel(file, slog.LevelDebug)
func SetOutputWithLevel(w io.Writer, level slog.Level) {
	opts := &slog.HandlerOptions{
		Level: level,
	}
	defaultLogger = slog.New(slog.NewTextHandler(w, opts))
	slog.SetDefault(defaultLogger)
}

// SetLevel 设置日志级别
//
// 重新创建默认 logger（输出到 stderr），使用指定的日志级别。
func SetLevel(level slog.Level) {
	SetOutputWithLevel(os.Stderr, level)
}

// ============================================================================
//                              Setup
// ============================================================================

// Options 日志初始化选项
type Options struct {
	// Level 日志级别：debug/info/warn/error
	Level string

	// Format 输出格式：text/json/console
	Format string

	// AddSource 是否添加源码位置
	AddSource bool

	// Dir 滚动日志目录，为空时输出到 Writer
	Dir string

	// MaxFileSize 单个日志文件最大字节数
	MaxFileSize uint64

	// MaxFiles 最多保留的滚动文件数
	MaxFiles uint64

	// Writer 输出目标，默认 os.Stderr
	Writer io.Writer
}

// Setup 按选项构建默认 logger
func Setup(opts Options) error {
	level, ok := ParseLevel(opts.Level)
	if !ok && opts.Level != "" {
		return fmt.Errorf("unknown log level %q", opts.Level)
	}

	builder, err := handlerBuilder(opts.Format, level, opts.AddSource, opts.Dir != "")
	if err != nil {
		return err
	}

	var handler slog.Handler
	if opts.Dir != "" {
		handler, err = rotoslog.NewHandler(
			rotoslog.LogHandlerBuilder(builder),
			rotoslog.LogDir(opts.Dir),
			rotoslog.MaxFileSize(opts.MaxFileSize),
			rotoslog.MaxRotatedFiles(opts.MaxFiles),
		)
		if err != nil {
			return fmt.Errorf("create rotating log handler: %w", err)
		}
	} else {
		w := opts.Writer
		if w == nil {
			w = os.Stderr
		}
		handler = builder(w, &slog.HandlerOptions{Level: level, AddSource: opts.AddSource})
	}

	SetDefault(slog.New(handler))
	return nil
}

// handlerBuilder 返回指定格式的 handler 构造函数
//
// 写入文件时 console 格式不输出颜色。
func handlerBuilder(format string, level slog.Level, addSource, noColor bool) (func(io.Writer, *slog.HandlerOptions) slog.Handler, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return func(w io.Writer, _ *slog.HandlerOptions) slog.Handler {
			return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level, AddSource: addSource})
		}, nil
	case FormatJSON:
		return func(w io.Writer, _ *slog.HandlerOptions) slog.Handler {
			return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level, AddSource: addSource})
		}, nil
	case FormatConsole:
		return func(w io.Writer, _ *slog.HandlerOptions) slog.Handler {
			return console.NewHandler(w, &console.HandlerOptions{
				Level:      level,
				AddSource:  addSource,
				NoColor:    noColor,
				TimeFormat: consoleTimeFormat,
			})
		}, nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// ParseLevel 解析日志级别名称
//
// 无法识别时返回 LevelInfo 与 false。
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// ============================================================================
//                              LazyLogger
// ============================================================================

// LazyLogger 懒加载 logger
//
// 每次日志调用时都从 slog.Default() 获取最新的 handler，
// 支持在运行时动态切换日志输出目标。
//
// 使用方式：
//
//	var myLog = log.Logger("mycomponent")  // 返回 *LazyLogger
//	myLog.Info("hello")                     // 动态使用当前的 default logger
type LazyLogger struct {
	component string
}

// Debug 输出 Debug 级别日志
func (l *LazyLogger) Debug(msg string, args ...any) {
	slog.Default().With("component", l.component).Debug(msg, args...)
}

// Info 输出 Info 级别日志
func (l *LazyLogger) Info(msg string, args ...any) {
	slog.Default().With("component", l.component).Info(msg, args...)
}

// Warn 输出 Warn 级别日志
func (l *LazyLogger) Warn(msg string, args ...any) {
	slog.Default().With("component", l.component).Warn(msg, args...)
}

// Error 输出 Error 级别日志
func (l *LazyLogger) Error(msg string, args ...any) {
	slog.Default().With("component", l.component).Error(msg, args...)
}

// DebugContext 带 context 的 Debug 日志
func (l *LazyLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	slog.Default().With("component", l.component).DebugContext(ctx, msg, args...)
}

// WarnContext 带 context 的 Warn 日志
func (l *LazyLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	slog.Default().With("component", l.component).WarnContext(ctx, msg, args...)
}

// With 添加额外的属性
func (l *LazyLogger) With(args ...any) *slog.Logger {
	return slog.Default().With("component", l.component).With(args...)
}

// Logger 返回带组件名的 LazyLogger
//
// 返回的 LazyLogger 会在每次日志调用时使用当前的 slog.Default()。
func Logger(component string) *LazyLogger {
	return &LazyLogger{component: component}
}

// ============================================================================
//                              工具函数
// ============================================================================

// TruncateID 安全截取 ID 用于日志显示
//
// 如果 ID 长度小于等于 maxLen，返回原 ID；否则返回前 maxLen 个字符。
func TruncateID(id string, maxLen int) string {
	if len(id) <= maxLen {
		return id
	}
	return id[:maxLen]
}

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, opts))
}
