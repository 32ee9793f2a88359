package evbus

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-evbus/config"
	"github.com/dep2p/go-evbus/internal/core/eventbus"
	"github.com/dep2p/go-evbus/pkg/interfaces"
)

// Option 用户配置选项函数
type Option func(*options) error

// HandlerError 处理器调用失败的描述
type HandlerError = eventbus.HandlerError

// options 内部选项结构
type options struct {
	// 基础配置（WithConfig / WithConfigFile）
	base *config.Config

	// 预设名称
	preset string

	// 按顺序应用到配置上的覆盖
	overrides []func(*config.Config)

	// 是否按配置初始化全局日志
	setupLog bool

	// 处理器失败回调
	onError eventbus.ErrorHandler

	// 外部执行器
	executor interfaces.Executor

	// 用户自定义 Fx 选项
	userFxOptions []fx.Option
}

// newOptions 创建默认选项
func newOptions() *options {
	return &options{}
}

// toConfig 合成最终配置
//
// 顺序：基础配置 → 预设 → 逐项覆盖 → 校验。
func (o *options) toConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if o.base != nil {
		cfg = config.CloneConfig(o.base)
	}

	if err := config.ApplyPreset(cfg, o.preset); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	for _, override := range o.overrides {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := config.ValidateCompatibility(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              配置来源
// ════════════════════════════════════════════════════════════════════════════

// WithConfig 使用完整配置作为基础
//
// 配置会被复制，之后对 cfg 的修改不影响总线。
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("nil config")
		}
		o.base = cfg
		return nil
	}
}

// WithConfigFile 从 JSON/YAML 文件加载基础配置
func WithConfigFile(path string) Option {
	return func(o *options) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		o.base = cfg
		return nil
	}
}

// WithPreset 应用预设配置
//
// 可选值见 PresetRealtime、PresetLossless、PresetMinimal。
func WithPreset(name string) Option {
	return func(o *options) error {
		switch name {
		case PresetDefault, PresetRealtime, PresetLossless, PresetMinimal:
		default:
			return fmt.Errorf("unknown preset: %s", name)
		}
		o.preset = name
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              事件总线
// ════════════════════════════════════════════════════════════════════════════

// WithQueueCapacity 设置投递队列容量
func WithQueueCapacity(capacity int) Option {
	return func(o *options) error {
		if capacity < 1 {
			return fmt.Errorf("queue capacity must be at least 1, got %d", capacity)
		}
		o.overrides = append(o.overrides, func(c *config.Config) {
			c.EventBus = c.EventBus.WithQueueCapacity(capacity)
		})
		return nil
	}
}

// WithBackpressure 设置队列满时的策略："drop" 或 "block"
func WithBackpressure(policy string) Option {
	return func(o *options) error {
		b, err := eventbus.ParseBackpressure(policy)
		if err != nil {
			return err
		}
		o.overrides = append(o.overrides, func(c *config.Config) {
			c.EventBus = c.EventBus.WithBackpressure(b.String())
		})
		return nil
	}
}

// WithMaxInflight 设置内置执行器的并发上限，0 表示不限
func WithMaxInflight(n int) Option {
	return func(o *options) error {
		o.overrides = append(o.overrides, func(c *config.Config) {
			c.EventBus = c.EventBus.WithMaxInflightTasks(n)
		})
		return nil
	}
}

// WithCloseTimeout 设置关闭时排空队列的最长时间
func WithCloseTimeout(d time.Duration) Option {
	return func(o *options) error {
		o.overrides = append(o.overrides, func(c *config.Config) {
			c.EventBus = c.EventBus.WithCloseTimeout(d)
		})
		return nil
	}
}

// WithErrorHandler 设置处理器失败回调
//
// 回调在分发循环中同步执行，不应阻塞。
func WithErrorHandler(fn func(*HandlerError)) Option {
	return func(o *options) error {
		o.onError = fn
		return nil
	}
}

// WithExecutor 使用外部执行器承载分发循环与订阅任务
//
// 外部执行器由调用方负责关闭。
func WithExecutor(e interfaces.Executor) Option {
	return func(o *options) error {
		if e == nil {
			return errors.New("nil executor")
		}
		o.executor = e
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              可观测性
// ════════════════════════════════════════════════════════════════════════════

// WithMetrics 启用或禁用指标
func WithMetrics(enabled bool) Option {
	return func(o *options) error {
		o.overrides = append(o.overrides, func(c *config.Config) {
			c.Metrics = c.Metrics.WithEnabled(enabled)
			if !enabled {
				c.Metrics.SnapshotInterval = 0
			}
		})
		return nil
	}
}

// WithIntrospect 启用本地自省服务
//
// addr 为空时使用默认地址 127.0.0.1:6061。
func WithIntrospect(addr string) Option {
	return func(o *options) error {
		o.overrides = append(o.overrides, func(c *config.Config) {
			c.Diagnostics = c.Diagnostics.WithIntrospect(addr)
		})
		return nil
	}
}

// WithLogLevel 设置日志级别并按配置初始化全局日志
func WithLogLevel(level string) Option {
	return func(o *options) error {
		o.overrides = append(o.overrides, func(c *config.Config) {
			c.Log = c.Log.WithLevel(level)
		})
		o.setupLog = true
		return nil
	}
}

// WithLogFormat 设置日志格式并按配置初始化全局日志
func WithLogFormat(format string) Option {
	return func(o *options) error {
		o.overrides = append(o.overrides, func(c *config.Config) {
			c.Log = c.Log.WithFormat(format)
		})
		o.setupLog = true
		return nil
	}
}

// WithLogDir 将日志写入滚动文件目录
func WithLogDir(dir string) Option {
	return func(o *options) error {
		o.overrides = append(o.overrides, func(c *config.Config) {
			c.Log = c.Log.WithDir(dir)
		})
		o.setupLog = true
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              扩展
// ════════════════════════════════════════════════════════════════════════════

// WithFxOption 追加自定义 Fx 选项
func WithFxOption(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}
