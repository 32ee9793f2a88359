package eventbus

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-evbus/config"
	"github.com/dep2p/go-evbus/internal/core/metrics"
	"github.com/dep2p/go-evbus/pkg/interfaces"
)

// ============================================================================
// Backpressure 背压策略
// ============================================================================

// Backpressure 队列满时的处理策略
type Backpressure int

const (
	// BackpressureDrop 静默丢弃新消息
	BackpressureDrop Backpressure = iota
	// BackpressureBlock 暂存在总线内，由送入任务等待空位
	BackpressureBlock
)

// String 返回策略名
func (b Backpressure) String() string {
	switch b {
	case BackpressureDrop:
		return config.BackpressureDrop
	case BackpressureBlock:
		return config.BackpressureBlock
	default:
		return fmt.Sprintf("Backpressure(%d)", int(b))
	}
}

// ParseBackpressure 解析策略名
func ParseBackpressure(name string) (Backpressure, error) {
	switch strings.ToLower(name) {
	case "", config.BackpressureDrop:
		return BackpressureDrop, nil
	case config.BackpressureBlock:
		return BackpressureBlock, nil
	default:
		return 0, fmt.Errorf("unknown backpressure %q", name)
	}
}

// ============================================================================
// Option 构造选项
// ============================================================================

// Option 总线构造选项
type Option func(*settings) error

// WithCapacity 设置投递队列容量，必须 >= 1
func WithCapacity(n int) Option {
	return func(s *settings) error {
		if n < 1 {
			return ErrInvalidCapacity
		}
		s.capacity = n
		return nil
	}
}

// WithBackpressure 设置背压策略
func WithBackpressure(b Backpressure) Option {
	return func(s *settings) error {
		if b != BackpressureDrop && b != BackpressureBlock {
			return fmt.Errorf("invalid backpressure %d", int(b))
		}
		s.backpressure = b
		return nil
	}
}

// WithExecutor 使用外部执行器
//
// 外部执行器由调用方负责关闭，Close 不会关闭它。
func WithExecutor(e interfaces.Executor) Option {
	return func(s *settings) error {
		if e == nil {
			return errors.New("nil executor")
		}
		s.executor = e
		return nil
	}
}

// WithMaxInflight 设置内置执行器的并发上限，<= 0 表示不限
func WithMaxInflight(n int) Option {
	return func(s *settings) error {
		s.maxInflight = n
		return nil
	}
}

// WithReporter 设置指标 Reporter
func WithReporter(r metrics.Reporter) Option {
	return func(s *settings) error {
		if r == nil {
			return errors.New("nil reporter")
		}
		s.reporter = r
		return nil
	}
}

// WithClock 设置时钟（测试用）
func WithClock(clk clock.Clock) Option {
	return func(s *settings) error {
		if clk == nil {
			return errors.New("nil clock")
		}
		s.clock = clk
		return nil
	}
}

// WithErrorHandler 设置处理器失败回调
func WithErrorHandler(fn ErrorHandler) Option {
	return func(s *settings) error {
		s.onError = fn
		return nil
	}
}

// WithFailureLogInterval 设置失败与丢弃日志的节流间隔，<= 0 表示不节流
func WithFailureLogInterval(d time.Duration) Option {
	return func(s *settings) error {
		s.logInterval = d
		return nil
	}
}

// OptionsFromConfig 从统一配置生成构造选项
func OptionsFromConfig(cfg config.EventBusConfig) ([]Option, error) {
	policy, err := ParseBackpressure(cfg.Backpressure)
	if err != nil {
		return nil, err
	}
	return []Option{
		WithCapacity(cfg.QueueCapacity),
		WithBackpressure(policy),
		WithMaxInflight(cfg.MaxInflightTasks),
		WithFailureLogInterval(cfg.FailureLogInterval.Duration()),
	}, nil
}
