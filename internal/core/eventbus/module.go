package eventbus

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-evbus/config"
	"github.com/dep2p/go-evbus/internal/core/metrics"
	"github.com/dep2p/go-evbus/pkg/interfaces"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Params 模块输入参数
type Params struct {
	fx.In

	UnifiedCfg   *config.Config      `optional:"true"`
	Reporter     metrics.Reporter    `optional:"true"`
	ErrorHandler ErrorHandler        `optional:"true"`
	Executor     interfaces.Executor `optional:"true"`
}

// Result Fx 模块输出结果
type Result struct {
	fx.Out

	Bus      *Bus
	EventBus interfaces.EventBus
	Queue    metrics.QueueObserver
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("eventbus",
		fx.Provide(ProvideEventBus),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideEventBus 提供 EventBus 实例
func ProvideEventBus(p Params) (Result, error) {
	cfg := config.DefaultEventBusConfig()
	if p.UnifiedCfg != nil {
		cfg = p.UnifiedCfg.EventBus
	}

	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return Result{}, err
	}
	if p.Reporter != nil {
		opts = append(opts, WithReporter(p.Reporter))
	}
	if p.ErrorHandler != nil {
		opts = append(opts, WithErrorHandler(p.ErrorHandler))
	}
	if p.Executor != nil {
		opts = append(opts, WithExecutor(p.Executor))
	}

	bus, err := NewBus(opts...)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Bus:      bus,
		EventBus: bus,
		Queue:    bus,
	}, nil
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In

	LC         fx.Lifecycle
	Bus        *Bus
	UnifiedCfg *config.Config `optional:"true"`
}

// registerLifecycle 注册生命周期
//
// 分发循环在构造时已启动；停止时在 CloseTimeout 内排空队列。
func registerLifecycle(input lifecycleInput) {
	timeout := config.DefaultEventBusConfig().CloseTimeout.Duration()
	if input.UnifiedCfg != nil {
		timeout = input.UnifiedCfg.EventBus.CloseTimeout.Duration()
	}

	input.LC.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			return input.Bus.Close(ctx)
		},
	})
}

// ============================================================================
// 模块元信息
// ============================================================================

const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "eventbus"
	// Description 模块描述
	Description = "事件总线模块，提供按名称的异步发布/订阅与单循环 FIFO 分发"
)
