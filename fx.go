package evbus

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-evbus/config"
	"github.com/dep2p/go-evbus/internal/core/eventbus"
	"github.com/dep2p/go-evbus/internal/core/metrics"
	"github.com/dep2p/go-evbus/internal/debug/introspect"
	"github.com/dep2p/go-evbus/pkg/interfaces"
	"github.com/dep2p/go-evbus/pkg/lib/log"
)

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 配置注入
//  2. Metrics → EventBus
//  3. 自省服务（条件加载）
//  4. 用户扩展
func buildFxApp(cfg *config.Config, o *options, bus *Bus) *fx.App {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置注入
	// ════════════════════════════════════════════════════════════════════════
	modules := []fx.Option{
		fx.Supply(cfg),
	}
	if o.onError != nil {
		onError := o.onError
		modules = append(modules, fx.Provide(func() eventbus.ErrorHandler { return onError }))
	}
	if o.executor != nil {
		executor := o.executor
		modules = append(modules, fx.Provide(func() interfaces.Executor { return executor }))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 核心模块（必须加载）
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		metrics.Module,    // 指标（关闭时提供 NopReporter）
		eventbus.Module(), // 事件总线
	)

	// ════════════════════════════════════════════════════════════════════════
	// 3. 自省服务（条件加载）
	// ════════════════════════════════════════════════════════════════════════
	if cfg.Diagnostics.EnableIntrospect {
		modules = append(modules, introspect.Module())
	}

	// ════════════════════════════════════════════════════════════════════════
	// 4. 用户扩展（Fx Options）
	// ════════════════════════════════════════════════════════════════════════
	if len(o.userFxOptions) > 0 {
		modules = append(modules, o.userFxOptions...)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 5. 组件注入
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, fx.Invoke(injectComponents(bus)))

	// ════════════════════════════════════════════════════════════════════════
	// 6. Fx 配置
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		// 禁用 Fx 日志输出（避免干扰用户日志）
		// 排查依赖注入问题时把 zap.NewNop() 换成 zap.NewDevelopment() 并去掉 fx.NopLogger
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
		fx.NopLogger,
	)

	return fx.New(modules...)
}

// ════════════════════════════════════════════════════════════════════════════
// 组件注入辅助函数
// ════════════════════════════════════════════════════════════════════════════

// injectParams 门面组件注入参数
type injectParams struct {
	fx.In

	Core     *eventbus.Bus
	Registry *prometheus.Registry
	Server   *introspect.Server `optional:"true"`
}

// injectComponents 将 Fx 构造的组件注入门面
func injectComponents(bus *Bus) func(injectParams) {
	return func(p injectParams) {
		bus.core = p.Core
		bus.registry = p.Registry
		bus.introspect = p.Server
	}
}

// SetupLog 按日志配置初始化全局日志
func SetupLog(cfg config.LogConfig) error {
	return log.Setup(log.Options{
		Level:       cfg.Level,
		Format:      cfg.Format,
		AddSource:   cfg.AddSource,
		Dir:         cfg.Dir,
		MaxFileSize: cfg.MaxFileSize,
		MaxFiles:    cfg.MaxFiles,
	})
}
