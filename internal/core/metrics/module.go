package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"

	"github.com/dep2p/go-evbus/config"
)

// Params Metrics 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Result Metrics 输出
type Result struct {
	fx.Out

	Reporter Reporter
	Registry *prometheus.Registry
	Snapshot *SnapshotCollector
}

// Module 是 metrics 的 Fx 模块
var Module = fx.Module("metrics",
	fx.Provide(ProvideMetrics),
	fx.Invoke(registerCollector),
	fx.Invoke(registerSnapshotLifecycle),
)

// ProvideMetrics 根据统一配置提供 Reporter 与指标注册表
//
// 指标关闭时提供 NopReporter，注册表为空。
func ProvideMetrics(p Params) Result {
	cfg := config.DefaultMetricsConfig()
	if p.UnifiedCfg != nil {
		cfg = p.UnifiedCfg.Metrics
	}

	var reporter Reporter = NopReporter{}
	if cfg.Enabled {
		reporter = NewCounter()
	}

	return Result{
		Reporter: reporter,
		Registry: prometheus.NewRegistry(),
		Snapshot: NewSnapshotCollector(reporter, nil, nil),
	}
}

// collectorInput 注册 Collector 的输入
type collectorInput struct {
	fx.In

	Registry   *prometheus.Registry
	Reporter   Reporter
	Queue      QueueObserver  `optional:"true"`
	Snapshot   *SnapshotCollector
	UnifiedCfg *config.Config `optional:"true"`
}

// registerCollector 把总线指标与运行时指标注册到注册表
func registerCollector(in collectorInput) error {
	cfg := config.DefaultMetricsConfig()
	if in.UnifiedCfg != nil {
		cfg = in.UnifiedCfg.Metrics
	}
	if in.Queue != nil {
		in.Snapshot.SetQueue(in.Queue)
	}
	if !cfg.Enabled {
		return nil
	}

	if err := in.Registry.Register(NewCollector(in.Reporter, in.Queue, cfg.Namespace)); err != nil {
		return err
	}
	if err := in.Registry.Register(collectors.NewGoCollector()); err != nil {
		return err
	}
	return in.Registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// snapshotInput 快照生命周期输入
type snapshotInput struct {
	fx.In

	LC         fx.Lifecycle
	Snapshot   *SnapshotCollector
	UnifiedCfg *config.Config `optional:"true"`
}

// registerSnapshotLifecycle 配置了快照间隔时随应用启停快照日志
func registerSnapshotLifecycle(in snapshotInput) {
	if in.UnifiedCfg == nil || !in.UnifiedCfg.Metrics.Enabled {
		return
	}
	interval := in.UnifiedCfg.Metrics.SnapshotInterval.Duration()
	if interval <= 0 {
		return
	}

	in.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			in.Snapshot.Start(interval)
			return nil
		},
		OnStop: func(context.Context) error {
			in.Snapshot.Stop()
			return nil
		},
	})
}
