// Package metrics 提供事件总线指标收集
//
// metrics 模块统计投递队列与分发循环的运行情况：
//   - 全局计数（入队/丢弃/分发/处理器调用/失败/panic）
//   - 按事件名分组的计数与当前订阅数
//   - 最近 60 秒的发布速率（滑动窗口，时钟可注入）
//   - Prometheus 导出与周期性快照日志
//
// # 快速开始
//
//	counter := metrics.NewCounter()
//	bus, _ := eventbus.NewBus(eventbus.WithReporter(counter))
//
//	stats := counter.Snapshot()
//	fmt.Printf("published=%d dropped=%d\n", stats.Published, stats.Dropped)
//
// # Prometheus
//
// Collector 在每次抓取时读取一次 Reporter 快照：
//
//	reg := prometheus.NewRegistry()
//	reg.MustRegister(metrics.NewCollector(counter, bus, "evbus"))
//
// # Fx 模块
//
//	app := fx.New(
//	    metrics.Module,
//	    eventbus.Module(),
//	)
//
// 模块提供 Reporter、*prometheus.Registry 与 *SnapshotCollector。
// Metrics.Enabled 为 false 时提供 NopReporter。
//
// # 并发安全
//
// Counter 的所有方法都可以被发布方与分发循环并发调用。
package metrics
