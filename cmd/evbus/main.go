// Package main 提供 evbus 命令行入口
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dep2p/go-evbus"
	"github.com/dep2p/go-evbus/config"
	"github.com/dep2p/go-evbus/pkg/interfaces"
	"github.com/dep2p/go-evbus/pkg/lib/log"
	"github.com/dep2p/go-evbus/pkg/types"
)

var logger = log.Logger("evbus/cmd")

// benchEvent 压测使用的事件名
const benchEvent types.EventName = "test_event"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// run 解析全局参数并分派子命令
func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("evbus", flag.ContinueOnError)
	fs.SetOutput(out)
	showVersion := fs.Bool("version", false, "显示版本信息")
	showHelp := fs.Bool("help", false, "显示帮助信息")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		printVersion(out)
		return nil
	}
	rest := fs.Args()
	if *showHelp || len(rest) == 0 {
		printHelp(out, fs)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch rest[0] {
	case "bench":
		return runBenchCmd(ctx, rest[1:], out)
	case "serve":
		return runServeCmd(ctx, rest[1:], out)
	case "version":
		printVersion(out)
		return nil
	default:
		printHelp(out, fs)
		return fmt.Errorf("未知子命令: %s", rest[0])
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// bench 子命令
// ═══════════════════════════════════════════════════════════════════════════

// benchOptions 压测参数
type benchOptions struct {
	Events      int
	Subscribers int
	Work        int
}

// benchResult 压测结果
type benchResult struct {
	Events  int
	Publish time.Duration // 全部入队耗时
	Elapsed time.Duration // 入队到最后一条分发完成
	Stats   evbus.Stats
}

// Throughput 返回每秒分发的事件数
func (r benchResult) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Events) / r.Elapsed.Seconds()
}

func runBenchCmd(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	fs.SetOutput(out)
	events := fs.Int("events", 5000, "发布的事件数")
	subscribers := fs.Int("subscribers", 300, "订阅者数量")
	work := fs.Int("work", 1000, "每次处理器调用的计算量")
	configFile := fs.String("config", "", "配置文件路径（JSON/YAML）")
	preset := fs.String("preset", "", "预设配置 (default/realtime/lossless/minimal)，默认 lossless")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// 压测默认不丢消息，否则吞吐只反映丢弃速度
	cfg, err := loadConfig(*configFile, *preset, config.PresetLossless)
	if err != nil {
		return err
	}
	if err := evbus.SetupLog(cfg.Log); err != nil {
		return err
	}

	bus, err := evbus.New(evbus.WithConfig(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close(context.Background()) }()

	fmt.Fprintf(out, "📦 %s\n", evbus.VersionInfo())
	fmt.Fprintf(out, "队列容量 %d，背压策略 %s\n", cfg.EventBus.QueueCapacity, cfg.EventBus.Backpressure)

	result, err := runBench(ctx, bus, benchOptions{
		Events:      *events,
		Subscribers: *subscribers,
		Work:        *work,
	})
	if err != nil {
		return err
	}
	printBenchResult(out, result)
	return nil
}

// runBench 注册 CPU 密集处理器并发布事件，等待全部分发完成
//
// 前 Events-1 条使用 Publish，最后一条使用 PublishAwait；
// 队列 FIFO，最后一条完成即全部完成。
func runBench(ctx context.Context, bus *evbus.Bus, opts benchOptions) (benchResult, error) {
	if opts.Events < 1 {
		return benchResult{}, errors.New("events must be at least 1")
	}
	if opts.Subscribers < 0 || opts.Work < 0 {
		return benchResult{}, errors.New("subscribers and work must not be negative")
	}

	handler := interfaces.Func(cpuTask(opts.Work))
	for i := 0; i < opts.Subscribers; i++ {
		if _, err := bus.SubscribeAwait(ctx, benchEvent, handler); err != nil {
			return benchResult{}, err
		}
	}

	args := types.Args{map[string]string{"test": "data"}}
	start := time.Now()
	for i := 0; i < opts.Events-1; i++ {
		if err := bus.Publish(benchEvent, args); err != nil {
			return benchResult{}, err
		}
	}
	published := time.Since(start)

	if err := bus.PublishAwait(ctx, benchEvent, args); err != nil {
		return benchResult{}, fmt.Errorf("wait for drain: %w", err)
	}
	elapsed := time.Since(start)

	logger.Debug("压测完成", "events", opts.Events, "elapsed", elapsed)
	return benchResult{
		Events:  opts.Events,
		Publish: published,
		Elapsed: elapsed,
		Stats:   bus.Stats(),
	}, nil
}

// cpuTask 返回模拟计算负载的处理器
func cpuTask(work int) func(types.Args) {
	return func(types.Args) {
		sum := 0
		for i := 0; i < work; i++ {
			sum += i * i
		}
		_ = sum
	}
}

func printBenchResult(out io.Writer, r benchResult) {
	fmt.Fprintf(out, "EventBus: %d events in %.4f sec (%.2f events/sec)\n",
		r.Events, r.Elapsed.Seconds(), r.Throughput())
	fmt.Fprintf(out, "  入队耗时:     %s\n", r.Publish)
	fmt.Fprintf(out, "  已发布:       %d\n", r.Stats.Published)
	fmt.Fprintf(out, "  已丢弃:       %d\n", r.Stats.Dropped)
	fmt.Fprintf(out, "  已分发:       %d\n", r.Stats.Dispatched)
	fmt.Fprintf(out, "  处理器调用:   %d\n", r.Stats.Invocations)
	fmt.Fprintf(out, "  处理器失败:   %d\n", r.Stats.Failures)
	fmt.Fprintf(out, "  平均分发耗时: %s\n", r.Stats.AvgDispatch)
}

// ═══════════════════════════════════════════════════════════════════════════
// serve 子命令
// ═══════════════════════════════════════════════════════════════════════════

func runServeCmd(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(out)
	configFile := fs.String("config", "", "配置文件路径（JSON/YAML）")
	preset := fs.String("preset", "", "预设配置 (default/realtime/lossless/minimal)")
	addr := fs.String("introspect", "", "自省服务地址（默认 127.0.0.1:6061）")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configFile, *preset, config.PresetDefault)
	if err != nil {
		return err
	}
	cfg.Diagnostics = cfg.Diagnostics.WithIntrospect(*addr)
	if err := evbus.SetupLog(cfg.Log); err != nil {
		return err
	}

	return serve(ctx, cfg, out)
}

// serve 启动带自省服务的总线，直到 ctx 结束
func serve(ctx context.Context, cfg *config.Config, out io.Writer) error {
	bus, err := evbus.Open(ctx, evbus.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}

	fmt.Fprintf(out, "📦 %s\n", evbus.VersionInfo())
	fmt.Fprintf(out, "自省服务: http://%s/debug/introspect\n", bus.IntrospectAddr())
	fmt.Fprintln(out, "事件总线已启动，按 Ctrl+C 退出")
	logger.Info("事件总线服务运行中", "introspect", bus.IntrospectAddr())

	<-ctx.Done()

	fmt.Fprintln(out, "正在关闭事件总线...")
	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.EventBus.CloseTimeout.Duration()+time.Second)
	defer cancel()
	return bus.Close(closeCtx)
}

// ═══════════════════════════════════════════════════════════════════════════
// 信息显示
// ═══════════════════════════════════════════════════════════════════════════

// printVersion 打印版本信息
func printVersion(out io.Writer) {
	fmt.Fprintf(out, "evbus %s\n", evbus.Version)
	if evbus.GitCommit != "" {
		fmt.Fprintf(out, "  commit: %s\n", evbus.GitCommit)
	}
	if evbus.BuildDate != "" {
		fmt.Fprintf(out, "  built:  %s\n", evbus.BuildDate)
	}
}

// printHelp 打印帮助信息
func printHelp(out io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(out, "evbus - 进程内异步发布/订阅事件总线")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "用法:")
	fmt.Fprintln(out, "  evbus [选项] <子命令> [参数]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "选项:")
	fs.PrintDefaults()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "子命令:")
	fmt.Fprintln(out, "  bench   吞吐压测：N 个 CPU 密集订阅者，发布 M 条事件")
	fmt.Fprintln(out, "          -events 5000 -subscribers 300 -work 1000 [-config f] [-preset p]")
	fmt.Fprintln(out, "  serve   启动带自省服务的总线，直到收到 SIGINT/SIGTERM")
	fmt.Fprintln(out, "          [-config f] [-preset p] [-introspect addr]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "环境变量:")
	fmt.Fprintln(out, "  EVBUS_PRESET             预设名称")
	fmt.Fprintln(out, "  EVBUS_QUEUE_CAPACITY     投递队列容量")
	fmt.Fprintln(out, "  EVBUS_BACKPRESSURE       队列满时策略 (drop/block)")
	fmt.Fprintln(out, "  EVBUS_LOG_LEVEL          日志级别 (debug/info/warn/error)")
	fmt.Fprintln(out, "  EVBUS_LOG_FORMAT         日志格式 (text/json/console)")
	fmt.Fprintln(out, "  EVBUS_LOG_DIR            滚动日志目录")
	fmt.Fprintln(out, "  EVBUS_INTROSPECT_ADDR    自省服务地址（设置即启用）")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "预设配置:")
	fmt.Fprintln(out, "  default   - 1024 容量，队列满时丢弃")
	fmt.Fprintln(out, "  realtime  - 小队列，快速关闭")
	fmt.Fprintln(out, "  lossless  - 大队列，队列满时暂存不丢弃")
	fmt.Fprintln(out, "  minimal   - 最小配置，关闭指标")
}
