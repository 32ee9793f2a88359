package evbus

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-evbus/config"
	"github.com/dep2p/go-evbus/internal/core/eventbus"
	"github.com/dep2p/go-evbus/internal/core/metrics"
	"github.com/dep2p/go-evbus/internal/debug/introspect"
	"github.com/dep2p/go-evbus/pkg/interfaces"
	"github.com/dep2p/go-evbus/pkg/lib/log"
	"github.com/dep2p/go-evbus/pkg/types"
)

var logger = log.Logger("evbus")

// startTimeout Fx App 启动超时
const startTimeout = 30 * time.Second

// ════════════════════════════════════════════════════════════════════════════
//                              状态
// ════════════════════════════════════════════════════════════════════════════

// State 门面生命周期状态
type State int32

const (
	// StateIdle 已创建，辅助服务未启动
	StateIdle State = iota
	// StateRunning 辅助服务已启动
	StateRunning
	// StateStopping 正在关闭
	StateStopping
	// StateClosed 已关闭
	StateClosed
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              Bus
// ════════════════════════════════════════════════════════════════════════════

// Bus 事件总线门面
//
// New 返回时分发循环已经运行，可以立即订阅和发布；
// Start 启动自省服务、快照日志等辅助服务。
type Bus struct {
	config *config.Config
	app    *fx.App

	// 由 Fx 注入
	core       *eventbus.Bus
	registry   *prometheus.Registry
	introspect *introspect.Server

	state atomic.Int32

	mu      sync.Mutex
	started bool
	closed  bool
}

var _ interfaces.EventBus = (*Bus)(nil)

// New 创建事件总线
//
// 示例：
//
//	bus, err := evbus.New(
//	    evbus.WithPreset(evbus.PresetLossless),
//	    evbus.WithQueueCapacity(4096),
//	)
func New(opts ...Option) (*Bus, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	cfg, err := o.toConfig()
	if err != nil {
		return nil, err
	}

	// 日志配置（必须在最早期应用）
	if o.setupLog {
		if err := SetupLog(cfg.Log); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	bus := &Bus{config: cfg}
	bus.app = buildFxApp(cfg, o, bus)
	if err := bus.app.Err(); err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	return bus, nil
}

// Open 快捷启动函数
//
// 等价于 New() + Start()。
func Open(ctx context.Context, opts ...Option) (*Bus, error) {
	bus, err := New(opts...)
	if err != nil {
		return nil, err
	}

	if err := bus.Start(ctx); err != nil {
		_ = bus.Close(context.Background())
		return nil, fmt.Errorf("start bus: %w", err)
	}
	return bus, nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期
// ════════════════════════════════════════════════════════════════════════════

// Start 启动辅助服务
func (b *Bus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	if b.started {
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	if err := b.app.Start(startCtx); err != nil {
		logger.Error("启动失败", "error", err)
		return fmt.Errorf("start fx app: %w", err)
	}

	b.started = true
	b.state.Store(int32(StateRunning))
	logger.Info("事件总线服务已启动", "introspect", b.introspectAddrLocked())
	return nil
}

// Close 关闭总线
//
// 停止接受新消息，在 ctx 与 CloseTimeout 内排空队列，然后停止辅助服务。
// 可多次调用，之后的调用返回 nil。
func (b *Bus) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.state.Store(int32(StateStopping))
	logger.Info("正在关闭事件总线")

	var err error
	if b.started {
		// OnStop 钩子负责排空总线并停止自省服务
		err = multierr.Append(err, b.app.Stop(ctx))
	}
	if !b.core.IsClosed() {
		err = multierr.Append(err, b.closeCore(ctx))
	}

	b.state.Store(int32(StateClosed))
	if err != nil {
		logger.Warn("事件总线关闭时出错", "error", err)
		return err
	}
	logger.Info("事件总线已关闭")
	return nil
}

// closeCore 在 CloseTimeout 内关闭内部总线
func (b *Bus) closeCore(ctx context.Context) error {
	if timeout := b.config.EventBus.CloseTimeout.Duration(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return b.core.Close(ctx)
}

// State 返回门面生命周期状态
func (b *Bus) State() State {
	return State(b.state.Load())
}

// Done 返回分发循环结束时关闭的通道
func (b *Bus) Done() <-chan struct{} {
	return b.core.Done()
}

// ════════════════════════════════════════════════════════════════════════════
//                              订阅与发布
// ════════════════════════════════════════════════════════════════════════════

// Subscribe 异步注册处理器
//
// 返回时注册未必已生效；需要顺序保证时使用 SubscribeAwait。
func (b *Bus) Subscribe(event types.EventName, handler interfaces.Handler) error {
	return b.core.Subscribe(event, handler)
}

// SubscribeFunc 以无返回值回调注册处理器
func (b *Bus) SubscribeFunc(event types.EventName, fn func(args types.Args)) error {
	if fn == nil {
		return ErrNilHandler
	}
	return b.core.Subscribe(event, interfaces.Func(fn))
}

// SubscribeAwait 注册处理器，生效后返回订阅句柄
func (b *Bus) SubscribeAwait(ctx context.Context, event types.EventName, handler interfaces.Handler) (interfaces.Subscription, error) {
	return b.core.SubscribeAwait(ctx, event, handler)
}

// Publish 发布事件，不等待投递
func (b *Bus) Publish(event types.EventName, args types.Args) error {
	return b.core.Publish(event, args)
}

// Emit 以可变参数发布事件
//
//	bus.Emit("user.login", "alice", 42)
func (b *Bus) Emit(event types.EventName, args ...any) error {
	return b.core.Publish(event, types.Args(args))
}

// PublishAwait 发布事件并等待分发完成
func (b *Bus) PublishAwait(ctx context.Context, event types.EventName, args types.Args) error {
	return b.core.PublishAwait(ctx, event, args)
}

// ════════════════════════════════════════════════════════════════════════════
//                              观测
// ════════════════════════════════════════════════════════════════════════════

// Topics 返回当前有处理器的事件名
func (b *Bus) Topics() []types.EventName {
	return b.core.Topics()
}

// HandlerCount 返回事件的处理器数量
func (b *Bus) HandlerCount(event types.EventName) int {
	return b.core.HandlerCount(event)
}

// Stats 指标快照
type Stats = metrics.Stats

// Stats 返回指标快照
func (b *Bus) Stats() Stats {
	return b.core.Stats()
}

// QueueLen 返回队列中待分发的消息数
func (b *Bus) QueueLen() int {
	return b.core.QueueLen()
}

// QueueCap 返回队列容量
func (b *Bus) QueueCap() int {
	return b.core.QueueCap()
}

// Config 返回生效配置的副本
func (b *Bus) Config() *config.Config {
	return config.CloneConfig(b.config)
}

// Gatherer 返回 Prometheus 指标源
func (b *Bus) Gatherer() prometheus.Gatherer {
	return b.registry
}

// IntrospectAddr 返回自省服务实际监听地址，未启用时返回空字符串
func (b *Bus) IntrospectAddr() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.introspectAddrLocked()
}

func (b *Bus) introspectAddrLocked() string {
	if b.introspect == nil || !b.started {
		return ""
	}
	return b.introspect.Addr()
}
