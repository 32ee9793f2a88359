package eventbus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-evbus/internal/core/metrics"
	"github.com/dep2p/go-evbus/pkg/interfaces"
	"github.com/dep2p/go-evbus/pkg/lib/log"
	"github.com/dep2p/go-evbus/pkg/types"
)

var logger = log.Logger("core/eventbus")

// ============================================================================
// Bus 实现
// ============================================================================

// Bus 进程内异步事件总线
//
// 发布方把消息放入有界 FIFO 队列后立即返回；唯一的分发循环按入队顺序取出消息，
// 在取出时查找该事件的处理器并按注册顺序逐个调用。
type Bus struct {
	settings settings

	registry   *registry
	queue      *queue
	dispatcher *dispatcher

	executor     interfaces.Executor
	ownsExecutor bool
	reporter     metrics.Reporter
	clock        clock.Clock

	dropLog *rate.Sometimes

	// subSeq 注册序号，在调用方分配
	subSeq atomic.Uint64

	cancelLoop context.CancelFunc
	closed     atomic.Bool
	closeOnce  sync.Once
	closeErr   error
}

var (
	_ interfaces.EventBus   = (*Bus)(nil)
	_ metrics.QueueObserver = (*Bus)(nil)
)

// NewBus 创建事件总线并启动分发循环
//
// 返回时分发循环（block 策略下还有暂存送入任务）已交给执行器；
// 执行器拒绝时返回 ErrNoExecutor。
func NewBus(opts ...Option) (*Bus, error) {
	s := defaultSettings()
	for _, opt := range opts {
		if err := opt(&s); err != nil {
			return nil, err
		}
	}
	if s.capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	if s.reporter == nil {
		s.reporter = metrics.NewCounterWithClock(s.clock)
	}

	b := &Bus{
		settings: s,
		registry: newRegistry(),
		queue:    newQueue(s.capacity),
		executor: s.executor,
		reporter: s.reporter,
		clock:    s.clock,
		dropLog:  newLogThrottle(s.logInterval),
	}
	if b.executor == nil {
		b.executor = NewExecutor(s.maxInflight)
		b.ownsExecutor = true
	}
	b.dispatcher = newDispatcher(b.queue, b.registry, &b.settings)

	loopCtx, cancel := context.WithCancel(context.Background())
	b.cancelLoop = cancel

	started := b.executor.Go(func(execCtx context.Context) {
		// 执行器被强制关闭时一并取消分发循环
		stop := context.AfterFunc(execCtx, cancel)
		defer stop()
		b.dispatcher.run(loopCtx)
	})
	if started && s.backpressure == BackpressureBlock {
		b.queue.startFeed()
		started = b.executor.Go(func(execCtx context.Context) {
			stop := context.AfterFunc(execCtx, cancel)
			defer stop()
			b.queue.feed(loopCtx)
		})
	}
	if !started {
		cancel()
		if b.ownsExecutor {
			_ = b.executor.Shutdown(context.Background())
		}
		return nil, ErrNoExecutor
	}

	logger.Info("事件总线已启动",
		"capacity", s.capacity,
		"backpressure", s.backpressure.String())
	return b, nil
}

// ============================================================================
// 订阅
// ============================================================================

// Subscribe 异步注册处理器
//
// 注册作为执行器任务运行，返回时未必已生效：紧随其后的 Publish
// 可能看不到本次注册。序号在调用时分配，同一事件的处理器列表
// 始终按 Subscribe 的调用顺序排列。执行器拒绝任务时在调用方内联提交。
func (b *Bus) Subscribe(event types.EventName, handler interfaces.Handler) error {
	if handler == nil {
		return ErrNilHandler
	}
	if b.closed.Load() {
		return ErrClosed
	}

	reg := b.newRegistration(event, handler)
	if !b.executor.Go(func(context.Context) { b.commit(reg) }) {
		b.commit(reg)
	}
	return nil
}

// SubscribeAwait 同步注册处理器
//
// 返回后发出的 Publish 一定能看到本次注册。
func (b *Bus) SubscribeAwait(ctx context.Context, event types.EventName, handler interfaces.Handler) (interfaces.Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.closed.Load() {
		return nil, ErrClosed
	}

	reg := b.newRegistration(event, handler)
	b.commit(reg)
	return &Subscription{bus: b, reg: reg}, nil
}

func (b *Bus) newRegistration(event types.EventName, handler interfaces.Handler) *registration {
	return &registration{
		id:      uuid.NewString(),
		event:   event,
		handler: handler,
		seq:     b.subSeq.Add(1),
	}
}

// commit 使注册生效
func (b *Bus) commit(reg *registration) {
	b.registry.add(reg)
	b.reporter.LogSubscribed(reg.event)
	logger.Debug("处理器已注册",
		"event", string(reg.event),
		"subscription", log.TruncateID(reg.id, 8))
}

// unsubscribe 移除注册
func (b *Bus) unsubscribe(reg *registration) {
	if !b.registry.remove(reg) {
		return
	}
	b.reporter.LogUnsubscribed(reg.event)
	logger.Debug("处理器已移除",
		"event", string(reg.event),
		"subscription", log.TruncateID(reg.id, 8))
}

// ============================================================================
// 发布
// ============================================================================

// Publish 发布事件，不等待投递
//
// 消息按调用顺序入队。drop 策略下队列已满时静默丢弃并返回 nil；
// block 策略下消息暂存在总线内，等通道有空位后按顺序送入，调用方不等待，
// 因此处理器内发布也不会卡住分发循环。仅在总线关闭后返回 ErrClosed。
func (b *Bus) Publish(event types.EventName, args types.Args) error {
	if b.closed.Load() {
		return ErrClosed
	}

	env := envelope{msg: types.NewMessage(event, args, b.clock.Now())}
	err := b.enqueue(env)
	if errors.Is(err, ErrQueueFull) {
		return nil
	}
	return err
}

// PublishAwait 发布事件并等待该消息分发完成
//
// 返回 nil 表示出队时已注册的全部处理器都已被调用（失败的调用也算完成）。
// drop 策略下队列已满返回 ErrQueueFull。
// 不要在处理器内调用：分发循环会等待自己。
func (b *Bus) PublishAwait(ctx context.Context, event types.EventName, args types.Args) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.closed.Load() {
		return ErrClosed
	}

	env := envelope{
		msg: types.NewMessage(event, args, b.clock.Now()),
		ack: make(chan struct{}),
	}
	if err := b.enqueue(env); err != nil {
		return err
	}

	select {
	case <-env.ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-b.dispatcher.done:
		// 循环结束前可能刚好分发完这条消息
		select {
		case <-env.ack:
			return nil
		default:
			return ErrClosed
		}
	}
}

// enqueue 按背压策略入队并计数
func (b *Bus) enqueue(env envelope) error {
	var err error
	if b.settings.backpressure == BackpressureBlock {
		err = b.queue.hold(env)
	} else {
		err = b.queue.tryPush(env)
	}

	switch {
	case err == nil:
		b.reporter.LogPublished(env.msg.Event)
	case errors.Is(err, ErrQueueFull):
		b.reporter.LogDropped(env.msg.Event)
		b.dropLog.Do(func() {
			logger.Warn("投递队列已满，消息被丢弃",
				"event", string(env.msg.Event),
				"capacity", b.queue.capacity())
		})
	}
	return err
}

// ============================================================================
// 关闭
// ============================================================================

// Close 关闭总线
//
// 停止接受新的订阅和发布，等待分发循环把队列中剩余消息全部分发完。
// ctx 先到期时取消分发循环，剩余消息被放弃，返回 ctx.Err()。
// 可重复调用，之后的调用返回第一次的结果。
func (b *Bus) Close(ctx context.Context) error {
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		b.queue.close()

		var err error
		select {
		case <-b.dispatcher.done:
		case <-ctx.Done():
			b.cancelLoop()
			err = ctx.Err()
		}

		if b.ownsExecutor {
			if serr := b.executor.Shutdown(ctx); serr != nil && !errors.Is(serr, err) {
				err = multierr.Append(err, serr)
			}
		}
		b.cancelLoop()
		b.closeErr = err

		stats := b.reporter.Snapshot()
		logger.Info("事件总线已关闭",
			"published", stats.Published,
			"dispatched", stats.Dispatched,
			"dropped", stats.Dropped,
			"failures", stats.Failures,
			"error", err)
	})
	return b.closeErr
}

// Done 返回分发循环结束信号
func (b *Bus) Done() <-chan struct{} {
	return b.dispatcher.done
}

// ============================================================================
// 观测
// ============================================================================

// Topics 返回当前有处理器的事件名（已排序）
func (b *Bus) Topics() []types.EventName {
	return b.registry.topics()
}

// HandlerCount 返回事件当前的处理器数量
func (b *Bus) HandlerCount(event types.EventName) int {
	return b.registry.count(event)
}

// SubscriptionCount 返回注册总数
func (b *Bus) SubscriptionCount() int {
	return b.registry.size()
}

// State 返回分发循环状态
func (b *Bus) State() LoopState {
	return b.dispatcher.loopState()
}

// QueueLen 返回排队中的消息数（含 block 策略下暂存的消息）
func (b *Bus) QueueLen() int {
	return b.queue.size()
}

// HeldLen 返回 block 策略下等待送入通道的消息数
func (b *Bus) HeldLen() int {
	return b.queue.held()
}

// QueueCap 返回队列容量
func (b *Bus) QueueCap() int {
	return b.queue.capacity()
}

// Backpressure 返回背压策略
func (b *Bus) Backpressure() Backpressure {
	return b.settings.backpressure
}

// Stats 返回指标快照
func (b *Bus) Stats() metrics.Stats {
	return b.reporter.Snapshot()
}

// IsClosed 返回总线是否已关闭
func (b *Bus) IsClosed() bool {
	return b.closed.Load()
}
