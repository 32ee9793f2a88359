package eventbus

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-evbus/internal/core/metrics"
	"github.com/dep2p/go-evbus/pkg/lib/log"
)

// ============================================================================
// LoopState 分发循环状态
// ============================================================================

// LoopState 分发循环状态
type LoopState int32

const (
	// LoopWaiting 等待下一条消息
	LoopWaiting LoopState = iota
	// LoopDispatching 正在调用处理器
	LoopDispatching
	// LoopStopped 已结束（队列排空或被取消）
	LoopStopped
)

// String 返回状态名
func (s LoopState) String() string {
	switch s {
	case LoopWaiting:
		return "waiting"
	case LoopDispatching:
		return "dispatching"
	case LoopStopped:
		return "stopped"
	default:
		return fmt.Sprintf("LoopState(%d)", int32(s))
	}
}

// ============================================================================
// dispatcher 分发循环
// ============================================================================

// dispatcher 单一消费者：按入队顺序逐条取出消息，
// 在取出时查找处理器并按注册顺序依次调用。
type dispatcher struct {
	queue    *queue
	registry *registry
	reporter metrics.Reporter
	clock    clock.Clock
	onError  ErrorHandler

	failureLog *rate.Sometimes

	state atomic.Int32
	done  chan struct{}
}

func newDispatcher(q *queue, r *registry, s *settings) *dispatcher {
	return &dispatcher{
		queue:      q,
		registry:   r,
		reporter:   s.reporter,
		clock:      s.clock,
		onError:    s.onError,
		failureLog: newLogThrottle(s.logInterval),
		done:       make(chan struct{}),
	}
}

// run 分发循环主体
//
// 队列关闭且排空后返回；ctx 取消时放弃剩余消息立即返回。
func (d *dispatcher) run(ctx context.Context) {
	defer close(d.done)
	defer d.state.Store(int32(LoopStopped))

	logger.Debug("分发循环已启动", "capacity", d.queue.capacity())

	for {
		d.state.Store(int32(LoopWaiting))

		select {
		case env, ok := <-d.queue.out():
			if !ok {
				logger.Debug("投递队列已排空，分发循环退出")
				return
			}
			if ctx.Err() != nil {
				logger.Warn("分发循环被取消", "abandoned", d.queue.size()+1)
				return
			}
			d.state.Store(int32(LoopDispatching))
			d.dispatch(ctx, env)

		case <-ctx.Done():
			logger.Warn("分发循环被取消", "abandoned", d.queue.size())
			return
		}
	}
}

// dispatch 将一条消息交给其事件的全部处理器
func (d *dispatcher) dispatch(ctx context.Context, env envelope) {
	msg := env.msg
	regs := d.registry.lookup(msg.Event)
	start := d.clock.Now()

	for _, reg := range regs {
		if herr := d.invoke(ctx, reg, env); herr != nil {
			d.report(herr)
		}
	}

	d.reporter.LogDispatched(msg.Event, len(regs), d.clock.Now().Sub(start))

	if env.ack != nil {
		close(env.ack)
	}
}

// invoke 调用单个处理器，捕获返回的错误与 panic
func (d *dispatcher) invoke(ctx context.Context, reg *registration, env envelope) (herr *HandlerError) {
	defer func() {
		if r := recover(); r != nil {
			herr = &HandlerError{
				Event:          env.msg.Event,
				MessageID:      env.msg.ID,
				SubscriptionID: reg.id,
				Err:            fmt.Errorf("%w: %v", ErrHandlerPanic, r),
				Panicked:       true,
			}
		}
	}()

	if _, err := reg.handler.Call(ctx, env.msg.Args); err != nil {
		return &HandlerError{
			Event:          env.msg.Event,
			MessageID:      env.msg.ID,
			SubscriptionID: reg.id,
			Err:            err,
		}
	}
	return nil
}

// report 计数、节流日志并回调错误钩子
func (d *dispatcher) report(herr *HandlerError) {
	d.reporter.LogHandlerFailure(herr.Event, herr.Panicked)

	d.failureLog.Do(func() {
		logger.Warn("处理器调用失败",
			"event", string(herr.Event),
			"message", log.TruncateID(herr.MessageID, 8),
			"subscription", log.TruncateID(herr.SubscriptionID, 8),
			"panicked", herr.Panicked,
			"error", herr.Err)
	})

	if d.onError != nil {
		d.callErrorHook(herr)
	}
}

// callErrorHook 错误钩子自身的 panic 同样不能中断分发循环
func (d *dispatcher) callErrorHook(herr *HandlerError) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("错误钩子 panic", "panic", r)
		}
	}()
	d.onError(herr)
}

// loopState 返回当前状态
func (d *dispatcher) loopState() LoopState {
	return LoopState(d.state.Load())
}
