package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-evbus/pkg/types"
)

// Counter 事件总线计数器
//
// 全局计数器使用原子操作；按事件的计数器存放在受 RWMutex 保护的映射中，
// 映射项一经创建只做原子更新。
type Counter struct {
	clock clock.Clock

	published     atomic.Int64
	dropped       atomic.Int64
	dispatched    atomic.Int64
	invocations   atomic.Int64
	failures      atomic.Int64
	panics        atomic.Int64
	subscriptions atomic.Int64
	dispatchNanos atomic.Int64
	startedAt     atomic.Int64 // Unix nano

	publishRate *RateMeter

	mu     sync.RWMutex
	events map[types.EventName]*eventCounter
}

// eventCounter 单个事件的计数器
type eventCounter struct {
	published     atomic.Int64
	dropped       atomic.Int64
	dispatched    atomic.Int64
	failures      atomic.Int64
	subscriptions atomic.Int64
}

// NewCounter 创建使用系统时钟的 Counter
func NewCounter() *Counter {
	return NewCounterWithClock(clock.New())
}

// NewCounterWithClock 创建使用指定时钟的 Counter
func NewCounterWithClock(clk clock.Clock) *Counter {
	if clk == nil {
		clk = clock.New()
	}
	c := &Counter{
		clock:       clk,
		publishRate: NewRateMeter(clk),
		events:      make(map[types.EventName]*eventCounter),
	}
	c.startedAt.Store(clk.Now().UnixNano())
	return c
}

// LogPublished 记录一条消息成功入队
func (c *Counter) LogPublished(event types.EventName) {
	c.published.Add(1)
	c.publishRate.Add(1)
	c.event(event).published.Add(1)
}

// LogDropped 记录一条消息被丢弃
func (c *Counter) LogDropped(event types.EventName) {
	c.dropped.Add(1)
	c.event(event).dropped.Add(1)
}

// LogDispatched 记录一条消息分发完成
func (c *Counter) LogDispatched(event types.EventName, handlers int, d time.Duration) {
	c.dispatched.Add(1)
	c.invocations.Add(int64(handlers))
	c.dispatchNanos.Add(int64(d))
	c.event(event).dispatched.Add(1)
}

// LogHandlerFailure 记录一次处理器调用失败
func (c *Counter) LogHandlerFailure(event types.EventName, panicked bool) {
	c.failures.Add(1)
	if panicked {
		c.panics.Add(1)
	}
	c.event(event).failures.Add(1)
}

// LogSubscribed 记录一次注册生效
func (c *Counter) LogSubscribed(event types.EventName) {
	c.subscriptions.Add(1)
	c.event(event).subscriptions.Add(1)
}

// LogUnsubscribed 记录一次注册移除
func (c *Counter) LogUnsubscribed(event types.EventName) {
	c.subscriptions.Add(-1)
	c.event(event).subscriptions.Add(-1)
}

// Snapshot 返回全局统计快照
func (c *Counter) Snapshot() Stats {
	s := Stats{
		Published:     c.published.Load(),
		Dropped:       c.dropped.Load(),
		Dispatched:    c.dispatched.Load(),
		Invocations:   c.invocations.Load(),
		Failures:      c.failures.Load(),
		Panics:        c.panics.Load(),
		Subscriptions: c.subscriptions.Load(),
		PublishRate:   c.publishRate.Rate(),
		StartedAt:     time.Unix(0, c.startedAt.Load()),
	}
	if s.Dispatched > 0 {
		s.AvgDispatch = time.Duration(c.dispatchNanos.Load() / s.Dispatched)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.events) > 0 {
		s.ByEvent = make(map[types.EventName]EventStats, len(c.events))
		for name, ec := range c.events {
			s.ByEvent[name] = ec.stats()
		}
	}
	return s
}

// EventStats 返回单个事件的统计
func (c *Counter) EventStats(event types.EventName) EventStats {
	c.mu.RLock()
	ec, ok := c.events[event]
	c.mu.RUnlock()

	if !ok {
		return EventStats{}
	}
	return ec.stats()
}

// Reset 重置所有统计
//
// 当前订阅数不是累计值，保留不清零。
func (c *Counter) Reset() {
	c.published.Store(0)
	c.dropped.Store(0)
	c.dispatched.Store(0)
	c.invocations.Store(0)
	c.failures.Store(0)
	c.panics.Store(0)
	c.dispatchNanos.Store(0)
	c.publishRate.Reset()
	c.startedAt.Store(c.clock.Now().UnixNano())

	c.mu.Lock()
	defer c.mu.Unlock()

	for name, ec := range c.events {
		subs := ec.subscriptions.Load()
		if subs == 0 {
			delete(c.events, name)
			continue
		}
		ec.published.Store(0)
		ec.dropped.Store(0)
		ec.dispatched.Store(0)
		ec.failures.Store(0)
	}
}

// event 获取或创建事件计数器
func (c *Counter) event(name types.EventName) *eventCounter {
	c.mu.RLock()
	ec, ok := c.events[name]
	c.mu.RUnlock()
	if ok {
		return ec
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// 双重检查
	if ec, ok = c.events[name]; ok {
		return ec
	}
	ec = &eventCounter{}
	c.events[name] = ec
	return ec
}

func (ec *eventCounter) stats() EventStats {
	return EventStats{
		Published:     ec.published.Load(),
		Dropped:       ec.dropped.Load(),
		Dispatched:    ec.dispatched.Load(),
		Failures:      ec.failures.Load(),
		Subscriptions: ec.subscriptions.Load(),
	}
}
