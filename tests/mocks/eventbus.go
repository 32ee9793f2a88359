package mocks

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/dep2p/go-evbus/pkg/interfaces"
	"github.com/dep2p/go-evbus/pkg/types"
)

// ErrMockClosed 模拟总线已关闭
var ErrMockClosed = errors.New("mock eventbus closed")

// PublishCall 一次发布调用记录
type PublishCall struct {
	Event types.EventName
	Args  types.Args
	Await bool
}

// MockEventBus 模拟 EventBus 接口实现
//
// 发布在调用方同步分发给已注册的处理器，便于测试依赖事件总线的组件。
type MockEventBus struct {
	mu sync.RWMutex

	// 存储
	subscriptions map[types.EventName][]*MockSubscription
	nextID        int
	closed        bool

	// 可覆盖的方法
	SubscribeFunc func(event types.EventName, handler interfaces.Handler) error
	PublishFunc   func(event types.EventName, args types.Args) error
	CloseFunc     func(ctx context.Context) error

	// 调用记录
	SubscribeCalls []types.EventName
	PublishCalls   []PublishCall
}

// MockSubscription 模拟 Subscription 接口实现
type MockSubscription struct {
	id      string
	event   types.EventName
	handler interfaces.Handler
	closed  bool
	mu      sync.RWMutex
	bus     *MockEventBus
}

// NewMockEventBus 创建带有默认值的 MockEventBus
func NewMockEventBus() *MockEventBus {
	return &MockEventBus{
		subscriptions: make(map[types.EventName][]*MockSubscription),
	}
}

// Subscribe 注册处理器（立即生效）
func (m *MockEventBus) Subscribe(event types.EventName, handler interfaces.Handler) error {
	_, err := m.subscribe(event, handler)
	return err
}

// SubscribeAwait 注册处理器并返回订阅句柄
func (m *MockEventBus) SubscribeAwait(ctx context.Context, event types.EventName, handler interfaces.Handler) (interfaces.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub, err := m.subscribe(event, handler)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (m *MockEventBus) subscribe(event types.EventName, handler interfaces.Handler) (*MockSubscription, error) {
	m.mu.Lock()
	m.SubscribeCalls = append(m.SubscribeCalls, event)
	m.mu.Unlock()

	if m.SubscribeFunc != nil {
		if err := m.SubscribeFunc(event, handler); err != nil {
			return nil, err
		}
	}
	if handler == nil {
		return nil, errors.New("nil handler")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrMockClosed
	}
	m.nextID++
	sub := &MockSubscription{
		id:      "mock-sub-" + strconv.Itoa(m.nextID),
		event:   event,
		handler: handler,
		bus:     m,
	}
	m.subscriptions[event] = append(m.subscriptions[event], sub)
	return sub, nil
}

// Publish 同步分发给已注册的处理器
func (m *MockEventBus) Publish(event types.EventName, args types.Args) error {
	return m.publish(context.Background(), event, args, false)
}

// PublishAwait 同步分发给已注册的处理器
func (m *MockEventBus) PublishAwait(ctx context.Context, event types.EventName, args types.Args) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.publish(ctx, event, args, true)
}

func (m *MockEventBus) publish(ctx context.Context, event types.EventName, args types.Args, await bool) error {
	m.mu.Lock()
	m.PublishCalls = append(m.PublishCalls, PublishCall{Event: event, Args: args, Await: await})
	closed := m.closed
	m.mu.Unlock()

	if m.PublishFunc != nil {
		return m.PublishFunc(event, args)
	}
	if closed {
		return ErrMockClosed
	}

	m.mu.RLock()
	subs := append([]*MockSubscription(nil), m.subscriptions[event]...)
	m.mu.RUnlock()

	for _, sub := range subs {
		// 与真实总线一致：处理器失败不影响其他处理器
		func() {
			defer func() { _ = recover() }()
			_, _ = sub.handler.Call(ctx, args)
		}()
	}
	return nil
}

// Topics 返回有处理器的事件名（已排序）
func (m *MockEventBus) Topics() []types.EventName {
	m.mu.RLock()
	defer m.mu.RUnlock()

	topics := make([]types.EventName, 0, len(m.subscriptions))
	for event, subs := range m.subscriptions {
		if len(subs) > 0 {
			topics = append(topics, event)
		}
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i] < topics[j] })
	return topics
}

// HandlerCount 返回事件的处理器数量
func (m *MockEventBus) HandlerCount(event types.EventName) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions[event])
}

// Close 关闭总线
func (m *MockEventBus) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	if m.CloseFunc != nil {
		return m.CloseFunc(ctx)
	}
	return nil
}

// IsClosed 检查是否已关闭
func (m *MockEventBus) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// ============================================================================
// MockSubscription 方法
// ============================================================================

// ID 返回订阅标识
func (s *MockSubscription) ID() string {
	return s.id
}

// Event 返回订阅的事件名
func (s *MockSubscription) Event() types.EventName {
	return s.event
}

// Close 取消订阅
func (s *MockSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	// 从总线中移除
	s.bus.mu.Lock()
	subs := s.bus.subscriptions[s.event]
	for i, sub := range subs {
		if sub == s {
			s.bus.subscriptions[s.event] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(s.bus.subscriptions[s.event]) == 0 {
		delete(s.bus.subscriptions, s.event)
	}
	s.bus.mu.Unlock()

	return nil
}

// IsClosed 检查是否已关闭
func (s *MockSubscription) IsClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// ============================================================================
// 测试辅助方法
// ============================================================================

// PublishedEvents 返回按顺序发布过的事件名
func (m *MockEventBus) PublishedEvents() []types.EventName {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]types.EventName, len(m.PublishCalls))
	for i, call := range m.PublishCalls {
		events[i] = call.Event
	}
	return events
}

// Reset 清空调用记录
func (m *MockEventBus) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubscribeCalls = nil
	m.PublishCalls = nil
}

// 确保实现接口
var _ interfaces.EventBus = (*MockEventBus)(nil)
var _ interfaces.Subscription = (*MockSubscription)(nil)
