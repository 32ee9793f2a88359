package eventbus

import (
	"sync"

	"github.com/dep2p/go-evbus/pkg/interfaces"
	"github.com/dep2p/go-evbus/pkg/types"
)

// ============================================================================
// Subscription 实现
// ============================================================================

// Subscription 订阅句柄
type Subscription struct {
	bus       *Bus
	reg       *registration
	closeOnce sync.Once
}

var _ interfaces.Subscription = (*Subscription)(nil)

// ID 返回订阅唯一标识
func (s *Subscription) ID() string {
	return s.reg.id
}

// Event 返回订阅的事件名
func (s *Subscription) Event() types.EventName {
	return s.reg.event
}

// Close 取消订阅
//
// Close 是并发安全的，可以多次调用。
// 之后出队的消息不再调用该处理器；已出队的消息使用出队时的快照，不受影响。
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.bus.unsubscribe(s.reg)
	})
	return nil
}
