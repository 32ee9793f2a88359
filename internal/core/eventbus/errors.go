package eventbus

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-evbus/pkg/types"
)

// ============================================================================
// 错误定义
// ============================================================================

var (
	// ErrClosed 事件总线已关闭
	ErrClosed = errors.New("eventbus closed")
	// ErrNilHandler 处理器为 nil
	ErrNilHandler = errors.New("nil handler")
	// ErrQueueFull 投递队列已满，消息被丢弃
	ErrQueueFull = errors.New("delivery queue full")
	// ErrInvalidCapacity 队列容量无效
	ErrInvalidCapacity = errors.New("queue capacity must be at least 1")
	// ErrNoExecutor 执行器拒绝承载分发循环
	ErrNoExecutor = errors.New("executor refused dispatch loop")
	// ErrHandlerPanic 处理器 panic
	ErrHandlerPanic = errors.New("handler panicked")
)

// HandlerError 一次处理器调用失败
//
// 只在总线内部流转（计数、日志、错误钩子），从不返回给发布方。
type HandlerError struct {
	// Event 事件名
	Event types.EventName
	// MessageID 消息 ID
	MessageID string
	// SubscriptionID 注册 ID
	SubscriptionID string
	// Err 处理器返回的错误；panic 时包装 ErrHandlerPanic
	Err error
	// Panicked 是否由 panic 引起
	Panicked bool
}

// Error 实现 error 接口
func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s failed on event %q (message %s): %v",
		e.SubscriptionID, string(e.Event), e.MessageID, e.Err)
}

// Unwrap 返回底层错误
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// ErrorHandler 处理器失败回调
//
// 在分发循环中同步调用，不应阻塞。
type ErrorHandler func(*HandlerError)
