// Package interfaces 定义 go-evbus 公共接口
//
// 本文件定义 EventBus 接口，提供按名称发布订阅的异步事件分发。
package interfaces

//go:generate mockgen -destination=mocks/handler.go -package=mocks github.com/dep2p/go-evbus/pkg/interfaces Handler

import (
	"context"

	"github.com/dep2p/go-evbus/pkg/types"
)

// ============================================================================
//                              Handler - 事件处理器
// ============================================================================

// Handler 事件处理器
//
// 总线对处理器只有一个要求：能以一个参数列表被调用。
// 返回值被忽略；返回的错误（或 panic）被总线捕获并丢弃，
// 不会影响同一消息的其他处理器，也不会影响后续消息。
//
// 跨语言嵌入层（例如需要获取解释器锁）的等待与切换属于 Call 的契约，
// 由实现自行处理。
type Handler interface {
	// Call 以参数列表调用处理器
	Call(ctx context.Context, args types.Args) (any, error)
}

// HandlerFunc 函数适配器
type HandlerFunc func(ctx context.Context, args types.Args) (any, error)

// Call 实现 Handler 接口
func (f HandlerFunc) Call(ctx context.Context, args types.Args) (any, error) {
	return f(ctx, args)
}

// Func 将无返回值的回调包装为 Handler
func Func(fn func(args types.Args)) Handler {
	return HandlerFunc(func(_ context.Context, args types.Args) (any, error) {
		fn(args)
		return nil, nil
	})
}

// ============================================================================
//                              Subscription - 订阅句柄
// ============================================================================

// Subscription 定义订阅句柄接口
type Subscription interface {
	// ID 返回订阅唯一标识
	ID() string

	// Event 返回订阅的事件名
	Event() types.EventName

	// Close 取消订阅
	//
	// 并发安全，可多次调用。已出队正在分发的消息不受影响。
	Close() error
}

// ============================================================================
//                              EventBus - 事件总线
// ============================================================================

// EventBus 定义事件总线接口
//
// Subscribe/Publish 为即发即忘（fire-and-forget）语义；
// SubscribeAwait/PublishAwait 为可等待变体，用于需要顺序保证的调用方。
type EventBus interface {
	// Subscribe 异步注册处理器
	//
	// 返回时注册请求已被接受，但未必已生效：
	// 紧随其后的 Publish 不保证能看到本次注册。
	Subscribe(event types.EventName, handler Handler) error

	// SubscribeAwait 同步注册处理器，注册生效后返回订阅句柄
	SubscribeAwait(ctx context.Context, event types.EventName, handler Handler) (Subscription, error)

	// Publish 发布事件，不等待投递
	Publish(event types.EventName, args types.Args) error

	// PublishAwait 发布事件并等待该消息分发完成
	PublishAwait(ctx context.Context, event types.EventName, args types.Args) error

	// Topics 返回当前有处理器的事件名（已排序）
	Topics() []types.EventName

	// HandlerCount 返回事件当前的处理器数量
	HandlerCount(event types.EventName) int

	// Close 关闭总线，排空队列后返回
	Close(ctx context.Context) error
}

// ============================================================================
//                              Executor - 任务执行器
// ============================================================================

// Executor 任务执行器
//
// 承载分发循环这一长期任务，以及 Subscribe 产生的短期任务。
type Executor interface {
	// Go 异步调度一个任务
	//
	// 执行器已关闭或并发已达上限时返回 false，任务不会被执行，
	// 由调用方决定回退方式。
	Go(task func(ctx context.Context)) bool

	// Shutdown 停止接受新任务并等待已调度任务结束
	//
	// ctx 到期时取消任务上下文并返回 ctx.Err()。
	Shutdown(ctx context.Context) error
}
