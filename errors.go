package evbus

import (
	"errors"

	"github.com/dep2p/go-evbus/internal/core/eventbus"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrAlreadyStarted 总线已启动
	ErrAlreadyStarted = errors.New("bus already started")

	// ErrBusClosed 总线已关闭
	//
	// 与内部事件总线的关闭错误是同一个值，errors.Is 对两者都成立。
	ErrBusClosed = eventbus.ErrClosed

	// ────────────────────────────────────────────────────────────────────────
	// 配置错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("invalid config")

	// ────────────────────────────────────────────────────────────────────────
	// 投递错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNilHandler 处理器为 nil
	ErrNilHandler = eventbus.ErrNilHandler

	// ErrQueueFull 投递队列已满（丢弃策略下的 PublishAwait）
	ErrQueueFull = eventbus.ErrQueueFull
)
