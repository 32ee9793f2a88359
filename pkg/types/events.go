// Package types 定义 go-evbus 公共类型
//
// 本文件定义事件相关类型。
package types

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
//                              EventName - 事件名
// ============================================================================

// EventName 事件名
//
// 不透明的文本标识，区分大小写，仅用于相等比较与哈希。
// 空字符串也是合法的事件名。
type EventName string

// String 返回事件名字符串
func (n EventName) String() string {
	return string(n)
}

// ============================================================================
//                              Args - 参数列表
// ============================================================================

// Args 事件参数列表
//
// 总线从不检查或修改其内容，原样传递给每个处理器。
type Args []any

// Len 返回参数个数
func (a Args) Len() int {
	return len(a)
}

// At 返回第 i 个参数，越界时返回 nil
func (a Args) At(i int) any {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}

// ============================================================================
//                              Message - 投递消息
// ============================================================================

// Message 投递通道中的一条消息
//
// 入队后不可变。
type Message struct {
	// ID 消息唯一标识（UUID v4），用于日志与错误报告
	ID string

	// Event 事件名
	Event EventName

	// Args 参数列表
	Args Args

	// EnqueuedAt 入队时间
	EnqueuedAt time.Time
}

// NewMessage 创建消息
func NewMessage(event EventName, args Args, now time.Time) Message {
	return Message{
		ID:         uuid.NewString(),
		Event:      event,
		Args:       args,
		EnqueuedAt: now,
	}
}
