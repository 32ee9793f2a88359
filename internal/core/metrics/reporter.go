package metrics

import (
	"time"

	"github.com/dep2p/go-evbus/pkg/types"
)

// Reporter 提供记录和检索事件总线指标的方法
//
// 所有方法必须并发安全：LogPublished/LogDropped 在发布方调用，
// LogDispatched/LogHandlerFailure 在分发循环中调用。
type Reporter interface {
	// LogPublished 记录一条消息成功入队
	LogPublished(event types.EventName)

	// LogDropped 记录一条消息因队列已满被丢弃
	LogDropped(event types.EventName)

	// LogDispatched 记录一条消息分发完成
	//
	// handlers 为本次调用的处理器数量，d 为分发耗时。
	LogDispatched(event types.EventName, handlers int, d time.Duration)

	// LogHandlerFailure 记录一次处理器调用失败
	LogHandlerFailure(event types.EventName, panicked bool)

	// LogSubscribed 记录一次注册生效
	LogSubscribed(event types.EventName)

	// LogUnsubscribed 记录一次注册移除
	LogUnsubscribed(event types.EventName)

	// Snapshot 返回全局统计快照
	Snapshot() Stats

	// EventStats 返回单个事件的统计
	EventStats(event types.EventName) EventStats

	// Reset 重置所有统计
	Reset()
}

// 确保 Counter 实现 Reporter 接口
var _ Reporter = (*Counter)(nil)

// ============================================================================
//                              NopReporter
// ============================================================================

// NopReporter 不记录任何指标
//
// 指标关闭时由 Fx 模块提供。
type NopReporter struct{}

var _ Reporter = NopReporter{}

func (NopReporter) LogPublished(types.EventName) {}
func (NopReporter) LogDropped(types.EventName) {}
func (NopReporter) LogDispatched(types.EventName, int, time.Duration) {}
func (NopReporter) LogHandlerFailure(types.EventName, bool) {}
func (NopReporter) LogSubscribed(types.EventName) {}
func (NopReporter) LogUnsubscribed(types.EventName) {}
func (NopReporter) Snapshot() Stats { return Stats{} }
func (NopReporter) EventStats(types.EventName) EventStats { return EventStats{} }
func (NopReporter) Reset() {}
