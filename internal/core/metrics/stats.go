package metrics

import (
	"time"

	"github.com/dep2p/go-evbus/pkg/types"
)

// Stats 事件总线统计快照
//
// Published 只统计成功入队的消息；被丢弃的消息只计入 Dropped。
// Invocations 为处理器调用总次数，Failures 为其中失败（返回错误或 panic）的次数。
type Stats struct {
	Published     int64         `json:"published"`
	Dropped       int64         `json:"dropped"`
	Dispatched    int64         `json:"dispatched"`
	Invocations   int64         `json:"invocations"`
	Failures      int64         `json:"failures"`
	Panics        int64         `json:"panics"`
	Subscriptions int64         `json:"subscriptions"`
	AvgDispatch   time.Duration `json:"avgDispatch"`
	PublishRate   float64       `json:"publishRate"` // 最近 60 秒平均（条/秒）
	StartedAt     time.Time     `json:"startedAt"`

	ByEvent map[types.EventName]EventStats `json:"byEvent,omitempty"`
}

// EventStats 单个事件的统计
type EventStats struct {
	Published     int64 `json:"published"`
	Dropped       int64 `json:"dropped"`
	Dispatched    int64 `json:"dispatched"`
	Failures      int64 `json:"failures"`
	Subscriptions int64 `json:"subscriptions"`
}

// DropRatio 返回丢弃比例
func (s Stats) DropRatio() float64 {
	total := s.Published + s.Dropped
	if total == 0 {
		return 0
	}
	return float64(s.Dropped) / float64(total)
}
