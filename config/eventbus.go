package config

import (
	"errors"
	"fmt"
	"time"
)

// 背压策略
const (
	// BackpressureDrop 队列满时丢弃新消息（默认）
	BackpressureDrop = "drop"

	// BackpressureBlock 队列满时在总线内暂存，不丢弃
	BackpressureBlock = "block"
)

// DefaultQueueCapacity 默认投递队列容量
const DefaultQueueCapacity = 1024

// EventBusConfig 事件总线配置
//
// 配置投递队列与分发循环：
//   - 队列容量与背压策略
//   - 执行器并发上限
//   - 关闭时的排空超时
type EventBusConfig struct {
	// QueueCapacity 投递队列容量，必须 >= 1
	QueueCapacity int `json:"queue_capacity" yaml:"queue_capacity"`

	// Backpressure 队列满时的策略
	// 可选值: "drop", "block"
	Backpressure string `json:"backpressure" yaml:"backpressure"`

	// MaxInflightTasks 执行器同时运行的短期任务上限
	// 0 表示不限制；达到上限时任务在调用方内联执行
	MaxInflightTasks int `json:"max_inflight_tasks" yaml:"max_inflight_tasks"`

	// CloseTimeout 关闭时等待队列排空的最长时间
	CloseTimeout Duration `json:"close_timeout" yaml:"close_timeout"`

	// FailureLogInterval 处理器失败与丢弃日志的节流间隔
	FailureLogInterval Duration `json:"failure_log_interval" yaml:"failure_log_interval"`
}

// DefaultEventBusConfig 返回默认事件总线配置
func DefaultEventBusConfig() EventBusConfig {
	return EventBusConfig{
		QueueCapacity:      DefaultQueueCapacity,      // 队列容量：1024 条消息
		Backpressure:       BackpressureDrop,          // 队列满时静默丢弃
		MaxInflightTasks:   0,                         // 执行器不限并发
		CloseTimeout:       Duration(5 * time.Second), // 关闭排空超时：5 秒
		FailureLogInterval: Duration(time.Second),     // 失败日志：前 10 条不节流，之后每秒最多一条
	}
}

// Validate 验证事件总线配置
func (c EventBusConfig) Validate() error {
	if c.QueueCapacity < 1 {
		return fmt.Errorf("queue capacity must be at least 1, got %d", c.QueueCapacity)
	}

	switch c.Backpressure {
	case BackpressureDrop, BackpressureBlock:
	default:
		return fmt.Errorf("invalid backpressure %q: must be drop or block", c.Backpressure)
	}

	if c.MaxInflightTasks < 0 {
		return errors.New("max inflight tasks must not be negative")
	}
	if c.CloseTimeout < 0 {
		return errors.New("close timeout must not be negative")
	}
	if c.FailureLogInterval < 0 {
		return errors.New("failure log interval must not be negative")
	}
	return nil
}

// WithQueueCapacity 设置队列容量
func (c EventBusConfig) WithQueueCapacity(capacity int) EventBusConfig {
	c.QueueCapacity = capacity
	return c
}

// WithBackpressure 设置背压策略
func (c EventBusConfig) WithBackpressure(policy string) EventBusConfig {
	c.Backpressure = policy
	return c
}

// WithMaxInflightTasks 设置执行器并发上限
func (c EventBusConfig) WithMaxInflightTasks(n int) EventBusConfig {
	c.MaxInflightTasks = n
	return c
}

// WithCloseTimeout 设置关闭排空超时
func (c EventBusConfig) WithCloseTimeout(d time.Duration) EventBusConfig {
	c.CloseTimeout = Duration(d)
	return c
}
