package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidateAll 验证整个配置的有效性
//
// 这是 Config.Validate() 的别名，提供更明确的语义。
func ValidateAll(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	return c.Validate()
}

// ValidateAndFix 验证配置并尝试自动修复常见问题
//
// 可修复的问题：
//   - 队列容量小于 1 -> 使用默认值
//   - 背压策略为空 -> drop
//   - 负的超时或并发上限 -> 使用默认值
//   - 级别或格式大小写不规范 -> 转为小写
//   - 自省地址为空 -> 使用默认地址
func ValidateAndFix(c *Config) (*Config, error) {
	if c == nil {
		return NewConfig(), nil
	}

	def := DefaultEventBusConfig()
	if c.EventBus.QueueCapacity < 1 {
		c.EventBus.QueueCapacity = def.QueueCapacity
	}
	if c.EventBus.Backpressure == "" {
		c.EventBus.Backpressure = def.Backpressure
	}
	c.EventBus.Backpressure = strings.ToLower(c.EventBus.Backpressure)
	if c.EventBus.MaxInflightTasks < 0 {
		c.EventBus.MaxInflightTasks = def.MaxInflightTasks
	}
	if c.EventBus.CloseTimeout < 0 {
		c.EventBus.CloseTimeout = def.CloseTimeout
	}
	if c.EventBus.FailureLogInterval < 0 {
		c.EventBus.FailureLogInterval = def.FailureLogInterval
	}

	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsConfig().Namespace
	}
	if c.Metrics.SnapshotInterval < 0 {
		c.Metrics.SnapshotInterval = 0
	}

	if c.Diagnostics.EnableIntrospect && c.Diagnostics.IntrospectAddr == "" {
		c.Diagnostics.IntrospectAddr = DefaultDiagnosticsConfig().IntrospectAddr
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogConfig().Level
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogConfig().Format
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)

	// 验证修复后的配置
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed after fixes: %w", err)
	}

	return c, nil
}

// ValidateSubConfig 验证特定子配置
//
// 用于单独验证某个子配置而不验证整个配置树。
type ValidateSubConfig interface {
	Validate() error
}

// MustValidate 验证配置，如果失败则 panic
//
// 仅用于初始化阶段或测试代码。
// 生产代码应使用 Validate() 并处理错误。
func MustValidate(c *Config) {
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("config validation failed: %v", err))
	}
}

// ValidateCompatibility 验证配置之间的兼容性
//
// 检查配置的各个部分是否相互兼容：
//   - 阻塞策略必须有排空超时，否则关闭时可能一直等待暂存消息送完
//   - 阻塞策略的执行器至少容纳分发循环与暂存送入两个常驻任务
//   - 快照日志需要启用指标
func ValidateCompatibility(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.EventBus.Backpressure == BackpressureBlock && c.EventBus.CloseTimeout.Duration() == 0 {
		return errors.New("block backpressure requires a positive close timeout")
	}
	if c.EventBus.Backpressure == BackpressureBlock && c.EventBus.MaxInflightTasks == 1 {
		return errors.New("block backpressure requires max_inflight_tasks of 0 or at least 2")
	}

	if c.Metrics.SnapshotInterval.Duration() > 0 && !c.Metrics.Enabled {
		return errors.New("metrics snapshot interval set but metrics disabled")
	}

	if c.Metrics.SnapshotInterval.Duration() > 0 && c.Metrics.SnapshotInterval.Duration() < time.Second {
		return fmt.Errorf("metrics snapshot interval %s is below 1s", c.Metrics.SnapshotInterval)
	}

	return nil
}
