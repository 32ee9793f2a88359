package config

import (
	"errors"
	"regexp"
	"time"
)

// metricNamespacePattern Prometheus 指标名前缀格式
var metricNamespacePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enabled 是否启用指标收集
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Namespace Prometheus 指标命名空间
	Namespace string `json:"namespace" yaml:"namespace"`

	// SnapshotInterval 周期性快照日志间隔，0 表示不输出
	SnapshotInterval Duration `json:"snapshot_interval" yaml:"snapshot_interval"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:          true,
		Namespace:        "evbus",
		SnapshotInterval: 0,
	}
}

// Validate 验证指标配置
func (c MetricsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if !metricNamespacePattern.MatchString(c.Namespace) {
		return errors.New("metrics namespace must match [a-zA-Z_][a-zA-Z0-9_]*")
	}
	if c.SnapshotInterval < 0 {
		return errors.New("snapshot interval must not be negative")
	}
	return nil
}

// WithEnabled 设置是否启用指标
func (c MetricsConfig) WithEnabled(enabled bool) MetricsConfig {
	c.Enabled = enabled
	return c
}

// WithSnapshotInterval 设置快照日志间隔
func (c MetricsConfig) WithSnapshotInterval(d time.Duration) MetricsConfig {
	c.SnapshotInterval = Duration(d)
	return c
}
