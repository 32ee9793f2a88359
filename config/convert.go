package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 预设名称
const (
	PresetDefault  = "default"
	PresetRealtime = "realtime"
	PresetLossless = "lossless"
	PresetMinimal  = "minimal"
)

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保持默认值。
//
// 示例 JSON:
//
//	{
//	  "eventbus": {"queue_capacity": 4096, "backpressure": "block"},
//	  "log": {"level": "debug"}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// FromYAML 从 YAML 数据创建配置
//
// 示例 YAML:
//
//	eventbus:
//	  queue_capacity: 4096
//	  close_timeout: 10s
//	diagnostics:
//	  enable_introspect: true
func FromYAML(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml config: %w", err)
	}
	return cfg, nil
}

// LoadFile 按扩展名从文件加载配置
//
// 支持 .json、.yaml、.yml。
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FromJSON(data)
	case ".yaml", ".yml":
		return FromYAML(data)
	default:
		return nil, fmt.Errorf("unsupported config file extension: %s", filepath.Ext(path))
	}
}

// ToJSON 序列化为缩进 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// ToYAML 序列化为 YAML
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// ApplyPreset 应用预设配置
//
// 支持的预设：
//   - "realtime": 小队列、丢弃策略、快速关闭，适合对延迟敏感的场景
//   - "lossless": 大队列、阻塞策略（满时暂存）、较长排空时间，适合不允许丢消息的场景
//   - "minimal": 最低资源占用，关闭指标与自省，适合测试和嵌入
//   - "default" 或空字符串: 不做任何修改
func ApplyPreset(cfg *Config, presetName string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	switch presetName {
	case PresetRealtime:
		return applyRealtimePreset(cfg)
	case PresetLossless:
		return applyLosslessPreset(cfg)
	case PresetMinimal:
		return applyMinimalPreset(cfg)
	case PresetDefault, "":
		// 空预设，不做任何操作
		return nil
	default:
		return fmt.Errorf("unknown preset: %s", presetName)
	}
}

// applyRealtimePreset 应用低延迟预设
func applyRealtimePreset(cfg *Config) error {
	cfg.EventBus.QueueCapacity = 256
	cfg.EventBus.Backpressure = BackpressureDrop
	cfg.EventBus.MaxInflightTasks = 64
	cfg.EventBus.CloseTimeout = Duration(time.Second)
	return nil
}

// applyLosslessPreset 应用不丢消息预设
func applyLosslessPreset(cfg *Config) error {
	cfg.EventBus.QueueCapacity = 8192
	cfg.EventBus.Backpressure = BackpressureBlock
	cfg.EventBus.CloseTimeout = Duration(30 * time.Second)
	return nil
}

// applyMinimalPreset 应用最小预设
func applyMinimalPreset(cfg *Config) error {
	cfg.EventBus.QueueCapacity = 64
	cfg.EventBus.Backpressure = BackpressureDrop
	cfg.EventBus.MaxInflightTasks = 4
	cfg.Metrics.Enabled = false
	cfg.Metrics.SnapshotInterval = 0
	cfg.Diagnostics.EnableIntrospect = false
	cfg.Log.Level = "warn"
	return nil
}

// CloneConfig 克隆配置
//
// 所有子配置都是值类型，浅拷贝即为深拷贝。
func CloneConfig(cfg *Config) *Config {
	if cfg == nil {
		return nil
	}
	cloned := *cfg
	return &cloned
}

// ConvertForComponent 为特定组件转换配置
func ConvertForComponent(cfg *Config, component string) (interface{}, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	switch component {
	case "eventbus":
		return cfg.EventBus, nil
	case "metrics":
		return cfg.Metrics, nil
	case "diagnostics":
		return cfg.Diagnostics, nil
	case "log":
		return cfg.Log, nil
	default:
		return nil, fmt.Errorf("unknown component: %s", component)
	}
}
