// Package config 提供统一的配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义
//   - 支持从 JSON/YAML 加载和保存配置
//   - 支持预设配置（realtime/lossless/minimal）
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.EventBus.QueueCapacity = 4096
//	cfg.Diagnostics.EnableIntrospect = true
//
//	// 应用预设到现有配置
//	config.ApplyPreset(cfg, "lossless")
//
//	// 从文件加载
//	cfg, err := config.LoadFile("evbus.yaml")
package config

// Config 是 go-evbus 的完整配置结构
//
// 配置按照功能模块组织：
//   - EventBus: 投递队列、背压策略、执行器
//   - Metrics: 指标统计与导出
//   - Diagnostics: 本地自省服务
//   - Log: 日志输出
type Config struct {
	// EventBus 事件总线配置
	EventBus EventBusConfig `json:"eventbus" yaml:"eventbus"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Diagnostics 诊断服务配置
	Diagnostics DiagnosticsConfig `json:"diagnostics" yaml:"diagnostics"`

	// Log 日志配置
	Log LogConfig `json:"log" yaml:"log"`
}

// NewConfig 创建默认配置
//
// 返回的配置使用所有组件的默认值，适用于大多数场景。
func NewConfig() *Config {
	return &Config{
		EventBus:    DefaultEventBusConfig(),
		Metrics:     DefaultMetricsConfig(),
		Diagnostics: DefaultDiagnosticsConfig(),
		Log:         DefaultLogConfig(),
	}
}

// NewRealtimeConfig 创建低延迟预设配置
func NewRealtimeConfig() *Config {
	cfg := NewConfig()
	_ = applyRealtimePreset(cfg)
	return cfg
}

// NewLosslessConfig 创建不丢消息的预设配置
func NewLosslessConfig() *Config {
	cfg := NewConfig()
	_ = applyLosslessPreset(cfg)
	return cfg
}

// NewMinimalConfig 创建最小预设配置
func NewMinimalConfig() *Config {
	cfg := NewConfig()
	_ = applyMinimalPreset(cfg)
	return cfg
}

// Validate 验证配置的有效性
//
// 检查所有子配置是否有效，如果发现无效配置则返回错误。
// 建议在使用配置前调用此方法。
func (c *Config) Validate() error {
	if err := c.EventBus.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.Diagnostics.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return nil
}
