package evbus

import (
	"github.com/dep2p/go-evbus/config"
)

// ════════════════════════════════════════════════════════════════════════════
//                              预设配置常量
// ════════════════════════════════════════════════════════════════════════════

// 预设名称常量
const (
	// PresetDefault 默认预设：1024 容量、丢弃策略
	PresetDefault = config.PresetDefault

	// PresetRealtime 低延迟预设
	PresetRealtime = config.PresetRealtime

	// PresetLossless 不丢消息预设
	PresetLossless = config.PresetLossless

	// PresetMinimal 最小预设
	PresetMinimal = config.PresetMinimal
)

// ════════════════════════════════════════════════════════════════════════════
//                              预设配置获取
// ════════════════════════════════════════════════════════════════════════════

// GetDefaultConfig 获取默认配置
//
// 队列容量 1024，队列满时静默丢弃，启用指标，关闭自省。
func GetDefaultConfig() *config.Config {
	return config.NewConfig()
}

// GetRealtimeConfig 获取低延迟配置
//
// 适用场景：对延迟敏感、允许丢消息
// 特点：
//   - 小队列（256）
//   - 丢弃策略
//   - 快速关闭
//
// 示例：
//
//	bus, err := evbus.Open(ctx, evbus.WithConfig(evbus.GetRealtimeConfig()))
func GetRealtimeConfig() *config.Config {
	return config.NewRealtimeConfig()
}

// GetLosslessConfig 获取不丢消息配置
//
// 适用场景：消息不可丢失，可接受暂存占用内存
// 特点：
//   - 大队列（8192）
//   - 阻塞策略（满时暂存）
//   - 较长排空时间
func GetLosslessConfig() *config.Config {
	return config.NewLosslessConfig()
}

// GetMinimalConfig 获取最小配置
//
// 适用场景：测试、嵌入
func GetMinimalConfig() *config.Config {
	return config.NewMinimalConfig()
}

// GetConfigByPreset 按名称获取预设配置
func GetConfigByPreset(name string) (*config.Config, error) {
	cfg := config.NewConfig()
	if err := config.ApplyPreset(cfg, name); err != nil {
		return nil, err
	}
	return cfg, nil
}
