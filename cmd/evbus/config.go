package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dep2p/go-evbus/config"
)

// ============================================================================
//                              配置加载（CLI 专用）
// ============================================================================

// loadConfig 按优先级合成配置
//
// 优先级（从低到高）：
//  1. 配置文件（JSON/YAML）或默认配置
//  2. 预设（命令行 > EVBUS_PRESET > defaultPreset）
//  3. 环境变量（EVBUS_* 前缀）
//
// 命令行的其余参数由调用方在之后覆盖。
func loadConfig(path, flagPreset, defaultPreset string) (*config.Config, error) {
	cfg := config.NewConfig()
	if path != "" {
		var err error
		cfg, err = config.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
	}

	preset := defaultPreset
	if v := strings.TrimSpace(os.Getenv(config.EnvName(config.EnvPreset))); v != "" {
		preset = v
	}
	if flagPreset != "" {
		preset = flagPreset
	}
	if err := config.ApplyPreset(cfg, preset); err != nil {
		return nil, err
	}

	if _, err := config.ApplyEnv(cfg); err != nil {
		return nil, fmt.Errorf("环境变量错误: %w", err)
	}
	return cfg, nil
}
