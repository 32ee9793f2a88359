package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// 环境变量名（均使用 EnvPrefix 前缀）
const (
	EnvPrefix = "EVBUS_"

	EnvPreset         = "PRESET"
	EnvQueueCapacity  = "QUEUE_CAPACITY"
	EnvBackpressure   = "BACKPRESSURE"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
	EnvLogDir         = "LOG_DIR"
	EnvIntrospectAddr = "INTROSPECT_ADDR"
)

// EnvName 返回带前缀的环境变量名
func EnvName(name string) string {
	return EnvPrefix + name
}

// ApplyEnv 将环境变量覆盖到配置
//
// 返回 EVBUS_PRESET 的值（预设需在覆盖之前应用，由调用方处理）。
// 设置了 EVBUS_INTROSPECT_ADDR 时同时启用自省服务。
func ApplyEnv(cfg *Config) (preset string, err error) {
	return applyEnv(cfg, os.Getenv)
}

func applyEnv(cfg *Config, getenv func(string) string) (string, error) {
	if v := getenv(EnvName(EnvQueueCapacity)); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return "", fmt.Errorf("%s: %w", EnvName(EnvQueueCapacity), err)
		}
		cfg.EventBus.QueueCapacity = n
	}
	if v := getenv(EnvName(EnvBackpressure)); v != "" {
		cfg.EventBus.Backpressure = strings.ToLower(strings.TrimSpace(v))
	}
	if v := getenv(EnvName(EnvLogLevel)); v != "" {
		cfg.Log.Level = strings.TrimSpace(v)
	}
	if v := getenv(EnvName(EnvLogFormat)); v != "" {
		cfg.Log.Format = strings.TrimSpace(v)
	}
	if v := getenv(EnvName(EnvLogDir)); v != "" {
		cfg.Log.Dir = strings.TrimSpace(v)
	}
	if v := getenv(EnvName(EnvIntrospectAddr)); v != "" {
		cfg.Diagnostics = cfg.Diagnostics.WithIntrospect(strings.TrimSpace(v))
	}
	return strings.TrimSpace(getenv(EnvName(EnvPreset))), nil
}
