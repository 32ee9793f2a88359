package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-evbus"
	"github.com/dep2p/go-evbus/config"
)

// TestRun_Version 测试版本输出
func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-version"}, &out))
	assert.Contains(t, out.String(), evbus.Version)
}

// TestRun_Help 测试帮助输出
func TestRun_Help(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(nil, &out))
	assert.Contains(t, out.String(), "bench")
	assert.Contains(t, out.String(), "EVBUS_QUEUE_CAPACITY")
}

// TestRun_UnknownCommand 测试未知子命令
func TestRun_UnknownCommand(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run([]string{"fly"}, &out))
}

// TestRun_Bench 测试 bench 子命令
func TestRun_Bench(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"bench", "-events", "50", "-subscribers", "3", "-work", "10"}, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "EventBus: 50 events")
	assert.Contains(t, out.String(), "背压策略 block")
}

// TestRunBench 测试压测流程与计数
func TestRunBench(t *testing.T) {
	bus, err := evbus.New(evbus.WithPreset(evbus.PresetLossless))
	require.NoError(t, err)
	defer bus.Close(context.Background())

	result, err := runBench(context.Background(), bus, benchOptions{Events: 100, Subscribers: 4, Work: 10})
	require.NoError(t, err)

	assert.Equal(t, 100, result.Events)
	assert.Equal(t, int64(100), result.Stats.Published)
	assert.Equal(t, int64(100), result.Stats.Dispatched)
	assert.Equal(t, int64(400), result.Stats.Invocations)
	assert.Zero(t, result.Stats.Dropped)
	assert.Greater(t, result.Throughput(), 0.0)
	assert.LessOrEqual(t, result.Publish, result.Elapsed)

	_, err = runBench(context.Background(), bus, benchOptions{Events: 0})
	assert.Error(t, err)
}

// TestLoadConfig 测试配置优先级
func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evbus.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"eventbus": {"queue_capacity": 32}}`), 0o600))

	// 文件 → 预设 → 环境变量
	t.Setenv(config.EnvName(config.EnvPreset), "")
	t.Setenv(config.EnvName(config.EnvBackpressure), "block")

	cfg, err := loadConfig(path, "", config.PresetDefault)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.EventBus.QueueCapacity)
	assert.Equal(t, config.BackpressureBlock, cfg.EventBus.Backpressure)

	// 预设覆盖文件中的容量
	cfg, err = loadConfig(path, config.PresetRealtime, config.PresetDefault)
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.EventBus.QueueCapacity)

	// 命令行预设优先于环境变量
	t.Setenv(config.EnvName(config.EnvPreset), config.PresetMinimal)
	cfg, err = loadConfig("", config.PresetLossless, config.PresetDefault)
	require.NoError(t, err)
	assert.Equal(t, 8192, cfg.EventBus.QueueCapacity)

	cfg, err = loadConfig("", "", config.PresetDefault)
	require.NoError(t, err)
	assert.False(t, cfg.Metrics.Enabled)

	_, err = loadConfig("", "turbo", config.PresetDefault)
	assert.Error(t, err)
}

// TestServe 测试 serve 在 ctx 结束后关闭
func TestServe(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Diagnostics = cfg.Diagnostics.WithIntrospect("127.0.0.1:0")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	require.NoError(t, serve(ctx, cfg, &out))

	assert.Contains(t, out.String(), "自省服务: http://127.0.0.1:")
	assert.Contains(t, out.String(), "正在关闭事件总线")
}
