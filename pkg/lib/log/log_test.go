package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// restoreDefault 测试结束后恢复默认 logger
func restoreDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { SetDefault(prev) })
}

// TestParseLevel 测试级别解析
func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for name, want := range cases {
		got, ok := ParseLevel(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	got, ok := ParseLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, slog.LevelInfo, got)
}

// TestSetup_Text 测试 text 输出与级别过滤
func TestSetup_Text(t *testing.T) {
	restoreDefault(t)

	var buf bytes.Buffer
	require.NoError(t, Setup(Options{Level: "warn", Writer: &buf}))

	l := Logger("test/text")
	l.Info("hidden")
	l.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "component=test/text")
	assert.Contains(t, out, "key=value")
}

// TestSetup_JSON 测试 JSON 输出
func TestSetup_JSON(t *testing.T) {
	restoreDefault(t)

	var buf bytes.Buffer
	require.NoError(t, Setup(Options{Level: "debug", Format: FormatJSON, Writer: &buf}))

	Logger("test/json").Debug("hello", "n", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "test/json", entry["component"])
	assert.Equal(t, float64(3), entry["n"])
}

// TestSetup_Console 测试 console 输出
func TestSetup_Console(t *testing.T) {
	restoreDefault(t)

	var buf bytes.Buffer
	require.NoError(t, Setup(Options{Format: FormatConsole, Writer: &buf}))

	Logger("test/console").Info("console line")
	assert.Contains(t, buf.String(), "console line")
}

// TestSetup_RotatingDir 测试滚动文件输出
func TestSetup_RotatingDir(t *testing.T) {
	restoreDefault(t)

	dir := t.TempDir()
	require.NoError(t, Setup(Options{
		Format:      FormatConsole,
		Dir:         dir,
		MaxFileSize: 1 << 20,
		MaxFiles:    2,
	}))

	Logger("test/rotate").Info("to file")
}

// TestSetup_Invalid 测试无效选项
func TestSetup_Invalid(t *testing.T) {
	restoreDefault(t)

	assert.Error(t, Setup(Options{Level: "loud"}))
	assert.Error(t, Setup(Options{Format: "xml"}))
}

// TestLazyLogger_FollowsDefault 测试 LazyLogger 跟随默认 logger 切换
func TestLazyLogger_FollowsDefault(t *testing.T) {
	restoreDefault(t)

	l := Logger("test/lazy")

	var first, second bytes.Buffer
	SetOutput(&first)
	l.Info("one")
	SetOutputWithLevel(&second, slog.LevelDebug)
	l.Debug("two")

	assert.Contains(t, first.String(), "one")
	assert.NotContains(t, first.String(), "two")
	assert.Contains(t, second.String(), "two")
	assert.True(t, l.With("k", 1).Enabled(context.Background(), slog.LevelDebug))
}

// TestTruncateID 测试 ID 截取
func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc", TruncateID("abc", 8))
	assert.Equal(t, "01234567", TruncateID("0123456789", 8))
	assert.Equal(t, "", TruncateID("", 8))
}
