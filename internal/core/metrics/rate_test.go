package metrics

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

// TestRateMeter_Window 测试滑动窗口
func TestRateMeter_Window(t *testing.T) {
	mock := clock.NewMock()
	r := NewRateMeter(mock)

	r.Add(30)
	mock.Add(10 * time.Second)
	r.Add(30)

	assert.Equal(t, int64(60), r.Total())
	assert.InDelta(t, 1.0, r.Rate(), 1e-9)

	// 第一个桶在 60 秒后滑出窗口
	mock.Add(51 * time.Second)
	assert.Equal(t, int64(30), r.Total())

	mock.Add(time.Hour)
	assert.Zero(t, r.Total())
}

// TestRateMeter_SubSecond 测试同一秒内累加
func TestRateMeter_SubSecond(t *testing.T) {
	mock := clock.NewMock()
	r := NewRateMeter(mock)

	for i := 0; i < 5; i++ {
		r.Add(1)
		mock.Add(100 * time.Millisecond)
	}
	assert.Equal(t, int64(5), r.Total())
}

// TestRateMeter_Reset 测试重置
func TestRateMeter_Reset(t *testing.T) {
	r := NewRateMeter(nil)

	r.Add(100)
	r.Reset()
	assert.Zero(t, r.Total())
	assert.Zero(t, r.Rate())
}
