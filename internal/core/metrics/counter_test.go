package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Counter 测试
// ============================================================================

// TestCounter_Basic 测试基本计数
func TestCounter_Basic(t *testing.T) {
	c := NewCounter()

	c.LogSubscribed("a")
	c.LogSubscribed("a")
	c.LogSubscribed("b")
	c.LogPublished("a")
	c.LogPublished("b")
	c.LogDropped("b")
	c.LogDispatched("a", 2, 4*time.Millisecond)
	c.LogDispatched("b", 1, 2*time.Millisecond)
	c.LogHandlerFailure("b", true)
	c.LogHandlerFailure("a", false)

	s := c.Snapshot()
	assert.Equal(t, int64(2), s.Published)
	assert.Equal(t, int64(1), s.Dropped)
	assert.Equal(t, int64(2), s.Dispatched)
	assert.Equal(t, int64(3), s.Invocations)
	assert.Equal(t, int64(2), s.Failures)
	assert.Equal(t, int64(1), s.Panics)
	assert.Equal(t, int64(3), s.Subscriptions)
	assert.Equal(t, 3*time.Millisecond, s.AvgDispatch)

	require.Len(t, s.ByEvent, 2)
	assert.Equal(t, EventStats{Published: 1, Dispatched: 1, Failures: 1, Subscriptions: 2}, s.ByEvent["a"])
	assert.Equal(t, EventStats{Published: 1, Dropped: 1, Dispatched: 1, Failures: 1, Subscriptions: 1}, c.EventStats("b"))
	assert.Equal(t, EventStats{}, c.EventStats("unknown"))

	t.Log("✅ Counter 基本计数测试通过")
}

// TestCounter_Unsubscribe 测试订阅数递减
func TestCounter_Unsubscribe(t *testing.T) {
	c := NewCounter()

	c.LogSubscribed("a")
	c.LogSubscribed("a")
	c.LogUnsubscribed("a")

	assert.Equal(t, int64(1), c.Snapshot().Subscriptions)
	assert.Equal(t, int64(1), c.EventStats("a").Subscriptions)
}

// TestCounter_Reset 测试重置保留订阅数
func TestCounter_Reset(t *testing.T) {
	mock := clock.NewMock()
	c := NewCounterWithClock(mock)

	c.LogSubscribed("kept")
	c.LogPublished("kept")
	c.LogPublished("gone")
	c.LogDispatched("gone", 0, time.Millisecond)

	mock.Add(time.Minute)
	c.Reset()

	s := c.Snapshot()
	assert.Zero(t, s.Published)
	assert.Zero(t, s.Dispatched)
	assert.Zero(t, s.AvgDispatch)
	assert.Equal(t, int64(1), s.Subscriptions)
	assert.True(t, s.StartedAt.Equal(mock.Now()))

	// 无订阅的事件被清理
	require.Len(t, s.ByEvent, 1)
	assert.Equal(t, EventStats{Subscriptions: 1}, s.ByEvent["kept"])
}

// TestCounter_PublishRate 测试发布速率
func TestCounter_PublishRate(t *testing.T) {
	mock := clock.NewMock()
	c := NewCounterWithClock(mock)

	for i := 0; i < 120; i++ {
		c.LogPublished("evt")
	}
	assert.InDelta(t, 2.0, c.Snapshot().PublishRate, 0.001)

	mock.Add(2 * time.Minute)
	assert.Zero(t, c.Snapshot().PublishRate)
}

// TestCounter_Concurrent 测试并发计数
func TestCounter_Concurrent(t *testing.T) {
	c := NewCounter()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.LogPublished("evt")
				c.LogDispatched("evt", 1, time.Microsecond)
				_ = c.Snapshot()
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	assert.Equal(t, int64(1000), s.Published)
	assert.Equal(t, int64(1000), s.ByEvent["evt"].Dispatched)
}

// TestStats_DropRatio 测试丢弃比例
func TestStats_DropRatio(t *testing.T) {
	assert.Zero(t, Stats{}.DropRatio())
	assert.InDelta(t, 0.25, Stats{Published: 3, Dropped: 1}.DropRatio(), 1e-9)
}

// TestNopReporter 测试空实现
func TestNopReporter(t *testing.T) {
	var r Reporter = NopReporter{}

	r.LogPublished("evt")
	r.LogDropped("evt")
	r.LogDispatched("evt", 1, time.Second)
	r.LogHandlerFailure("evt", true)
	r.LogSubscribed("evt")
	r.LogUnsubscribed("evt")
	r.Reset()

	assert.Equal(t, Stats{}, r.Snapshot())
	assert.Equal(t, EventStats{}, r.EventStats("evt"))
}
