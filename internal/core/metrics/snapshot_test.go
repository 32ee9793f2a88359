package metrics

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSnapshotCollector_Collect 测试快照收集与速率计算
func TestSnapshotCollector_Collect(t *testing.T) {
	mock := clock.NewMock()
	c := NewCounterWithClock(mock)
	sc := NewSnapshotCollector(c, fakeQueue{length: 2, capacity: 16}, mock)

	for i := 0; i < 30; i++ {
		c.LogPublished("evt")
	}
	c.LogDispatched("evt", 1, 4*time.Millisecond)

	mock.Add(30 * time.Second)
	s := sc.Collect()

	assert.Equal(t, int64(30), s.Published)
	assert.Equal(t, int64(30), s.UptimeSeconds)
	assert.InDelta(t, 60.0, s.PublishedPerMin, 1e-9)
	assert.InDelta(t, 4.0, s.AvgDispatchMs, 1e-9)
	assert.Equal(t, 2, s.QueueLen)
	assert.Equal(t, 16, s.QueueCap)
	assert.Positive(t, s.Goroutines)
	assert.Same(t, s, sc.LastSnapshot())

	// 第二次快照只计算增量
	mock.Add(time.Minute)
	s = sc.Collect()
	assert.Zero(t, s.PublishedPerMin)
	assert.Equal(t, time.Minute, s.Interval)
}

// TestSnapshotCollector_StartStop 测试周期性快照
func TestSnapshotCollector_StartStop(t *testing.T) {
	mock := clock.NewMock()
	sc := NewSnapshotCollector(NewCounterWithClock(mock), nil, mock)
	assert.Nil(t, sc.LastSnapshot())

	sc.Start(10 * time.Second)
	sc.Start(10 * time.Second) // 重复启动无副作用

	mock.Add(10 * time.Second)
	require.Eventually(t, func() bool {
		return sc.LastSnapshot() != nil
	}, time.Second, 5*time.Millisecond)

	sc.Stop()
	sc.Stop()
}

// TestSnapshotCollector_SetQueue 测试后设置队列
func TestSnapshotCollector_SetQueue(t *testing.T) {
	sc := NewSnapshotCollector(NopReporter{}, nil, nil)
	assert.Zero(t, sc.Collect().QueueCap)

	sc.SetQueue(fakeQueue{capacity: 64})
	assert.Equal(t, 64, sc.Collect().QueueCap)
}
