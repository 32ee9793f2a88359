package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-evbus/pkg/types"
)

// ============================================================================
// queue 测试
// ============================================================================

func testEnvelope(event types.EventName, arg any) envelope {
	return envelope{msg: types.NewMessage(event, types.Args{arg}, time.Now())}
}

// TestQueue_FIFO 测试先进先出
func TestQueue_FIFO(t *testing.T) {
	q := newQueue(4)

	for i := 0; i < 4; i++ {
		require.NoError(t, q.tryPush(testEnvelope("evt", i)))
	}
	assert.Equal(t, 4, q.size())
	assert.Equal(t, 4, q.capacity())

	for i := 0; i < 4; i++ {
		env := <-q.out()
		assert.Equal(t, i, env.msg.Args.At(0))
	}

	t.Log("✅ 队列 FIFO 测试通过")
}

// TestQueue_TryPushFull 测试队列满时非阻塞入队
func TestQueue_TryPushFull(t *testing.T) {
	q := newQueue(1)

	require.NoError(t, q.tryPush(testEnvelope("evt", 1)))
	assert.ErrorIs(t, q.tryPush(testEnvelope("evt", 2)), ErrQueueFull)
	assert.Equal(t, 1, q.size())
}

// TestQueue_HoldWhenFull 测试通道满时暂存且不阻塞
func TestQueue_HoldWhenFull(t *testing.T) {
	q := newQueue(1)

	require.NoError(t, q.hold(testEnvelope("evt", 1)))
	require.NoError(t, q.hold(testEnvelope("evt", 2)))
	require.NoError(t, q.hold(testEnvelope("evt", 3)))

	assert.Equal(t, 2, q.held())
	assert.Equal(t, 3, q.size())
}

// TestQueue_FeedKeepsOrder 测试暂存消息按顺序送入
func TestQueue_FeedKeepsOrder(t *testing.T) {
	q := newQueue(1)
	q.startFeed()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fed := make(chan struct{})
	go func() {
		defer close(fed)
		q.feed(ctx)
	}()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.hold(testEnvelope("evt", i)))
	}
	q.close()
	assert.ErrorIs(t, q.hold(testEnvelope("evt", 5)), ErrClosed)

	var got []any
	for env := range q.out() {
		got = append(got, env.msg.Args.At(0))
	}
	assert.Equal(t, []any{0, 1, 2, 3, 4}, got)
	assert.Zero(t, q.held())

	select {
	case <-fed:
	case <-time.After(time.Second):
		t.Fatal("feed did not return after close")
	}

	t.Log("✅ 暂存顺序送入测试通过")
}

// TestQueue_FeedCancel 测试取消时放弃暂存消息
func TestQueue_FeedCancel(t *testing.T) {
	q := newQueue(1)
	q.startFeed()
	require.NoError(t, q.hold(testEnvelope("evt", 1)))
	require.NoError(t, q.hold(testEnvelope("evt", 2)))

	ctx, cancel := context.WithCancel(context.Background())
	fed := make(chan struct{})
	go func() {
		defer close(fed)
		q.feed(ctx)
	}()

	// 通道已满且无人读取，feed 卡在送入上
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-fed:
	case <-time.After(time.Second):
		t.Fatal("feed ignored cancellation")
	}
	assert.Equal(t, 1, q.held())
}

// TestQueue_CloseDrains 测试关闭后仍可读出剩余消息
func TestQueue_CloseDrains(t *testing.T) {
	q := newQueue(4)
	require.NoError(t, q.tryPush(testEnvelope("evt", 1)))
	require.NoError(t, q.tryPush(testEnvelope("evt", 2)))

	q.close()
	q.close() // 重复关闭无副作用

	assert.ErrorIs(t, q.tryPush(testEnvelope("evt", 3)), ErrClosed)
	assert.ErrorIs(t, q.hold(testEnvelope("evt", 3)), ErrClosed)

	var got []any
	for env := range q.out() {
		got = append(got, env.msg.Args.At(0))
	}
	assert.Equal(t, []any{1, 2}, got)
}
