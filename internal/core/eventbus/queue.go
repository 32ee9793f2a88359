package eventbus

import (
	"context"
	"sync"

	"github.com/dep2p/go-evbus/pkg/types"
)

// ============================================================================
// queue 投递队列
// ============================================================================

// envelope 队列中的一项
type envelope struct {
	msg types.Message

	// ack 分发完成后关闭，仅 PublishAwait 设置
	ack chan struct{}
}

// queue 有界 FIFO 投递队列
//
// 多生产者、单消费者。关闭后生产端返回 ErrClosed，
// 消费端继续读出剩余消息直到通道结束。
//
// block 策略下通道满时消息暂存在 pending 中，由 feed 任务按顺序送入通道，
// 生产端（包括在分发循环里发布的处理器）从不等待。
type queue struct {
	ch chan envelope

	// mu 保护 closed、pending 与 close(ch)
	mu      sync.RWMutex
	closed  bool
	pending []envelope
	feeding bool

	wake      chan struct{}
	closeOnce sync.Once
}

func newQueue(capacity int) *queue {
	return &queue{
		ch:   make(chan envelope, capacity),
		wake: make(chan struct{}, 1),
	}
}

// tryPush 非阻塞入队
func (q *queue) tryPush(env envelope) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}

	select {
	case q.ch <- env:
		return nil
	default:
		return ErrQueueFull
	}
}

// hold 入队，通道满时暂存等待 feed 送入
//
// pending 非空时新消息排在其后，保持整体 FIFO。
func (q *queue) hold(env envelope) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}

	if len(q.pending) == 0 {
		select {
		case q.ch <- env:
			return nil
		default:
		}
	}
	q.pending = append(q.pending, env)
	q.signal()
	return nil
}

// startFeed 标记由 feed 负责关闭通道，须在 feed 运行前调用
func (q *queue) startFeed() {
	q.mu.Lock()
	q.feeding = true
	q.mu.Unlock()
}

// feed 把 pending 中的消息依序送入通道
//
// 队列关闭且 pending 排空后关闭通道并返回；ctx 取消时放弃剩余暂存消息。
func (q *queue) feed(ctx context.Context) {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			if q.closed {
				close(q.ch)
				q.mu.Unlock()
				return
			}
			q.mu.Unlock()

			select {
			case <-q.wake:
				continue
			case <-ctx.Done():
				return
			}
		}
		env := q.pending[0]
		q.mu.Unlock()

		// 送入期间 env 仍留在 pending 头部，hold 不会越过它直接写通道
		select {
		case q.ch <- env:
		case <-ctx.Done():
			return
		}

		q.mu.Lock()
		q.pending[0] = envelope{}
		q.pending = q.pending[1:]
		if len(q.pending) == 0 {
			q.pending = nil
		}
		q.mu.Unlock()
	}
}

func (q *queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// close 关闭生产端，可重复调用
//
// 有 feed 任务时由它在送完暂存消息后关闭通道。
func (q *queue) close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		defer q.mu.Unlock()

		q.closed = true
		if q.feeding {
			q.signal()
			return
		}
		close(q.ch)
	})
}

// out 返回消费端通道
func (q *queue) out() <-chan envelope {
	return q.ch
}

// size 返回排队中的消息数（含暂存）
func (q *queue) size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.ch) + len(q.pending)
}

// held 返回暂存中的消息数
func (q *queue) held() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.pending)
}

// capacity 返回队列容量
func (q *queue) capacity() int {
	return cap(q.ch)
}
