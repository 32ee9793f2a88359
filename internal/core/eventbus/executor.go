package eventbus

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-evbus/pkg/interfaces"
)

// ============================================================================
// Executor 任务执行器
// ============================================================================

// Executor 基于 errgroup 的任务执行器
//
// limit <= 0 时不限并发；达到上限时 Go 返回 false。
// 所有任务共享一个在 Shutdown 超时时取消的上下文。
type Executor struct {
	g      errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool

	inflight atomic.Int64
	limit    int
}

var _ interfaces.Executor = (*Executor)(nil)

// NewExecutor 创建执行器
func NewExecutor(limit int) *Executor {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Executor{
		ctx:    ctx,
		cancel: cancel,
		limit:  limit,
	}
	if limit > 0 {
		e.g.SetLimit(limit)
	}
	return e
}

// Go 调度任务
func (e *Executor) Go(task func(ctx context.Context)) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return false
	}

	return e.g.TryGo(func() error {
		e.inflight.Add(1)
		defer e.inflight.Add(-1)
		task(e.ctx)
		return nil
	})
}

// Shutdown 停止接受新任务并等待已调度任务结束
//
// ctx 到期时取消任务上下文并返回 ctx.Err()，不再等待。
func (e *Executor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = e.g.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.cancel()
		return nil
	case <-ctx.Done():
		e.cancel()
		return ctx.Err()
	}
}

// Inflight 返回正在运行的任务数
func (e *Executor) Inflight() int64 {
	return e.inflight.Load()
}

// Limit 返回并发上限，<= 0 表示不限
func (e *Executor) Limit() int {
	return e.limit
}
