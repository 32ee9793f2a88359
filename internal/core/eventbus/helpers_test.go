package eventbus

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-evbus/pkg/interfaces"
	"github.com/dep2p/go-evbus/pkg/types"
)

// ============================================================================
// 测试辅助
// ============================================================================

// recorder 记录处理器调用顺序
type recorder struct {
	mu    sync.Mutex
	calls []string
}

// handler 返回以 tag 标记调用的处理器，记录 "tag:第一个参数"
func (r *recorder) handler(tag string) interfaces.Handler {
	return interfaces.Func(func(args types.Args) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, fmt.Sprintf("%s:%v", tag, args.At(0)))
	})
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// gate 阻塞分发循环直到 release 被关闭
type gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGate() *gate {
	return &gate{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gate) handler() interfaces.Handler {
	return interfaces.Func(func(types.Args) {
		g.once.Do(func() { close(g.entered) })
		<-g.release
	})
}

// wait 等待分发循环进入 gate
func (g *gate) wait(t *testing.T) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch loop did not reach gate")
	}
}

func (g *gate) open() {
	close(g.release)
}

// newTestBus 创建总线并在测试结束时关闭
func newTestBus(t *testing.T, opts ...Option) *Bus {
	t.Helper()
	bus, err := NewBus(opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = bus.Close(ctx)
	})
	return bus
}

// closeBus 在超时内关闭总线
func closeBus(t *testing.T, bus *Bus) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, bus.Close(ctx))
}
