package eventbus

import (
	"sort"
	"sync"

	"github.com/dep2p/go-evbus/pkg/interfaces"
	"github.com/dep2p/go-evbus/pkg/types"
)

// ============================================================================
// registry 订阅注册表
// ============================================================================

// registration 一次注册
//
// 同一处理器注册两次得到两个独立的 registration，每条消息会被调用两次。
type registration struct {
	id      string
	event   types.EventName
	handler interfaces.Handler

	// seq 调用 Subscribe 时分配的序号，决定在列表中的位置
	seq uint64
}

// registry 事件名到处理器列表的映射
//
// 写时复制：每次修改都生成新切片，lookup 返回的切片此后不会被修改，
// 分发循环可以在不持锁的情况下遍历。
type registry struct {
	mu      sync.RWMutex
	entries map[types.EventName][]*registration
	total   int
}

func newRegistry() *registry {
	return &registry{
		entries: make(map[types.EventName][]*registration),
	}
}

// add 按 seq 插入注册
//
// 异步提交的先后不一定与调用顺序一致，按 seq 插入保证列表顺序等于调用顺序。
// seq 相同时追加在末尾。
func (r *registry) add(reg *registration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.entries[reg.event]
	i := len(old)
	for i > 0 && old[i-1].seq > reg.seq {
		i--
	}

	next := make([]*registration, len(old)+1)
	copy(next, old[:i])
	next[i] = reg
	copy(next[i+1:], old[i:])
	r.entries[reg.event] = next
	r.total++
}

// remove 移除注册，返回是否找到
func (r *registry) remove(reg *registration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.entries[reg.event]
	idx := -1
	for i, s := range old {
		if s == reg {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	r.total--
	if len(old) == 1 {
		delete(r.entries, reg.event)
		return true
	}

	next := make([]*registration, 0, len(old)-1)
	next = append(next, old[:idx]...)
	next = append(next, old[idx+1:]...)
	r.entries[reg.event] = next
	return true
}

// lookup 返回事件当前的处理器快照
//
// 无处理器时返回 nil。
func (r *registry) lookup(event types.EventName) []*registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[event]
}

// count 返回事件的处理器数量
func (r *registry) count(event types.EventName) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries[event])
}

// size 返回注册总数
func (r *registry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// topics 返回有处理器的事件名（已排序）
func (r *registry) topics() []types.EventName {
	r.mu.RLock()
	names := make([]types.EventName, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
