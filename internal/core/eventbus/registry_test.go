package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-evbus/pkg/types"
)

// ============================================================================
// registry 测试
// ============================================================================

func newTestRegistration(id string, event types.EventName) *registration {
	r := &recorder{}
	return &registration{id: id, event: event, handler: r.handler(id)}
}

// TestRegistry_OrderPreserved 测试注册顺序保持
func TestRegistry_OrderPreserved(t *testing.T) {
	reg := newRegistry()

	a := newTestRegistration("a", "evt")
	b := newTestRegistration("b", "evt")
	c := newTestRegistration("c", "evt")
	reg.add(a)
	reg.add(b)
	reg.add(c)

	got := reg.lookup("evt")
	require.Len(t, got, 3)
	assert.Same(t, a, got[0])
	assert.Same(t, b, got[1])
	assert.Same(t, c, got[2])
	assert.Equal(t, 3, reg.size())

	t.Log("✅ 注册顺序测试通过")
}

// TestRegistry_InsertBySeq 测试提交顺序与调用顺序不一致时按 seq 排列
func TestRegistry_InsertBySeq(t *testing.T) {
	reg := newRegistry()

	a := newTestRegistration("a", "evt")
	a.seq = 1
	b := newTestRegistration("b", "evt")
	b.seq = 2
	c := newTestRegistration("c", "evt")
	c.seq = 3

	reg.add(c)
	reg.add(a)
	reg.add(b)

	got := reg.lookup("evt")
	require.Len(t, got, 3)
	assert.Same(t, a, got[0])
	assert.Same(t, b, got[1])
	assert.Same(t, c, got[2])
}

// TestRegistry_SnapshotImmutable 测试快照不受后续修改影响
func TestRegistry_SnapshotImmutable(t *testing.T) {
	reg := newRegistry()

	a := newTestRegistration("a", "evt")
	b := newTestRegistration("b", "evt")
	reg.add(a)
	reg.add(b)

	snapshot := reg.lookup("evt")

	reg.add(newTestRegistration("c", "evt"))
	require.True(t, reg.remove(a))

	require.Len(t, snapshot, 2)
	assert.Same(t, a, snapshot[0])
	assert.Same(t, b, snapshot[1])

	current := reg.lookup("evt")
	require.Len(t, current, 2)
	assert.Same(t, b, current[0])

	t.Log("✅ 快照不可变测试通过")
}

// TestRegistry_Remove 测试移除注册
func TestRegistry_Remove(t *testing.T) {
	reg := newRegistry()

	a := newTestRegistration("a", "evt")
	reg.add(a)

	assert.True(t, reg.remove(a))
	assert.False(t, reg.remove(a), "second remove should report not found")
	assert.Nil(t, reg.lookup("evt"))
	assert.Empty(t, reg.topics())
	assert.Zero(t, reg.size())
}

// TestRegistry_LookupUnknown 测试查找未注册事件
func TestRegistry_LookupUnknown(t *testing.T) {
	reg := newRegistry()

	assert.Empty(t, reg.lookup("nobody"))
	assert.Zero(t, reg.count("nobody"))
}

// TestRegistry_Topics 测试事件名排序与大小写区分
func TestRegistry_Topics(t *testing.T) {
	reg := newRegistry()

	reg.add(newTestRegistration("1", "b"))
	reg.add(newTestRegistration("2", "a"))
	reg.add(newTestRegistration("3", "A"))
	reg.add(newTestRegistration("4", ""))
	reg.add(newTestRegistration("5", "a"))

	assert.Equal(t, []types.EventName{"", "A", "a", "b"}, reg.topics())
	assert.Equal(t, 2, reg.count("a"))
	assert.Equal(t, 1, reg.count("A"))
	assert.Equal(t, 1, reg.count(""))
}
