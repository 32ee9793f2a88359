package metrics

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// ============================================================================
// RateMeter - 速率计算器
// ============================================================================

// rateBuckets 窗口桶数，每桶 1 秒
const rateBuckets = 60

// RateMeter 速率计算器（基于滑动窗口）
//
// 使用 60 个 1 秒桶来计算最近 60 秒的平均速率。
type RateMeter struct {
	mu       sync.Mutex
	clock    clock.Clock
	buckets  [rateBuckets]int64
	lastIdx  int
	lastTime time.Time
}

// NewRateMeter 创建速率计算器，clk 为 nil 时使用系统时钟
func NewRateMeter(clk clock.Clock) *RateMeter {
	if clk == nil {
		clk = clock.New()
	}
	return &RateMeter{
		clock:    clk,
		lastTime: clk.Now(),
	}
}

// Add 计入 n 个单位到当前桶
func (r *RateMeter) Add(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rotateLocked()
	r.buckets[r.lastIdx] += n
}

// Rate 返回平均速率（单位/秒）
func (r *RateMeter) Rate() float64 {
	return float64(r.Total()) / rateBuckets
}

// Total 返回窗口内总量
func (r *RateMeter) Total() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rotateLocked()
	var total int64
	for _, v := range r.buckets {
		total += v
	}
	return total
}

// Reset 重置速率计算器
func (r *RateMeter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buckets = [rateBuckets]int64{}
	r.lastIdx = 0
	r.lastTime = r.clock.Now()
}

// rotateLocked 按经过的整秒数推进并清空过期桶
func (r *RateMeter) rotateLocked() {
	elapsed := r.clock.Now().Sub(r.lastTime)
	if elapsed < time.Second {
		return
	}

	seconds := int(elapsed / time.Second)
	if seconds >= rateBuckets {
		// 超过窗口没有数据
		r.buckets = [rateBuckets]int64{}
		r.lastIdx = 0
	} else {
		for i := 0; i < seconds; i++ {
			r.lastIdx = (r.lastIdx + 1) % rateBuckets
			r.buckets[r.lastIdx] = 0
		}
	}
	r.lastTime = r.lastTime.Add(time.Duration(seconds) * time.Second)
}
