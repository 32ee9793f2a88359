package metrics

import (
	"context"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-evbus/pkg/lib/log"
)

var logger = log.Logger("core/metrics")

// BusSnapshot 事件总线指标快照
//
// 周期性收集并输出总线状态快照，便于日志分析。
type BusSnapshot struct {
	// 时间信息
	Timestamp     time.Time     `json:"timestamp"`
	UptimeSeconds int64         `json:"uptimeSeconds"`
	Interval      time.Duration `json:"interval"`

	// 消息统计
	Published        int64   `json:"published"`
	Dropped          int64   `json:"dropped"`
	Dispatched       int64   `json:"dispatched"`
	Failures         int64   `json:"failures"`
	PublishedPerMin  float64 `json:"publishedPerMin"`
	DispatchedPerMin float64 `json:"dispatchedPerMin"`
	AvgDispatchMs    float64 `json:"avgDispatchMs"`

	// 订阅与队列
	Subscriptions int64 `json:"subscriptions"`
	QueueLen      int   `json:"queueLen"`
	QueueCap      int   `json:"queueCap"`

	// 资源统计
	Goroutines  int     `json:"goroutines"`
	HeapAllocMB float64 `json:"heapAllocMB"`
}

// SnapshotCollector 快照收集器
type SnapshotCollector struct {
	mu sync.RWMutex

	clock     clock.Clock
	startTime time.Time

	// 数据源
	reporter Reporter
	queue    QueueObserver

	// 上次快照时的值（用于计算速率）
	lastSnapshot     *BusSnapshot
	lastPublished    int64
	lastDispatched   int64
	lastSnapshotTime time.Time

	// 控制
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSnapshotCollector 创建快照收集器
//
// queue 可以为 nil；clk 为 nil 时使用系统时钟。
func NewSnapshotCollector(reporter Reporter, queue QueueObserver, clk clock.Clock) *SnapshotCollector {
	if clk == nil {
		clk = clock.New()
	}
	now := clk.Now()
	return &SnapshotCollector{
		clock:            clk,
		startTime:        now,
		reporter:         reporter,
		queue:            queue,
		lastSnapshotTime: now,
	}
}

// SetQueue 设置队列观测源
func (c *SnapshotCollector) SetQueue(q QueueObserver) {
	c.mu.Lock()
	c.queue = q
	c.mu.Unlock()
}

// Start 启动周期性快照
func (c *SnapshotCollector) Start(interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return // 已经启动
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.lastSnapshotTime = c.clock.Now()
	ticker := c.clock.Ticker(interval)
	c.mu.Unlock()

	c.wg.Add(1)
	go c.snapshotLoop(ctx, ticker)

	logger.Info("总线指标快照收集器已启动", "interval", interval)
}

// Stop 停止快照收集
func (c *SnapshotCollector) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	c.wg.Wait()
	logger.Info("总线指标快照收集器已停止")
}

// snapshotLoop 快照循环
func (c *SnapshotCollector) snapshotLoop(ctx context.Context, ticker *clock.Ticker) {
	defer c.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.logSnapshot(c.Collect())
		}
	}
}

// Collect 收集当前快照
func (c *SnapshotCollector) Collect() *BusSnapshot {
	now := c.clock.Now()

	c.mu.RLock()
	lastTime := c.lastSnapshotTime
	lastPublished := c.lastPublished
	lastDispatched := c.lastDispatched
	queue := c.queue
	c.mu.RUnlock()

	elapsedMinutes := now.Sub(lastTime).Minutes()
	if elapsedMinutes <= 0 {
		elapsedMinutes = 1.0 / 60.0 // 最小 1 秒
	}

	stats := c.reporter.Snapshot()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	snapshot := &BusSnapshot{
		Timestamp:     now,
		UptimeSeconds: int64(now.Sub(c.startTime).Seconds()),
		Interval:      now.Sub(lastTime),

		Published:        stats.Published,
		Dropped:          stats.Dropped,
		Dispatched:       stats.Dispatched,
		Failures:         stats.Failures,
		PublishedPerMin:  float64(stats.Published-lastPublished) / elapsedMinutes,
		DispatchedPerMin: float64(stats.Dispatched-lastDispatched) / elapsedMinutes,
		AvgDispatchMs:    float64(stats.AvgDispatch) / float64(time.Millisecond),

		Subscriptions: stats.Subscriptions,

		Goroutines:  runtime.NumGoroutine(),
		HeapAllocMB: float64(memStats.HeapAlloc) / 1024 / 1024,
	}
	if queue != nil {
		snapshot.QueueLen = queue.QueueLen()
		snapshot.QueueCap = queue.QueueCap()
	}

	c.mu.Lock()
	c.lastSnapshot = snapshot
	c.lastSnapshotTime = now
	c.lastPublished = stats.Published
	c.lastDispatched = stats.Dispatched
	c.mu.Unlock()

	return snapshot
}

// logSnapshot 输出快照日志
func (c *SnapshotCollector) logSnapshot(s *BusSnapshot) {
	logger.Info("总线指标快照",
		"uptime", s.UptimeSeconds,
		// 消息
		"published", s.Published,
		"dropped", s.Dropped,
		"dispatched", s.Dispatched,
		"failures", s.Failures,
		"publishedPerMin", formatFloat(s.PublishedPerMin),
		"dispatchedPerMin", formatFloat(s.DispatchedPerMin),
		"avgDispatchMs", formatFloat(s.AvgDispatchMs),
		// 订阅与队列
		"subscriptions", s.Subscriptions,
		"queue", strconv.Itoa(s.QueueLen)+"/"+strconv.Itoa(s.QueueCap),
		// 资源
		"goroutines", s.Goroutines,
		"heapAllocMB", formatFloat(s.HeapAllocMB),
	)
}

// LastSnapshot 获取最新快照
func (c *SnapshotCollector) LastSnapshot() *BusSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSnapshot
}

// formatFloat 格式化浮点数（保留2位小数）
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
