package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace 默认指标命名空间
const DefaultNamespace = "evbus"

// QueueObserver 投递队列观测接口
type QueueObserver interface {
	// QueueLen 返回当前排队消息数
	QueueLen() int

	// QueueCap 返回队列容量
	QueueCap() int
}

// ============================================================================
//                              Collector
// ============================================================================

// Collector 将 Reporter 快照导出为 Prometheus 指标
//
// 每次抓取时读取一次快照，不维护独立的计数状态。
type Collector struct {
	reporter Reporter
	queue    QueueObserver

	published     *prometheus.Desc
	dropped       *prometheus.Desc
	dispatched    *prometheus.Desc
	invocations   *prometheus.Desc
	failures      *prometheus.Desc
	panics        *prometheus.Desc
	subscriptions *prometheus.Desc
	avgDispatch   *prometheus.Desc
	publishRate   *prometheus.Desc
	queueLen      *prometheus.Desc
	queueCap      *prometheus.Desc

	eventPublished     *prometheus.Desc
	eventDropped       *prometheus.Desc
	eventFailures      *prometheus.Desc
	eventSubscriptions *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector 创建 Collector
//
// queue 可以为 nil，此时不导出队列指标。
func NewCollector(reporter Reporter, queue QueueObserver, namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	name := func(n string) string {
		return prometheus.BuildFQName(namespace, "", n)
	}
	eventLabels := []string{"event"}

	return &Collector{
		reporter: reporter,
		queue:    queue,

		published:     prometheus.NewDesc(name("published_total"), "Messages accepted into the delivery queue", nil, nil),
		dropped:       prometheus.NewDesc(name("dropped_total"), "Messages dropped because the delivery queue was full", nil, nil),
		dispatched:    prometheus.NewDesc(name("dispatched_total"), "Messages dispatched by the dispatch loop", nil, nil),
		invocations:   prometheus.NewDesc(name("handler_invocations_total"), "Handler invocations", nil, nil),
		failures:      prometheus.NewDesc(name("handler_failures_total"), "Handler invocations that returned an error or panicked", nil, nil),
		panics:        prometheus.NewDesc(name("handler_panics_total"), "Handler invocations that panicked", nil, nil),
		subscriptions: prometheus.NewDesc(name("subscriptions"), "Active registrations", nil, nil),
		avgDispatch:   prometheus.NewDesc(name("dispatch_avg_seconds"), "Average time to dispatch one message", nil, nil),
		publishRate:   prometheus.NewDesc(name("publish_rate"), "Messages accepted per second over the last minute", nil, nil),
		queueLen:      prometheus.NewDesc(name("queue_length"), "Messages waiting in the delivery queue", nil, nil),
		queueCap:      prometheus.NewDesc(name("queue_capacity"), "Delivery queue capacity", nil, nil),

		eventPublished:     prometheus.NewDesc(name("event_published_total"), "Messages accepted per event", eventLabels, nil),
		eventDropped:       prometheus.NewDesc(name("event_dropped_total"), "Messages dropped per event", eventLabels, nil),
		eventFailures:      prometheus.NewDesc(name("event_handler_failures_total"), "Handler failures per event", eventLabels, nil),
		eventSubscriptions: prometheus.NewDesc(name("event_subscriptions"), "Active registrations per event", eventLabels, nil),
	}
}

// Describe 实现 prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.published
	ch <- c.dropped
	ch <- c.dispatched
	ch <- c.invocations
	ch <- c.failures
	ch <- c.panics
	ch <- c.subscriptions
	ch <- c.avgDispatch
	ch <- c.publishRate
	ch <- c.queueLen
	ch <- c.queueCap
	ch <- c.eventPublished
	ch <- c.eventDropped
	ch <- c.eventFailures
	ch <- c.eventSubscriptions
}

// Collect 实现 prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.reporter.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.published, prometheus.CounterValue, float64(s.Published))
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(s.Dropped))
	ch <- prometheus.MustNewConstMetric(c.dispatched, prometheus.CounterValue, float64(s.Dispatched))
	ch <- prometheus.MustNewConstMetric(c.invocations, prometheus.CounterValue, float64(s.Invocations))
	ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(s.Failures))
	ch <- prometheus.MustNewConstMetric(c.panics, prometheus.CounterValue, float64(s.Panics))
	ch <- prometheus.MustNewConstMetric(c.subscriptions, prometheus.GaugeValue, float64(s.Subscriptions))
	ch <- prometheus.MustNewConstMetric(c.avgDispatch, prometheus.GaugeValue, s.AvgDispatch.Seconds())
	ch <- prometheus.MustNewConstMetric(c.publishRate, prometheus.GaugeValue, s.PublishRate)

	if c.queue != nil {
		ch <- prometheus.MustNewConstMetric(c.queueLen, prometheus.GaugeValue, float64(c.queue.QueueLen()))
		ch <- prometheus.MustNewConstMetric(c.queueCap, prometheus.GaugeValue, float64(c.queue.QueueCap()))
	}

	for event, es := range s.ByEvent {
		label := string(event)
		ch <- prometheus.MustNewConstMetric(c.eventPublished, prometheus.CounterValue, float64(es.Published), label)
		ch <- prometheus.MustNewConstMetric(c.eventDropped, prometheus.CounterValue, float64(es.Dropped), label)
		ch <- prometheus.MustNewConstMetric(c.eventFailures, prometheus.CounterValue, float64(es.Failures), label)
		ch <- prometheus.MustNewConstMetric(c.eventSubscriptions, prometheus.GaugeValue, float64(es.Subscriptions), label)
	}
}
