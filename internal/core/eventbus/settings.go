package eventbus

import (
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-evbus/internal/core/metrics"
	"github.com/dep2p/go-evbus/pkg/interfaces"
)

// DefaultCapacity 默认投递队列容量
const DefaultCapacity = 1024

// logBurst 节流日志在进入限速前允许的条数
const logBurst = 10

// settings 总线构造参数
type settings struct {
	capacity     int
	backpressure Backpressure
	executor     interfaces.Executor
	maxInflight  int
	reporter     metrics.Reporter
	clock        clock.Clock
	onError      ErrorHandler
	logInterval  time.Duration
}

func defaultSettings() settings {
	return settings{
		capacity:     DefaultCapacity,
		backpressure: BackpressureDrop,
		logInterval:  time.Second,
	}
}

// newLogThrottle 前 logBurst 条照常输出，之后每 interval 最多一条；
// interval <= 0 时不节流
func newLogThrottle(interval time.Duration) *rate.Sometimes {
	if interval <= 0 {
		return &rate.Sometimes{Every: 1}
	}
	return &rate.Sometimes{First: logBurst, Interval: interval}
}
