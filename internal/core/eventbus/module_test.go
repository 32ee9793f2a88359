package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-evbus/config"
	"github.com/dep2p/go-evbus/internal/core/metrics"
	"github.com/dep2p/go-evbus/pkg/interfaces"
	"github.com/dep2p/go-evbus/pkg/types"
)

// TestModule 测试默认配置的 Fx 模块
func TestModule(t *testing.T) {
	var bus *Bus
	var eb interfaces.EventBus
	var queue metrics.QueueObserver

	app := fxtest.New(t,
		Module(),
		fx.Populate(&bus, &eb, &queue),
	)
	app.RequireStart()

	require.NotNil(t, bus)
	assert.Same(t, bus, eb)
	assert.Equal(t, DefaultCapacity, queue.QueueCap())

	app.RequireStop()
	assert.True(t, bus.IsClosed())
	assert.Equal(t, LoopStopped, bus.State())
}

// TestModuleWithConfig 测试统一配置
func TestModuleWithConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.EventBus = cfg.EventBus.
		WithQueueCapacity(32).
		WithBackpressure(config.BackpressureBlock)

	var bus *Bus

	app := fxtest.New(t,
		fx.Supply(cfg),
		Module(),
		fx.Populate(&bus),
	)
	defer app.RequireStart().RequireStop()

	assert.Equal(t, 32, bus.QueueCap())
	assert.Equal(t, BackpressureBlock, bus.Backpressure())
}

// TestModuleWithReporterAndErrorHandler 测试可选依赖注入
func TestModuleWithReporterAndErrorHandler(t *testing.T) {
	counter := metrics.NewCounter()
	failures := make(chan *HandlerError, 1)

	var bus *Bus

	app := fxtest.New(t,
		fx.Provide(func() metrics.Reporter { return counter }),
		fx.Provide(func() ErrorHandler {
			return func(herr *HandlerError) { failures <- herr }
		}),
		Module(),
		fx.Populate(&bus),
	)
	defer app.RequireStart().RequireStop()

	ctx := context.Background()
	_, err := bus.SubscribeAwait(ctx, "evt", interfaces.HandlerFunc(func(context.Context, types.Args) (any, error) {
		return nil, assert.AnError
	}))
	require.NoError(t, err)
	require.NoError(t, bus.PublishAwait(ctx, "evt", nil))

	herr := <-failures
	assert.ErrorIs(t, herr, assert.AnError)
	assert.Equal(t, int64(1), counter.Snapshot().Failures)
}

// TestModuleLifecycle 测试停止时排空队列
func TestModuleLifecycle(t *testing.T) {
	var bus *Bus

	app := fxtest.New(t,
		Module(),
		fx.Populate(&bus),
	)
	require.NoError(t, app.Start(context.Background()))

	rec := &recorder{}
	_, err := bus.SubscribeAwait(context.Background(), "evt", rec.handler("h"))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish("evt", types.Args{i}))
	}

	require.NoError(t, app.Stop(context.Background()))
	assert.Equal(t, 10, rec.count())
}

// TestProvideEventBusInvalidConfig 测试无效配置
func TestProvideEventBusInvalidConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.EventBus.Backpressure = "bounce"

	_, err := ProvideEventBus(Params{UnifiedCfg: cfg})
	assert.Error(t, err)

	cfg = config.NewConfig()
	cfg.EventBus.QueueCapacity = 0

	_, err = ProvideEventBus(Params{UnifiedCfg: cfg})
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

// TestModuleInfo 测试模块元信息
func TestModuleInfo(t *testing.T) {
	assert.Equal(t, "eventbus", Name)
	assert.NotEmpty(t, Version)
	assert.NotEmpty(t, Description)
}
