package introspect

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-evbus/config"
	"github.com/dep2p/go-evbus/internal/core/eventbus"
	"github.com/dep2p/go-evbus/internal/core/metrics"
	"github.com/dep2p/go-evbus/pkg/interfaces"
	"github.com/dep2p/go-evbus/pkg/types"
)

// startServer 以随机端口启动服务
func startServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	cfg.Addr = "127.0.0.1:0"
	server := New(cfg)
	require.NoError(t, server.Start(context.Background()))
	t.Cleanup(func() { _ = server.Stop() })
	return server
}

// newBus 创建测试总线
func newBus(t *testing.T, opts ...eventbus.Option) *eventbus.Bus {
	t.Helper()
	bus, err := eventbus.NewBus(opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = bus.Close(ctx)
	})
	return bus
}

// getJSON 请求端点并解码
func getJSON(t *testing.T, server *Server, path string, out any) int {
	t.Helper()
	resp, err := http.Get("http://" + server.Addr() + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK && out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestNew(t *testing.T) {
	server := New(Config{})
	assert.NotNil(t, server)
	assert.Equal(t, DefaultAddr, server.config.Addr)

	server = New(Config{Addr: "127.0.0.1:8080"})
	assert.Equal(t, "127.0.0.1:8080", server.config.Addr)
}

func TestServer_StartStop(t *testing.T) {
	server := New(Config{Addr: "127.0.0.1:0"}) // 使用随机端口

	ctx := context.Background()
	require.NoError(t, server.Start(ctx))
	assert.True(t, server.running)

	addr := server.Addr()
	assert.NotEmpty(t, addr)
	assert.NotEqual(t, "127.0.0.1:0", addr)

	// 重复启动应该无效
	require.NoError(t, server.Start(ctx))

	require.NoError(t, server.Stop())
	assert.False(t, server.running)

	// 重复停止应该无效
	require.NoError(t, server.Stop())
}

func TestServer_HealthEndpoint(t *testing.T) {
	server := startServer(t, Config{})

	var health HealthResponse
	require.Equal(t, http.StatusOK, getJSON(t, server, "/health", &health))

	assert.Equal(t, "degraded", health.Status) // 没有总线，所以是 degraded
	assert.NotEmpty(t, health.Uptime)
}

func TestServer_HealthEndpoint_WithBus(t *testing.T) {
	bus := newBus(t)
	server := startServer(t, Config{Bus: bus})

	var health HealthResponse
	require.Equal(t, http.StatusOK, getJSON(t, server, "/health", &health))
	assert.Equal(t, "ok", health.Status)

	require.NoError(t, bus.Close(context.Background()))
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, server, "/health", nil))
}

func TestServer_IntrospectEndpoint(t *testing.T) {
	bus := newBus(t)
	_, err := bus.SubscribeAwait(context.Background(), "tick", interfaces.Func(func(types.Args) {}))
	require.NoError(t, err)
	require.NoError(t, bus.PublishAwait(context.Background(), "tick", nil))

	server := startServer(t, Config{Bus: bus})

	var introspect IntrospectResponse
	require.Equal(t, http.StatusOK, getJSON(t, server, "/debug/introspect", &introspect))

	assert.NotEmpty(t, introspect.Uptime)
	assert.NotNil(t, introspect.Runtime)
	require.NotNil(t, introspect.Bus)
	assert.Equal(t, 1, introspect.Bus.Subscriptions)
	require.NotNil(t, introspect.Stats)
	assert.Equal(t, int64(1), introspect.Stats.Published)
	require.Len(t, introspect.Topics, 1)
	assert.Equal(t, "tick", introspect.Topics[0].Event)
}

func TestServer_BusEndpoint(t *testing.T) {
	bus := newBus(t, eventbus.WithCapacity(64), eventbus.WithBackpressure(eventbus.BackpressureBlock))
	server := startServer(t, Config{Bus: bus})

	var info BusInfo
	require.Equal(t, http.StatusOK, getJSON(t, server, "/debug/introspect/bus", &info))

	assert.Equal(t, 64, info.QueueCap)
	assert.Equal(t, "block", info.Backpressure)
	assert.False(t, info.Closed)
	assert.Contains(t, []string{"waiting", "dispatching"}, info.State)
}

func TestServer_BusEndpoint_NoBus(t *testing.T) {
	server := startServer(t, Config{})

	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, server, "/debug/introspect/bus", nil))
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, server, "/debug/introspect/stats", nil))

	var topics []TopicInfo
	require.Equal(t, http.StatusOK, getJSON(t, server, "/debug/introspect/topics", &topics))
	assert.Empty(t, topics)
}

func TestServer_TopicsEndpoint(t *testing.T) {
	bus := newBus(t)
	ctx := context.Background()

	for _, event := range []types.EventName{"b", "a", "a"} {
		_, err := bus.SubscribeAwait(ctx, event, interfaces.Func(func(types.Args) {}))
		require.NoError(t, err)
	}
	// 无处理器但有发布记录
	require.NoError(t, bus.PublishAwait(ctx, "orphan", nil))

	server := startServer(t, Config{Bus: bus})

	var topics []TopicInfo
	require.Equal(t, http.StatusOK, getJSON(t, server, "/debug/introspect/topics", &topics))

	require.Len(t, topics, 3)
	assert.Equal(t, TopicInfo{Event: "a", Handlers: 2}, topics[0])
	assert.Equal(t, TopicInfo{Event: "b", Handlers: 1}, topics[1])
	assert.Equal(t, "orphan", topics[2].Event)
	assert.Zero(t, topics[2].Handlers)
	assert.Equal(t, int64(1), topics[2].Published)
}

func TestServer_StatsEndpoint(t *testing.T) {
	bus := newBus(t)
	require.NoError(t, bus.PublishAwait(context.Background(), "evt", nil))

	server := startServer(t, Config{Bus: bus})

	var stats metrics.Stats
	require.Equal(t, http.StatusOK, getJSON(t, server, "/debug/introspect/stats", &stats))
	assert.Equal(t, int64(1), stats.Published)
	assert.Equal(t, int64(1), stats.Dispatched)
}

func TestServer_RuntimeEndpoint(t *testing.T) {
	server := startServer(t, Config{})

	var runtime RuntimeInfo
	require.Equal(t, http.StatusOK, getJSON(t, server, "/debug/introspect/runtime", &runtime))

	assert.NotEmpty(t, runtime.GoVersion)
	assert.Greater(t, runtime.NumGoroutine, 0)
	assert.Greater(t, runtime.NumCPU, 0)
	assert.Greater(t, runtime.MemAlloc, uint64(0))
}

func TestServer_MetricsEndpoint(t *testing.T) {
	counter := metrics.NewCounter()
	bus := newBus(t, eventbus.WithReporter(counter))
	require.NoError(t, bus.PublishAwait(context.Background(), "evt", nil))

	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.NewCollector(counter, bus, metrics.DefaultNamespace))

	server := startServer(t, Config{Bus: bus, Gatherer: reg})

	resp, err := http.Get("http://" + server.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "evbus_published_total 1")
	assert.Contains(t, string(body), `evbus_event_published_total{event="evt"} 1`)
}

func TestServer_MetricsEndpoint_NoGatherer(t *testing.T) {
	server := startServer(t, Config{})

	resp, err := http.Get("http://" + server.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	server := startServer(t, Config{})

	// 使用 POST 方法（应该被拒绝）
	resp, err := http.Post("http://"+server.Addr()+"/health", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServer_CustomHandlers(t *testing.T) {
	server := startServer(t, Config{
		CustomHandlers: map[string]http.HandlerFunc{
			"/custom": func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("custom response"))
			},
		},
	})

	resp, err := http.Get("http://" + server.Addr() + "/custom")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "custom response", string(body))
}

func TestServer_PprofEndpoint(t *testing.T) {
	server := startServer(t, Config{})

	resp, err := http.Get("http://" + server.Addr() + "/debug/pprof/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Addr(t *testing.T) {
	server := New(Config{Addr: "127.0.0.1:8888"})

	// 未启动时返回配置地址
	assert.Equal(t, "127.0.0.1:8888", server.Addr())

	server = startServer(t, Config{})

	// 启动后返回实际地址
	addr := server.Addr()
	assert.NotEqual(t, "127.0.0.1:0", addr)
	assert.Contains(t, addr, "127.0.0.1:")
}

func TestModule_Disabled(t *testing.T) {
	var server *Server

	app := fxtest.New(t,
		Module(),
		fx.Populate(&server),
	)
	defer app.RequireStart().RequireStop()

	assert.Nil(t, server)
}

func TestModule_Enabled(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Diagnostics = cfg.Diagnostics.WithIntrospect("127.0.0.1:0")

	var server *Server

	app := fxtest.New(t,
		fx.Supply(cfg),
		eventbus.Module(),
		metrics.Module,
		Module(),
		fx.Populate(&server),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, server)

	var info BusInfo
	require.Equal(t, http.StatusOK, getJSON(t, server, "/debug/introspect/bus", &info))
	assert.Equal(t, eventbus.DefaultCapacity, info.QueueCap)

	resp, err := http.Get("http://" + server.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
