package introspect

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dep2p/go-evbus/internal/core/eventbus"
	"github.com/dep2p/go-evbus/internal/core/metrics"
	"github.com/dep2p/go-evbus/pkg/lib/log"
)

var logger = log.Logger("debug/introspect")

// DefaultAddr 默认监听地址
const DefaultAddr = "127.0.0.1:6061"

// ============================================================================
//                              配置
// ============================================================================

// Config 服务配置
type Config struct {
	// Addr 监听地址，默认 "127.0.0.1:6061"
	Addr string

	// Bus 可选的事件总线
	Bus *eventbus.Bus

	// Gatherer 可选的 Prometheus 指标源，设置后提供 /metrics
	Gatherer prometheus.Gatherer

	// Snapshot 可选的快照收集器
	Snapshot *metrics.SnapshotCollector

	// CustomHandlers 自定义处理器
	CustomHandlers map[string]http.HandlerFunc
}

// ============================================================================
//                              Server
// ============================================================================

// Server 本地自省 HTTP 服务
type Server struct {
	config Config

	server   *http.Server
	listener net.Listener

	running   bool
	startTime time.Time

	mu sync.Mutex
}

// New 创建自省服务
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	return &Server{
		config: cfg,
	}
}

// Handler 返回服务的路由
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/introspect", s.handleIntrospect)
	mux.HandleFunc("/debug/introspect/bus", s.handleBus)
	mux.HandleFunc("/debug/introspect/topics", s.handleTopics)
	mux.HandleFunc("/debug/introspect/stats", s.handleStats)
	mux.HandleFunc("/debug/introspect/runtime", s.handleRuntime)

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	if s.config.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("/health", s.handleHealth)

	for path, handler := range s.config.CustomHandlers {
		mux.HandleFunc(path, handler)
	}
	return mux
}

// Start 启动服务
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      40 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("自省服务异常退出", "error", err)
		}
	}()

	s.running = true
	s.startTime = time.Now()
	logger.Info("自省服务已启动", "addr", listener.Addr().String())
	return nil
}

// Stop 停止服务
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logger.Error("关闭自省服务失败", "error", err)
		return err
	}

	s.running = false
	logger.Info("自省服务已停止")
	return nil
}

// Addr 返回实际监听地址
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}

// ============================================================================
//                              响应结构
// ============================================================================

// IntrospectResponse 完整诊断响应
type IntrospectResponse struct {
	Timestamp time.Time            `json:"timestamp"`
	Uptime    string               `json:"uptime"`
	Bus       *BusInfo             `json:"bus,omitempty"`
	Topics    []TopicInfo          `json:"topics,omitempty"`
	Stats     *metrics.Stats       `json:"stats,omitempty"`
	Snapshot  *metrics.BusSnapshot `json:"snapshot,omitempty"`
	Runtime   *RuntimeInfo         `json:"runtime,omitempty"`
}

// BusInfo 事件总线状态
type BusInfo struct {
	State         string `json:"state"`
	Closed        bool   `json:"closed"`
	Backpressure  string `json:"backpressure"`
	QueueLen      int    `json:"queue_len"`
	QueueCap      int    `json:"queue_cap"`
	Subscriptions int    `json:"subscriptions"`
	Topics        int    `json:"topics"`
}

// TopicInfo 单个事件的处理器与计数
type TopicInfo struct {
	Event     string `json:"event"`
	Handlers  int    `json:"handlers"`
	Published int64  `json:"published"`
	Dropped   int64  `json:"dropped"`
	Failures  int64  `json:"failures"`
}

// RuntimeInfo 运行时信息
type RuntimeInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc"`
	MemSys       uint64 `json:"mem_sys"`
	NumGC        uint32 `json:"num_gc"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime,omitempty"`
}

// ============================================================================
//                              HTTP 处理器
// ============================================================================

// handleIntrospect 处理完整诊断请求
func (s *Server) handleIntrospect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := IntrospectResponse{
		Timestamp: time.Now(),
		Uptime:    time.Since(s.startTime).String(),
		Bus:       s.collectBusInfo(),
		Topics:    s.collectTopics(),
		Runtime:   s.collectRuntimeInfo(),
	}
	if s.config.Bus != nil {
		stats := s.config.Bus.Stats()
		response.Stats = &stats
	}
	if s.config.Snapshot != nil {
		response.Snapshot = s.config.Snapshot.LastSnapshot()
	}

	s.writeJSON(w, response)
}

// handleBus 处理总线状态请求
func (s *Server) handleBus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	info := s.collectBusInfo()
	if info == nil {
		http.Error(w, "Event bus not available", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, info)
}

// handleTopics 处理事件列表请求
func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	topics := s.collectTopics()
	if topics == nil {
		topics = []TopicInfo{} // 返回空列表而不是 null
	}
	s.writeJSON(w, topics)
}

// handleStats 处理指标快照请求
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.config.Bus == nil {
		http.Error(w, "Event bus not available", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, s.config.Bus.Stats())
}

// handleRuntime 处理运行时信息请求
func (s *Server) handleRuntime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.collectRuntimeInfo())
}

// handleHealth 处理健康检查请求
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Uptime:    time.Since(s.startTime).String(),
	}

	switch {
	case s.config.Bus == nil:
		health.Status = "degraded"
	case s.config.Bus.IsClosed():
		health.Status = "closed"
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(health)
		return
	}

	s.writeJSON(w, health)
}

// ============================================================================
//                              数据收集
// ============================================================================

// collectBusInfo 收集总线状态
func (s *Server) collectBusInfo() *BusInfo {
	bus := s.config.Bus
	if bus == nil {
		return nil
	}

	return &BusInfo{
		State:         bus.State().String(),
		Closed:        bus.IsClosed(),
		Backpressure:  bus.Backpressure().String(),
		QueueLen:      bus.QueueLen(),
		QueueCap:      bus.QueueCap(),
		Subscriptions: bus.SubscriptionCount(),
		Topics:        len(bus.Topics()),
	}
}

// collectTopics 收集每个事件的处理器数量与计数
//
// 包含当前有处理器的事件，以及有发布记录但已无处理器的事件。
func (s *Server) collectTopics() []TopicInfo {
	bus := s.config.Bus
	if bus == nil {
		return nil
	}

	stats := bus.Stats()
	seen := make(map[string]bool)
	var topics []TopicInfo

	for _, event := range bus.Topics() {
		es := stats.ByEvent[event]
		seen[string(event)] = true
		topics = append(topics, TopicInfo{
			Event:     string(event),
			Handlers:  bus.HandlerCount(event),
			Published: es.Published,
			Dropped:   es.Dropped,
			Failures:  es.Failures,
		})
	}
	for event, es := range stats.ByEvent {
		if seen[string(event)] {
			continue
		}
		topics = append(topics, TopicInfo{
			Event:     string(event),
			Published: es.Published,
			Dropped:   es.Dropped,
			Failures:  es.Failures,
		})
	}

	sort.Slice(topics, func(i, j int) bool {
		return topics[i].Event < topics[j].Event
	})
	return topics
}

// collectRuntimeInfo 收集运行时信息
func (s *Server) collectRuntimeInfo() *RuntimeInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return &RuntimeInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

// ============================================================================
//                              辅助方法
// ============================================================================

// writeJSON 写入 JSON 响应
func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		logger.Error("JSON 编码失败", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
