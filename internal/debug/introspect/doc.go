// Package introspect 提供本地自省 HTTP 服务
//
// 该服务运行在本地端口，提供 JSON 格式的总线诊断信息，用于调试和监控。
// 默认绑定到 127.0.0.1，不暴露到网络。
//
// # 端点
//
//	GET /debug/introspect         - 完整诊断报告 (JSON)
//	GET /debug/introspect/bus     - 分发循环状态与队列深度
//	GET /debug/introspect/topics  - 每个事件的处理器数量与计数
//	GET /debug/introspect/stats   - 指标快照
//	GET /debug/introspect/runtime - Go 运行时信息
//	GET /metrics                  - Prometheus 指标
//	GET /debug/pprof/*            - Go pprof 端点
//	GET /health                   - 健康检查
//
// # 使用示例
//
//	server := introspect.New(introspect.Config{
//	    Addr: "127.0.0.1:6061",
//	    Bus:  bus,
//	})
//	server.Start(ctx)
//	defer server.Stop()
//
// # 安全
//
// 默认只监听本地地址，不暴露到网络。
// 如果需要远程访问，请确保配置适当的访问控制。
//
// 通过 config.Diagnostics.EnableIntrospect 配置启用。
package introspect
