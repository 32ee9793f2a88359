// Package interfaces 定义 go-evbus 的公共接口
//
// # 文件组织
//
//   - eventbus.go - Handler, Subscription, EventBus, Executor
//   - mocks/      - 由 mockgen 生成的 Handler 模拟实现
//
// # 依赖方向
//
//	evbus → internal/core → pkg/interfaces → pkg/types
//
// 禁止反向依赖。
//
// # 设计原则
//
// 本包仅包含纯接口定义与少量适配器（HandlerFunc、Func），
// 数据结构定义在 pkg/types 包中。
package interfaces
