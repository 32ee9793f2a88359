// Package mocks 提供统一的测试 Mock 实现
//
// 供依赖事件总线的组件在测试中替换真实总线。
//
// # 核心 Mock
//
//   - MockEventBus: 模拟 interfaces.EventBus，发布时在调用方同步分发
//   - MockSubscription: 模拟 interfaces.Subscription
//
// 处理器级别的调用期望使用 pkg/interfaces/mocks 中由 mockgen 生成的 MockHandler。
//
// # 设计原则
//
// 1. 函数式注入: 通过 XxxFunc 字段注入自定义行为
// 2. 调用记录: 记录订阅与发布调用，便于验证测试行为
//
// # 使用示例
//
//	bus := mocks.NewMockEventBus()
//	component := NewComponent(bus)
//	component.DoWork()
//
//	if got := bus.PublishedEvents(); len(got) != 1 || got[0] != "work.done" {
//	    t.Errorf("unexpected events: %v", got)
//	}
package mocks
