// Package eventbus 实现进程内异步事件总线
//
// 按事件名发布/订阅，支持：
//   - 任意数量的处理器，按注册顺序调用
//   - 有界 FIFO 投递队列（默认容量 1024），满时丢弃或暂存
//   - 单一分发循环，全局保持发布顺序
//   - 处理器错误与 panic 隔离
//   - 可等待的订阅与发布变体
//
// # 快速开始
//
//	bus, err := eventbus.NewBus()
//	if err != nil {
//	    return err
//	}
//	defer bus.Close(context.Background())
//
//	// 同步注册，返回后发布一定可见
//	sub, _ := bus.SubscribeAwait(ctx, "order.created", interfaces.Func(func(args types.Args) {
//	    // 处理事件
//	}))
//	defer sub.Close()
//
//	// 即发即忘
//	bus.Publish("order.created", types.Args{42})
//
//	// 等待分发完成
//	bus.PublishAwait(ctx, "order.created", types.Args{43})
//
// # 订阅与发布的竞争
//
// Subscribe 把注册作为执行器任务运行后立即返回，紧随其后的 Publish
// 不保证能看到这次注册。需要顺序保证时使用 SubscribeAwait。
//
// 处理器在消息出队时查找：入队后、出队前完成的注册会收到该消息。
// 同一事件的处理器始终按 Subscribe 的调用顺序排列，与异步提交的先后无关。
//
// # Fx 模块
//
//	app := fx.New(
//	    eventbus.Module(),
//	    fx.Invoke(func(bus interfaces.EventBus) {
//	        bus.Subscribe("tick", handler)
//	    }),
//	)
//
// # 并发安全
//
//   - 注册表：RWMutex + 写时复制，分发时不持锁
//   - 投递队列：带缓冲 channel；block 策略的暂存列表由单一送入任务按顺序写入
//   - 执行器：errgroup，Shutdown 可超时
//   - 关闭：closeOnce，可重复调用
package eventbus
