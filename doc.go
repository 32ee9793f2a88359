// Package evbus 提供进程内按名称的异步发布/订阅事件总线
//
// 发布方与订阅方只通过事件名（大小写敏感的任意字符串）关联。
// 所有消息进入同一个有界 FIFO 队列，由唯一的分发循环按入队顺序取出，
// 依次调用该事件在出队时刻注册的全部处理器。
//
// # 核心概念
//
//   - 事件名: 不透明字符串，空字符串也合法
//   - 处理器: 以参数列表被调用，返回值被忽略，失败与 panic 被隔离
//   - 投递队列: 默认容量 1024，队列满时默认静默丢弃
//   - 分发循环: 单个循环，全局 FIFO，同一消息的处理器按注册顺序调用
//
// # 快速开始
//
//	import "github.com/dep2p/go-evbus"
//
//	bus, err := evbus.Open(ctx, evbus.WithPreset(evbus.PresetLossless))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer bus.Close(context.Background())
//
//	// 即发即忘：返回时注册未必已生效
//	bus.SubscribeFunc("user.login", func(args types.Args) {
//	    fmt.Println("login:", args...)
//	})
//
//	// 可等待变体：返回时注册已生效
//	sub, _ := bus.SubscribeAwait(ctx, "user.login", handler)
//	defer sub.Close()
//
//	bus.Emit("user.login", "alice")
//	bus.PublishAwait(ctx, "user.login", types.Args{"bob"})
//
// # 顺序与竞态
//
// Subscribe 与 Publish 都是即发即忘的：紧随 Subscribe 之后的 Publish
// 不保证能看到新处理器。需要顺序保证时使用 SubscribeAwait 与 PublishAwait。
//
// # 背压
//
//	drop  (默认) 队列满时丢弃新消息，计入 Dropped
//	block        队列满时在总线内暂存，按顺序等待送入；发布方不等待
//
// # 文件组织
//
//	evbus/
//	├── evbus.go     # 版本信息
//	├── bus.go       # Bus 门面、生命周期、订阅发布
//	├── options.go   # 用户配置选项
//	├── presets.go   # 预设配置
//	├── fx.go        # Fx 模块组装
//	└── errors.go    # 公共错误
package evbus
