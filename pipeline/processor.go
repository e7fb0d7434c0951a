package pipeline

import (
	"context"

	"go.uber.org/zap"
)

// Processor 管道处理器接口。
// 同一会话内每个处理器同一时刻只处理一个帧（协作式单线程模型），
// 阻塞型操作必须接受 ctx 并在取消时尽快返回。
type Processor interface {
	// Name 返回处理器名称（用于日志与指标标签）。
	Name() string

	// Setup 在管道启动时调用一次。
	Setup(ctx context.Context) error

	// ProcessFrame 处理一个帧。处理器负责调用 PushFrame 将帧
	// （或派生帧）继续向下游传递；不转发即丢弃。
	ProcessFrame(ctx context.Context, frame Frame, direction Direction) error

	// Cleanup 在会话拆除时恰好调用一次，用于刷写终态与释放资源。
	Cleanup(ctx context.Context) error
}

// linkable 由 Pipeline 用来注入下游转发函数。
type linkable interface {
	setOutput(fn PushFunc)
}

// PushFunc 将帧交给链中的下一个处理器。
type PushFunc func(ctx context.Context, frame Frame, direction Direction) error

// BaseProcessor 处理器基类，提供命名、日志与下游转发。
// 具体处理器应内嵌它并按需覆盖生命周期方法。
type BaseProcessor struct {
	name   string
	logger *zap.Logger
	output PushFunc
}

// NewBaseProcessor 创建处理器基类。
func NewBaseProcessor(name string, logger *zap.Logger) BaseProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return BaseProcessor{
		name:   name,
		logger: logger.With(zap.String("processor", name)),
	}
}

// Name 返回处理器名称。
func (b *BaseProcessor) Name() string { return b.name }

// Logger 返回带处理器标签的日志器。
func (b *BaseProcessor) Logger() *zap.Logger { return b.logger }

// Setup 默认无操作。
func (b *BaseProcessor) Setup(ctx context.Context) error { return nil }

// Cleanup 默认无操作。
func (b *BaseProcessor) Cleanup(ctx context.Context) error { return nil }

// PushFrame 将帧传递给下一个处理器。链尾的推送是无操作。
func (b *BaseProcessor) PushFrame(ctx context.Context, frame Frame, direction Direction) error {
	if b.output == nil {
		return nil
	}
	return b.output(ctx, frame, direction)
}

func (b *BaseProcessor) setOutput(fn PushFunc) { b.output = fn }
