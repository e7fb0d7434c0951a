package pipeline

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Pipeline 将处理器串成有序链，并以严格 FIFO 顺序驱动帧。
// 每个会话拥有一条独立管道，由单一 goroutine 消费帧队列：
// 一个帧在某处理器中完成（或显式挂起于 ctx）之前，下一个帧不会进入该处理器。
type Pipeline struct {
	procs  []Processor
	sink   PushFunc
	queue  chan Frame
	logger *zap.Logger

	cleanupOnce sync.Once
	done        chan struct{}
}

// Option 管道选项
type Option func(*Pipeline)

// WithSink 设置链尾帧接收器（通常为传输层输出）。
func WithSink(sink PushFunc) Option {
	return func(p *Pipeline) { p.sink = sink }
}

// WithQueueSize 设置帧队列容量。
func WithQueueSize(n int) Option {
	return func(p *Pipeline) { p.queue = make(chan Frame, n) }
}

// New 创建管道并完成处理器链接。
func New(logger *zap.Logger, procs []Processor, opts ...Option) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		procs:  procs,
		queue:  make(chan Frame, 64),
		logger: logger.With(zap.String("component", "pipeline")),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.link()
	return p
}

// link 为每个处理器注入转发函数：下游帧交给下一个处理器，
// 上游帧交给前一个处理器，链尾帧交给 sink。
func (p *Pipeline) link() {
	for i, proc := range p.procs {
		ln, ok := proc.(linkable)
		if !ok {
			continue
		}
		idx := i
		ln.setOutput(func(ctx context.Context, frame Frame, direction Direction) error {
			if direction == Upstream {
				if idx == 0 {
					return nil
				}
				return p.procs[idx-1].ProcessFrame(ctx, frame, direction)
			}
			if idx == len(p.procs)-1 {
				if p.sink != nil {
					return p.sink(ctx, frame, direction)
				}
				return nil
			}
			return p.procs[idx+1].ProcessFrame(ctx, frame, direction)
		})
	}
}

// QueueFrame 将帧放入队列。管道停止后入队是无操作。
func (p *Pipeline) QueueFrame(ctx context.Context, frame Frame) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case p.queue <- frame:
		return nil
	}
}

// Run 驱动管道直到 ctx 取消或收到 EndFrame。
// 返回前保证每个处理器的 Cleanup 恰好执行一次。
func (p *Pipeline) Run(ctx context.Context) error {
	for _, proc := range p.procs {
		if err := proc.Setup(ctx); err != nil {
			p.teardown()
			return fmt.Errorf("setup processor %s: %w", proc.Name(), err)
		}
	}

	p.process(ctx, &StartFrame{})

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("session cancelled, tearing down pipeline")
			p.teardown()
			return ctx.Err()
		case frame := <-p.queue:
			p.process(ctx, frame)
			if _, isEnd := frame.(*EndFrame); isEnd {
				p.teardown()
				return nil
			}
		}
	}
}

// Shutdown 在未运行或外部中止时安全触发拆除。
func (p *Pipeline) Shutdown() {
	p.teardown()
}

// process 将帧送入链首。阶段错误记录后吞掉，帧流不中断。
func (p *Pipeline) process(ctx context.Context, frame Frame) {
	if len(p.procs) == 0 {
		return
	}
	if err := p.procs[0].ProcessFrame(ctx, frame, Downstream); err != nil {
		p.logger.Error("frame processing failed",
			zap.String("frame", fmt.Sprintf("%T", frame)),
			zap.Error(err))
	}
}

// teardown 逆序执行 Cleanup，恰好一次；即使从未处理过帧也安全。
func (p *Pipeline) teardown() {
	p.cleanupOnce.Do(func() {
		// 拆除使用独立 ctx：会话取消不应中断终态刷写
		ctx := context.Background()
		for i := len(p.procs) - 1; i >= 0; i-- {
			if err := p.procs[i].Cleanup(ctx); err != nil {
				p.logger.Error("processor cleanup failed",
					zap.String("processor", p.procs[i].Name()),
					zap.Error(err))
			}
		}
		close(p.done)
	})
}
