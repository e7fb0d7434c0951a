package processors

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/voicerag/pipeline"
)

// captureProcessor 链尾帧捕获器。
type captureProcessor struct {
	pipeline.BaseProcessor
	frames []pipeline.Frame
}

func newCapture() *captureProcessor {
	return &captureProcessor{BaseProcessor: pipeline.NewBaseProcessor("capture", zap.NewNop())}
}

func (c *captureProcessor) ProcessFrame(ctx context.Context, frame pipeline.Frame, direction pipeline.Direction) error {
	c.frames = append(c.frames, frame)
	return c.PushFrame(ctx, frame, direction)
}

// chain 借助管道构造器完成处理器链接，帧可直接送入链首处理器。
func chain(procs ...pipeline.Processor) {
	pipeline.New(zap.NewNop(), procs)
}
