package processors

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/voicerag/conversation"
	"github.com/BaSui01/voicerag/llm"
	"github.com/BaSui01/voicerag/pipeline"
)

// LLMStage LLM 推理阶段。定稿用户转写（或显式 LLMRunFrame）
// 触发一次补全调用：以会话历史快照为输入，向下游发出
// 响应文本帧与用量指标帧。推理失败记录日志后本轮放弃，
// 不阻断后续帧。
type LLMStage struct {
	pipeline.BaseProcessor
	provider llm.Provider
	convo    *conversation.Context
}

// NewLLMStage 创建 LLM 推理阶段。
func NewLLMStage(provider llm.Provider, convo *conversation.Context, logger *zap.Logger) *LLMStage {
	return &LLMStage{
		BaseProcessor: pipeline.NewBaseProcessor("llm_service", logger),
		provider:      provider,
		convo:         convo,
	}
}

// ProcessFrame 处理到达的帧。
func (s *LLMStage) ProcessFrame(ctx context.Context, frame pipeline.Frame, direction pipeline.Direction) error {
	if err := s.PushFrame(ctx, frame, direction); err != nil {
		return err
	}

	switch frame.(type) {
	case *pipeline.TranscriptionFrame, *pipeline.LLMRunFrame:
		return s.run(ctx)
	}
	return nil
}

// run 执行一次补全并下发结果帧。此时 RAG 系统消息与用户消息
// 均已追加完毕，快照包含本轮全部上下文。
func (s *LLMStage) run(ctx context.Context) error {
	start := time.Now()

	resp, err := s.provider.Chat(ctx, s.convo.Messages())
	if err != nil {
		s.Logger().Error("llm completion failed", zap.Error(err))
		return nil
	}

	elapsedMS := float64(time.Since(start).Microseconds()) / 1000.0

	metrics := &pipeline.MetricsFrame{Data: []pipeline.MetricData{
		&pipeline.TTFBMetric{Processor: s.Name(), ValueMS: elapsedMS},
		&pipeline.ProcessingMetric{Processor: s.Name(), ValueMS: elapsedMS},
		&pipeline.TokenUsageMetric{Processor: s.Name(), Usage: resp.Usage},
	}}
	if err := s.PushFrame(ctx, metrics, pipeline.Downstream); err != nil {
		return err
	}

	s.Logger().Debug("llm completion",
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Float64("elapsed_ms", elapsedMS))

	return s.PushFrame(ctx, &pipeline.TextFrame{Text: resp.Content}, pipeline.Downstream)
}
