package conversation

import (
	"context"

	"github.com/BaSui01/voicerag/pipeline"
	"github.com/BaSui01/voicerag/types"
	"go.uber.org/zap"
)

// UserAggregator 将最终转写文本作为用户消息追加到会话历史。
// 必须位于 RAG 注入阶段之后，保证注入的系统消息先于用户消息可见。
type UserAggregator struct {
	pipeline.BaseProcessor
	conv *Context
}

// NewUserAggregator 创建用户侧聚合器。
func NewUserAggregator(conv *Context, logger *zap.Logger) *UserAggregator {
	return &UserAggregator{
		BaseProcessor: pipeline.NewBaseProcessor("user_aggregator", logger),
		conv:          conv,
	}
}

// ProcessFrame 追加用户消息并继续转发帧。
func (a *UserAggregator) ProcessFrame(ctx context.Context, frame pipeline.Frame, direction pipeline.Direction) error {
	if tf, ok := frame.(*pipeline.TranscriptionFrame); ok && tf.Text != "" {
		a.conv.Append(types.NewUserMessage(tf.Text))
		a.Logger().Debug("user message aggregated", zap.Int("history_len", a.conv.Len()))
	}
	return a.PushFrame(ctx, frame, direction)
}

// AssistantAggregator 将 LLM 输出文本作为助手消息追加到会话历史。
// 位于链尾：助手消息总是在本轮注入的系统消息与用户消息之后。
type AssistantAggregator struct {
	pipeline.BaseProcessor
	conv *Context
}

// NewAssistantAggregator 创建助手侧聚合器。
func NewAssistantAggregator(conv *Context, logger *zap.Logger) *AssistantAggregator {
	return &AssistantAggregator{
		BaseProcessor: pipeline.NewBaseProcessor("assistant_aggregator", logger),
		conv:          conv,
	}
}

// ProcessFrame 追加助手消息并继续转发帧。
func (a *AssistantAggregator) ProcessFrame(ctx context.Context, frame pipeline.Frame, direction pipeline.Direction) error {
	if tf, ok := frame.(*pipeline.TextFrame); ok && tf.Text != "" {
		a.conv.Append(types.NewAssistantMessage(tf.Text))
	}
	return a.PushFrame(ctx, frame, direction)
}
