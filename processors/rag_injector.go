package processors

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/voicerag/conversation"
	"github.com/BaSui01/voicerag/pipeline"
	"github.com/BaSui01/voicerag/types"
)

// ragInstruction 注入消息的指令前缀。检索文本原样附于其后。
const ragInstruction = "Use the following context to answer the user's question if relevant:\n\n"

// Retriever 检索接口（由 rag.Engine 实现）。
type Retriever interface {
	Query(ctx context.Context, text string, k int) (string, error)
}

// RAGInjector 在每条定稿用户文本上执行检索，
// 并在帧继续下行之前把检索上下文以系统消息追加到会话历史。
// 检索失败按空上下文处理，本轮继续无增强。
type RAGInjector struct {
	pipeline.BaseProcessor
	retriever Retriever
	convo     *conversation.Context
	topK      int
}

// NewRAGInjector 创建 RAG 注入阶段.
func NewRAGInjector(retriever Retriever, convo *conversation.Context, topK int, logger *zap.Logger) *RAGInjector {
	if topK < 1 {
		topK = 3
	}
	return &RAGInjector{
		BaseProcessor: pipeline.NewBaseProcessor("rag_injector", logger),
		retriever:     retriever,
		convo:         convo,
		topK:          topK,
	}
}

// ProcessFrame 处理到达的帧。仅定稿转写触发检索；
// 其余帧（含生命周期帧）原样转发。
func (p *RAGInjector) ProcessFrame(ctx context.Context, frame pipeline.Frame, direction pipeline.Direction) error {
	if f, ok := frame.(*pipeline.TranscriptionFrame); ok && direction == pipeline.Downstream {
		p.inject(ctx, f.Text)
	}
	return p.PushFrame(ctx, frame, direction)
}

// inject 检索并追加系统消息。上下文追加先于帧转发完成，
// 保证后续 LLM 调用能看到注入内容。
func (p *RAGInjector) inject(ctx context.Context, text string) {
	ragCtx, err := p.retriever.Query(ctx, text, p.topK)
	if err != nil {
		p.Logger().Error("rag retrieval failed, continuing without context", zap.Error(err))
		return
	}
	if ragCtx == "" {
		p.Logger().Debug("no rag context retrieved")
		return
	}

	p.convo.Append(types.NewSystemMessage(fmt.Sprintf("%s%s", ragInstruction, ragCtx)))
	p.Logger().Info("rag context injected",
		zap.Int("context_chars", len(ragCtx)),
		zap.Int("top_k", p.topK))
}
