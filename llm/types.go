// 软件包llm提供对话补全的统一提供者接口.
package llm

import (
	"context"
	"time"

	"github.com/BaSui01/voicerag/types"
)

// ChatResponse 一次补全调用的结果.
type ChatResponse struct {
	Provider  string           `json:"provider"`
	Model     string           `json:"model"`
	Content   string           `json:"content"`
	Usage     types.TokenUsage `json:"usage"`
	CreatedAt time.Time        `json:"created_at"`
}

// Provider 对话补全提供者接口.
type Provider interface {
	// Chat 以完整会话历史发起一次补全。
	Chat(ctx context.Context, messages []types.Message) (*ChatResponse, error)

	// Name 返回提供者名称。
	Name() string

	// Model 返回配置的模型 ID。
	Model() string
}
