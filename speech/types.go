// 软件包speech提供语音合成服务接口与 Cartesia 实现.
package speech

import (
	"context"
	"time"
)

// TTSRequest 文本转语音请求.
type TTSRequest struct {
	Text     string `json:"text"`
	Model    string `json:"model,omitempty"`
	Language string `json:"language,omitempty"`
}

// TTSResponse 文本转语音响应.
type TTSResponse struct {
	Provider  string        `json:"provider"`
	Model     string        `json:"model"`
	AudioData []byte        `json:"audio_data,omitempty"`
	Format    string        `json:"format"`
	CharCount int           `json:"char_count,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// Service 语音输出协作方接口。除合成外还暴露
// 活动语音的切换与读取，供语言切换阶段驱动。
type Service interface {
	// Synthesize 将文本转换为语音。
	Synthesize(ctx context.Context, req *TTSRequest) (*TTSResponse, error)

	// SetVoice 切换活动语音。对相同 voiceID 幂等。
	SetVoice(ctx context.Context, voiceID string) error

	// Voice 返回当前活动语音 ID。
	Voice() string

	// Name 返回提供者名称。
	Name() string
}
