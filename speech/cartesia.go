package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const cartesiaVersion = "2024-06-10"

// CartesiaConfig Cartesia TTS 配置.
type CartesiaConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	VoiceID string // initial active voice
	Timeout time.Duration
}

// CartesiaProvider 使用 Cartesia API 执行 TTS.
// 活动语音受互斥锁保护，可在会话中途切换。
type CartesiaProvider struct {
	cfg    CartesiaConfig
	client *http.Client
	logger *zap.Logger

	mu      sync.RWMutex
	voiceID string
}

// NewCartesiaProvider 创建新的 Cartesia TTS 供应商.
func NewCartesiaProvider(cfg CartesiaConfig, logger *zap.Logger) *CartesiaProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.cartesia.ai"
	}
	if cfg.Model == "" {
		cfg.Model = "sonic-2"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CartesiaProvider{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With(zap.String("component", "cartesia_tts")),
		voiceID: cfg.VoiceID,
	}
}

func (p *CartesiaProvider) Name() string { return "cartesia" }

// Voice 返回当前活动语音 ID.
func (p *CartesiaProvider) Voice() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.voiceID
}

// SetVoice 切换活动语音。相同 ID 时直接返回。
func (p *CartesiaProvider) SetVoice(ctx context.Context, voiceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if voiceID == p.voiceID {
		return nil
	}
	p.voiceID = voiceID
	p.logger.Info("active voice updated", zap.String("voice_id", voiceID))
	return nil
}

type cartesiaVoiceRef struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

type cartesiaOutputFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}

type cartesiaTTSRequest struct {
	ModelID      string               `json:"model_id"`
	Transcript   string               `json:"transcript"`
	Voice        cartesiaVoiceRef     `json:"voice"`
	OutputFormat cartesiaOutputFormat `json:"output_format"`
	Language     string               `json:"language,omitempty"`
}

// Synthesize 使用 Cartesia 将文本转换为语音.
func (p *CartesiaProvider) Synthesize(ctx context.Context, req *TTSRequest) (*TTSResponse, error) {
	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}

	p.mu.RLock()
	voiceID := p.voiceID
	p.mu.RUnlock()
	if voiceID == "" {
		return nil, fmt.Errorf("cartesia: no active voice configured")
	}

	body := cartesiaTTSRequest{
		ModelID:    model,
		Transcript: req.Text,
		Voice:      cartesiaVoiceRef{Mode: "id", ID: voiceID},
		OutputFormat: cartesiaOutputFormat{
			Container:  "raw",
			Encoding:   "pcm_s16le",
			SampleRate: 16000,
		},
		Language: req.Language,
	}

	payload, _ := json.Marshal(body)
	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + "/tts/bytes"

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("X-API-Key", p.cfg.APIKey)
	httpReq.Header.Set("Cartesia-Version", cartesiaVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("cartesia request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cartesia error: status=%d body=%s", resp.StatusCode, string(errBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cartesia: read audio: %w", err)
	}

	return &TTSResponse{
		Provider:  p.Name(),
		Model:     model,
		AudioData: audio,
		Format:    "pcm_s16le",
		CharCount: len([]rune(req.Text)),
		CreatedAt: time.Now(),
	}, nil
}
