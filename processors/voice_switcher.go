package processors

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/voicerag/pipeline"
	"github.com/BaSui01/voicerag/speech"
)

// VoiceSwitcherConfig 语言切换阶段配置.
type VoiceSwitcherConfig struct {
	// Voices 标准化语言码到语音 ID 的映射。
	Voices map[string]string
	// DefaultLanguage 初始与回退语言码。
	DefaultLanguage string
	// DefaultVoice 映射缺失时的回退语音 ID。
	DefaultVoice string
}

// VoiceSwitcher 语言驱动的语音切换状态机。
// 仅对定稿转写帧读写状态；中间（interim）帧整帧丢弃。
// 不变式：currentVoice 恒等于 currentLanguage 的映射查找结果
// （缺失时为默认语音）。重配失败不更新状态，下次语言变化时重试。
type VoiceSwitcher struct {
	pipeline.BaseProcessor
	svc speech.Service
	cfg VoiceSwitcherConfig

	mu              sync.RWMutex
	currentLanguage string
	currentVoice    string
}

// NewVoiceSwitcher 创建语音切换阶段。初始状态为默认语言及其映射语音。
func NewVoiceSwitcher(svc speech.Service, cfg VoiceSwitcherConfig, logger *zap.Logger) *VoiceSwitcher {
	s := &VoiceSwitcher{
		BaseProcessor: pipeline.NewBaseProcessor("voice_switcher", logger),
		svc:           svc,
		cfg:           cfg,
	}
	s.currentLanguage = cfg.DefaultLanguage
	s.currentVoice = s.voiceFor(cfg.DefaultLanguage)
	return s
}

// CurrentLanguage 返回当前语言码。
func (s *VoiceSwitcher) CurrentLanguage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentLanguage
}

// CurrentVoice 返回当前语音 ID。
func (s *VoiceSwitcher) CurrentVoice() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentVoice
}

// ProcessFrame 处理到达的帧。
func (s *VoiceSwitcher) ProcessFrame(ctx context.Context, frame pipeline.Frame, direction pipeline.Direction) error {
	switch f := frame.(type) {
	case *pipeline.InterimTranscriptionFrame:
		// 临时结果不触发任何状态变化，也不下发
		return nil
	case *pipeline.TranscriptionFrame:
		s.handleFinal(ctx, f)
	}
	return s.PushFrame(ctx, frame, direction)
}

// handleFinal 对定稿转写执行语言状态迁移。语言处理失败
// 绝不拦截文本帧本身。
func (s *VoiceSwitcher) handleFinal(ctx context.Context, f *pipeline.TranscriptionFrame) {
	lang := normalizeLanguage(f.Language)

	s.mu.Lock()
	defer s.mu.Unlock()

	if lang == "" {
		// 检测缺口：回退默认，防止过期的非默认状态滞留
		if s.currentLanguage == s.cfg.DefaultLanguage {
			return
		}
		lang = s.cfg.DefaultLanguage
		s.Logger().Info("no language detected, reverting to default",
			zap.String("from", s.currentLanguage),
			zap.String("to", lang))
	}

	target := s.voiceFor(lang)
	if target == s.currentVoice {
		s.currentLanguage = lang
		return
	}

	if err := s.svc.SetVoice(ctx, target); err != nil {
		s.Logger().Error("voice reconfiguration failed",
			zap.String("language", lang),
			zap.String("voice_id", target),
			zap.Error(err))
		return
	}

	s.Logger().Info("voice switched",
		zap.String("language", lang),
		zap.String("from", s.currentVoice),
		zap.String("to", target))
	s.currentLanguage = lang
	s.currentVoice = target
}

// voiceFor 查找语言对应的语音 ID，缺失时回退默认语音。
func (s *VoiceSwitcher) voiceFor(lang string) string {
	if v, ok := s.cfg.Voices[lang]; ok && v != "" {
		return v
	}
	return s.cfg.DefaultVoice
}

// normalizeLanguage 将 "hi-IN" 风格的语言标签归一为小写前缀 "hi"。
func normalizeLanguage(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if i := strings.Index(raw, "-"); i >= 0 {
		raw = raw[:i]
	}
	return strings.ToLower(raw)
}
