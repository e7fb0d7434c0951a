package processors

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/voicerag/pipeline"
	"github.com/BaSui01/voicerag/speech"
)

// TTSStage 语音合成阶段。消费 LLM 输出的文本帧，
// 下发音频帧与字符用量指标；文本帧本身继续下行，
// 供助手侧聚合器追加会话历史。合成失败不拦截文本。
type TTSStage struct {
	pipeline.BaseProcessor
	svc        speech.Service
	sampleRate int
}

// NewTTSStage 创建语音合成阶段。
func NewTTSStage(svc speech.Service, logger *zap.Logger) *TTSStage {
	return &TTSStage{
		BaseProcessor: pipeline.NewBaseProcessor("tts_service", logger),
		svc:           svc,
		sampleRate:    16000,
	}
}

// ProcessFrame 处理到达的帧。
func (s *TTSStage) ProcessFrame(ctx context.Context, frame pipeline.Frame, direction pipeline.Direction) error {
	if f, ok := frame.(*pipeline.TextFrame); ok && direction == pipeline.Downstream && f.Text != "" {
		if err := s.synthesize(ctx, f.Text); err != nil {
			return err
		}
	}
	return s.PushFrame(ctx, frame, direction)
}

// synthesize 合成文本并下发音频与指标帧。
func (s *TTSStage) synthesize(ctx context.Context, text string) error {
	start := time.Now()

	resp, err := s.svc.Synthesize(ctx, &speech.TTSRequest{Text: text})
	if err != nil {
		s.Logger().Error("speech synthesis failed", zap.Error(err))
		return nil
	}

	elapsedMS := float64(time.Since(start).Microseconds()) / 1000.0

	audio := &pipeline.AudioFrame{Data: resp.AudioData, SampleRate: s.sampleRate}
	if err := s.PushFrame(ctx, audio, pipeline.Downstream); err != nil {
		return err
	}

	metrics := &pipeline.MetricsFrame{Data: []pipeline.MetricData{
		&pipeline.TTFBMetric{Processor: s.Name(), ValueMS: elapsedMS},
		&pipeline.ProcessingMetric{Processor: s.Name(), ValueMS: elapsedMS},
		&pipeline.CharacterUsageMetric{Processor: s.Name(), Characters: resp.CharCount},
	}}

	s.Logger().Debug("speech synthesized",
		zap.Int("characters", resp.CharCount),
		zap.Int("audio_bytes", len(resp.AudioData)),
		zap.Float64("elapsed_ms", elapsedMS))

	return s.PushFrame(ctx, metrics, pipeline.Downstream)
}
