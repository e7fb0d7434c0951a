package processors

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/voicerag/config"
	"github.com/BaSui01/voicerag/pipeline"
)

// LatencyStats 一类延迟样本的统计摘要（毫秒）。
type LatencyStats struct {
	Count     int     `json:"count"`
	AverageMS float64 `json:"average_ms"`
	MinMS     float64 `json:"min_ms"`
	MaxMS     float64 `json:"max_ms"`
}

// Summary 会话级指标摘要。每次调用由累积状态新鲜计算。
type Summary struct {
	SessionDuration  time.Duration `json:"session_duration"`
	PromptTokens     int64         `json:"prompt_tokens"`
	CompletionTokens int64         `json:"completion_tokens"`
	TotalTokens      int64         `json:"total_tokens"`
	Characters       int64         `json:"characters"`
	TokenCostUSD     float64       `json:"token_cost_usd"`
	CharacterCostUSD float64       `json:"character_cost_usd"`
	TTFB             LatencyStats  `json:"ttfb"`
	Processing       LatencyStats  `json:"processing"`
}

// MetricsLogger 指标聚合阶段。按种类分派指标记录、维护运行聚合，
// 并把所有帧原样转发——本阶段永不终止管线流。
// 计数类聚合单调不减；min/max/avg 在每次读取时由全量样本重算。
type MetricsLogger struct {
	pipeline.BaseProcessor
	pricing config.PricingConfig

	mu               sync.Mutex
	sessionStart     time.Time
	ttfbSamples      []float64
	procSamples      []float64
	promptTokens     int64
	completionTokens int64
	characters       int64
}

// NewMetricsLogger 创建指标聚合阶段。
func NewMetricsLogger(pricing config.PricingConfig, logger *zap.Logger) *MetricsLogger {
	return &MetricsLogger{
		BaseProcessor: pipeline.NewBaseProcessor("metrics_logger", logger),
		pricing:       pricing,
		sessionStart:  time.Now(),
	}
}

// Setup 记录会话起点。
func (m *MetricsLogger) Setup(ctx context.Context) error {
	m.mu.Lock()
	m.sessionStart = time.Now()
	m.mu.Unlock()
	return nil
}

// ProcessFrame 处理到达的帧。指标帧被消化后同样继续下发。
func (m *MetricsLogger) ProcessFrame(ctx context.Context, frame pipeline.Frame, direction pipeline.Direction) error {
	if f, ok := frame.(*pipeline.MetricsFrame); ok {
		for _, data := range f.Data {
			m.record(data)
		}
	}
	return m.PushFrame(ctx, frame, direction)
}

// record 按封闭变体种类分派一条指标记录。
func (m *MetricsLogger) record(data pipeline.MetricData) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elapsed := time.Since(m.sessionStart)

	switch d := data.(type) {
	case *pipeline.TTFBMetric:
		m.ttfbSamples = append(m.ttfbSamples, d.ValueMS)
		avg, _, _ := aggregate(m.ttfbSamples)
		m.Logger().Info("ttfb",
			zap.Float64("value_ms", d.ValueMS),
			zap.Float64("avg_ms", avg),
			zap.String("source", d.Processor),
			zap.Duration("session_elapsed", elapsed))

	case *pipeline.ProcessingMetric:
		m.procSamples = append(m.procSamples, d.ValueMS)
		avg, _, max := aggregate(m.procSamples)
		m.Logger().Info("processing time",
			zap.Float64("value_ms", d.ValueMS),
			zap.Float64("avg_ms", avg),
			zap.Float64("max_ms", max),
			zap.String("source", d.Processor),
			zap.Duration("session_elapsed", elapsed))
		if category := stageCategory(d.Processor); category != "" {
			m.Logger().Info("stage latency",
				zap.String("stage", category),
				zap.Float64("value_ms", d.ValueMS))
		}

	case *pipeline.TokenUsageMetric:
		m.promptTokens += int64(d.Usage.PromptTokens)
		m.completionTokens += int64(d.Usage.CompletionTokens)
		cost := float64(d.Usage.PromptTokens)*m.pricing.PromptPerToken +
			float64(d.Usage.CompletionTokens)*m.pricing.CompletionPerToken
		m.Logger().Info("token usage",
			zap.Int("prompt_tokens", d.Usage.PromptTokens),
			zap.Int("completion_tokens", d.Usage.CompletionTokens),
			zap.Int64("cumulative_prompt", m.promptTokens),
			zap.Int64("cumulative_completion", m.completionTokens),
			zap.Float64("cost_usd", cost),
			zap.String("source", d.Processor))

	case *pipeline.CharacterUsageMetric:
		m.characters += int64(d.Characters)
		cost := float64(d.Characters) * m.pricing.PerCharacter
		m.Logger().Info("character usage",
			zap.Int("characters", d.Characters),
			zap.Int64("cumulative_characters", m.characters),
			zap.Float64("cost_usd", cost),
			zap.String("source", d.Processor))

	default:
		m.Logger().Debug("unrecognized metric kind",
			zap.String("source", data.SourceProcessor()))
	}
}

// Summary 由累积状态新鲜计算摘要（不缓存），活动会话期间可安全并发读取。
func (m *MetricsLogger) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summaryLocked()
}

func (m *MetricsLogger) summaryLocked() Summary {
	ttfbAvg, ttfbMin, ttfbMax := aggregate(m.ttfbSamples)
	procAvg, procMin, procMax := aggregate(m.procSamples)

	return Summary{
		SessionDuration:  time.Since(m.sessionStart),
		PromptTokens:     m.promptTokens,
		CompletionTokens: m.completionTokens,
		TotalTokens:      m.promptTokens + m.completionTokens,
		Characters:       m.characters,
		TokenCostUSD: float64(m.promptTokens)*m.pricing.PromptPerToken +
			float64(m.completionTokens)*m.pricing.CompletionPerToken,
		CharacterCostUSD: float64(m.characters) * m.pricing.PerCharacter,
		TTFB: LatencyStats{
			Count: len(m.ttfbSamples), AverageMS: ttfbAvg, MinMS: ttfbMin, MaxMS: ttfbMax,
		},
		Processing: LatencyStats{
			Count: len(m.procSamples), AverageMS: procAvg, MinMS: procMin, MaxMS: procMax,
		},
	}
}

// Cleanup 在会话拆除时输出一次终态摘要。
func (m *MetricsLogger) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	s := m.summaryLocked()
	m.mu.Unlock()

	m.Logger().Info("session metrics summary",
		zap.Duration("session_duration", s.SessionDuration),
		zap.Int64("prompt_tokens", s.PromptTokens),
		zap.Int64("completion_tokens", s.CompletionTokens),
		zap.Int64("total_tokens", s.TotalTokens),
		zap.Int64("characters", s.Characters),
		zap.Float64("token_cost_usd", s.TokenCostUSD),
		zap.Float64("character_cost_usd", s.CharacterCostUSD),
		zap.Int("ttfb_count", s.TTFB.Count),
		zap.Float64("ttfb_avg_ms", s.TTFB.AverageMS),
		zap.Float64("ttfb_min_ms", s.TTFB.MinMS),
		zap.Float64("ttfb_max_ms", s.TTFB.MaxMS),
		zap.Int("processing_count", s.Processing.Count),
		zap.Float64("processing_avg_ms", s.Processing.AverageMS),
		zap.Float64("processing_min_ms", s.Processing.MinMS),
		zap.Float64("processing_max_ms", s.Processing.MaxMS))

	return nil
}

// aggregate 返回样本集的 avg/min/max。空集返回全零。
func aggregate(samples []float64) (avg, min, max float64) {
	if len(samples) == 0 {
		return 0, 0, 0
	}
	min, max = samples[0], samples[0]
	var sum float64
	for _, v := range samples {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return sum / float64(len(samples)), min, max
}

// stageCategory 按子串匹配识别已知阶段类别。
func stageCategory(processor string) string {
	lower := strings.ToLower(processor)
	switch {
	case strings.Contains(lower, "llm"):
		return "llm"
	case strings.Contains(lower, "stt"):
		return "stt"
	case strings.Contains(lower, "tts"):
		return "tts"
	}
	return ""
}
