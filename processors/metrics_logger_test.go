package processors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/voicerag/config"
	"github.com/BaSui01/voicerag/pipeline"
	"github.com/BaSui01/voicerag/types"
)

func testPricing() config.PricingConfig {
	return config.PricingConfig{
		PromptPerToken:     0.00003,
		CompletionPerToken: 0.00006,
		PerCharacter:       0.000015,
	}
}

func feed(t *testing.T, m *MetricsLogger, data ...pipeline.MetricData) {
	t.Helper()
	err := m.ProcessFrame(context.Background(), &pipeline.MetricsFrame{Data: data}, pipeline.Downstream)
	require.NoError(t, err)
}

func TestMetricsLogger_TTFBScenario(t *testing.T) {
	m := NewMetricsLogger(testPricing(), zap.NewNop())

	feed(t, m,
		&pipeline.TTFBMetric{Processor: "llm_service", ValueMS: 250},
		&pipeline.TTFBMetric{Processor: "llm_service", ValueMS: 150},
	)

	s := m.Summary()
	assert.Equal(t, 2, s.TTFB.Count)
	assert.InDelta(t, 150.0, s.TTFB.MinMS, 1e-9)
	assert.InDelta(t, 250.0, s.TTFB.MaxMS, 1e-9)
	assert.InDelta(t, 200.0, s.TTFB.AverageMS, 1e-9)
}

func TestMetricsLogger_TokenTotalsAndCost(t *testing.T) {
	m := NewMetricsLogger(testPricing(), zap.NewNop())

	feed(t, m, &pipeline.TokenUsageMetric{
		Processor: "llm_service",
		Usage:     types.TokenUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	})
	feed(t, m, &pipeline.TokenUsageMetric{
		Processor: "llm_service",
		Usage:     types.TokenUsage{PromptTokens: 200, CompletionTokens: 100, TotalTokens: 300},
	})

	s := m.Summary()
	assert.Equal(t, int64(300), s.PromptTokens)
	assert.Equal(t, int64(150), s.CompletionTokens)
	assert.Equal(t, int64(450), s.TotalTokens)
	assert.InDelta(t, 300*0.00003+150*0.00006, s.TokenCostUSD, 1e-9)
}

func TestMetricsLogger_CharacterTotalsAndCost(t *testing.T) {
	m := NewMetricsLogger(testPricing(), zap.NewNop())

	feed(t, m, &pipeline.CharacterUsageMetric{Processor: "tts_service", Characters: 120})
	feed(t, m, &pipeline.CharacterUsageMetric{Processor: "tts_service", Characters: 80})

	s := m.Summary()
	assert.Equal(t, int64(200), s.Characters)
	assert.InDelta(t, 200*0.000015, s.CharacterCostUSD, 1e-9)
}

// unknownMetric 未识别的指标种类。
type unknownMetric struct{}

func (unknownMetric) SourceProcessor() string { return "mystery" }

func TestMetricsLogger_UnknownKindDoesNotFail(t *testing.T) {
	m := NewMetricsLogger(testPricing(), zap.NewNop())

	feed(t, m, unknownMetric{})

	s := m.Summary()
	assert.Zero(t, s.TTFB.Count)
	assert.Zero(t, s.TotalTokens)
}

func TestMetricsLogger_ForwardsAllFrames(t *testing.T) {
	m := NewMetricsLogger(testPricing(), zap.NewNop())
	tail := newCapture()
	chain(m, tail)

	ctx := context.Background()
	frames := []pipeline.Frame{
		&pipeline.MetricsFrame{Data: []pipeline.MetricData{&pipeline.TTFBMetric{Processor: "x", ValueMS: 1}}},
		&pipeline.TextFrame{Text: "hello"},
		&pipeline.AudioFrame{Data: []byte{0x01}},
	}
	for _, f := range frames {
		require.NoError(t, m.ProcessFrame(ctx, f, pipeline.Downstream))
	}

	require.Len(t, tail.frames, len(frames), "metrics stage must forward every frame unmodified")
	for i := range frames {
		assert.Same(t, frames[i], tail.frames[i])
	}
}

func TestMetricsLogger_CleanupEmitsSummary(t *testing.T) {
	m := NewMetricsLogger(testPricing(), zap.NewNop())
	feed(t, m, &pipeline.TTFBMetric{Processor: "llm_service", ValueMS: 42})

	require.NoError(t, m.Cleanup(context.Background()))
}
