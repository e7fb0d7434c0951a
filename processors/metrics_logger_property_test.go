package processors

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/BaSui01/voicerag/pipeline"
	"github.com/BaSui01/voicerag/types"
)

// 聚合不变式：计数类累计单调不减；每次插入延迟样本后 min ≤ avg ≤ max。
func TestMetricsLogger_AggregateInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := NewMetricsLogger(testPricing(), zap.NewNop())
		ctx := context.Background()

		var prevTokens, prevChars int64

		n := rapid.IntRange(1, 50).Draw(t, "records")
		for i := 0; i < n; i++ {
			var data pipeline.MetricData
			switch rapid.IntRange(0, 3).Draw(t, "kind") {
			case 0:
				data = &pipeline.TTFBMetric{
					Processor: "llm_service",
					ValueMS:   rapid.Float64Range(0, 10000).Draw(t, "ttfb"),
				}
			case 1:
				data = &pipeline.ProcessingMetric{
					Processor: "tts_service",
					ValueMS:   rapid.Float64Range(0, 10000).Draw(t, "proc"),
				}
			case 2:
				data = &pipeline.TokenUsageMetric{
					Processor: "llm_service",
					Usage: types.TokenUsage{
						PromptTokens:     rapid.IntRange(0, 5000).Draw(t, "prompt"),
						CompletionTokens: rapid.IntRange(0, 5000).Draw(t, "completion"),
					},
				}
			default:
				data = &pipeline.CharacterUsageMetric{
					Processor:  "tts_service",
					Characters: rapid.IntRange(0, 5000).Draw(t, "chars"),
				}
			}

			if err := m.ProcessFrame(ctx, &pipeline.MetricsFrame{Data: []pipeline.MetricData{data}}, pipeline.Downstream); err != nil {
				t.Fatalf("process frame: %v", err)
			}

			s := m.Summary()

			if s.TotalTokens < prevTokens {
				t.Fatalf("token total decreased: %d -> %d", prevTokens, s.TotalTokens)
			}
			if s.Characters < prevChars {
				t.Fatalf("character total decreased: %d -> %d", prevChars, s.Characters)
			}
			prevTokens, prevChars = s.TotalTokens, s.Characters

			for _, stats := range []LatencyStats{s.TTFB, s.Processing} {
				if stats.Count == 0 {
					continue
				}
				if !(stats.MinMS <= stats.AverageMS+1e-9) {
					t.Fatalf("min %.4f > avg %.4f", stats.MinMS, stats.AverageMS)
				}
				if !(stats.AverageMS <= stats.MaxMS+1e-9) {
					t.Fatalf("avg %.4f > max %.4f", stats.AverageMS, stats.MaxMS)
				}
			}

			if s.TotalTokens != s.PromptTokens+s.CompletionTokens {
				t.Fatalf("total tokens %d != prompt %d + completion %d",
					s.TotalTokens, s.PromptTokens, s.CompletionTokens)
			}
		}
	})
}
