package processors

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/BaSui01/voicerag/config"
	"github.com/BaSui01/voicerag/pipeline"
)

// TelemetryExporter 遥测导出阶段。把指标记录写入 OTel 仪表
// （直方图与计数器），由周期读取器按节奏上报远端。
// 导出路径是尽力而为：汇端故障不影响管线正确性。
type TelemetryExporter struct {
	pipeline.BaseProcessor
	pricing config.PricingConfig
	callID  string
	attrs   []attribute.KeyValue

	ttfbHist         metric.Float64Histogram
	processingHist   metric.Float64Histogram
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	characters       metric.Int64Counter
	costUSD          metric.Float64Counter
}

// NewTelemetryExporter 创建遥测导出阶段。每个会话生成独立 call_id，
// modelAttrs 附加模型标识（如 llm_model、tts_model）到每条记录。
func NewTelemetryExporter(meter metric.Meter, pricing config.PricingConfig, modelAttrs map[string]string, logger *zap.Logger) (*TelemetryExporter, error) {
	callID := uuid.NewString()

	attrs := []attribute.KeyValue{attribute.String("call_id", callID)}
	for k, v := range modelAttrs {
		attrs = append(attrs, attribute.String(k, v))
	}

	e := &TelemetryExporter{
		BaseProcessor: pipeline.NewBaseProcessor("telemetry_exporter", logger),
		pricing:       pricing,
		callID:        callID,
		attrs:         attrs,
	}

	var err error
	if e.ttfbHist, err = meter.Float64Histogram("voicerag.ttfb.ms",
		metric.WithDescription("Time to first byte per stage"),
		metric.WithUnit("ms")); err != nil {
		return nil, fmt.Errorf("create ttfb histogram: %w", err)
	}
	if e.processingHist, err = meter.Float64Histogram("voicerag.processing.ms",
		metric.WithDescription("Processing duration per stage"),
		metric.WithUnit("ms")); err != nil {
		return nil, fmt.Errorf("create processing histogram: %w", err)
	}
	if e.promptTokens, err = meter.Int64Counter("voicerag.tokens.prompt",
		metric.WithDescription("Cumulative prompt tokens")); err != nil {
		return nil, fmt.Errorf("create prompt token counter: %w", err)
	}
	if e.completionTokens, err = meter.Int64Counter("voicerag.tokens.completion",
		metric.WithDescription("Cumulative completion tokens")); err != nil {
		return nil, fmt.Errorf("create completion token counter: %w", err)
	}
	if e.characters, err = meter.Int64Counter("voicerag.characters",
		metric.WithDescription("Cumulative TTS characters")); err != nil {
		return nil, fmt.Errorf("create character counter: %w", err)
	}
	if e.costUSD, err = meter.Float64Counter("voicerag.cost.usd",
		metric.WithDescription("Estimated cumulative cost"),
		metric.WithUnit("{usd}")); err != nil {
		return nil, fmt.Errorf("create cost counter: %w", err)
	}

	return e, nil
}

// CallID 返回本会话的调用标识。
func (e *TelemetryExporter) CallID() string { return e.callID }

// ProcessFrame 处理到达的帧。
func (e *TelemetryExporter) ProcessFrame(ctx context.Context, frame pipeline.Frame, direction pipeline.Direction) error {
	if f, ok := frame.(*pipeline.MetricsFrame); ok {
		for _, data := range f.Data {
			e.export(ctx, data)
		}
	}
	return e.PushFrame(ctx, frame, direction)
}

// export 把一条指标记录写入对应仪表。
func (e *TelemetryExporter) export(ctx context.Context, data pipeline.MetricData) {
	opts := metric.WithAttributes(append(e.attrs,
		attribute.String("processor", data.SourceProcessor()))...)

	switch d := data.(type) {
	case *pipeline.TTFBMetric:
		e.ttfbHist.Record(ctx, d.ValueMS, opts)
	case *pipeline.ProcessingMetric:
		e.processingHist.Record(ctx, d.ValueMS, opts)
	case *pipeline.TokenUsageMetric:
		e.promptTokens.Add(ctx, int64(d.Usage.PromptTokens), opts)
		e.completionTokens.Add(ctx, int64(d.Usage.CompletionTokens), opts)
		cost := float64(d.Usage.PromptTokens)*e.pricing.PromptPerToken +
			float64(d.Usage.CompletionTokens)*e.pricing.CompletionPerToken
		e.costUSD.Add(ctx, cost, opts)
	case *pipeline.CharacterUsageMetric:
		e.characters.Add(ctx, int64(d.Characters), opts)
		e.costUSD.Add(ctx, float64(d.Characters)*e.pricing.PerCharacter, opts)
	default:
		e.Logger().Debug("unrecognized metric kind",
			zap.String("source", data.SourceProcessor()))
	}
}
