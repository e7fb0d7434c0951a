package pipeline

import "github.com/BaSui01/voicerag/types"

// MetricData 指标记录的封闭变体集合。
// 消费者使用穷举 type switch 分派：
//
//	switch m := data.(type) {
//	case *pipeline.TTFBMetric: ...
//	case *pipeline.ProcessingMetric: ...
//	case *pipeline.TokenUsageMetric: ...
//	case *pipeline.CharacterUsageMetric: ...
//	default: // 未识别类型只记录 debug 日志，不报错
//	}
type MetricData interface {
	// SourceProcessor 返回产生该指标的处理器/服务标签。
	SourceProcessor() string
}

// TTFBMetric 首字节时间（Time To First Byte）指标。
type TTFBMetric struct {
	Processor string
	ValueMS   float64
}

// ProcessingMetric 阶段处理时长指标。
type ProcessingMetric struct {
	Processor string
	ValueMS   float64
}

// TokenUsageMetric LLM Token 用量指标。
type TokenUsageMetric struct {
	Processor string
	Usage     types.TokenUsage
}

// CharacterUsageMetric TTS 字符用量指标。
type CharacterUsageMetric struct {
	Processor  string
	Characters int
}

func (m TTFBMetric) SourceProcessor() string           { return m.Processor }
func (m ProcessingMetric) SourceProcessor() string     { return m.Processor }
func (m TokenUsageMetric) SourceProcessor() string     { return m.Processor }
func (m CharacterUsageMetric) SourceProcessor() string { return m.Processor }
