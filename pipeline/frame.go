// Package pipeline 提供语音管道的帧处理契约。
// 帧（Frame）是管道内流动的最小事件单元：音频、文本、转写结果、
// 指标与生命周期信号都以帧的形式按 FIFO 顺序穿过处理器链。
package pipeline

import "time"

// Direction 帧流动方向
type Direction int

const (
	// Downstream 向下游流动（输入 → 输出）
	Downstream Direction = iota
	// Upstream 向上游流动（控制/错误回传）
	Upstream
)

func (d Direction) String() string {
	if d == Upstream {
		return "upstream"
	}
	return "downstream"
}

// Frame 管道帧标记接口。具体帧类型为封闭集合，
// 处理器通过类型断言分派，未识别的帧必须原样转发。
type Frame interface {
	frame()
}

// StartFrame 管道启动信号，处理器收到后方可处理业务帧。
type StartFrame struct{}

// EndFrame 管道结束信号，触发有序停机。
type EndFrame struct{}

// TextFrame 承载 LLM 输出等普通文本。
type TextFrame struct {
	Text string
}

// AudioFrame 承载合成或采集的音频数据，管道对其透传。
type AudioFrame struct {
	Data       []byte
	SampleRate int
}

// LLMRunFrame 触发一次 LLM 推理（例如开场问候）。
type LLMRunFrame struct{}

// TranscriptionFrame 最终（authoritative）转写结果。
// Language 为 STT 检测到的语言代码，可能为空。
type TranscriptionFrame struct {
	Text      string
	Language  string
	Timestamp time.Time
}

// InterimTranscriptionFrame 临时（partial）转写结果。
// 临时结果不可触发任何副作用，也不会到达下游消费者。
type InterimTranscriptionFrame struct {
	Text      string
	Language  string
	Timestamp time.Time
}

// MetricsFrame 承载一批异构指标记录。
type MetricsFrame struct {
	Data []MetricData
}

func (StartFrame) frame()                {}
func (EndFrame) frame()                  {}
func (TextFrame) frame()                 {}
func (AudioFrame) frame()                {}
func (LLMRunFrame) frame()               {}
func (TranscriptionFrame) frame()        {}
func (InterimTranscriptionFrame) frame() {}
func (MetricsFrame) frame()              {}
