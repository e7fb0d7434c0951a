// =============================================================================
// 📦 VoiceRAG 配置
// =============================================================================
// 统一配置结构，支持 YAML 文件 + 环境变量覆盖
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import "time"

// Config 是 VoiceRAG 的完整配置结构
type Config struct {
	// Providers 外部 AI 服务凭证与模型
	Providers ProvidersConfig `yaml:"providers"`

	// Language 多语言与语音映射配置
	Language LanguageConfig `yaml:"language"`

	// RAG 检索增强生成配置
	RAG RAGConfig `yaml:"rag"`

	// Pricing 用量成本估算费率
	Pricing PricingConfig `yaml:"pricing"`

	// Telemetry 遥测导出配置
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Log 日志配置
	Log LogConfig `yaml:"log"`
}

// ProvidersConfig 外部服务配置
type ProvidersConfig struct {
	// OpenAI API Key（LLM 与嵌入共用）
	OpenAIAPIKey string `yaml:"openai_api_key"`
	// OpenAI 兼容 API 地址
	OpenAIBaseURL string `yaml:"openai_base_url"`
	// LLM 模型名称
	LLMModel string `yaml:"llm_model"`
	// 嵌入模型名称
	EmbeddingModel string `yaml:"embedding_model"`
	// Cartesia API Key（TTS）
	CartesiaAPIKey string `yaml:"cartesia_api_key"`
	// Cartesia API 地址
	CartesiaBaseURL string `yaml:"cartesia_base_url"`
	// STT 模型标签（仅用于遥测属性）
	STTModel string `yaml:"stt_model"`
	// TTS 模型标签（仅用于遥测属性）
	TTSModel string `yaml:"tts_model"`
	// 请求超时
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LanguageConfig 多语言配置
type LanguageConfig struct {
	// 支持的语言代码列表（小写两字母）
	Supported []string `yaml:"supported"`
	// 默认语言代码
	Default string `yaml:"default"`
	// 默认语音 ID（语言无映射时的回退）
	DefaultVoice string `yaml:"default_voice"`
	// 语言 → 语音 ID 映射
	Voices map[string]string `yaml:"voices"`
}

// RAGConfig 检索配置
type RAGConfig struct {
	// 向量存储持久化路径
	PersistPath string `yaml:"persist_path"`
	// 知识库文档目录
	DocsDir string `yaml:"docs_dir"`
	// 块大小（字符）
	ChunkSize int `yaml:"chunk_size"`
	// 块重叠（字符）
	ChunkOverlap int `yaml:"chunk_overlap"`
	// 检索返回的块数量
	TopK int `yaml:"top_k"`
}

// PricingConfig 成本估算费率（USD）
type PricingConfig struct {
	// 每 prompt token 费率
	PromptPerToken float64 `yaml:"prompt_per_token"`
	// 每 completion token 费率
	CompletionPerToken float64 `yaml:"completion_per_token"`
	// 每 TTS 字符费率
	PerCharacter float64 `yaml:"per_character"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled"`
	// OTLP gRPC 端点
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	// 授权头（如 "Basic xxx"，Grafana Cloud 需要）
	AuthHeader string `yaml:"auth_header"`
	// 服务名称
	ServiceName string `yaml:"service_name"`
	// 导出周期
	ExportInterval time.Duration `yaml:"export_interval"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 级别: debug, info, warn, error
	Level string `yaml:"level"`
	// 格式: json, console
	Format string `yaml:"format"`
}

// DefaultConfig 返回带生产默认值的配置
func DefaultConfig() *Config {
	return &Config{
		Providers: ProvidersConfig{
			OpenAIBaseURL:   "https://api.openai.com/v1",
			LLMModel:        "gpt-4o",
			EmbeddingModel:  "text-embedding-3-small",
			CartesiaBaseURL: "https://api.cartesia.ai",
			STTModel:        "gladia",
			TTSModel:        "cartesia",
			RequestTimeout:  30 * time.Second,
		},
		Language: LanguageConfig{
			Supported: []string{"en", "bn", "hi", "ml", "mr", "ta", "te", "kn"},
			Default:   "en",
			Voices:    map[string]string{},
		},
		RAG: RAGConfig{
			PersistPath:  "./vector_store.db",
			DocsDir:      "./knowledge",
			ChunkSize:    1000,
			ChunkOverlap: 200,
			TopK:         3,
		},
		Pricing: PricingConfig{
			PromptPerToken:     0.00003,
			CompletionPerToken: 0.00006,
			PerCharacter:       0.000015,
		},
		Telemetry: TelemetryConfig{
			Enabled:        false,
			OTLPEndpoint:   "localhost:4317",
			ServiceName:    "voice-rag-bot",
			ExportInterval: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
