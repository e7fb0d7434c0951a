package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader 配置加载器
type Loader struct {
	configPath string
}

// NewLoader 创建配置加载器
func NewLoader() *Loader {
	return &Loader{}
}

// WithConfigPath 设置 YAML 配置文件路径（可选）
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// Load 按 默认值 → YAML → 环境变量 的优先级加载配置
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file %s: %w", l.configPath, err)
			}
			// 配置文件缺失不是错误，回退到默认值 + 环境变量
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", l.configPath, err)
		}
	}

	l.applyEnv(cfg)
	return cfg, nil
}

// applyEnv 应用环境变量覆盖
func (l *Loader) applyEnv(cfg *Config) {
	setString(&cfg.Providers.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&cfg.Providers.OpenAIBaseURL, "OPENAI_BASE_URL")
	setString(&cfg.Providers.LLMModel, "LLM_MODEL")
	setString(&cfg.Providers.EmbeddingModel, "EMBEDDING_MODEL")
	setString(&cfg.Providers.CartesiaAPIKey, "CARTESIA_API_KEY")
	setString(&cfg.Providers.CartesiaBaseURL, "CARTESIA_BASE_URL")

	if v := os.Getenv("SUPPORTED_LANGUAGES"); v != "" {
		langs := make([]string, 0, 8)
		for _, lang := range strings.Split(v, ",") {
			lang = strings.ToLower(strings.TrimSpace(lang))
			if lang != "" {
				langs = append(langs, lang)
			}
		}
		if len(langs) > 0 {
			cfg.Language.Supported = langs
		}
	}
	if v := os.Getenv("DEFAULT_LANGUAGE"); v != "" {
		cfg.Language.Default = strings.ToLower(v)
	}
	setString(&cfg.Language.DefaultVoice, "CARTESIA_VOICE_ID")

	// 每个支持的语言查找 CARTESIA_VOICE_ID_{LANG}
	if cfg.Language.Voices == nil {
		cfg.Language.Voices = map[string]string{}
	}
	for _, lang := range cfg.Language.Supported {
		key := "CARTESIA_VOICE_ID_" + strings.ToUpper(lang)
		if v := os.Getenv(key); v != "" {
			cfg.Language.Voices[lang] = v
		}
	}

	setString(&cfg.RAG.PersistPath, "RAG_PERSIST_PATH")
	setString(&cfg.RAG.DocsDir, "RAG_DOCS_DIR")

	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.Enabled = true
		cfg.Telemetry.OTLPEndpoint = v
	}
	setString(&cfg.Telemetry.AuthHeader, "OTEL_EXPORTER_OTLP_HEADERS")
	setString(&cfg.Log.Level, "LOG_LEVEL")

	if v := os.Getenv("TELEMETRY_EXPORT_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Telemetry.ExportInterval = d
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate 校验配置。返回的 error 为致命错误（缺少必需凭证），
// warnings 为非致命问题（缺少语音映射等，回退到默认值）。
func (c *Config) Validate() (warnings []string, err error) {
	var errs []string

	if c.Providers.OpenAIAPIKey == "" {
		errs = append(errs, "OPENAI_API_KEY not set")
	}
	if c.Providers.CartesiaAPIKey == "" {
		errs = append(errs, "CARTESIA_API_KEY not set")
	}
	if c.Language.Default == "" {
		errs = append(errs, "default language not set")
	}

	if c.Language.DefaultVoice == "" {
		warnings = append(warnings, "CARTESIA_VOICE_ID not set - TTS may not work")
	}
	for _, lang := range c.Language.Supported {
		if _, ok := c.Language.Voices[lang]; !ok {
			warnings = append(warnings, fmt.Sprintf("no voice mapping for %q, using default voice", lang))
		}
	}
	if c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		errs = append(errs, "rag chunk_overlap must be smaller than chunk_size")
	}

	if len(errs) > 0 {
		return warnings, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return warnings, nil
}

// VoiceFor 返回语言对应的语音 ID，无映射时回退到默认语音。
func (c *LanguageConfig) VoiceFor(lang string) string {
	if voice, ok := c.Voices[lang]; ok && voice != "" {
		return voice
	}
	return c.DefaultVoice
}
