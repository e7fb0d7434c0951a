// =============================================================================
// VoiceRAG 主入口
// =============================================================================
// 语音 RAG 会话服务入口点。加载配置、构建检索引擎与处理管线，
// 以行式控制台会话驱动管线（每行输入作为一条定稿转写）。
//
// 使用方法:
//
//	voicerag                        # 启动会话（读取 .env 与环境变量）
//	voicerag --config config.yaml   # 指定配置文件
//
// 控制台输入约定: 以 "@xx " 开头的行携带语言标签，
// 如 "@hi नमस्ते" 模拟检测为印地语的定稿转写。
// =============================================================================

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/voicerag/config"
	"github.com/BaSui01/voicerag/conversation"
	"github.com/BaSui01/voicerag/embedding"
	"github.com/BaSui01/voicerag/internal/telemetry"
	"github.com/BaSui01/voicerag/llm"
	"github.com/BaSui01/voicerag/pipeline"
	"github.com/BaSui01/voicerag/processors"
	"github.com/BaSui01/voicerag/rag"
	"github.com/BaSui01/voicerag/rag/loader"
	"github.com/BaSui01/voicerag/speech"
)

const systemPrompt = "You are a helpful voice assistant. Keep your answers concise " +
	"and conversational; they will be spoken aloud. Answer in the language the user speaks."

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	// .env 缺失不是错误
	_ = godotenv.Load()

	cfg, err := config.NewLoader().WithConfigPath(*configPath).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	warnings, err := cfg.Validate()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	for _, w := range warnings {
		logger.Warn(w)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("session failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	// ---- 检索引擎 ----
	store, err := rag.OpenSQLiteVectorStore(cfg.RAG.PersistPath, logger)
	if err != nil {
		return fmt.Errorf("open vector store: %w", err)
	}
	defer func() { _ = store.Close() }()

	embedder := embedding.NewOpenAIProvider(embedding.OpenAIConfig{
		APIKey:  cfg.Providers.OpenAIAPIKey,
		BaseURL: cfg.Providers.OpenAIBaseURL,
		Model:   cfg.Providers.EmbeddingModel,
		Timeout: cfg.Providers.RequestTimeout,
	})

	var tokenizer rag.Tokenizer
	if tk, err := rag.NewTiktokenTokenizer(cfg.Providers.LLMModel, logger); err != nil {
		logger.Warn("tiktoken unavailable, using character estimate", zap.Error(err))
		tokenizer = rag.EstimateTokenizer{}
	} else {
		tokenizer = tk
	}

	chunker := rag.NewDocumentChunker(rag.ChunkingConfig{
		ChunkSize:    cfg.RAG.ChunkSize,
		ChunkOverlap: cfg.RAG.ChunkOverlap,
		MinChunkSize: 1,
	}, tokenizer, logger)

	engine := rag.NewEngine(store, embedder, chunker, loader.NewRegistry(), logger)

	// ---- 会话与外部服务 ----
	convo := conversation.NewContext(systemPrompt)

	ttsService := speech.NewCartesiaProvider(speech.CartesiaConfig{
		APIKey:  cfg.Providers.CartesiaAPIKey,
		BaseURL: cfg.Providers.CartesiaBaseURL,
		VoiceID: cfg.Language.VoiceFor(cfg.Language.Default),
	}, logger)

	llmProvider := llm.NewOpenAIProvider(llm.OpenAIConfig{
		APIKey:  cfg.Providers.OpenAIAPIKey,
		BaseURL: cfg.Providers.OpenAIBaseURL,
		Model:   cfg.Providers.LLMModel,
		Timeout: cfg.Providers.RequestTimeout,
	})

	// ---- 管线阶段 ----
	switcher := processors.NewVoiceSwitcher(ttsService, processors.VoiceSwitcherConfig{
		Voices:          cfg.Language.Voices,
		DefaultLanguage: cfg.Language.Default,
		DefaultVoice:    cfg.Language.DefaultVoice,
	}, logger)

	injector := processors.NewRAGInjector(engine, convo, cfg.RAG.TopK, logger)
	userAgg := conversation.NewUserAggregator(convo, logger)
	llmStage := processors.NewLLMStage(llmProvider, convo, logger)
	ttsStage := processors.NewTTSStage(ttsService, logger)
	metricsLogger := processors.NewMetricsLogger(cfg.Pricing, logger)

	exporter, err := processors.NewTelemetryExporter(
		providers.Meter("voicerag"),
		cfg.Pricing,
		map[string]string{
			"llm_model": cfg.Providers.LLMModel,
			"stt_model": cfg.Providers.STTModel,
			"tts_model": cfg.Providers.TTSModel,
		},
		logger,
	)
	if err != nil {
		return fmt.Errorf("create telemetry exporter: %w", err)
	}

	assistantAgg := conversation.NewAssistantAggregator(convo, logger)

	pipe := pipeline.New(logger, []pipeline.Processor{
		switcher,
		injector,
		userAgg,
		llmStage,
		ttsStage,
		metricsLogger,
		exporter,
		assistantAgg,
	})

	// 开场问候
	if err := pipe.QueueFrame(ctx, &pipeline.LLMRunFrame{}); err != nil {
		return err
	}

	go readConsole(ctx, pipe, logger)

	logger.Info("session started",
		zap.String("call_id", exporter.CallID()),
		zap.String("default_language", cfg.Language.Default))

	return pipe.Run(ctx)
}

// readConsole 行式控制台会话驱动：每行标准输入成为一条定稿转写帧。
// EOF 触发有序停机。
func readConsole(ctx context.Context, pipe *pipeline.Pipeline, logger *zap.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var lang string
		if strings.HasPrefix(line, "@") {
			if tag, rest, ok := strings.Cut(line[1:], " "); ok {
				lang = tag
				line = strings.TrimSpace(rest)
			}
		}

		frame := &pipeline.TranscriptionFrame{
			Text:      line,
			Language:  lang,
			Timestamp: time.Now(),
		}
		if err := pipe.QueueFrame(ctx, frame); err != nil {
			logger.Warn("frame rejected", zap.Error(err))
			return
		}
	}

	_ = pipe.QueueFrame(ctx, &pipeline.EndFrame{})
}

// initLogger 按配置构建 zap 日志器。
func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoding = "console"
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
