// =============================================================================
// VoiceRAG 知识库摄取
// =============================================================================
// 一次性批处理任务：扫描文档目录、分块、嵌入并写入持久化向量存储。
// 在服务开始前离线运行；与在线查询并发摄取是不受支持的配置。
//
// 使用方法:
//
//	ingest                          # 摄取配置的文档目录
//	ingest --docs ./knowledge       # 指定文档目录
//	ingest --config config.yaml
// =============================================================================

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/BaSui01/voicerag/config"
	"github.com/BaSui01/voicerag/embedding"
	"github.com/BaSui01/voicerag/rag"
	"github.com/BaSui01/voicerag/rag/loader"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	docsDir := flag.String("docs", "", "documents directory (overrides config)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.NewLoader().WithConfigPath(*configPath).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *docsDir != "" {
		cfg.RAG.DocsDir = *docsDir
	}

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if cfg.Providers.OpenAIAPIKey == "" {
		logger.Fatal("OPENAI_API_KEY is required for embedding")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := rag.OpenSQLiteVectorStore(cfg.RAG.PersistPath, logger)
	if err != nil {
		logger.Fatal("open vector store", zap.Error(err))
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

	if err := engine.Ingest(ctx, cfg.RAG.DocsDir); err != nil {
		logger.Fatal("ingestion failed", zap.Error(err))
	}

	count, err := store.Count(ctx)
	if err != nil {
		logger.Fatal("count stored chunks", zap.Error(err))
	}
	logger.Info("vector store ready",
		zap.String("path", cfg.RAG.PersistPath),
		zap.Int("chunks", count))
}
