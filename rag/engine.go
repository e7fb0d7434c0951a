package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/voicerag/embedding"
)

// SourceLoader 摄取路径的文档加载接口（由 rag/loader.Registry 实现）。
type SourceLoader interface {
	Supports(source string) bool
	Load(ctx context.Context, source string) ([]Document, error)
}

const (
	// embedBatchSize 每批嵌入的块数量
	embedBatchSize = 64
	// embedConcurrency 嵌入批次的最大并发
	embedConcurrency = 4
)

// Engine 检索引擎。持有向量存储与嵌入提供者，
// 对外暴露实时查询（Query）与离线摄取（Ingest）两条路径。
type Engine struct {
	store    VectorStore
	embedder embedding.Provider
	chunker  *DocumentChunker
	loader   SourceLoader
	logger   *zap.Logger
}

// NewEngine 创建检索引擎。
func NewEngine(store VectorStore, embedder embedding.Provider, chunker *DocumentChunker, loader SourceLoader, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:    store,
		embedder: embedder,
		chunker:  chunker,
		loader:   loader,
		logger:   logger.With(zap.String("component", "rag_engine")),
	}
}

// Query 检索与 text 最相似的至多 k 个块，按相似度降序
// 以空行分隔拼接返回。存储为空时返回空串而非错误——
// 下游将空上下文视为"无增强"。
func (e *Engine) Query(ctx context.Context, text string, k int) (string, error) {
	if strings.TrimSpace(text) == "" || k < 1 {
		return "", nil
	}

	count, err := e.store.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("count stored chunks: %w", err)
	}
	if count == 0 {
		return "", nil
	}

	queryVec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	results, err := e.store.Search(ctx, queryVec, k)
	if err != nil {
		return "", fmt.Errorf("vector search: %w", err)
	}

	passages := make([]string, 0, len(results))
	for _, r := range results {
		passages = append(passages, r.Document.Content)
	}

	e.logger.Debug("retrieval completed",
		zap.Int("k", k),
		zap.Int("results", len(results)))

	return strings.Join(passages, "\n\n"), nil
}

// Ingest 扫描目录、加载受支持的文档、分块、嵌入并持久化。
// 单个文档加载失败记录后跳过（文件级部分失败容忍）；
// 目录中没有任何受支持文件时是带警告的无操作。
func (e *Engine) Ingest(ctx context.Context, dir string) error {
	e.logger.Info("ingesting documents", zap.String("dir", dir))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read documents directory %s: %w", dir, err)
	}

	var documents []Document
	found := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !e.loader.Supports(path) {
			continue
		}
		found++

		docs, err := e.loader.Load(ctx, path)
		if err != nil {
			e.logger.Error("failed to load document, skipping",
				zap.String("file", entry.Name()),
				zap.Error(err))
			continue
		}
		documents = append(documents, docs...)
		e.logger.Info("loaded document", zap.String("file", entry.Name()))
	}

	if found == 0 {
		e.logger.Warn("no documents found to ingest", zap.String("dir", dir))
		return nil
	}
	if len(documents) == 0 {
		return fmt.Errorf("no documents could be loaded from %s", dir)
	}

	var chunks []Document
	for _, doc := range documents {
		for _, c := range e.chunker.ChunkDocument(doc) {
			chunks = append(chunks, Document{
				ID:      uuid.NewString(),
				Content: c.Content,
				Source:  doc.Source,
			})
		}
	}
	if len(chunks) == 0 {
		e.logger.Warn("no text chunks created from documents")
		return nil
	}

	if err := e.embedChunks(ctx, chunks); err != nil {
		return err
	}

	if err := e.store.AddDocuments(ctx, chunks); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}

	e.logger.Info("ingestion completed",
		zap.Int("documents", len(documents)),
		zap.Int("chunks", len(chunks)))

	return nil
}

// embedChunks 按批并发嵌入所有块，结果写回对应元素。
func (e *Engine) embedChunks(ctx context.Context, chunks []Document) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.Content
			}
			vecs, err := e.embedder.EmbedDocuments(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed chunk batch: %w", err)
			}
			if len(vecs) != len(batch) {
				return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(batch))
			}
			for i := range batch {
				batch[i].Embedding = vecs[i]
			}
			return nil
		})
	}

	return g.Wait()
}
