package rag

import (
	"strings"

	"go.uber.org/zap"
)

// ChunkingConfig 分块配置。窗口与重叠以字符计，
// 重叠保证语义连续性跨越块边界存活。
type ChunkingConfig struct {
	ChunkSize    int `json:"chunk_size"`    // 每块最大字符数
	ChunkOverlap int `json:"chunk_overlap"` // 相邻块重叠字符数
	MinChunkSize int `json:"min_chunk_size"`
}

// DefaultChunkingConfig 默认分块配置。
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		MinChunkSize: 1,
	}
}

// Chunk 文档块
type Chunk struct {
	Content    string `json:"content"`
	StartPos   int    `json:"start_pos"`
	EndPos     int    `json:"end_pos"`
	TokenCount int    `json:"token_count"`
}

// Tokenizer 分词器接口
type Tokenizer interface {
	CountTokens(text string) int
}

// DocumentChunker 文档分块器。分块是确定性的：
// 相同输入与配置总是产生相同数量、相同边界的块。
type DocumentChunker struct {
	config    ChunkingConfig
	tokenizer Tokenizer
	logger    *zap.Logger
}

// NewDocumentChunker 创建文档分块器
func NewDocumentChunker(config ChunkingConfig, tokenizer Tokenizer, logger *zap.Logger) *DocumentChunker {
	if config.ChunkSize <= 0 {
		config = DefaultChunkingConfig()
	}
	if config.MinChunkSize <= 0 {
		config.MinChunkSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentChunker{config: config, tokenizer: tokenizer, logger: logger}
}

// ChunkDocument 将文档切分为固定大小的重叠窗口。
func (c *DocumentChunker) ChunkDocument(doc Document) []Chunk {
	runes := []rune(doc.Content)
	chunks := []Chunk{}

	step := c.config.ChunkSize - c.config.ChunkOverlap
	if step <= 0 {
		step = c.config.ChunkSize
	}

	for i := 0; i < len(runes); i += step {
		end := i + c.config.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}

		content := strings.TrimSpace(string(runes[i:end]))
		if len([]rune(content)) >= c.config.MinChunkSize {
			chunks = append(chunks, Chunk{
				Content:    content,
				StartPos:   i,
				EndPos:     end,
				TokenCount: c.countTokens(content),
			})
		}

		if end >= len(runes) {
			break
		}
	}

	c.logger.Debug("document chunked",
		zap.String("doc_id", doc.ID),
		zap.Int("chunks", len(chunks)),
		zap.Int("chunk_size", c.config.ChunkSize),
		zap.Int("overlap", c.config.ChunkOverlap))

	return chunks
}

func (c *DocumentChunker) countTokens(text string) int {
	if c.tokenizer == nil {
		return len(text) / 4
	}
	return c.tokenizer.CountTokens(text)
}
