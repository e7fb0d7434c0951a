package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// chunkRecord 持久化的文档块行。嵌入向量以 JSON 序列化存储，
// 相似度计算在内存中进行，数据库仅承担持久化。
type chunkRecord struct {
	ID        string `gorm:"primaryKey"`
	Content   string
	Source    string
	Embedding string // JSON-encoded []float64
}

func (chunkRecord) TableName() string { return "chunks" }

// SQLiteVectorStore 基于 SQLite 的持久化向量存储。
// 打开时加载既有行到内存；路径不存在时初始化空库（冷启动幂等）。
type SQLiteVectorStore struct {
	db        *gorm.DB
	documents []Document
	mu        sync.RWMutex
	logger    *zap.Logger
}

// OpenSQLiteVectorStore 打开（或创建）持久化向量存储。
func OpenSQLiteVectorStore(path string, logger *zap.Logger) (*SQLiteVectorStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open vector store at %s: %w", path, err)
	}

	if err := db.AutoMigrate(&chunkRecord{}); err != nil {
		return nil, fmt.Errorf("migrate vector store schema: %w", err)
	}

	s := &SQLiteVectorStore{
		db:     db,
		logger: logger.With(zap.String("component", "sqlite_vector_store")),
	}
	if err := s.loadAll(); err != nil {
		return nil, err
	}

	if len(s.documents) > 0 {
		s.logger.Info("loaded existing vector store",
			zap.String("path", path),
			zap.Int("documents", len(s.documents)))
	} else {
		s.logger.Info("initialized new vector store", zap.String("path", path))
	}

	return s, nil
}

// loadAll 将全部持久化块读入内存。
func (s *SQLiteVectorStore) loadAll() error {
	var records []chunkRecord
	if err := s.db.Find(&records).Error; err != nil {
		return fmt.Errorf("load chunks: %w", err)
	}

	docs := make([]Document, 0, len(records))
	for _, rec := range records {
		var embedding []float64
		if err := json.Unmarshal([]byte(rec.Embedding), &embedding); err != nil {
			s.logger.Warn("skipping chunk with corrupt embedding",
				zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		docs = append(docs, Document{
			ID:        rec.ID,
			Content:   rec.Content,
			Source:    rec.Source,
			Embedding: embedding,
		})
	}

	s.documents = docs
	return nil
}

// AddDocuments 添加文档并持久化。
func (s *SQLiteVectorStore) AddDocuments(ctx context.Context, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]chunkRecord, 0, len(docs))
	for _, doc := range docs {
		if doc.Embedding == nil {
			return fmt.Errorf("document %s has no embedding", doc.ID)
		}
		data, err := json.Marshal(doc.Embedding)
		if err != nil {
			return fmt.Errorf("encode embedding for %s: %w", doc.ID, err)
		}
		records = append(records, chunkRecord{
			ID:        doc.ID,
			Content:   doc.Content,
			Source:    doc.Source,
			Embedding: string(data),
		})
	}

	if err := s.db.WithContext(ctx).Create(&records).Error; err != nil {
		return fmt.Errorf("persist chunks: %w", err)
	}
	s.documents = append(s.documents, docs...)

	s.logger.Info("documents added to vector store",
		zap.Int("count", len(docs)),
		zap.Int("total", len(s.documents)))

	return nil
}

// Search 搜索相似文档
func (s *SQLiteVectorStore) Search(ctx context.Context, queryEmbedding []float64, topK int) ([]VectorSearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return searchDocuments(s.documents, queryEmbedding, topK), nil
}

// Count 返回文档计数
func (s *SQLiteVectorStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents), nil
}

// Close 关闭底层数据库连接。
func (s *SQLiteVectorStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
