package rag

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// keywordEmbedder 词频向量嵌入，仅用于测试：
// 维度对应固定词表，值为词出现次数。余弦相似度在其上成立。
type keywordEmbedder struct{}

var testVocab = []string{"konark", "temple", "sun", "river", "mountain", "ocean", "dog", "cat"}

func (keywordEmbedder) embed(text string) []float64 {
	lower := strings.ToLower(text)
	vec := make([]float64, len(testVocab))
	for i, w := range testVocab {
		vec[i] = float64(strings.Count(lower, w))
	}
	// 全零向量会让余弦退化，保底一个常数维
	vec = append(vec, 1)
	return vec
}

func (e keywordEmbedder) EmbedQuery(ctx context.Context, query string) ([]float64, error) {
	return e.embed(query), nil
}

func (e keywordEmbedder) EmbedDocuments(ctx context.Context, documents []string) ([][]float64, error) {
	out := make([][]float64, len(documents))
	for i, d := range documents {
		out[i] = e.embed(d)
	}
	return out, nil
}

func (keywordEmbedder) Name() string    { return "keyword-test" }
func (keywordEmbedder) Dimensions() int { return len(testVocab) + 1 }

// txtLoader 测试用文本加载器，避免依赖 rag/loader 子包。
type txtLoader struct{}

func (txtLoader) Supports(source string) bool {
	return filepath.Ext(source) == ".txt"
}

func (txtLoader) Load(ctx context.Context, source string) ([]Document, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, err
	}
	return []Document{{ID: source, Content: string(data), Source: filepath.Base(source)}}, nil
}

func newTestEngine(t *testing.T, cfg ChunkingConfig) (*Engine, *InMemoryVectorStore) {
	t.Helper()
	store := NewInMemoryVectorStore(zap.NewNop())
	chunker := NewDocumentChunker(cfg, EstimateTokenizer{}, zap.NewNop())
	engine := NewEngine(store, keywordEmbedder{}, chunker, txtLoader{}, zap.NewNop())
	return engine, store
}

func TestEngine_QueryEmptyStore(t *testing.T) {
	engine, _ := newTestEngine(t, DefaultChunkingConfig())

	for _, text := range []string{"anything", "Konark", "नमस्ते"} {
		got, err := engine.Query(context.Background(), text, 3)
		if err != nil {
			t.Fatalf("query on empty store returned error: %v", err)
		}
		if got != "" {
			t.Errorf("query(%q) on empty store = %q, want empty", text, got)
		}
	}
}

func TestEngine_QueryKBound(t *testing.T) {
	engine, store := newTestEngine(t, DefaultChunkingConfig())
	ctx := context.Background()

	emb := keywordEmbedder{}
	docs := []Document{
		{ID: "1", Content: "the sun temple"},
		{ID: "2", Content: "sun and ocean"},
		{ID: "3", Content: "temple by the river"},
		{ID: "4", Content: "mountain dog"},
		{ID: "5", Content: "cat on the mountain"},
	}
	for i := range docs {
		docs[i].Embedding = emb.embed(docs[i].Content)
	}
	if err := store.AddDocuments(ctx, docs); err != nil {
		t.Fatal(err)
	}

	got, err := engine.Query(ctx, "sun temple", 2)
	if err != nil {
		t.Fatal(err)
	}
	if got == "" {
		t.Fatal("expected non-empty context")
	}
	if n := len(strings.Split(got, "\n\n")); n > 2 {
		t.Errorf("query returned %d passages, want at most 2", n)
	}

	// k 大于存量时返回全部
	got, err = engine.Query(ctx, "sun temple", 50)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(strings.Split(got, "\n\n")); n != len(docs) {
		t.Errorf("query with k=50 returned %d passages, want %d", n, len(docs))
	}
}

func TestEngine_IngestAndQueryScenario(t *testing.T) {
	dir := t.TempDir()
	content := "The Konark Sun Temple is a 13th-century temple at Konark in Odisha, India. " +
		"It is dedicated to the sun god Surya.\n\n" +
		"The temple is designed as a colossal chariot with twelve pairs of carved stone wheels. " +
		"The Konark temple complex faces the rising sun on the coast.\n\n" +
		"Today the Konark Sun Temple is a UNESCO World Heritage Site and a major attraction."
	if err := os.WriteFile(filepath.Join(dir, "konark.txt"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	// 不受支持的扩展名应被静默跳过
	if err := os.WriteFile(filepath.Join(dir, "notes.pdf"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	engine, store := newTestEngine(t, ChunkingConfig{ChunkSize: 1000, ChunkOverlap: 200, MinChunkSize: 1})
	ctx := context.Background()

	if err := engine.Ingest(ctx, dir); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count == 0 {
		t.Fatal("expected chunks in store after ingest")
	}

	got, err := engine.Query(ctx, "Konark Sun Temple", 2)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "Konark") {
		t.Errorf("query result does not mention Konark: %q", got)
	}
}

func TestEngine_IngestEmptyDirIsNoop(t *testing.T) {
	engine, store := newTestEngine(t, DefaultChunkingConfig())
	ctx := context.Background()

	if err := engine.Ingest(ctx, t.TempDir()); err != nil {
		t.Fatalf("ingest of empty directory should be a no-op, got %v", err)
	}
	count, _ := store.Count(ctx)
	if count != 0 {
		t.Errorf("expected empty store, got %d documents", count)
	}
}

func TestEngine_IngestMissingDir(t *testing.T) {
	engine, _ := newTestEngine(t, DefaultChunkingConfig())

	if err := engine.Ingest(context.Background(), "/nonexistent/path"); err == nil {
		t.Error("expected error for missing directory")
	}
}
