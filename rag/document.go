package rag

// Document 知识库文档或其分块。
// 摄取时一个源文档被切分为多个块，每个块单独嵌入与存储；
// 块一经嵌入即不可变，仅能通过重新摄取替换。
type Document struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Source    string         `json:"source,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding []float64      `json:"embedding,omitempty"`
}
