// Package embedding 提供统一的嵌入提供者接口和实现.
package embedding

import "context"

// Provider 定义统一的嵌入提供者接口.
// 查询路径与摄取路径必须使用同一提供者实例，
// 保证查询向量与存储向量处于同一嵌入空间。
type Provider interface {
	// EmbedQuery 嵌入单个查询字符串.
	EmbedQuery(ctx context.Context, query string) ([]float64, error)

	// EmbedDocuments 嵌入多个文档.
	EmbedDocuments(ctx context.Context, documents []string) ([][]float64, error)

	// Name 返回提供者名称.
	Name() string

	// Dimensions 返回嵌入维度.
	Dimensions() int
}
