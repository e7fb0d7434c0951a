// Package rag 实现检索增强生成的核心能力：
// 文档分块、向量存储、相似度检索与一次性知识库摄取。
//
// 查询路径（实时，会话内）与摄取路径（离线批处理）共享同一个
// 持久化向量存储；两者并发运行不受支持，持久化层为最后写入者胜。
package rag
