package rag

import (
	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// TiktokenTokenizer 基于 tiktoken 编码的分词器。
// 编码加载失败或文本异常时回退到字符估算。
type TiktokenTokenizer struct {
	encoding *tiktoken.Tiktoken
	logger   *zap.Logger
}

// NewTiktokenTokenizer 创建 tiktoken 分词器。
// model 指定编码所属模型（如 "gpt-4o"）。
func NewTiktokenTokenizer(model string, logger *zap.Logger) (*TiktokenTokenizer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, err
	}
	return &TiktokenTokenizer{encoding: enc, logger: logger}, nil
}

// CountTokens 返回文本的 token 数。
func (t *TiktokenTokenizer) CountTokens(text string) int {
	if t.encoding == nil {
		return len(text) / 4
	}
	return len(t.encoding.Encode(text, nil, nil))
}

// EstimateTokenizer 字符估算分词器（~4 字符/token），
// 用于测试以及 tiktoken 编码数据不可用的环境。
type EstimateTokenizer struct{}

// CountTokens 返回估算的 token 数。
func (EstimateTokenizer) CountTokens(text string) int {
	return len(text) / 4
}
