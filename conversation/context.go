// Package conversation 维护会话的共享消息历史。
// 历史是追加式的：写入方只能 Append，顺序反映帧到达的墙钟顺序，
// 任何写入方都不能删除或重排既有条目。
package conversation

import (
	"sync"

	"github.com/BaSui01/voicerag/types"
)

// Context 会话消息历史。多个写入方（RAG 注入、用户/助手聚合器）
// 共享同一实例；它们由同一条严格有序的帧流驱动，互不竞争。
type Context struct {
	mu       sync.Mutex
	messages []types.Message
}

// NewContext 以种子系统消息创建会话历史。
func NewContext(systemPrompt string) *Context {
	c := &Context{}
	if systemPrompt != "" {
		c.messages = append(c.messages, types.NewSystemMessage(systemPrompt))
	}
	return c
}

// Append 追加一条消息。
func (c *Context) Append(msg types.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

// Messages 返回当前历史的副本。
func (c *Context) Messages() []types.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len 返回历史长度。
func (c *Context) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}
