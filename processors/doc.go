// 软件包processors实现语音会话管线的各处理阶段：
// RAG 上下文注入、语言驱动的语音切换、LLM 与 TTS 调用、
// 指标聚合与遥测导出。
//
// 每个阶段嵌入 pipeline.BaseProcessor，按推送模型把帧交给下游；
// 可恢复的阶段故障只记录日志，绝不向管线传播。
package processors
