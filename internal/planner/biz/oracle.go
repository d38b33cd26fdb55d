package biz

import (
	"context"

	"github.com/kart-io/tripplanner/pkg/llm"
)

// Oracle is the language model behind plan synthesis and narration.
// Both calls return raw text; callers treat it as untrusted.
type Oracle interface {
	// ProposePlan asks for a search plan for userRequest.
	ProposePlan(ctx context.Context, instructions, userRequest string) (string, error)
	// Narrate asks for a narrative itinerary built from payload.
	Narrate(ctx context.Context, instructions, payload string) (string, error)
}

// LLMOracle 基于 ChatProvider 的 Oracle 实现，指令作为系统消息发送。
type LLMOracle struct {
	provider llm.ChatProvider
}

var _ Oracle = (*LLMOracle)(nil)

// NewLLMOracle 创建 LLMOracle。
func NewLLMOracle(provider llm.ChatProvider) *LLMOracle {
	return &LLMOracle{provider: provider}
}

// ProposePlan 请求生成搜索计划。
func (o *LLMOracle) ProposePlan(ctx context.Context, instructions, userRequest string) (string, error) {
	return o.provider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: instructions},
		{Role: llm.RoleUser, Content: "這是我的請求：" + userRequest},
	})
}

// Narrate 请求生成创意行程。
func (o *LLMOracle) Narrate(ctx context.Context, instructions, payload string) (string, error) {
	return o.provider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: instructions},
		{Role: llm.RoleUser, Content: payload},
	})
}
