package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/tripplanner/pkg/llm"
)

type recordingProvider struct {
	messages []llm.Message
	reply    string
}

func (p *recordingProvider) Chat(_ context.Context, messages []llm.Message) (string, error) {
	p.messages = messages
	return p.reply, nil
}

func (p *recordingProvider) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	return p.Chat(ctx, llm.PromptMessages(prompt, systemPrompt))
}

func (p *recordingProvider) Name() string { return "recording" }

func TestLLMOracle(t *testing.T) {
	provider := &recordingProvider{reply: `{"plan":[]}`}
	oracle := NewLLMOracle(provider)

	out, err := oracle.ProposePlan(context.Background(), "instructions", "九月去東京")
	require.NoError(t, err)
	assert.Equal(t, `{"plan":[]}`, out)
	require.Len(t, provider.messages, 2)
	assert.Equal(t, llm.RoleSystem, provider.messages[0].Role)
	assert.Equal(t, "instructions", provider.messages[0].Content)
	assert.Equal(t, "這是我的請求：九月去東京", provider.messages[1].Content)

	_, err = oracle.Narrate(context.Background(), NarrativeInstructions(), `{"user_query":"q"}`)
	require.NoError(t, err)
	assert.Equal(t, llm.RoleUser, provider.messages[1].Role)
	assert.Equal(t, `{"user_query":"q"}`, provider.messages[1].Content)
}
