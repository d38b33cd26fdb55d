package ollama

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/tripplanner/pkg/llm"
	"github.com/kart-io/tripplanner/pkg/utils/json"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.MaxRetries = 0
	cfg.JSONMode = true
	return NewProviderWithConfig(cfg)
}

func TestProvider_Chat(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Equal(t, "json", req.Format)
		assert.Len(t, req.Messages, 1)
		_, _ = w.Write([]byte(`{"model":"m","message":{"role":"assistant","content":"こんにちは"},"done":true}`))
	})

	out, err := p.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "こんにちは", out)
}

func TestProvider_Generate(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sys", req.System)
		_, _ = w.Write([]byte(`{"response":"{\"plan\":[]}","done":true}`))
	})

	out, err := p.Generate(context.Background(), "plan", "sys")
	require.NoError(t, err)
	assert.Equal(t, `{"plan":[]}`, out)
}

func TestProvider_Ping(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.Error(t, p.Ping(context.Background()))
}

func TestNewProvider_Registered(t *testing.T) {
	provider, err := llm.NewChatProvider(ProviderName, map[string]any{"chat_model": "llama3"})
	require.NoError(t, err)
	assert.Equal(t, "llama3", provider.(*Provider).config.ChatModel)
}
