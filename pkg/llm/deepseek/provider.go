// Package deepseek 提供 DeepSeek Chat 供应商实现。
// DeepSeek API 兼容 OpenAI Chat Completions 格式。
package deepseek

import (
	"fmt"
	"time"

	"github.com/kart-io/tripplanner/pkg/llm"
	"github.com/kart-io/tripplanner/pkg/llm/openai"
)

// ProviderName 是 DeepSeek 供应商的名称标识符。
const ProviderName = "deepseek"

func init() {
	llm.RegisterChatProvider(ProviderName, NewProvider)
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *openai.Config {
	return &openai.Config{
		BaseURL:    "https://api.deepseek.com",
		ChatModel:  "deepseek-chat",
		Timeout:    120 * time.Second,
		MaxRetries: 3,
	}
}

// NewProvider 从配置 map 创建 DeepSeek 供应商。
func NewProvider(configMap map[string]any) (llm.ChatProvider, error) {
	cfg := DefaultConfig()
	openai.ApplyConfigMap(cfg, configMap)

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("deepseek: api_key 是必需的")
	}

	return openai.NewNamedProvider(ProviderName, cfg), nil
}
