// Package llm provides LLM provider configuration options.
package llm

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/tripplanner/pkg/llm/resilience"
	"github.com/kart-io/tripplanner/pkg/options"
)

var _ options.IOptions = (*ProviderOptions)(nil)

// ProviderOptions 定义 LLM 供应商配置。
type ProviderOptions struct {
	// Provider 供应商名称（openai, deepseek, ollama）。
	Provider string `json:"provider" mapstructure:"provider"`

	// BaseURL API 基础地址，为空时使用供应商默认值。
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey API 密钥，为空时读取 LLM_API_KEY 环境变量。
	APIKey string `json:"-" mapstructure:"api-key"`

	// Model 使用的模型名称，为空时使用供应商默认值。
	Model string `json:"model" mapstructure:"model"`

	// Timeout 请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries HTTP 层最大重试次数。
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`

	// Organization 组织 ID（OpenAI 可选）。
	Organization string `json:"organization" mapstructure:"organization"`

	// Temperature 采样温度，0 表示使用供应商默认值。
	Temperature float64 `json:"temperature" mapstructure:"temperature"`

	// JSONMode 要求模型以 JSON 对象作答。
	JSONMode bool `json:"json-mode" mapstructure:"json-mode"`

	// Resilience 重试与熔断配置。
	Resilience *ResilienceOptions `json:"resilience" mapstructure:"resilience"`
}

// ResilienceOptions 定义供应商调用的重试与熔断配置。
type ResilienceOptions struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	MaxAttempts  int           `json:"max-attempts" mapstructure:"max-attempts"`
	InitialDelay time.Duration `json:"initial-delay" mapstructure:"initial-delay"`
	MaxFailures  int           `json:"max-failures" mapstructure:"max-failures"`
	OpenTimeout  time.Duration `json:"open-timeout" mapstructure:"open-timeout"`
}

// NewProviderOptions 创建默认 LLM 供应商配置。
func NewProviderOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider:   "openai",
		Timeout:    120 * time.Second,
		MaxRetries: 2,
		JSONMode:   true,
		Resilience: &ResilienceOptions{
			Enabled:      true,
			MaxAttempts:  2,
			InitialDelay: time.Second,
			MaxFailures:  5,
			OpenTimeout:  60 * time.Second,
		},
	}
}

// ToConfigMap 转换为配置 map，用于供应商工厂。空值不写入，由供应商默认值兜底。
func (o *ProviderOptions) ToConfigMap() map[string]any {
	m := map[string]any{
		"timeout":     o.Timeout,
		"max_retries": o.MaxRetries,
		"json_mode":   o.JSONMode,
	}
	if o.BaseURL != "" {
		m["base_url"] = o.BaseURL
	}
	if o.APIKey != "" {
		m["api_key"] = o.APIKey
	}
	if o.Model != "" {
		m["chat_model"] = o.Model
	}
	if o.Organization != "" {
		m["organization"] = o.Organization
	}
	if o.Temperature > 0 {
		m["temperature"] = o.Temperature
	}
	return m
}

// RetryConfig 转换为 resilience 重试配置。
func (o *ResilienceOptions) RetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = o.MaxAttempts
	if o.InitialDelay > 0 {
		cfg.InitialDelay = o.InitialDelay
	}
	return cfg
}

// CircuitBreakerConfig 转换为 resilience 熔断配置。
func (o *ResilienceOptions) CircuitBreakerConfig() *resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig()
	cfg.MaxFailures = o.MaxFailures
	if o.OpenTimeout > 0 {
		cfg.Timeout = o.OpenTimeout
	}
	return cfg
}

// AddFlags adds flags for LLM provider options to the specified FlagSet.
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "llm."
	fs.StringVar(&o.Provider, p+"provider", o.Provider, "LLM provider (openai, deepseek, ollama).")
	fs.StringVar(&o.BaseURL, p+"base-url", o.BaseURL, "LLM API base URL.")
	fs.StringVar(&o.APIKey, p+"api-key", o.APIKey, "LLM API key (prefer the LLM_API_KEY env var).")
	fs.StringVar(&o.Model, p+"model", o.Model, "LLM model name.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "LLM request timeout.")
	fs.IntVar(&o.MaxRetries, p+"max-retries", o.MaxRetries, "LLM HTTP retries on transport errors and 5xx.")
	fs.StringVar(&o.Organization, p+"organization", o.Organization, "LLM organization ID (optional).")
	fs.Float64Var(&o.Temperature, p+"temperature", o.Temperature, "LLM sampling temperature.")
	fs.BoolVar(&o.JSONMode, p+"json-mode", o.JSONMode, "Ask the model to answer with a JSON object.")

	if o.Resilience == nil {
		o.Resilience = NewProviderOptions().Resilience
	}
	fs.BoolVar(&o.Resilience.Enabled, p+"resilience.enabled", o.Resilience.Enabled, "Wrap the provider with retry and circuit breaker.")
	fs.IntVar(&o.Resilience.MaxAttempts, p+"resilience.max-attempts", o.Resilience.MaxAttempts, "Maximum attempts per LLM call.")
	fs.DurationVar(&o.Resilience.InitialDelay, p+"resilience.initial-delay", o.Resilience.InitialDelay, "Initial retry backoff.")
	fs.IntVar(&o.Resilience.MaxFailures, p+"resilience.max-failures", o.Resilience.MaxFailures, "Consecutive failures that open the circuit.")
	fs.DurationVar(&o.Resilience.OpenTimeout, p+"resilience.open-timeout", o.Resilience.OpenTimeout, "How long the circuit stays open.")
}

// Validate validates the LLM provider options.
func (o *ProviderOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.Provider {
	case "openai", "deepseek":
		if o.APIKey == "" {
			errs = append(errs, fmt.Errorf("llm.api-key is required for %s provider", o.Provider))
		}
	case "ollama":
	case "":
		errs = append(errs, fmt.Errorf("llm.provider is required"))
	default:
		errs = append(errs, fmt.Errorf("llm.provider %q is not supported", o.Provider))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("llm.timeout must be positive"))
	}
	if o.Resilience != nil && o.Resilience.Enabled {
		if o.Resilience.MaxAttempts <= 0 {
			errs = append(errs, fmt.Errorf("llm.resilience.max-attempts must be positive"))
		}
		if o.Resilience.MaxFailures <= 0 {
			errs = append(errs, fmt.Errorf("llm.resilience.max-failures must be positive"))
		}
	}
	return errs
}

// Complete completes the LLM provider options with defaults.
func (o *ProviderOptions) Complete() error {
	if o.APIKey == "" {
		o.APIKey = os.Getenv("LLM_API_KEY")
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.Resilience == nil {
		o.Resilience = NewProviderOptions().Resilience
	}
	return nil
}
