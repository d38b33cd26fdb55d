package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/tripplanner/pkg/llm"
	"github.com/kart-io/tripplanner/pkg/utils/httpclient"
)

var errServer = &httpclient.StatusError{StatusCode: 502, Body: "bad gateway"}

func fastRetry(attempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", &CircuitBreakerConfig{MaxFailures: 3, Timeout: time.Minute})
	assert.Equal(t, StateClosed, cb.State())

	for i := 0; i < 3; i++ {
		assert.Error(t, cb.Execute(func() error { return errServer }))
	}
	assert.Equal(t, StateOpen, cb.State())

	// 熔断器打开后拒绝新请求，函数不会被调用
	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitBreakerOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpen(t *testing.T) {
	now := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("test", &CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Second, HalfOpenMaxCalls: 1})
	cb.now = func() time.Time { return now }

	_ = cb.Execute(func() error { return errServer })
	require.Equal(t, StateOpen, cb.State())

	now = now.Add(2 * time.Second)
	// 半开状态下失败，重新打开
	_ = cb.Execute(func() error { return errServer })
	assert.Equal(t, StateOpen, cb.State())

	now = now.Add(2 * time.Second)
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 0, cb.Failures())
}

func TestCircuitBreaker_CancelIsNotFailure(t *testing.T) {
	cb := NewCircuitBreaker("test", &CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Minute})
	_ = cb.Execute(func() error { return context.Canceled })
	assert.Equal(t, StateClosed, cb.State())

	cb.Reset()
	assert.Equal(t, 0, cb.Failures())
}

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), fastRetry(3), func() error {
		calls++
		if calls < 3 {
			return errServer
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_GivesUp(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), fastRetry(2), func() error {
		calls++
		return errServer
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errServer)
	assert.Equal(t, 2, calls)
}

func TestRetryWithBackoff_NotRetryable(t *testing.T) {
	calls := 0
	badRequest := &httpclient.StatusError{StatusCode: 400}
	err := RetryWithBackoff(context.Background(), fastRetry(5), func() error {
		calls++
		return badRequest
	})
	assert.ErrorIs(t, err, badRequest)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastRetry(5)
	cfg.InitialDelay = time.Hour
	calls := 0
	err := RetryWithBackoff(ctx, cfg, func() error {
		calls++
		cancel()
		return errServer
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("plain"), false},
		{ErrCircuitBreakerOpen, false},
		{context.DeadlineExceeded, false},
		{fmt.Errorf("openai: %w", &httpclient.StatusError{StatusCode: 429}), true},
		{&httpclient.StatusError{StatusCode: 408}, true},
		{&httpclient.StatusError{StatusCode: 503}, true},
		{&httpclient.StatusError{StatusCode: 401}, false},
		{&net.DNSError{Err: "no such host", Name: "api.example.com"}, true},
		{&net.OpError{Op: "dial", Err: errors.New("connection refused")}, true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, IsRetryableError(c.err), "%v", c.err)
	}
}

type flakyProvider struct {
	failures int
	calls    int
}

func (f *flakyProvider) Name() string { return "flaky" }

func (f *flakyProvider) Chat(_ context.Context, _ []llm.Message) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errServer
	}
	return "ok", nil
}

func (f *flakyProvider) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	return f.Chat(ctx, llm.PromptMessages(prompt, systemPrompt))
}

func TestResilientChatProvider(t *testing.T) {
	inner := &flakyProvider{failures: 2}
	p := NewResilientChatProvider(inner, fastRetry(3), nil)

	out, err := p.Generate(context.Background(), "hi", "")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, "flaky-resilient", p.Name())
	assert.Equal(t, StateClosed, p.CircuitBreaker().State())
}
