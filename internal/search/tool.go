// Package search defines the provider adapter boundary used by the plan
// executor: every tool takes a typed call and answers with JSON text, either
// a list of offers or an {"error": "..."} object.
package search

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kart-io/tripplanner/internal/model"
	"github.com/kart-io/tripplanner/pkg/utils/json"
)

// Tool is one search provider adapter.
type Tool interface {
	// Name returns the tool name the plan refers to.
	Name() model.ToolName
	// Invoke runs the search. Provider failures are reported inside the
	// payload as {"error": "..."}; a returned error means the adapter
	// itself failed.
	Invoke(ctx context.Context, call model.ToolCall) ([]byte, error)
}

// ToolFunc adapts a function into a Tool.
type ToolFunc struct {
	ToolName model.ToolName
	Fn       func(ctx context.Context, call model.ToolCall) ([]byte, error)
}

// Name implements Tool.
func (f ToolFunc) Name() model.ToolName { return f.ToolName }

// Invoke implements Tool.
func (f ToolFunc) Invoke(ctx context.Context, call model.ToolCall) ([]byte, error) {
	return f.Fn(ctx, call)
}

// Registry resolves tools by name. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[model.ToolName]Tool
}

// NewRegistry creates a registry holding tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[model.ToolName]Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a tool.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get resolves a tool by name.
func (r *Registry) Get(name model.ToolName) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names lists the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, string(n))
	}
	sort.Strings(names)
	return names
}

// ErrorPayload renders the {"error": msg} object adapters return on failure.
func ErrorPayload(format string, args ...interface{}) []byte {
	b, err := json.Marshal(map[string]string{"error": fmt.Sprintf(format, args...)})
	if err != nil {
		return []byte(`{"error":"unknown error"}`)
	}
	return b
}

// ResultPayload renders a result list; nil becomes [].
func ResultPayload[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}
