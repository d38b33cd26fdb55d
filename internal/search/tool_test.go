package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/tripplanner/internal/model"
)

func TestRegistry(t *testing.T) {
	flights := ToolFunc{ToolName: model.ToolSearchFlights, Fn: func(context.Context, model.ToolCall) ([]byte, error) {
		return []byte(`[]`), nil
	}}
	r := NewRegistry(flights)

	got, ok := r.Get(model.ToolSearchFlights)
	require.True(t, ok)
	out, err := got.Invoke(context.Background(), model.ToolCall{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))

	_, ok = r.Get(model.ToolSearchHotels)
	assert.False(t, ok)
	assert.Equal(t, []string{"search_flights"}, r.Names())
}

func TestPayloads(t *testing.T) {
	assert.JSONEq(t, `{"error":"找不到 NRT 的航班資訊"}`, string(ErrorPayload("找不到 %s 的航班資訊", "NRT")))

	out, err := ResultPayload[model.Attraction](nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}
