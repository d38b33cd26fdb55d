package biz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/tripplanner/internal/model"
	"github.com/kart-io/tripplanner/internal/search"
)

func TestExecute_OneRecordPerStep(t *testing.T) {
	registry := search.NewRegistry(
		payloadTool(model.ToolSearchFlights, map[string]string{"2025-09-01": flightsJSON(12000, 10000)}),
		payloadTool(model.ToolSearchHotels, map[string]string{"2025-09-01": hotelsJSON(2000)}),
	)
	plan := []model.ToolCall{
		flightCall("2025-09-01"),
		hotelCall("2025-09-01", "2025-09-05"),
		flightCall("2025-09-06"),
		model.NewAttractionCall(model.AttractionQuery{Destination: "東京", Interest: "美食"}),
	}

	history, grouped := NewExecutor(registry, time.Second).Execute(context.Background(), plan)
	require.Len(t, history, len(plan))
	for i, rec := range history {
		assert.Equal(t, i, rec.Step)
		assert.Equal(t, plan[i], rec.Call)
	}

	assert.True(t, history[0].Succeeded())
	assert.Len(t, history[0].Flights, 2)
	assert.Equal(t, "no results for 2025-09-06", history[2].Error)
	assert.Equal(t, "tool search_attractions is not available", history[3].Error)

	assert.Equal(t, []string{"2025-09-01"}, grouped.Keys())
	assert.Len(t, grouped.Get("2025-09-01"), 2)
}

func TestExecute_AdapterFailuresBecomeRecords(t *testing.T) {
	registry := search.NewRegistry(
		search.ToolFunc{ToolName: model.ToolSearchFlights, Fn: func(context.Context, model.ToolCall) ([]byte, error) {
			panic("boom")
		}},
		search.ToolFunc{ToolName: model.ToolSearchHotels, Fn: func(ctx context.Context, _ model.ToolCall) ([]byte, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}},
		search.ToolFunc{ToolName: model.ToolSearchAttractions, Fn: func(context.Context, model.ToolCall) ([]byte, error) {
			return []byte(`{"unexpected":true}`), nil
		}},
	)
	plan := []model.ToolCall{
		flightCall("2025-09-01"),
		hotelCall("2025-09-01", "2025-09-05"),
		model.NewAttractionCall(model.AttractionQuery{Destination: "東京", Interest: "美食"}),
	}

	history, grouped := NewExecutor(registry, 20*time.Millisecond).Execute(context.Background(), plan)
	require.Len(t, history, 3)
	assert.Contains(t, history[0].Error, "panicked")
	assert.Contains(t, history[1].Error, "deadline exceeded")
	assert.Contains(t, history[2].Error, "unexpected object")
	assert.Zero(t, grouped.Len())
}

func TestExecute_EmptyListIsSuccess(t *testing.T) {
	registry := search.NewRegistry(
		payloadTool(model.ToolSearchFlights, map[string]string{"2025-09-01": "[]"}),
	)
	history, grouped := NewExecutor(registry, 0).Execute(context.Background(), []model.ToolCall{flightCall("2025-09-01")})
	require.Len(t, history, 1)
	assert.True(t, history[0].Succeeded())
	assert.NotNil(t, history[0].Flights)
	assert.Empty(t, history[0].Flights)
	assert.Equal(t, 1, grouped.Len())
}

func TestExecute_EmptyPlan(t *testing.T) {
	history, grouped := NewExecutor(search.NewRegistry(), 0).Execute(context.Background(), []model.ToolCall{})
	assert.NotNil(t, history)
	assert.Empty(t, history)
	assert.Zero(t, grouped.Len())
}

func TestGroupResults_KeyPriority(t *testing.T) {
	history := []model.ExecutionRecord{
		record(0, hotelCall("2025-09-06", "2025-09-10"), hotels(1)),
		record(1, flightCall("2025-09-01"), flights(1)),
		record(2, model.NewAttractionCall(model.AttractionQuery{Destination: "東京", Interest: "美食"}), func(r *model.ExecutionRecord) {
			r.Attractions = []model.Attraction{{Title: "築地"}}
		}),
		record(3, model.NewAttractionCall(model.AttractionQuery{Interest: "美食"}), func(r *model.ExecutionRecord) {
			r.Attractions = []model.Attraction{}
		}),
		{Step: 4, Tool: model.ToolSearchFlights, Call: flightCall("2025-09-11"), Error: "quota exceeded"},
	}

	grouped := GroupResults(history)
	assert.Equal(t, []string{"2025-09-06", "2025-09-01", "東京"}, grouped.Keys())
}
