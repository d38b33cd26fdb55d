package biz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/tripplanner/internal/model"
	"github.com/kart-io/tripplanner/internal/search"
	apierrors "github.com/kart-io/tripplanner/pkg/utils/errors"
)

const twoRangePlan = `{"plan":[
	{"name":"search_flights","arguments":{"departure_city":"台北","destination_city":"東京","departure_date":"2025-09-01","return_date":"2025-09-05"}},
	{"name":"search_hotels","arguments":{"destination":"東京","checkin_date":"2025-09-01","checkout_date":"2025-09-05","sort_by":"price","sort_order":"asc"}},
	{"name":"search_flights","arguments":{"departure_city":"台北","destination_city":"東京","departure_date":"2025-09-06","return_date":"2025-09-10"}},
	{"name":"search_hotels","arguments":{"destination":"東京","checkin_date":"2025-09-06","checkout_date":"2025-09-10","sort_by":"price","sort_order":"asc"}},
	{"name":"search_attractions","arguments":{"destination":"東京","interest":"美食"}}
]}`

func tokyoRegistry() *search.Registry {
	return search.NewRegistry(
		payloadTool(model.ToolSearchFlights, map[string]string{
			"2025-09-01": flightsJSON(10000),
			"2025-09-06": flightsJSON(9000),
		}),
		payloadTool(model.ToolSearchHotels, map[string]string{
			"2025-09-01": hotelsJSON(2000),
			"2025-09-06": hotelsJSON(1500),
		}),
		payloadTool(model.ToolSearchAttractions, map[string]string{
			"東京": `[{"title":"築地","snippet":"海鮮"}]`,
		}),
	)
}

func newTestService(oracle Oracle, registry *search.Registry, config *ServiceConfig, opts ...ServiceOption) *PlannerService {
	opts = append([]ServiceOption{WithClock(func() time.Time { return day("2025-08-20") })}, opts...)
	return NewPlannerService(
		NewSynthesizer(oracle, &SynthesizerConfig{MaxDateRanges: 5}),
		NewExecutor(registry, time.Second),
		NewSelector(NightsFixed, 4),
		NewComposer(oracle),
		config,
		opts...,
	)
}

func TestPlan_EndToEnd(t *testing.T) {
	oracle := &stubOracle{plan: twoRangePlan, narrative: `{"title":"東京美食之旅"}`}
	svc := newTestService(oracle, tokyoRegistry(), nil)

	state, err := svc.Plan(context.Background(), model.PlanRequest{Query: "九月去東京玩五天"})
	require.NoError(t, err)

	assert.Len(t, state.CurrentPlan, 5)
	assert.Len(t, state.ExecutionHistory, 5)
	assert.Equal(t, []string{"2025-09-01", "2025-09-06", "東京"}, state.SearchResults.Keys())
	require.Len(t, state.Constraints.CostTable, 2)

	require.NotNil(t, state.FinalItinerary)
	assert.Equal(t, "2025-09-06", state.FinalItinerary.Date)
	assert.Equal(t, 15000.0, state.FinalItinerary.TotalCost)
	require.NotNil(t, state.FinalItinerary.CreativePlan)
	assert.Equal(t, "東京美食之旅", state.FinalItinerary.CreativePlan.Title())

	require.NotNil(t, state.GlobalScore)
	assert.Equal(t, 15000.0, *state.GlobalScore)
	assert.Contains(t, oracle.lastPayload, "築地: 海鮮")
}

func TestPlan_NoViableCombination(t *testing.T) {
	oracle := &stubOracle{plan: twoRangePlan, narrative: `{"title":"X"}`}
	svc := newTestService(oracle, search.NewRegistry(), nil)

	state, err := svc.Plan(context.Background(), model.PlanRequest{Query: "九月去東京"})
	require.NoError(t, err)

	assert.Len(t, state.ExecutionHistory, 5)
	assert.Zero(t, state.SearchResults.Len())
	assert.Equal(t, model.NoViableCombination, state.FinalItinerary.Error)
	assert.Nil(t, state.GlobalScore)
	assert.Empty(t, state.Constraints.CostTable)
	assert.Zero(t, oracle.narrations())
}

func TestPlan_EmptyPlan(t *testing.T) {
	oracle := &stubOracle{planErr: errOracleDown}
	svc := newTestService(oracle, tokyoRegistry(), nil)

	state, err := svc.Plan(context.Background(), model.PlanRequest{Query: "九月去東京"})
	require.NoError(t, err)
	assert.Empty(t, state.CurrentPlan)
	assert.Empty(t, state.ExecutionHistory)
	assert.True(t, state.FinalItinerary.Failed())
}

func TestPlan_NarrativeFailureKeepsScore(t *testing.T) {
	oracle := &stubOracle{plan: twoRangePlan, narrateErr: errOracleDown}
	svc := newTestService(oracle, tokyoRegistry(), nil)

	state, err := svc.Plan(context.Background(), model.PlanRequest{Query: "九月去東京"})
	require.NoError(t, err)
	assert.Equal(t, ErrMsgNarrativeFailed, state.FinalItinerary.ErrorMessage)
	assert.Equal(t, ErrMsgNarrativeFailed, state.Constraints.NarrativeError)
	require.NotNil(t, state.GlobalScore)
	assert.Equal(t, 15000.0, *state.GlobalScore)
}

func TestPlan_InvalidQuery(t *testing.T) {
	svc := newTestService(&stubOracle{}, tokyoRegistry(), nil)

	_, err := svc.Plan(context.Background(), model.PlanRequest{Query: "  "})
	assert.True(t, errors.Is(err, apierrors.ErrInvalidParam))
}

type panickingOracle struct{ stubOracle }

func (*panickingOracle) ProposePlan(context.Context, string, string) (string, error) {
	panic("model exploded")
}

func TestPlan_PanicBecomesError(t *testing.T) {
	svc := newTestService(&panickingOracle{}, tokyoRegistry(), nil)

	state, err := svc.Plan(context.Background(), model.PlanRequest{Query: "九月去東京"})
	assert.Nil(t, state)
	assert.True(t, errors.Is(err, apierrors.ErrPlanFailed))
}

func TestPlan_Timeout(t *testing.T) {
	blocking := search.ToolFunc{ToolName: model.ToolSearchFlights, Fn: func(ctx context.Context, _ model.ToolCall) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	oracle := &stubOracle{plan: twoRangePlan}
	svc := newTestService(oracle, search.NewRegistry(blocking), &ServiceConfig{RequestTimeout: 30 * time.Millisecond})

	_, err := svc.Plan(context.Background(), model.PlanRequest{Query: "九月去東京"})
	assert.True(t, errors.Is(err, apierrors.ErrPlanTimeout))
}

func TestPlan_UsesCache(t *testing.T) {
	oracle := &stubOracle{plan: twoRangePlan, narrative: `{"title":"X"}`}
	cache := NewMemoryPlanCache(&PlanCacheConfig{Enabled: true, TTL: time.Minute}, time.Minute)
	svc := newTestService(oracle, tokyoRegistry(), nil, WithCache(cache))
	req := model.PlanRequest{Query: "九月去東京"}

	first, err := svc.Plan(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Plan(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, oracle.planCalls)
	assert.Equal(t, *first.GlobalScore, *second.GlobalScore)
	assert.NotSame(t, first, second)
}

func TestPlan_FailedSelectionIsNotCached(t *testing.T) {
	oracle := &stubOracle{plan: twoRangePlan, narrative: `{"title":"X"}`}
	cache := NewMemoryPlanCache(&PlanCacheConfig{Enabled: true, TTL: time.Minute}, time.Minute)
	req := model.PlanRequest{Query: "九月去東京"}

	down := newTestService(oracle, search.NewRegistry(), nil, WithCache(cache))
	state, err := down.Plan(context.Background(), req)
	require.NoError(t, err)
	require.True(t, state.FinalItinerary.Failed())

	cached, err := cache.Get(context.Background(), cache.Key(req, day("2025-08-20")))
	require.NoError(t, err)
	assert.Nil(t, cached)

	// The providers are back; the next request plans again instead of replaying the failure.
	up := newTestService(oracle, tokyoRegistry(), nil, WithCache(cache))
	state, err = up.Plan(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, state.FinalItinerary.Failed())
	assert.Equal(t, 2, oracle.planCalls)
	assert.Equal(t, 15000.0, state.FinalItinerary.TotalCost)
}
