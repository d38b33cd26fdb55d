package biz

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/tripplanner/internal/model"
	"github.com/kart-io/tripplanner/internal/search"
	"github.com/kart-io/tripplanner/pkg/utils/json"
)

// Executor runs plan steps one after another against the tool registry.
type Executor struct {
	registry    *search.Registry
	stepTimeout time.Duration
}

// NewExecutor creates an Executor. A zero stepTimeout means the steps
// only inherit the caller's deadline.
func NewExecutor(registry *search.Registry, stepTimeout time.Duration) *Executor {
	return &Executor{registry: registry, stepTimeout: stepTimeout}
}

// Execute runs every step and returns one record per step in plan order,
// plus the grouping of the successful records. It never fails; every
// problem becomes an error record.
func (e *Executor) Execute(ctx context.Context, plan []model.ToolCall) ([]model.ExecutionRecord, *model.SearchResults) {
	history := make([]model.ExecutionRecord, 0, len(plan))
	for i, call := range plan {
		rec := e.runStep(ctx, i, call)
		if rec.Succeeded() {
			logger.Infow("plan step finished", "step", i, "call", call.String(), "results", rec.ResultLen())
		} else {
			logger.Warnw("plan step failed", "step", i, "call", call.String(), "error", rec.Error)
		}
		history = append(history, rec)
	}
	return history, GroupResults(history)
}

func (e *Executor) runStep(ctx context.Context, step int, call model.ToolCall) model.ExecutionRecord {
	rec := model.ExecutionRecord{Step: step, Tool: call.Name, Call: call}

	tool, ok := e.registry.Get(call.Name)
	if !ok {
		rec.Error = fmt.Sprintf("tool %s is not available", call.Name)
		return rec
	}

	payload, err := e.invoke(ctx, tool, call)
	if err != nil {
		rec.Error = err.Error()
		return rec
	}
	if err := decodePayload(payload, &rec); err != nil {
		rec.Error = err.Error()
	}
	return rec
}

func (e *Executor) invoke(ctx context.Context, tool search.Tool, call model.ToolCall) (payload []byte, err error) {
	if e.stepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.stepTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v", call.Name, r)
		}
	}()
	return tool.Invoke(ctx, call)
}

// decodePayload fills rec from an adapter payload: an {"error": ...}
// object becomes the record error, a list becomes the typed offers.
func decodePayload(payload []byte, rec *model.ExecutionRecord) error {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return fmt.Errorf("empty response from %s", rec.Tool)
	}

	switch payload[0] {
	case '{':
		var obj struct {
			Error *string `json:"error"`
		}
		if err := json.Unmarshal(payload, &obj); err != nil {
			return fmt.Errorf("malformed response from %s: %w", rec.Tool, err)
		}
		if obj.Error != nil {
			return fmt.Errorf("%s", *obj.Error)
		}
		return fmt.Errorf("unexpected object response from %s", rec.Tool)
	case '[':
		var err error
		switch rec.Tool {
		case model.ToolSearchFlights:
			err = json.Unmarshal(payload, &rec.Flights)
			if err == nil && rec.Flights == nil {
				rec.Flights = []model.FlightOffer{}
			}
		case model.ToolSearchHotels:
			err = json.Unmarshal(payload, &rec.Hotels)
			if err == nil && rec.Hotels == nil {
				rec.Hotels = []model.HotelOffer{}
			}
		case model.ToolSearchAttractions:
			err = json.Unmarshal(payload, &rec.Attractions)
			if err == nil && rec.Attractions == nil {
				rec.Attractions = []model.Attraction{}
			}
		default:
			err = fmt.Errorf("no result type for %s", rec.Tool)
		}
		if err != nil {
			return fmt.Errorf("malformed response from %s: %w", rec.Tool, err)
		}
		return nil
	}
	return fmt.Errorf("unexpected response from %s", rec.Tool)
}

// GroupResults rebuilds the grouping of successful records. Records whose
// call has no grouping key stay in the history but are not grouped.
func GroupResults(history []model.ExecutionRecord) *model.SearchResults {
	grouped := model.NewSearchResults()
	for _, rec := range history {
		if !rec.Succeeded() {
			continue
		}
		key := rec.Call.GroupKey()
		if key == "" {
			logger.Debugw("successful step has no grouping key", "step", rec.Step, "tool", rec.Tool)
			continue
		}
		grouped.Add(key, rec)
	}
	return grouped
}
