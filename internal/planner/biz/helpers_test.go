package biz

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kart-io/tripplanner/internal/model"
	"github.com/kart-io/tripplanner/internal/search"
)

// stubOracle answers with canned text and records what it was asked.
type stubOracle struct {
	mu sync.Mutex

	plan       string
	planErr    error
	narrative  string
	narrateErr error

	planCalls    int
	narrateCalls int
	lastRequest  string
	lastPayload  string
}

func (o *stubOracle) ProposePlan(_ context.Context, _, userRequest string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.planCalls++
	o.lastRequest = userRequest
	return o.plan, o.planErr
}

func (o *stubOracle) Narrate(_ context.Context, _, payload string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.narrateCalls++
	o.lastPayload = payload
	return o.narrative, o.narrateErr
}

func (o *stubOracle) narrations() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.narrateCalls
}

var errOracleDown = errors.New("oracle unavailable")

// payloadTool answers every call of one tool with the payload keyed by the
// call's grouping key, or an error payload when none is configured.
func payloadTool(name model.ToolName, byKey map[string]string) search.Tool {
	return search.ToolFunc{
		ToolName: name,
		Fn: func(_ context.Context, call model.ToolCall) ([]byte, error) {
			if p, ok := byKey[call.GroupKey()]; ok {
				return []byte(p), nil
			}
			return []byte(fmt.Sprintf(`{"error":"no results for %s"}`, call.GroupKey())), nil
		},
	}
}

func flightsJSON(prices ...int) string {
	out := "["
	for i, p := range prices {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"airline":"A%d","flight_number":"F%d","price":%d}`, i, i, p)
	}
	return out + "]"
}

func hotelsJSON(prices ...int) string {
	out := "["
	for i, p := range prices {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"name":"H%d","price":%d}`, i, p)
	}
	return out + "]"
}

func flightCall(date string) model.ToolCall {
	return model.NewFlightCall(model.FlightQuery{
		DepartureCity: "台北", DestinationCity: "東京", DepartureDate: date,
	})
}

func hotelCall(checkin, checkout string) model.ToolCall {
	return model.NewHotelCall(model.HotelQuery{
		Destination: "東京", CheckinDate: checkin, CheckoutDate: checkout,
		SortBy: "price", SortOrder: "asc",
	})
}

// record builds a successful execution record.
func record(step int, call model.ToolCall, fill func(*model.ExecutionRecord)) model.ExecutionRecord {
	rec := model.ExecutionRecord{Step: step, Tool: call.Name, Call: call}
	fill(&rec)
	return rec
}

func flights(prices ...float64) func(*model.ExecutionRecord) {
	return func(r *model.ExecutionRecord) {
		for i, p := range prices {
			r.Flights = append(r.Flights, model.FlightOffer{Airline: fmt.Sprintf("A%d", i), Price: model.NewAmount(p)})
		}
	}
}

func hotels(prices ...float64) func(*model.ExecutionRecord) {
	return func(r *model.ExecutionRecord) {
		for i, p := range prices {
			r.Hotels = append(r.Hotels, model.HotelOffer{Name: fmt.Sprintf("H%d", i), Price: model.NewAmount(p)})
		}
	}
}
