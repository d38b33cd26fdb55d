package serpapi

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/tripplanner/internal/model"
	"github.com/kart-io/tripplanner/internal/search"
	"github.com/kart-io/tripplanner/pkg/utils/httpclient"
	"github.com/kart-io/tripplanner/pkg/utils/json"
)

// FlightsTool implements search_flights on the google_flights engine.
type FlightsTool struct {
	client *Client
}

var _ search.Tool = (*FlightsTool)(nil)

type flightSegment struct {
	Airline          string `json:"airline"`
	FlightNumber     string `json:"flight_number"`
	DepartureAirport struct {
		Time string `json:"time"`
	} `json:"departure_airport"`
	ArrivalAirport struct {
		Time string `json:"time"`
	} `json:"arrival_airport"`
}

type flightOption struct {
	Flights       []flightSegment   `json:"flights"`
	Layovers      []json.RawMessage `json:"layovers"`
	TotalDuration model.Amount      `json:"total_duration"`
	Price         model.Amount      `json:"price"`
}

type flightsResponse struct {
	apiError
	BestFlights  []flightOption `json:"best_flights"`
	OtherFlights []flightOption `json:"other_flights"`
}

// Name implements search.Tool.
func (t *FlightsTool) Name() model.ToolName {
	return model.ToolSearchFlights
}

// Invoke implements search.Tool.
func (t *FlightsTool) Invoke(ctx context.Context, call model.ToolCall) ([]byte, error) {
	q := call.Flight
	if q == nil {
		return search.ErrorPayload("search_flights called without flight arguments"), nil
	}
	if t.client.cfg.APIKey == "" {
		return search.ErrorPayload("serpapi api key is not configured"), nil
	}
	if _, err := time.Parse(model.DateLayout, q.DepartureDate); err != nil {
		return search.ErrorPayload("invalid departure_date %q, expected YYYY-MM-DD", q.DepartureDate), nil
	}
	if q.ReturnDate != "" {
		if _, err := time.Parse(model.DateLayout, q.ReturnDate); err != nil {
			return search.ErrorPayload("invalid return_date %q, expected YYYY-MM-DD", q.ReturnDate), nil
		}
	}

	departureID := t.client.airportCode(q.DepartureCity)
	arrivalID := t.client.airportCode(q.DestinationCity)

	params := url.Values{}
	params.Set("departure_id", departureID)
	params.Set("arrival_id", arrivalID)
	params.Set("outbound_date", q.DepartureDate)
	params.Set("bags", "1")
	if q.ReturnDate != "" {
		params.Set("type", "1")
		params.Set("return_date", q.ReturnDate)
	} else {
		params.Set("type", "2")
	}

	logger.Infow("searching flights",
		"from", departureID, "to", arrivalID,
		"departure_date", q.DepartureDate, "return_date", q.ReturnDate)

	var resp flightsResponse
	if err := t.client.search(ctx, "google_flights", params, &resp); err != nil {
		return search.ErrorPayload("flight search failed: %s", describe(err)), nil
	}
	if resp.Error != "" {
		return search.ErrorPayload("api error: %s", resp.Error), nil
	}
	if resp.BestFlights == nil && resp.OtherFlights == nil {
		return search.ErrorPayload("no flights from %s to %s on %s", departureID, arrivalID, q.DepartureDate), nil
	}

	options := append(append([]flightOption{}, resp.BestFlights...), resp.OtherFlights...)
	if len(options) > maxResults {
		options = options[:maxResults]
	}

	offers := make([]model.FlightOffer, 0, len(options))
	for _, opt := range options {
		offer := model.FlightOffer{
			Duration: opt.TotalDuration,
			Stops:    len(opt.Layovers),
		}
		if opt.Price.Valid {
			offer.Price = model.NewAmount(opt.Price.Value * t.client.cfg.PriceMultiplier)
		}
		if len(opt.Flights) > 0 {
			first := opt.Flights[0]
			offer.Airline = first.Airline
			offer.FlightNumber = first.FlightNumber
			offer.DepartureTime = first.DepartureAirport.Time
			offer.ArrivalTime = first.ArrivalAirport.Time
		}
		offers = append(offers, offer)
	}

	return search.ResultPayload(offers)
}

// describe prefers the provider's own error message for HTTP failures.
func describe(err error) string {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		var body apiError
		if json.Unmarshal([]byte(statusErr.Body), &body) == nil && body.Error != "" {
			return body.Error
		}
	}
	return err.Error()
}
