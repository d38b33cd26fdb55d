package serpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/tripplanner/internal/model"
	"github.com/kart-io/tripplanner/pkg/utils/json"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *url.Values) {
	t.Helper()
	var last url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last = r.URL.Query()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.APIKey = "test-key"
	cfg.MaxRetries = 0
	c := NewClient(cfg, WithClock(func() time.Time {
		return time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)
	}))
	return c, &last
}

func decodeError(t *testing.T, payload []byte) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(payload, &body))
	return body["error"]
}

func TestFlightsTool(t *testing.T) {
	c, last := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"best_flights": [
				{"flights":[{"airline":"EVA Air","flight_number":"BR 198","departure_airport":{"time":"2025-09-01 08:00"},"arrival_airport":{"time":"2025-09-01 12:00"}}],
				 "layovers":[], "total_duration":180, "price":300}
			],
			"other_flights": [
				{"flights":[{"airline":"ANA","flight_number":"NH 852"}], "layovers":[{"id":"HND"}], "price":"-"}
			]
		}`))
	})

	call := model.NewFlightCall(model.FlightQuery{
		DepartureCity: "台北", DestinationCity: "東京",
		DepartureDate: "2025-09-01", ReturnDate: "2025-09-05",
	})
	out, err := (&FlightsTool{client: c}).Invoke(context.Background(), call)
	require.NoError(t, err)

	assert.Equal(t, "google_flights", last.Get("engine"))
	assert.Equal(t, "TPE", last.Get("departure_id"))
	assert.Equal(t, "NRT", last.Get("arrival_id"))
	assert.Equal(t, "1", last.Get("type"))
	assert.Equal(t, "2025-09-05", last.Get("return_date"))
	assert.Equal(t, "test-key", last.Get("api_key"))

	var offers []model.FlightOffer
	require.NoError(t, json.Unmarshal(out, &offers))
	require.Len(t, offers, 2)
	assert.Equal(t, model.NewAmount(9000), offers[0].Price)
	assert.Equal(t, "BR 198", offers[0].FlightNumber)
	assert.Equal(t, 0, offers[0].Stops)
	assert.False(t, offers[1].Price.Valid)
	assert.Equal(t, 1, offers[1].Stops)
}

func TestFlightsTool_OneWayAndMissingResults(t *testing.T) {
	c, last := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"search_metadata":{}}`))
	})

	call := model.NewFlightCall(model.FlightQuery{
		DepartureCity: "台北", DestinationCity: "OKA", DepartureDate: "2025-09-01",
	})
	out, err := (&FlightsTool{client: c}).Invoke(context.Background(), call)
	require.NoError(t, err)
	assert.Equal(t, "2", last.Get("type"))
	assert.Equal(t, "OKA", last.Get("arrival_id"))
	assert.Contains(t, decodeError(t, out), "no flights")
}

func TestFlightsTool_ProviderError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid API key."}`))
	})

	call := model.NewFlightCall(model.FlightQuery{DepartureCity: "台北", DestinationCity: "東京", DepartureDate: "2025-09-01"})
	out, err := (&FlightsTool{client: c}).Invoke(context.Background(), call)
	require.NoError(t, err)
	assert.Contains(t, decodeError(t, out), "Invalid API key.")
}

func TestHotelsTool_SortsAndTruncates(t *testing.T) {
	c, last := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"properties":[
			{"name":"A","rate_per_night":{"extracted_lowest":3000},"overall_rating":4.1},
			{"name":"B","total_rate":{"extracted_lowest":2500},"gps_coordinates":{"latitude":35.6,"longitude":139.7}},
			{"name":"C"},
			{"name":"D","rate_per_night":{"extracted_lowest":1800}},
			{"name":"E","rate_per_night":{"extracted_lowest":4000}},
			{"name":"F","rate_per_night":{"extracted_lowest":5000}}
		]}`))
	})

	call := model.NewHotelCall(model.HotelQuery{
		Destination: "東京", CheckinDate: "2025-09-01", CheckoutDate: "2025-09-05",
	})
	out, err := (&HotelsTool{client: c}).Invoke(context.Background(), call)
	require.NoError(t, err)
	assert.Equal(t, "google_hotels", last.Get("engine"))
	assert.Equal(t, "TWD", last.Get("currency"))
	assert.Equal(t, "1", last.Get("adults"))

	var offers []model.HotelOffer
	require.NoError(t, json.Unmarshal(out, &offers))
	require.Len(t, offers, 5)
	names := make([]string, 0, len(offers))
	for _, o := range offers {
		names = append(names, o.Name)
	}
	assert.Equal(t, []string{"D", "B", "A", "E", "F"}, names)
	assert.Equal(t, "35.6, 139.7", offers[1].Address)
}

func TestHotelsTool_Validation(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider must not be called")
	})
	tool := &HotelsTool{client: c}

	cases := map[string]model.HotelQuery{
		"sort_by":       {Destination: "東京", CheckinDate: "2025-09-01", CheckoutDate: "2025-09-05", SortBy: "distance"},
		"sort_order":    {Destination: "東京", CheckinDate: "2025-09-01", CheckoutDate: "2025-09-05", SortOrder: "up"},
		"in the past":   {Destination: "東京", CheckinDate: "2025-08-01", CheckoutDate: "2025-08-05"},
		"must be after": {Destination: "東京", CheckinDate: "2025-09-05", CheckoutDate: "2025-09-05"},
		"checkin_date":  {Destination: "東京", CheckinDate: "9/1", CheckoutDate: "2025-09-05"},
	}
	for want, q := range cases {
		out, err := tool.Invoke(context.Background(), model.NewHotelCall(q))
		require.NoError(t, err)
		assert.Contains(t, decodeError(t, out), want)
	}
}

func TestAttractionsTool(t *testing.T) {
	c, last := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"organic_results":[
			{"title":"秋葉原","link":"https://a","snippet":"電器街"},
			{"title":"2"},{"title":"3"},{"title":"4"},{"title":"5"},{"title":"6"}
		]}`))
	})

	call := model.NewAttractionCall(model.AttractionQuery{Destination: "東京", Interest: "動漫"})
	out, err := (&AttractionsTool{client: c}).Invoke(context.Background(), call)
	require.NoError(t, err)
	assert.Equal(t, "東京 動漫 景點", last.Get("q"))

	var results []model.Attraction
	require.NoError(t, json.Unmarshal(out, &results))
	require.Len(t, results, 5)
	assert.Equal(t, "電器街", results[0].Snippet)
}

func TestTools_MissingAPIKey(t *testing.T) {
	c := NewClient(&Config{})
	for _, tool := range c.Tools() {
		var call model.ToolCall
		switch tool.Name() {
		case model.ToolSearchFlights:
			call = model.NewFlightCall(model.FlightQuery{DepartureDate: "2025-09-01"})
		case model.ToolSearchHotels:
			call = model.NewHotelCall(model.HotelQuery{CheckinDate: "2999-09-01", CheckoutDate: "2999-09-05"})
		default:
			call = model.NewAttractionCall(model.AttractionQuery{Destination: "東京"})
		}
		out, err := tool.Invoke(context.Background(), call)
		require.NoError(t, err)
		assert.Contains(t, decodeError(t, out), "api key", tool.Name())
	}
}
