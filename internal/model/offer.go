package model

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/kart-io/tripplanner/pkg/utils/json"
)

// Amount is a numeric value that providers may leave undefined.
// JSON numbers and numeric strings decode as defined; null, "-", or any
// other value decodes as undefined without failing the surrounding document.
type Amount struct {
	Value float64
	Valid bool
}

// NewAmount returns a defined Amount.
func NewAmount(v float64) Amount {
	return Amount{Value: v, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*a = parseAmount(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
		return nil
	}

	*a = parseAmount(string(data))
	return nil
}

// parseAmount treats NaN and infinities as undefined; they cannot be
// compared or encoded.
func parseAmount(s string) Amount {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Amount{}
	}
	return NewAmount(v)
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid || math.IsNaN(a.Value) || math.IsInf(a.Value, 0) {
		return []byte("null"), nil
	}
	return []byte(FormatAmount(a.Value)), nil
}

// FormatAmount prints v without trailing zeros: 10000, 2500.5.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FlightOffer is one normalized flight search result.
type FlightOffer struct {
	Airline       string `json:"airline"`
	FlightNumber  string `json:"flight_number"`
	Price         Amount `json:"price"`
	Duration      Amount `json:"duration"`
	Stops         int    `json:"stops"`
	DepartureTime string `json:"departure_time"`
	ArrivalTime   string `json:"arrival_time"`
}

// HotelOffer is one normalized hotel search result. Price is the nightly rate.
type HotelOffer struct {
	Name        string `json:"name"`
	Price       Amount `json:"price"`
	Rating      Amount `json:"rating"`
	Reviews     Amount `json:"reviews"`
	Description string `json:"description"`
	Address     string `json:"address"`
}

// Attraction is one attraction search result.
type Attraction struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}
