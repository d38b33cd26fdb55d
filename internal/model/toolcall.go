package model

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kart-io/tripplanner/pkg/utils/json"
)

// ToolName identifies one of the search tools.
type ToolName string

const (
	ToolSearchFlights     ToolName = "search_flights"
	ToolSearchHotels      ToolName = "search_hotels"
	ToolSearchAttractions ToolName = "search_attractions"
)

// Known reports whether n names one of the three search tools.
func (n ToolName) Known() bool {
	switch n {
	case ToolSearchFlights, ToolSearchHotels, ToolSearchAttractions:
		return true
	}
	return false
}

// DateLayout is the only date format exchanged between stages.
const DateLayout = "2006-01-02"

// FlightQuery are the arguments of search_flights.
type FlightQuery struct {
	DepartureCity   string `json:"departure_city"`
	DestinationCity string `json:"destination_city"`
	DepartureDate   string `json:"departure_date" validate:"required,datetime=2006-01-02"`
	ReturnDate      string `json:"return_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// HotelQuery are the arguments of search_hotels.
type HotelQuery struct {
	Destination  string `json:"destination"`
	CheckinDate  string `json:"checkin_date" validate:"required,datetime=2006-01-02"`
	CheckoutDate string `json:"checkout_date" validate:"required,datetime=2006-01-02"`
	SortBy       string `json:"sort_by,omitempty"`
	SortOrder    string `json:"sort_order,omitempty"`
}

// AttractionQuery are the arguments of search_attractions.
type AttractionQuery struct {
	Destination string `json:"destination"`
	Interest    string `json:"interest"`
}

// ToolCall is one plan step: the tool name plus exactly one typed argument set.
type ToolCall struct {
	Name       ToolName         `json:"name"`
	Flight     *FlightQuery     `json:"flight,omitempty"`
	Hotel      *HotelQuery      `json:"hotel,omitempty"`
	Attraction *AttractionQuery `json:"attraction,omitempty"`
}

// NewFlightCall builds a search_flights step.
func NewFlightCall(q FlightQuery) ToolCall {
	return ToolCall{Name: ToolSearchFlights, Flight: &q}
}

// NewHotelCall builds a search_hotels step.
func NewHotelCall(q HotelQuery) ToolCall {
	return ToolCall{Name: ToolSearchHotels, Hotel: &q}
}

// NewAttractionCall builds a search_attractions step.
func NewAttractionCall(q AttractionQuery) ToolCall {
	return ToolCall{Name: ToolSearchAttractions, Attraction: &q}
}

// Arguments renders the argument mapping with empty values omitted.
func (c ToolCall) Arguments() map[string]string {
	args := make(map[string]string)
	put := func(k, v string) {
		if v != "" {
			args[k] = v
		}
	}
	switch {
	case c.Flight != nil:
		put("departure_city", c.Flight.DepartureCity)
		put("destination_city", c.Flight.DestinationCity)
		put("departure_date", c.Flight.DepartureDate)
		put("return_date", c.Flight.ReturnDate)
	case c.Hotel != nil:
		put("destination", c.Hotel.Destination)
		put("checkin_date", c.Hotel.CheckinDate)
		put("checkout_date", c.Hotel.CheckoutDate)
		put("sort_by", c.Hotel.SortBy)
		put("sort_order", c.Hotel.SortOrder)
	case c.Attraction != nil:
		put("destination", c.Attraction.Destination)
		put("interest", c.Attraction.Interest)
	}
	return args
}

// GroupKey is departure_date, else checkin_date, else destination.
// It returns "" for calls that carry none of them.
func (c ToolCall) GroupKey() string {
	args := c.Arguments()
	for _, k := range []string{"departure_date", "checkin_date", "destination"} {
		if v := args[k]; v != "" {
			return v
		}
	}
	return ""
}

// String renders the call as name(key="value", ...) with sorted keys.
func (c ToolCall) String() string {
	args := c.Arguments()
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, args[k]))
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(parts, ", "))
}

var (
	callPattern = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*\((.*)\)\s*$`)
	argPattern  = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(?:"([^"]*)"|'([^']*)'|(None|null))`)
)

// ParseToolCall decodes one untrusted plan step. The textual form
// `search_flights(departure_city="台北", ...)` (as a JSON string), the
// object form {"name": "...", "arguments": {...}} and the JSON encoding of
// ToolCall itself are accepted.
// Arguments given as None/null are treated as absent.
func ParseToolCall(raw json.RawMessage) (ToolCall, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ToolCall{}, fmt.Errorf("empty plan step")
	}

	var (
		name string
		args map[string]string
	)
	switch raw[0] {
	case '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return ToolCall{}, fmt.Errorf("decode plan step: %w", err)
		}
		var err error
		if name, args, err = parseCallText(text); err != nil {
			return ToolCall{}, err
		}
	case '{':
		var obj struct {
			ToolCall
			Arguments map[string]interface{} `json:"arguments"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return ToolCall{}, fmt.Errorf("decode plan step: %w", err)
		}
		// Already in the structured encoding of ToolCall.
		if obj.Flight != nil || obj.Hotel != nil || obj.Attraction != nil {
			if !obj.Name.Known() {
				return ToolCall{Name: obj.Name}, fmt.Errorf("unknown tool %q", obj.Name)
			}
			return obj.ToolCall, nil
		}
		name = string(obj.Name)
		args = make(map[string]string, len(obj.Arguments))
		for k, v := range obj.Arguments {
			if s, ok := v.(string); ok {
				args[k] = s
			}
		}
	default:
		return ToolCall{}, fmt.Errorf("unsupported plan step %s", string(raw))
	}

	return buildToolCall(ToolName(name), args)
}

func parseCallText(text string) (string, map[string]string, error) {
	m := callPattern.FindStringSubmatch(text)
	if m == nil {
		return "", nil, fmt.Errorf("malformed tool call %q", text)
	}
	args := make(map[string]string)
	for _, a := range argPattern.FindAllStringSubmatch(m[2], -1) {
		switch {
		case a[4] != "":
			// None / null: absent
		case a[2] != "":
			args[a[1]] = a[2]
		case a[3] != "":
			args[a[1]] = a[3]
		}
	}
	return m[1], args, nil
}

func buildToolCall(name ToolName, args map[string]string) (ToolCall, error) {
	for k, v := range args {
		if v == "None" || v == "null" {
			delete(args, k)
		}
	}
	switch name {
	case ToolSearchFlights:
		return NewFlightCall(FlightQuery{
			DepartureCity:   args["departure_city"],
			DestinationCity: args["destination_city"],
			DepartureDate:   args["departure_date"],
			ReturnDate:      args["return_date"],
		}), nil
	case ToolSearchHotels:
		return NewHotelCall(HotelQuery{
			Destination:  args["destination"],
			CheckinDate:  args["checkin_date"],
			CheckoutDate: args["checkout_date"],
			SortBy:       args["sort_by"],
			SortOrder:    args["sort_order"],
		}), nil
	case ToolSearchAttractions:
		return NewAttractionCall(AttractionQuery{
			Destination: args["destination"],
			Interest:    args["interest"],
		}), nil
	}
	return ToolCall{Name: name}, fmt.Errorf("unknown tool %q", name)
}
