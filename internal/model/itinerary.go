package model

import "maps"

// NoViableCombination is the error recorded when no date range has both a
// priced flight and a priced hotel.
const NoViableCombination = "no viable flight+hotel combination"

// CostEntry is one row of the cost comparison table.
type CostEntry struct {
	DateRange     string      `json:"date_range"`
	Date          string      `json:"date"`
	CheckoutDate  string      `json:"checkout_date"`
	Flight        FlightOffer `json:"flight"`
	Hotel         HotelOffer  `json:"hotel"`
	FlightPrice   float64     `json:"flight_price"`
	NightlyRate   float64     `json:"nightly_rate"`
	Nights        int         `json:"nights"`
	TotalCost     float64     `json:"total_cost"`
	CostBreakdown string      `json:"cost_breakdown"`
}

// CreativePlan is the narrative itinerary exactly as the oracle wrote it.
// The instructions ask for title, summary, chosen_option, itinerary (days
// with day, theme and activities) and tips, but any JSON object is kept
// whole, whatever its field types.
type CreativePlan map[string]any

// Title returns the plan title, or "" when it is missing or not a string.
func (p CreativePlan) Title() string {
	title, _ := p["title"].(string)
	return title
}

// Days returns the number of entries under itinerary, 0 when it is not a list.
func (p CreativePlan) Days() int {
	days, _ := p["itinerary"].([]any)
	return len(days)
}

// Itinerary is the final planning outcome. It takes one of three shapes:
// only Error; the selected CostEntry; or the CostEntry plus CreativePlan
// (or ErrorMessage when narration failed).
type Itinerary struct {
	*CostEntry

	CreativePlan CreativePlan `json:"creative_plan,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// NewItinerary wraps a copy of the selected option.
func NewItinerary(best CostEntry) *Itinerary {
	return &Itinerary{CostEntry: &best}
}

// FailedItinerary returns the error shape.
func FailedItinerary(reason string) *Itinerary {
	return &Itinerary{Error: reason}
}

// Failed reports whether the itinerary carries an error instead of an option.
func (it *Itinerary) Failed() bool {
	return it == nil || it.Error != ""
}

// Total returns the engine-computed total, if an option is selected.
func (it *Itinerary) Total() (float64, bool) {
	if it == nil || it.CostEntry == nil {
		return 0, false
	}
	return it.CostEntry.TotalCost, true
}

// Clone returns a copy that can be modified without touching it.
func (it *Itinerary) Clone() *Itinerary {
	if it == nil {
		return nil
	}
	c := *it
	if it.CostEntry != nil {
		entry := *it.CostEntry
		c.CostEntry = &entry
	}
	c.CreativePlan = maps.Clone(it.CreativePlan)
	return &c
}
