package biz

import (
	"fmt"
	"regexp"
	"time"

	"github.com/kart-io/logger"
	"github.com/samber/lo"

	"github.com/kart-io/tripplanner/internal/model"
)

// Nights modes.
const (
	// NightsFixed multiplies the nightly rate by a fixed number of nights.
	NightsFixed = "fixed"
	// NightsStay derives nights from the hotel search's check-in and checkout.
	NightsStay = "stay"
)

var dateKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Selector picks the cheapest flight and hotel combination.
type Selector struct {
	nightsMode  string
	fixedNights int
}

// NewSelector creates a Selector. Unknown modes behave as NightsFixed and
// a non-positive fixedNights becomes DefaultNights.
func NewSelector(nightsMode string, fixedNights int) *Selector {
	if fixedNights <= 0 {
		fixedNights = DefaultNights
	}
	return &Selector{nightsMode: nightsMode, fixedNights: fixedNights}
}

// SelectBest computes one cost entry per viable date key and returns the
// cheapest as the itinerary. Ties keep the first key in grouping order.
// With no viable key it returns the error itinerary and an empty table.
func (s *Selector) SelectBest(grouped *model.SearchResults) (*model.Itinerary, []model.CostEntry) {
	table := []model.CostEntry{}
	best := -1

	for _, key := range grouped.Keys() {
		if !dateKeyPattern.MatchString(key) {
			continue
		}
		entry, ok := s.evaluate(key, grouped.Get(key))
		if !ok {
			continue
		}
		table = append(table, entry)
		if best < 0 || entry.TotalCost < table[best].TotalCost {
			best = len(table) - 1
		}
	}

	if best < 0 {
		logger.Warnw("no viable flight and hotel combination", "keys", grouped.Len())
		return model.FailedItinerary(model.NoViableCombination), []model.CostEntry{}
	}

	logger.Infow("cheapest option selected",
		"date_range", table[best].DateRange,
		"total_cost", table[best].TotalCost,
		"candidates", len(table),
	)
	return model.NewItinerary(table[best]), table
}

func (s *Selector) evaluate(key string, records []model.ExecutionRecord) (model.CostEntry, bool) {
	flightRec, ok := lo.Find(records, func(r model.ExecutionRecord) bool {
		return r.Tool == model.ToolSearchFlights && r.Succeeded() && len(r.Flights) > 0
	})
	if !ok {
		logger.Debugw("skipping date without flights", "date", key)
		return model.CostEntry{}, false
	}
	flight, ok := cheapest(flightRec.Flights, func(f model.FlightOffer) model.Amount { return f.Price })
	if !ok {
		logger.Debugw("skipping date without priced flights", "date", key)
		return model.CostEntry{}, false
	}

	hotelRec, ok := lo.Find(records, func(r model.ExecutionRecord) bool {
		return r.Tool == model.ToolSearchHotels && r.Succeeded() && len(r.Hotels) > 0
	})
	if !ok {
		logger.Debugw("skipping date without hotels", "date", key)
		return model.CostEntry{}, false
	}
	hotel, ok := cheapest(hotelRec.Hotels, func(h model.HotelOffer) model.Amount { return h.Price })
	if !ok {
		logger.Debugw("skipping date without priced hotels", "date", key)
		return model.CostEntry{}, false
	}

	var checkin, checkout string
	if hotelRec.Call.Hotel != nil {
		checkin = hotelRec.Call.Hotel.CheckinDate
		checkout = hotelRec.Call.Hotel.CheckoutDate
	}
	nights := s.nights(checkin, checkout)

	flightPrice := flight.Price.Value
	nightly := hotel.Price.Value
	breakdown := fmt.Sprintf("航班 TWD %s + 飯店 TWD %s x %d晚",
		model.FormatAmount(flightPrice), model.FormatAmount(nightly), nights)
	return model.CostEntry{
		DateRange:     fmt.Sprintf("%s 至 %s", key, checkout),
		Date:          key,
		CheckoutDate:  checkout,
		Flight:        flight,
		Hotel:         hotel,
		FlightPrice:   flightPrice,
		NightlyRate:   nightly,
		Nights:        nights,
		TotalCost:     flightPrice + nightly*float64(nights),
		CostBreakdown: breakdown,
	}, true
}

// nights is fixedNights unless the stay mode can derive a positive count
// from the hotel dates.
func (s *Selector) nights(checkin, checkout string) int {
	if s.nightsMode != NightsStay {
		return s.fixedNights
	}
	in, err1 := time.Parse(model.DateLayout, checkin)
	out, err2 := time.Parse(model.DateLayout, checkout)
	if err1 != nil || err2 != nil {
		return s.fixedNights
	}
	n := int(out.Sub(in).Hours() / 24)
	if n <= 0 {
		return s.fixedNights
	}
	return n
}

// cheapest returns the first offer carrying the minimum defined amount.
func cheapest[T any](offers []T, amount func(T) model.Amount) (T, bool) {
	var (
		best   T
		found  bool
		lowest float64
	)
	for _, o := range offers {
		a := amount(o)
		if !a.Valid {
			continue
		}
		if !found || a.Value < lowest {
			best, lowest, found = o, a.Value, true
		}
	}
	return best, found
}
