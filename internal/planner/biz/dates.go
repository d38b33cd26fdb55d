package biz

import (
	"regexp"
	"strconv"
	"time"

	"github.com/kart-io/tripplanner/internal/model"
)

// DefaultNights is the stay length when the request names none.
const DefaultNights = 4

var (
	monthPattern      = regexp.MustCompile(`(十[一二]|[一二三四五六七八九十]|\d{1,2})月`)
	daysNightsPattern = regexp.MustCompile(`(\d+)天(\d+)夜`)
	daysPattern       = regexp.MustCompile(`(\d+)天`)

	chineseMonths = map[string]int{
		"一": 1, "二": 2, "三": 3, "四": 4, "五": 5, "六": 6,
		"七": 7, "八": 8, "九": 9, "十": 10, "十一": 11, "十二": 12,
	}
)

// DateWindow is the reference stay derived from a request.
type DateWindow struct {
	Month    time.Month
	Nights   int
	Checkin  time.Time
	Checkout time.Time
}

// NormalizeDates derives the reference stay from the request text.
// The month comes from "N月" (digits or Chinese numerals), else today's
// month. Nights come from "N天M夜" (M), else "N天" (N-1, at least 1),
// else DefaultNights. Check-in is the first day of that month in today's
// year that is not before today, or the 1st when the whole month is past.
func NormalizeDates(query string, today time.Time) DateWindow {
	today = truncateDay(today)

	month := today.Month()
	if m, ok := parseMonth(query); ok {
		month = m
	}
	nights := parseNights(query)

	first := time.Date(today.Year(), month, 1, 0, 0, 0, 0, today.Location())
	checkin := first
	if !today.Before(first) && today.Month() == month {
		checkin = today
	}

	return DateWindow{
		Month:    month,
		Nights:   nights,
		Checkin:  checkin,
		Checkout: checkin.AddDate(0, 0, nights),
	}
}

func parseMonth(query string) (time.Month, bool) {
	m := monthPattern.FindStringSubmatch(query)
	if m == nil {
		return 0, false
	}
	if v, err := strconv.Atoi(m[1]); err == nil {
		if v >= 1 && v <= 12 {
			return time.Month(v), true
		}
		return 0, false
	}
	v, ok := chineseMonths[m[1]]
	return time.Month(v), ok
}

func parseNights(query string) int {
	if m := daysNightsPattern.FindStringSubmatch(query); m != nil {
		if n, err := strconv.Atoi(m[2]); err == nil && n > 0 {
			return n
		}
	}
	if m := daysPattern.FindStringSubmatch(query); m != nil {
		if d, err := strconv.Atoi(m[1]); err == nil {
			return max(1, d-1)
		}
	}
	return DefaultNights
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FallbackPlan builds a deterministic plan without the oracle: up to
// maxRanges consecutive non-overlapping stays starting at the window's
// check-in and staying inside its month, one flight and one hotel search
// per stay, plus one attraction search per interest. It returns nil when
// the request lacks an origin or a destination.
func FallbackPlan(window DateWindow, req model.PlanRequest, maxRanges int) []model.ToolCall {
	if req.Origin == "" || req.Destination == "" || maxRanges <= 0 {
		return nil
	}

	var plan []model.ToolCall
	start := window.Checkin
	for i := 0; i < maxRanges && start.Month() == window.Month; i++ {
		checkin := start.Format(model.DateLayout)
		checkout := start.AddDate(0, 0, window.Nights).Format(model.DateLayout)

		plan = append(plan,
			model.NewFlightCall(model.FlightQuery{
				DepartureCity:   req.Origin,
				DestinationCity: req.Destination,
				DepartureDate:   checkin,
				ReturnDate:      checkout,
			}),
			model.NewHotelCall(model.HotelQuery{
				Destination:  req.Destination,
				CheckinDate:  checkin,
				CheckoutDate: checkout,
				SortBy:       "price",
				SortOrder:    "asc",
			}),
		)
		// next stay starts the day after checkout
		start = start.AddDate(0, 0, window.Nights+1)
	}

	for _, interest := range req.Interests {
		plan = append(plan, model.NewAttractionCall(model.AttractionQuery{
			Destination: req.Destination,
			Interest:    interest,
		}))
	}
	return plan
}
