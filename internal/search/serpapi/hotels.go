package serpapi

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/tripplanner/internal/model"
	"github.com/kart-io/tripplanner/internal/search"
)

// HotelsTool implements search_hotels on the google_hotels engine.
type HotelsTool struct {
	client *Client
}

var _ search.Tool = (*HotelsTool)(nil)

type hotelRate struct {
	ExtractedLowest model.Amount `json:"extracted_lowest"`
}

type hotelProperty struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	RatePerNight hotelRate    `json:"rate_per_night"`
	TotalRate    hotelRate    `json:"total_rate"`
	OverallRate  model.Amount `json:"overall_rating"`
	Reviews      model.Amount `json:"reviews"`
	GPS          *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"gps_coordinates"`
}

type hotelsResponse struct {
	apiError
	Properties []hotelProperty `json:"properties"`
}

var hotelSortKeys = map[string]func(model.HotelOffer) model.Amount{
	"price":   func(h model.HotelOffer) model.Amount { return h.Price },
	"rating":  func(h model.HotelOffer) model.Amount { return h.Rating },
	"reviews": func(h model.HotelOffer) model.Amount { return h.Reviews },
}

// Name implements search.Tool.
func (t *HotelsTool) Name() model.ToolName {
	return model.ToolSearchHotels
}

// Invoke implements search.Tool.
func (t *HotelsTool) Invoke(ctx context.Context, call model.ToolCall) ([]byte, error) {
	q := call.Hotel
	if q == nil {
		return search.ErrorPayload("search_hotels called without hotel arguments"), nil
	}

	sortBy := strings.ToLower(q.SortBy)
	if sortBy == "" {
		sortBy = "price"
	}
	key, ok := hotelSortKeys[sortBy]
	if !ok {
		return search.ErrorPayload("invalid sort_by %q, expected price, rating or reviews", q.SortBy), nil
	}
	order := strings.ToLower(q.SortOrder)
	if order == "" {
		order = "asc"
	}
	if order != "asc" && order != "desc" {
		return search.ErrorPayload("invalid sort_order %q, expected asc or desc", q.SortOrder), nil
	}

	if err := t.checkDates(q.CheckinDate, q.CheckoutDate); err != nil {
		return search.ErrorPayload("%s", err.Error()), nil
	}
	if t.client.cfg.APIKey == "" {
		return search.ErrorPayload("serpapi api key is not configured"), nil
	}

	params := url.Values{}
	params.Set("q", q.Destination)
	params.Set("check_in_date", q.CheckinDate)
	params.Set("check_out_date", q.CheckoutDate)
	params.Set("adults", "1")
	if t.client.cfg.Currency != "" {
		params.Set("currency", t.client.cfg.Currency)
	}
	if t.client.cfg.Country != "" {
		params.Set("gl", t.client.cfg.Country)
	}

	logger.Infow("searching hotels",
		"destination", q.Destination,
		"checkin_date", q.CheckinDate, "checkout_date", q.CheckoutDate,
		"sort_by", sortBy, "sort_order", order)

	var resp hotelsResponse
	if err := t.client.search(ctx, "google_hotels", params, &resp); err != nil {
		return search.ErrorPayload("hotel search failed: %s", describe(err)), nil
	}
	if resp.Error != "" {
		return search.ErrorPayload("api error: %s", resp.Error), nil
	}

	offers := make([]model.HotelOffer, 0, len(resp.Properties))
	for _, p := range resp.Properties {
		offer := model.HotelOffer{
			Name:        p.Name,
			Price:       p.RatePerNight.ExtractedLowest,
			Rating:      p.OverallRate,
			Reviews:     p.Reviews,
			Description: p.Description,
		}
		if !offer.Price.Valid {
			offer.Price = p.TotalRate.ExtractedLowest
		}
		if p.GPS != nil {
			offer.Address = fmt.Sprintf("%v, %v", p.GPS.Latitude, p.GPS.Longitude)
		}
		offers = append(offers, offer)
	}

	sortHotels(offers, key, order == "desc")
	if len(offers) > maxResults {
		offers = offers[:maxResults]
	}
	return search.ResultPayload(offers)
}

func (t *HotelsTool) checkDates(checkin, checkout string) error {
	in, err := time.Parse(model.DateLayout, checkin)
	if err != nil {
		return fmt.Errorf("invalid checkin_date %q, expected YYYY-MM-DD", checkin)
	}
	out, err := time.Parse(model.DateLayout, checkout)
	if err != nil {
		return fmt.Errorf("invalid checkout_date %q, expected YYYY-MM-DD", checkout)
	}

	now := t.client.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if in.Before(today) {
		return fmt.Errorf("checkin_date %s is in the past", checkin)
	}
	if !out.After(in) {
		return fmt.Errorf("checkout_date %s must be after checkin_date %s", checkout, checkin)
	}
	return nil
}

// sortHotels orders offers by key. Offers without a value go last in
// either direction.
func sortHotels(offers []model.HotelOffer, key func(model.HotelOffer) model.Amount, desc bool) {
	sort.SliceStable(offers, func(i, j int) bool {
		a, b := key(offers[i]), key(offers[j])
		switch {
		case !a.Valid:
			return false
		case !b.Valid:
			return true
		case desc:
			return a.Value > b.Value
		default:
			return a.Value < b.Value
		}
	})
}
