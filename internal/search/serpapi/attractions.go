package serpapi

import (
	"context"
	"fmt"
	"net/url"

	"github.com/kart-io/logger"

	"github.com/kart-io/tripplanner/internal/model"
	"github.com/kart-io/tripplanner/internal/search"
)

// AttractionsTool implements search_attractions on the google engine.
type AttractionsTool struct {
	client *Client
}

var _ search.Tool = (*AttractionsTool)(nil)

type attractionsResponse struct {
	apiError
	OrganicResults []model.Attraction `json:"organic_results"`
}

// Name implements search.Tool.
func (t *AttractionsTool) Name() model.ToolName {
	return model.ToolSearchAttractions
}

// Invoke implements search.Tool.
func (t *AttractionsTool) Invoke(ctx context.Context, call model.ToolCall) ([]byte, error) {
	q := call.Attraction
	if q == nil || q.Destination == "" {
		return search.ErrorPayload("search_attractions requires a destination"), nil
	}
	if t.client.cfg.APIKey == "" {
		return search.ErrorPayload("serpapi api key is not configured"), nil
	}

	params := url.Values{}
	params.Set("q", fmt.Sprintf("%s %s 景點", q.Destination, q.Interest))
	if t.client.cfg.Country != "" {
		params.Set("gl", t.client.cfg.Country)
	}

	logger.Infow("searching attractions", "destination", q.Destination, "interest", q.Interest)

	var resp attractionsResponse
	if err := t.client.search(ctx, "google", params, &resp); err != nil {
		return search.ErrorPayload("attraction search failed: %s", describe(err)), nil
	}
	if resp.Error != "" {
		return search.ErrorPayload("api error: %s", resp.Error), nil
	}

	results := resp.OrganicResults
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return search.ResultPayload(results)
}
