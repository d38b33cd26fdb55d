package biz

import (
	"context"
	"strings"

	"github.com/kart-io/logger"
	"github.com/samber/lo"

	"github.com/kart-io/tripplanner/internal/model"
	"github.com/kart-io/tripplanner/pkg/utils/json"
)

// Narrative failure messages attached as error_message.
const (
	ErrMsgNarrativeFailed  = "LLM 創意規劃失敗"
	ErrMsgNarrativeNoJSON  = "LLM 回應中找不到 JSON 區塊"
	ErrMsgNarrativeBadJSON = "無法解析 LLM 創意行程"
)

const defaultHighlightsPerInterest = 5

// narrativePayload is the bounded input handed to the narrative oracle.
type narrativePayload struct {
	UserQuery           string              `json:"user_query"`
	BestOptionDetails   *model.CostEntry    `json:"best_option_details"`
	CostAnalysisSummary []model.CostEntry   `json:"cost_analysis_summary"`
	Highlights          map[string][]string `json:"highlights"`
}

// Composer wraps the selected option in a narrative itinerary.
type Composer struct {
	oracle Oracle
}

// NewComposer creates a Composer.
func NewComposer(oracle Oracle) *Composer {
	return &Composer{oracle: oracle}
}

// BuildHighlights collects "title: snippet" lines per interest from the
// successful attraction searches, keeping the first perInterest of each.
func BuildHighlights(history []model.ExecutionRecord, perInterest int) map[string][]string {
	if perInterest <= 0 {
		perInterest = defaultHighlightsPerInterest
	}

	attractions := lo.Filter(history, func(r model.ExecutionRecord, _ int) bool {
		return r.Tool == model.ToolSearchAttractions && r.Succeeded() && r.Call.Attraction != nil
	})
	byInterest := lo.GroupBy(attractions, func(r model.ExecutionRecord) string {
		return r.Call.Attraction.Interest
	})

	return lo.MapValues(byInterest, func(recs []model.ExecutionRecord, _ string) []string {
		spots := lo.FlatMap(recs, func(r model.ExecutionRecord, _ int) []model.Attraction {
			return r.Attractions
		})
		if len(spots) > perInterest {
			spots = spots[:perInterest]
		}
		return lo.Map(spots, func(a model.Attraction, _ int) string {
			return a.Title + ": " + a.Snippet
		})
	})
}

// Compose returns base unchanged when it carries an error. Otherwise it
// asks the oracle for a creative plan and returns a copy of base with
// either CreativePlan or ErrorMessage set. Costs are never taken from the
// oracle's answer.
func (c *Composer) Compose(ctx context.Context, base *model.Itinerary, highlights map[string][]string, userQuery string, costTable []model.CostEntry) *model.Itinerary {
	if base.Failed() || base.CostEntry == nil {
		logger.Infow("skipping narration for failed selection")
		return base
	}

	if highlights == nil {
		highlights = map[string][]string{}
	}
	if costTable == nil {
		costTable = []model.CostEntry{}
	}
	payload, err := json.MarshalString(narrativePayload{
		UserQuery:           userQuery,
		BestOptionDetails:   base.CostEntry,
		CostAnalysisSummary: costTable,
		Highlights:          highlights,
	})
	if err != nil {
		return withNarrativeError(base, ErrMsgNarrativeFailed, err)
	}

	raw, err := c.oracle.Narrate(ctx, NarrativeInstructions(), payload)
	if err != nil {
		return withNarrativeError(base, ErrMsgNarrativeFailed, err)
	}

	object, ok := extractObject(raw)
	if !ok {
		return withNarrativeError(base, ErrMsgNarrativeNoJSON, nil)
	}

	var plan model.CreativePlan
	if err := json.Unmarshal([]byte(object), &plan); err != nil {
		return withNarrativeError(base, ErrMsgNarrativeBadJSON, err)
	}

	out := base.Clone()
	out.CreativePlan = plan
	out.ErrorMessage = ""
	logger.Infow("narrative itinerary composed", "title", plan.Title(), "days", plan.Days())
	return out
}

// extractObject returns the span from the first '{' to the last '}'.
func extractObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}

func withNarrativeError(base *model.Itinerary, msg string, cause error) *model.Itinerary {
	fields := []interface{}{"error_message", msg}
	if cause != nil {
		fields = append(fields, "error", cause.Error())
	}
	logger.Warnw("narration failed, returning selection without creative plan", fields...)

	out := base.Clone()
	out.ErrorMessage = msg
	return out
}
