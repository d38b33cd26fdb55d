package biz

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/tripplanner/internal/model"
	"github.com/kart-io/tripplanner/pkg/utils/json"
	"github.com/kart-io/tripplanner/pkg/utils/validator"
)

var fencePattern = regexp.MustCompile("^```(?:json)?\\s*|\\s*```$")

// SynthesizerConfig 规划阶段配置。
type SynthesizerConfig struct {
	// MaxDateRanges 候选日期范围上限。
	MaxDateRanges int
	// FallbackPlan 模型给出空计划时是否使用确定性计划。
	FallbackPlan bool
}

// Synthesizer turns a request into a validated plan.
type Synthesizer struct {
	oracle   Oracle
	validate *validator.Validator
	config   *SynthesizerConfig
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(oracle Oracle, config *SynthesizerConfig) *Synthesizer {
	if config == nil {
		config = &SynthesizerConfig{MaxDateRanges: 5}
	}
	return &Synthesizer{
		oracle:   oracle,
		validate: validator.Global(),
		config:   config,
	}
}

// Synthesize asks the oracle for a plan and keeps only the steps that
// decode and validate. It never fails: oracle errors and unreadable
// output give an empty plan (or the fallback plan when enabled).
func (s *Synthesizer) Synthesize(ctx context.Context, req model.PlanRequest, today time.Time) []model.ToolCall {
	window := NormalizeDates(req.Query, today)
	instructions := PlanInstructions(today, window, s.config.MaxDateRanges)

	raw, err := s.oracle.ProposePlan(ctx, instructions, userRequest(req))
	if err != nil {
		logger.Warnw("plan oracle failed, using empty plan", "error", err.Error())
		return s.fallback(window, req)
	}

	steps, err := decodePlan(raw)
	if err != nil {
		logger.Warnw("plan response is not valid JSON, using empty plan", "error", err.Error())
		return s.fallback(window, req)
	}

	plan := make([]model.ToolCall, 0, len(steps))
	for i, step := range steps {
		call, err := model.ParseToolCall(step)
		if err != nil {
			logger.Warnw("dropping plan step", "step", i, "raw", string(step), "error", err.Error())
			continue
		}
		if err := s.validateCall(call); err != nil {
			logger.Warnw("dropping invalid plan step", "step", i, "call", call.String(), "error", err.Error())
			continue
		}
		plan = append(plan, call)
	}

	if len(plan) == 0 {
		return s.fallback(window, req)
	}
	logger.Infow("plan synthesized", "steps", len(plan), "proposed", len(steps))
	return plan
}

func (s *Synthesizer) fallback(window DateWindow, req model.PlanRequest) []model.ToolCall {
	if !s.config.FallbackPlan {
		return []model.ToolCall{}
	}
	plan := FallbackPlan(window, req, s.config.MaxDateRanges)
	if len(plan) == 0 {
		return []model.ToolCall{}
	}
	logger.Infow("using fallback plan", "steps", len(plan))
	return plan
}

// validateCall checks date arguments. Attraction searches carry no dates.
func (s *Synthesizer) validateCall(call model.ToolCall) error {
	switch call.Name {
	case model.ToolSearchFlights:
		return s.validate.Validate(call.Flight)
	case model.ToolSearchHotels:
		return s.validate.Validate(call.Hotel)
	case model.ToolSearchAttractions:
		return nil
	}
	return fmt.Errorf("unknown tool %q", call.Name)
}

// decodePlan strips optional code fences and reads the "plan" array.
func decodePlan(raw string) ([]json.RawMessage, error) {
	text := fencePattern.ReplaceAllString(strings.TrimSpace(raw), "")

	var resp struct {
		Plan []json.RawMessage `json:"plan"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, err
	}
	return resp.Plan, nil
}

func userRequest(req model.PlanRequest) string {
	var b strings.Builder
	b.WriteString(req.Query)
	if req.Origin != "" {
		fmt.Fprintf(&b, "\n出發地：%s", req.Origin)
	}
	if req.Destination != "" {
		fmt.Fprintf(&b, "\n目的地：%s", req.Destination)
	}
	if len(req.Interests) > 0 {
		fmt.Fprintf(&b, "\n興趣：%s", strings.Join(req.Interests, "、"))
	}
	return b.String()
}
