// Package model defines the values passed between the planning stages.
package model

// Constraints are the side facts derived while planning.
type Constraints struct {
	// CostTable has one entry per viable date range, in grouping order.
	CostTable []CostEntry `json:"cost_table,omitempty"`
	// NarrativeError is set when the narrative oracle could not be used.
	NarrativeError string `json:"narrative_error,omitempty"`
}

// PlanningState is the value threaded through the pipeline. Stages never
// mutate a state they received; the With* methods return a new value that
// shares nothing mutable with the receiver.
type PlanningState struct {
	UserQuery        string            `json:"user_query"`
	Constraints      Constraints       `json:"constraints"`
	CurrentPlan      []ToolCall        `json:"current_plan"`
	ExecutionHistory []ExecutionRecord `json:"execution_history"`
	SearchResults    *SearchResults    `json:"search_results"`
	FinalItinerary   *Itinerary        `json:"final_itinerary,omitempty"`
	GlobalScore      *float64          `json:"global_score,omitempty"`
}

// NewPlanningState starts a state for one request.
func NewPlanningState(userQuery string) PlanningState {
	return PlanningState{
		UserQuery:        userQuery,
		CurrentPlan:      []ToolCall{},
		ExecutionHistory: []ExecutionRecord{},
		SearchResults:    NewSearchResults(),
	}
}

// WithPlan returns a copy carrying plan.
func (s PlanningState) WithPlan(plan []ToolCall) PlanningState {
	s.CurrentPlan = append(make([]ToolCall, 0, len(plan)), plan...)
	return s
}

// WithExecution returns a copy carrying the execution log and its grouping.
func (s PlanningState) WithExecution(history []ExecutionRecord, grouped *SearchResults) PlanningState {
	s.ExecutionHistory = append(make([]ExecutionRecord, 0, len(history)), history...)
	if grouped == nil {
		grouped = NewSearchResults()
	}
	s.SearchResults = grouped
	return s
}

// WithSelection returns a copy carrying the selector outcome. The global
// score mirrors the selected total cost and is cleared on failure.
func (s PlanningState) WithSelection(itinerary *Itinerary, table []CostEntry) PlanningState {
	s.FinalItinerary = itinerary.Clone()
	s.Constraints.CostTable = append([]CostEntry(nil), table...)
	s.GlobalScore = nil
	if total, ok := s.FinalItinerary.Total(); ok && !s.FinalItinerary.Failed() {
		s.GlobalScore = &total
	}
	return s
}

// WithNarrative returns a copy carrying the composed itinerary. The global
// score is re-mirrored from the engine total, never from narration.
func (s PlanningState) WithNarrative(itinerary *Itinerary) PlanningState {
	s.FinalItinerary = itinerary.Clone()
	if s.FinalItinerary != nil {
		s.Constraints.NarrativeError = s.FinalItinerary.ErrorMessage
	}
	if total, ok := s.FinalItinerary.Total(); ok {
		s.GlobalScore = &total
	}
	return s
}
