// Package biz implements the planning pipeline: plan synthesis, sequential
// execution, cheapest-option selection and narrative composition.
package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/tripplanner/internal/model"
	"github.com/kart-io/tripplanner/internal/planner/store"
	"github.com/kart-io/tripplanner/pkg/infra/pool"
	apierrors "github.com/kart-io/tripplanner/pkg/utils/errors"
)

// Service 行程规划服务接口。
type Service interface {
	// Plan runs the pipeline synchronously.
	Plan(ctx context.Context, req model.PlanRequest) (*model.PlanningState, error)
	// SubmitJob queues the pipeline on the background pool.
	SubmitJob(ctx context.Context, req model.PlanRequest) (*model.Job, error)
	// GetJob returns a queued job and, once done, its result.
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
}

// ServiceConfig 规划服务配置。
type ServiceConfig struct {
	// RequestTimeout 单次规划的超时时间，0 表示不限制。
	RequestTimeout time.Duration
	// HighlightsPerInterest 每个兴趣传给叙事阶段的景点数量。
	HighlightsPerInterest int
}

// PlannerService wires the four stages into one pipeline.
type PlannerService struct {
	synthesizer *Synthesizer
	executor    *Executor
	selector    *Selector
	composer    *Composer
	cache       *PlanCache
	jobs        *JobManager
	config      *ServiceConfig
	now         func() time.Time
}

var _ Service = (*PlannerService)(nil)

// ServiceOption configures a PlannerService.
type ServiceOption func(*PlannerService)

// WithCache enables result caching.
func WithCache(cache *PlanCache) ServiceOption {
	return func(s *PlannerService) { s.cache = cache }
}

// WithJobs enables asynchronous jobs on p, recorded in js.
func WithJobs(p *pool.Pool, js store.JobStore) ServiceOption {
	return func(s *PlannerService) { s.jobs = NewJobManager(p, js, s.Plan) }
}

// WithClock overrides the source of "today".
func WithClock(now func() time.Time) ServiceOption {
	return func(s *PlannerService) { s.now = now }
}

// NewPlannerService creates a PlannerService.
func NewPlannerService(synthesizer *Synthesizer, executor *Executor, selector *Selector, composer *Composer, config *ServiceConfig, opts ...ServiceOption) *PlannerService {
	if config == nil {
		config = &ServiceConfig{}
	}
	s := &PlannerService{
		synthesizer: synthesizer,
		executor:    executor,
		selector:    selector,
		composer:    composer,
		config:      config,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan runs synthesize, execute, select and compose for one request.
// Stage problems are carried inside the returned state; an error is
// returned only for invalid input, an exceeded deadline or a panic.
func (s *PlannerService) Plan(ctx context.Context, req model.PlanRequest) (state *model.PlanningState, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorw("planning pipeline panicked", "panic", fmt.Sprint(r), "query", req.Query)
			state, err = nil, apierrors.ErrPlanFailed.WithCause(fmt.Errorf("panic: %v", r))
		}
	}()

	if strings.TrimSpace(req.Query) == "" {
		return nil, apierrors.ErrInvalidParam.WithMessage("query is required")
	}

	if s.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()
	}

	today := s.now()
	var key string
	if s.cache != nil {
		key = s.cache.Key(req, today)
		if cached, _ := s.cache.Get(ctx, key); cached != nil {
			return cached, nil
		}
	}

	start := time.Now()
	result := s.run(ctx, req, today)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		logger.Warnw("planning timed out", "query", req.Query, "elapsed", time.Since(start))
		return nil, apierrors.ErrPlanTimeout.WithCause(ctx.Err())
	}

	logger.Infow("planning finished",
		"query", req.Query,
		"steps", len(result.CurrentPlan),
		"candidates", len(result.Constraints.CostTable),
		"elapsed", time.Since(start),
	)
	// A failed selection usually means the providers were down; retry it next time.
	if s.cache != nil && !result.FinalItinerary.Failed() {
		_ = s.cache.Set(ctx, key, &result)
	}
	return &result, nil
}

func (s *PlannerService) run(ctx context.Context, req model.PlanRequest, today time.Time) model.PlanningState {
	state := model.NewPlanningState(req.Query)

	// 1. 生成计划
	state = state.WithPlan(s.synthesizer.Synthesize(ctx, req, today))

	// 2. 顺序执行
	history, grouped := s.executor.Execute(ctx, state.CurrentPlan)
	state = state.WithExecution(history, grouped)

	// 3. 选择最便宜的组合
	best, table := s.selector.SelectBest(state.SearchResults)
	state = state.WithSelection(best, table)

	// 4. 叙事行程
	highlights := BuildHighlights(state.ExecutionHistory, s.config.HighlightsPerInterest)
	composed := s.composer.Compose(ctx, state.FinalItinerary, highlights, req.Query, state.Constraints.CostTable)
	return state.WithNarrative(composed)
}

// SubmitJob queues the request on the background pool.
func (s *PlannerService) SubmitJob(ctx context.Context, req model.PlanRequest) (*model.Job, error) {
	if s.jobs == nil {
		return nil, apierrors.ErrInternal.WithMessage("asynchronous jobs are disabled")
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, apierrors.ErrInvalidParam.WithMessage("query is required")
	}
	return s.jobs.Submit(ctx, req)
}

// GetJob returns a stored job.
func (s *PlannerService) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	if s.jobs == nil {
		return nil, apierrors.ErrJobNotFound
	}
	return s.jobs.Get(ctx, jobID)
}
