package biz

import (
	"context"
	"errors"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/tripplanner/internal/model"
	"github.com/kart-io/tripplanner/internal/planner/store"
	"github.com/kart-io/tripplanner/pkg/id"
	"github.com/kart-io/tripplanner/pkg/infra/pool"
	apierrors "github.com/kart-io/tripplanner/pkg/utils/errors"
)

// PlanFunc runs one planning request to completion.
type PlanFunc func(ctx context.Context, req model.PlanRequest) (*model.PlanningState, error)

// JobManager runs planning requests on the worker pool and records their
// progress in the job store. Each job owns its state; nothing is shared
// between running jobs.
type JobManager struct {
	pool  *pool.Pool
	store store.JobStore
	plan  PlanFunc
	newID func() string
	now   func() time.Time
}

// NewJobManager creates a JobManager.
func NewJobManager(p *pool.Pool, s store.JobStore, plan PlanFunc) *JobManager {
	return &JobManager{
		pool:  p,
		store: s,
		plan:  plan,
		newID: id.NewULID,
		now:   time.Now,
	}
}

// Submit stores a pending job and queues it. A full pool rejects the job
// and leaves it recorded as failed.
func (m *JobManager) Submit(ctx context.Context, req model.PlanRequest) (*model.Job, error) {
	job := model.NewJob(m.newID(), req, m.now())
	if err := m.store.Create(ctx, job); err != nil {
		logger.Errorw("failed to create planning job", "error", err.Error())
		return nil, apierrors.ErrJobStore.WithCause(err)
	}

	queued := *job
	err := m.pool.Submit(func() { m.process(&queued) })
	if err == nil {
		logger.Infow("planning job queued", "job_id", job.ID)
		return job, nil
	}

	logger.Warnw("planning job rejected", "job_id", job.ID, "error", err.Error())
	m.finish(job, nil, err)
	if errors.Is(err, pool.ErrPoolOverload) || errors.Is(err, pool.ErrPoolClosed) {
		return nil, apierrors.ErrJobQueueFull.WithCause(err)
	}
	return nil, apierrors.ErrPlanFailed.WithCause(err)
}

// Get returns the stored job.
func (m *JobManager) Get(ctx context.Context, jobID string) (*model.Job, error) {
	job, err := m.store.Get(ctx, jobID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apierrors.ErrJobNotFound
	}
	if err != nil {
		logger.Errorw("failed to load planning job", "job_id", jobID, "error", err.Error())
		return nil, apierrors.ErrJobStore.WithCause(err)
	}
	return job, nil
}

// process runs detached from the submitting request.
func (m *JobManager) process(job *model.Job) {
	ctx := context.Background()

	job.Status = model.JobRunning
	job.UpdatedAt = m.now()
	if err := m.store.Update(ctx, job); err != nil {
		logger.Warnw("failed to mark planning job running", "job_id", job.ID, "error", err.Error())
	}

	state, err := m.plan(ctx, job.Request)
	m.finish(job, state, err)
}

func (m *JobManager) finish(job *model.Job, state *model.PlanningState, err error) {
	job.UpdatedAt = m.now()
	if err != nil {
		job.Status = model.JobFailed
		job.Error = err.Error()
	} else {
		job.Status = model.JobSucceeded
		job.Result = state
	}

	if uerr := m.store.Update(context.Background(), job); uerr != nil {
		logger.Errorw("failed to record planning job result", "job_id", job.ID, "error", uerr.Error())
		return
	}
	logger.Infow("planning job finished", "job_id", job.ID, "status", job.Status)
}
