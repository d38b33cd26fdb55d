package biz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/tripplanner/internal/model"
	"github.com/kart-io/tripplanner/internal/planner/store"
	"github.com/kart-io/tripplanner/pkg/infra/pool"
	apierrors "github.com/kart-io/tripplanner/pkg/utils/errors"
)

func newTestPool(t *testing.T, capacity int) *pool.Pool {
	t.Helper()
	cfg := pool.DefaultConfig()
	cfg.Capacity = capacity
	p, err := pool.NewPool("test-jobs", cfg)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func TestJobs_RunToCompletion(t *testing.T) {
	oracle := &stubOracle{plan: twoRangePlan, narrative: `{"title":"X"}`}
	svc := newTestService(oracle, tokyoRegistry(), nil,
		WithJobs(newTestPool(t, 2), store.NewMemoryStore(time.Hour)))
	ctx := context.Background()

	job, err := svc.SubmitJob(ctx, model.PlanRequest{Query: "九月去東京"})
	require.NoError(t, err)
	assert.Equal(t, model.JobPending, job.Status)
	assert.NotEmpty(t, job.ID)

	require.Eventually(t, func() bool {
		got, err := svc.GetJob(ctx, job.ID)
		return err == nil && got.Status.Done()
	}, 2*time.Second, 10*time.Millisecond)

	got, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobSucceeded, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, 15000.0, *got.Result.GlobalScore)
}

func TestJobs_FailedRun(t *testing.T) {
	js := store.NewMemoryStore(time.Hour)
	m := NewJobManager(newTestPool(t, 1), js, func(context.Context, model.PlanRequest) (*model.PlanningState, error) {
		return nil, apierrors.ErrPlanTimeout
	})
	ctx := context.Background()

	job, err := m.Submit(ctx, model.PlanRequest{Query: "q"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, err := m.Get(ctx, job.ID)
		return err == nil && got.Status == model.JobFailed
	}, 2*time.Second, 10*time.Millisecond)

	got, _ := m.Get(ctx, job.ID)
	assert.Equal(t, apierrors.ErrPlanTimeout.Error(), got.Error)
	assert.Nil(t, got.Result)
}

func TestJobs_QueueFull(t *testing.T) {
	release := make(chan struct{})
	m := NewJobManager(newTestPool(t, 1), store.NewMemoryStore(time.Hour), func(context.Context, model.PlanRequest) (*model.PlanningState, error) {
		<-release
		return &model.PlanningState{}, nil
	})
	defer close(release)
	ctx := context.Background()

	_, err := m.Submit(ctx, model.PlanRequest{Query: "first"})
	require.NoError(t, err)

	_, err = m.Submit(ctx, model.PlanRequest{Query: "second"})
	assert.True(t, errors.Is(err, apierrors.ErrJobQueueFull))
}

func TestJobs_NotFound(t *testing.T) {
	svc := newTestService(&stubOracle{}, tokyoRegistry(), nil,
		WithJobs(newTestPool(t, 1), store.NewMemoryStore(time.Hour)))

	_, err := svc.GetJob(context.Background(), "missing")
	assert.True(t, errors.Is(err, apierrors.ErrJobNotFound))
}

func TestJobs_Disabled(t *testing.T) {
	svc := newTestService(&stubOracle{}, tokyoRegistry(), nil)

	_, err := svc.SubmitJob(context.Background(), model.PlanRequest{Query: "q"})
	assert.Error(t, err)
}
