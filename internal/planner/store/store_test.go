package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/tripplanner/internal/model"
	storeopts "github.com/kart-io/tripplanner/pkg/options/store"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func sampleJob(id string) *model.Job {
	now := time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)
	return model.NewJob(id, model.PlanRequest{
		Query:     "九月去東京玩五天",
		Origin:    "TPE",
		Interests: []string{"美食"},
	}, now)
}

// exerciseStore runs the shared lifecycle against one backend.
func exerciseStore(t *testing.T, s JobStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, sampleJob("missing")), ErrNotFound)

	job := sampleJob("job-1")
	require.NoError(t, s.Create(ctx, job))

	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobPending, got.Status)
	assert.Equal(t, job.Request, got.Request)
	assert.Nil(t, got.Result)

	state := model.NewPlanningState(job.Request.Query).
		WithSelection(model.FailedItinerary(model.NoViableCombination), nil)
	job.Status = model.JobSucceeded
	job.Result = &state
	job.UpdatedAt = job.UpdatedAt.Add(time.Minute)
	require.NoError(t, s.Update(ctx, job))

	got, err = s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobSucceeded, got.Status)
	require.NotNil(t, got.Result)
	require.NotNil(t, got.Result.FinalItinerary)
	assert.Equal(t, model.NoViableCombination, got.Result.FinalItinerary.Error)
	assert.True(t, got.UpdatedAt.Equal(job.UpdatedAt))
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	defer s.Close()
	exerciseStore(t, s)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)
	require.NoError(t, s.Create(ctx, sampleJob("job-1")))

	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	got.Status = model.JobFailed

	again, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobPending, again.Status)
}

func TestRedisStore(t *testing.T) {
	_, client := newRedis(t)
	exerciseStore(t, NewRedisStore(client, "test:job:", time.Hour))
}

func TestRedisStore_Expires(t *testing.T) {
	mr, client := newRedis(t)
	s := NewRedisStore(client, "test:job:", time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, sampleJob("job-1")))
	assert.True(t, mr.Exists("test:job:job-1"))

	mr.FastForward(2 * time.Minute)
	_, err := s.Get(ctx, "job-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStore_SQLite(t *testing.T) {
	opts := storeopts.NewOptions()
	opts.Driver = storeopts.DriverSQLite
	opts.SQLitePath = ":memory:"

	s, err := New(context.Background(), opts, nil)
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &memoryStore{}, s)

	opts := storeopts.NewOptions()
	opts.Driver = storeopts.DriverRedis
	_, err = New(ctx, opts, nil)
	assert.Error(t, err)

	_, client := newRedis(t)
	s, err = New(ctx, opts, client)
	require.NoError(t, err)
	assert.IsType(t, &redisStore{}, s)

	opts.Driver = "cassandra"
	_, err = New(ctx, opts, client)
	assert.Error(t, err)
}
