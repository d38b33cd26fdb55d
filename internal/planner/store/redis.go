package store

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/tripplanner/internal/model"
	"github.com/kart-io/tripplanner/pkg/utils/json"
)

type redisStore struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a store keeping jobs as JSON strings under prefix.
// The client is owned by the caller and is not closed by Close.
func NewRedisStore(client *goredis.Client, prefix string, ttl time.Duration) JobStore {
	return &redisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *redisStore) key(id string) string {
	return s.prefix + id
}

// Create stores a new job.
func (s *redisStore) Create(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(job.ID), data, s.ttl).Err()
}

// Update replaces a stored job, keeping the remaining retention.
func (s *redisStore) Update(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	ok, err := s.client.SetXX(ctx, s.key(job.ID), data, goredis.KeepTTL).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Get retrieves a job by id.
func (s *redisStore) Get(ctx context.Context, id string) (*model.Job, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Close is a no-op; the shared client is closed by its owner.
func (s *redisStore) Close() error {
	return nil
}
