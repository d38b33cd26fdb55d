package store

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/kart-io/tripplanner/internal/model"
	"github.com/kart-io/tripplanner/pkg/utils/json"
)

type memoryStore struct {
	items *gocache.Cache
	ttl   time.Duration
}

// NewMemoryStore creates an in-process store whose jobs expire after ttl.
func NewMemoryStore(ttl time.Duration) JobStore {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &memoryStore{items: gocache.New(ttl, 10*time.Minute), ttl: ttl}
}

// Create stores a new job.
func (s *memoryStore) Create(_ context.Context, job *model.Job) error {
	return s.put(job)
}

// Update replaces a stored job.
func (s *memoryStore) Update(_ context.Context, job *model.Job) error {
	if _, ok := s.items.Get(job.ID); !ok {
		return ErrNotFound
	}
	return s.put(job)
}

// Get retrieves a job by id. Every call returns an independent copy.
func (s *memoryStore) Get(_ context.Context, id string) (*model.Job, error) {
	v, ok := s.items.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	var job model.Job
	if err := json.Unmarshal(v.([]byte), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Close flushes the store.
func (s *memoryStore) Close() error {
	s.items.Flush()
	return nil
}

func (s *memoryStore) put(job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	s.items.Set(job.ID, data, s.ttl)
	return nil
}
