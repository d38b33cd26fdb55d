// Package store persists asynchronous planning jobs.
package store

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/tripplanner/internal/model"
	storeopts "github.com/kart-io/tripplanner/pkg/options/store"
)

// ErrNotFound is returned when a job does not exist or has expired.
var ErrNotFound = errors.New("job not found")

// JobStore defines the storage interface for planning jobs.
type JobStore interface {
	// Create stores a new job.
	Create(ctx context.Context, job *model.Job) error
	// Update replaces a stored job.
	Update(ctx context.Context, job *model.Job) error
	// Get retrieves a job by id.
	Get(ctx context.Context, id string) (*model.Job, error)
	// Close releases the store's resources.
	Close() error
}

// New creates the job store selected by opts. The redis driver reuses the
// given client; it is an error to select it without one.
func New(ctx context.Context, opts *storeopts.Options, redis *goredis.Client) (JobStore, error) {
	if opts == nil {
		opts = storeopts.NewOptions()
	}

	switch opts.Driver {
	case storeopts.DriverMemory, "":
		return NewMemoryStore(opts.TTL), nil
	case storeopts.DriverRedis:
		if redis == nil {
			return nil, fmt.Errorf("store driver %q requires a redis connection", opts.Driver)
		}
		return NewRedisStore(redis, opts.KeyPrefix, opts.TTL), nil
	case storeopts.DriverMySQL, storeopts.DriverPostgres, storeopts.DriverSQLite:
		return OpenSQLStore(ctx, opts)
	}
	return nil, fmt.Errorf("unsupported store driver %q", opts.Driver)
}
