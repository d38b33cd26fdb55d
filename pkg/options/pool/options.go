// Package pool provides worker pool options for background jobs.
package pool

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/tripplanner/pkg/infra/pool"
	"github.com/kart-io/tripplanner/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options configures the job worker pool.
type Options struct {
	Capacity         int           `json:"capacity" mapstructure:"capacity"`
	ExpiryDuration   time.Duration `json:"expiry-duration" mapstructure:"expiry-duration"`
	Nonblocking      bool          `json:"nonblocking" mapstructure:"nonblocking"`
	MaxBlockingTasks int           `json:"max-blocking-tasks" mapstructure:"max-blocking-tasks"`
	ShutdownTimeout  time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewOptions creates options from the pool defaults.
func NewOptions() *Options {
	d := pool.DefaultConfig()
	return &Options{
		Capacity:         d.Capacity,
		ExpiryDuration:   d.ExpiryDuration,
		Nonblocking:      d.Nonblocking,
		MaxBlockingTasks: d.MaxBlockingTasks,
		ShutdownTimeout:  30 * time.Second,
	}
}

// AddFlags adds flags for pool options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "pool."
	fs.IntVar(&o.Capacity, p+"capacity", o.Capacity, "Maximum concurrently running planning jobs.")
	fs.DurationVar(&o.ExpiryDuration, p+"expiry-duration", o.ExpiryDuration, "Idle worker expiry.")
	fs.BoolVar(&o.Nonblocking, p+"nonblocking", o.Nonblocking, "Reject jobs instead of waiting when the pool is full.")
	fs.IntVar(&o.MaxBlockingTasks, p+"max-blocking-tasks", o.MaxBlockingTasks, "Maximum waiting submissions when blocking (0 = unlimited).")
	fs.DurationVar(&o.ShutdownTimeout, p+"shutdown-timeout", o.ShutdownTimeout, "How long shutdown waits for running jobs.")
}

// Validate validates the pool options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	var errs []error
	if o.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("pool.capacity must be positive"))
	}
	if o.MaxBlockingTasks < 0 {
		errs = append(errs, fmt.Errorf("pool.max-blocking-tasks must not be negative"))
	}
	return errs
}

// Complete completes the pool options.
func (o *Options) Complete() error {
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = 30 * time.Second
	}
	return nil
}

// Config converts the options into a pool configuration.
func (o *Options) Config() *pool.Config {
	return &pool.Config{
		Capacity:         o.Capacity,
		ExpiryDuration:   o.ExpiryDuration,
		Nonblocking:      o.Nonblocking,
		MaxBlockingTasks: o.MaxBlockingTasks,
	}
}
