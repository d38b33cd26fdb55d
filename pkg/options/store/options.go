// Package store provides job store configuration options.
package store

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/tripplanner/pkg/options"
	mysqlopts "github.com/kart-io/tripplanner/pkg/options/mysql"
	postgresopts "github.com/kart-io/tripplanner/pkg/options/postgres"
)

var _ options.IOptions = (*Options)(nil)

// Job store drivers.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Options selects and configures the job store.
type Options struct {
	// Driver is one of memory, redis, mysql, postgres, sqlite.
	Driver string `json:"driver" mapstructure:"driver"`
	// TTL bounds how long memory and redis keep a job.
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`
	// KeyPrefix namespaces redis keys.
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`
	// SQLitePath is the database file; ":memory:" keeps it in process.
	SQLitePath string `json:"sqlite-path" mapstructure:"sqlite-path"`

	MySQL    *mysqlopts.Options    `json:"mysql" mapstructure:"mysql"`
	Postgres *postgresopts.Options `json:"postgres" mapstructure:"postgres"`
}

// NewOptions creates options for the in-process store.
func NewOptions() *Options {
	return &Options{
		Driver:     DriverMemory,
		TTL:        24 * time.Hour,
		KeyPrefix:  "tripplanner:job:",
		SQLitePath: "tripplanner.db",
		MySQL:      mysqlopts.NewOptions(),
		Postgres:   postgresopts.NewOptions(),
	}
}

// AddFlags adds flags for job store options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "store."
	fs.StringVar(&o.Driver, p+"driver", o.Driver, "Job store driver (memory, redis, mysql, postgres, sqlite).")
	fs.DurationVar(&o.TTL, p+"ttl", o.TTL, "Job retention for memory and redis stores.")
	fs.StringVar(&o.KeyPrefix, p+"key-prefix", o.KeyPrefix, "Redis key prefix for jobs.")
	fs.StringVar(&o.SQLitePath, p+"sqlite-path", o.SQLitePath, "SQLite database file.")

	if o.MySQL == nil {
		o.MySQL = mysqlopts.NewOptions()
	}
	if o.Postgres == nil {
		o.Postgres = postgresopts.NewOptions()
	}
	o.MySQL.AddFlags(fs, append(prefixes, "store")...)
	o.Postgres.AddFlags(fs, append(prefixes, "store")...)
}

// Complete completes nested options.
func (o *Options) Complete() error {
	if o.Driver == "" {
		o.Driver = DriverMemory
	}
	if o.MySQL == nil {
		o.MySQL = mysqlopts.NewOptions()
	}
	if o.Postgres == nil {
		o.Postgres = postgresopts.NewOptions()
	}
	if err := o.MySQL.Complete(); err != nil {
		return err
	}
	return o.Postgres.Complete()
}

// Validate validates the selected driver and its connection options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.Driver {
	case DriverMemory, DriverRedis:
		if o.TTL <= 0 {
			errs = append(errs, fmt.Errorf("store.ttl must be positive"))
		}
	case DriverMySQL:
		errs = append(errs, o.MySQL.Validate()...)
	case DriverPostgres:
		errs = append(errs, o.Postgres.Validate()...)
	case DriverSQLite:
		if o.SQLitePath == "" {
			errs = append(errs, fmt.Errorf("store.sqlite-path is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not supported", o.Driver))
	}
	return errs
}
