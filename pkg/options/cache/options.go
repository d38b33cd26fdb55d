// Package cache provides plan cache configuration options.
package cache

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/tripplanner/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Cache backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Options 计划结果缓存配置。
type Options struct {
	// Enabled 是否启用缓存。
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// Backend 缓存后端（memory, redis）。
	Backend string `json:"backend" mapstructure:"backend"`

	// TTL 缓存过期时间。
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`

	// KeyPrefix 缓存键前缀。
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`

	// CleanupInterval 内存缓存清理过期条目的间隔。
	CleanupInterval time.Duration `json:"cleanup-interval" mapstructure:"cleanup-interval"`
}

// NewOptions 创建默认缓存配置。
func NewOptions() *Options {
	return &Options{
		Enabled:         false,
		Backend:         BackendMemory,
		TTL:             1 * time.Hour,
		KeyPrefix:       "tripplanner:plan:",
		CleanupInterval: 10 * time.Minute,
	}
}

// AddFlags adds flags for cache options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "cache."
	fs.BoolVar(&o.Enabled, p+"enabled", o.Enabled, "Enable the plan result cache.")
	fs.StringVar(&o.Backend, p+"backend", o.Backend, "Cache backend (memory, redis).")
	fs.DurationVar(&o.TTL, p+"ttl", o.TTL, "Cache TTL duration.")
	fs.StringVar(&o.KeyPrefix, p+"key-prefix", o.KeyPrefix, "Cache key prefix.")
	fs.DurationVar(&o.CleanupInterval, p+"cleanup-interval", o.CleanupInterval, "Memory cache cleanup interval.")
}

// Validate validates the cache options.
func (o *Options) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	var errs []error
	if o.Backend != BackendMemory && o.Backend != BackendRedis {
		errs = append(errs, fmt.Errorf("cache.backend must be memory or redis, got %q", o.Backend))
	}
	if o.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be positive"))
	}
	return errs
}

// Complete completes the cache options with defaults.
func (o *Options) Complete() error {
	if o.Backend == "" {
		o.Backend = BackendMemory
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = 10 * time.Minute
	}
	return nil
}
