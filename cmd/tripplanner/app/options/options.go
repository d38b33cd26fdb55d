// Package options contains flags and options for initializing the trip planner server.
package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/tripplanner/internal/planner"
	"github.com/kart-io/tripplanner/pkg/infra/app/cliflag"
	genericoptions "github.com/kart-io/tripplanner/pkg/options"
	httpopts "github.com/kart-io/tripplanner/pkg/options/http"
	llmopts "github.com/kart-io/tripplanner/pkg/options/llm"
	logopts "github.com/kart-io/tripplanner/pkg/options/logger"
	poolopts "github.com/kart-io/tripplanner/pkg/options/pool"
	redisopts "github.com/kart-io/tripplanner/pkg/options/redis"
	serpapiopts "github.com/kart-io/tripplanner/pkg/options/serpapi"
	storeopts "github.com/kart-io/tripplanner/pkg/options/store"
)

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// LLMOptions contains the chat provider used for planning and narration.
	LLMOptions *llmopts.ProviderOptions `json:"llm" mapstructure:"llm"`

	// RedisOptions contains Redis configuration shared by the cache and job store.
	RedisOptions *redisopts.Options `json:"redis" mapstructure:"redis"`

	// SerpAPIOptions contains search provider configuration.
	SerpAPIOptions *serpapiopts.Options `json:"serpapi" mapstructure:"serpapi"`

	// StoreOptions contains job store configuration.
	StoreOptions *storeopts.Options `json:"store" mapstructure:"store"`

	// PoolOptions contains the planning job pool configuration.
	PoolOptions *poolopts.Options `json:"pool" mapstructure:"pool"`

	// PlannerOptions contains the planning pipeline configuration.
	PlannerOptions *planner.Options `json:"planner" mapstructure:"planner"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		HTTPOptions:    httpopts.NewOptions(),
		LogOptions:     logopts.NewOptions(),
		LLMOptions:     llmopts.NewProviderOptions(),
		RedisOptions:   redisopts.NewOptions(),
		SerpAPIOptions: serpapiopts.NewOptions(),
		StoreOptions:   storeopts.NewOptions(),
		PoolOptions:    poolopts.NewOptions(),
		PlannerOptions: planner.NewOptions(),
	}
}

// groups lists the option groups in flag section order.
func (o *ServerOptions) groups() []genericoptions.Group {
	return []genericoptions.Group{
		{Name: "http", Options: o.HTTPOptions},
		{Name: "log", Options: o.LogOptions},
		{Name: "llm", Options: o.LLMOptions},
		{Name: "redis", Options: o.RedisOptions},
		{Name: "serpapi", Options: o.SerpAPIOptions},
		{Name: "store", Options: o.StoreOptions},
		{Name: "pool", Options: o.PoolOptions},
		{Name: "planner", Options: o.PlannerOptions},
	}
}

// Flags returns flags for the server grouped by section name.
func (o *ServerOptions) Flags() (fss cliflag.NamedFlagSets) {
	for _, g := range o.groups() {
		g.Options.AddFlags(fss.FlagSet(g.Name))
	}
	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	return genericoptions.CompleteAll(o.groups())
}

// Validate checks whether the options in ServerOptions are valid.
func (o *ServerOptions) Validate() error {
	return utilerrors.NewAggregate(genericoptions.ValidateAll(o.groups()))
}

// Config builds a planner.Config based on ServerOptions.
func (o *ServerOptions) Config() (*planner.Config, error) {
	return &planner.Config{
		HTTPOptions:    o.HTTPOptions,
		LogOptions:     o.LogOptions,
		LLMOptions:     o.LLMOptions,
		RedisOptions:   o.RedisOptions,
		SerpAPIOptions: o.SerpAPIOptions,
		StoreOptions:   o.StoreOptions,
		PoolOptions:    o.PoolOptions,
		PlannerOptions: o.PlannerOptions,
	}, nil
}
