// Package serpapi provides the search provider options.
package serpapi

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/tripplanner/internal/search/serpapi"
	"github.com/kart-io/tripplanner/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options configures the flight, hotel and attraction searches.
type Options struct {
	BaseURL         string            `json:"base-url" mapstructure:"base-url"`
	APIKey          string            `json:"-" mapstructure:"api-key"`
	Language        string            `json:"language" mapstructure:"language"`
	Country         string            `json:"country" mapstructure:"country"`
	Currency        string            `json:"currency" mapstructure:"currency"`
	PriceMultiplier float64           `json:"price-multiplier" mapstructure:"price-multiplier"`
	Airports        map[string]string `json:"airports" mapstructure:"airports"`
	Timeout         time.Duration     `json:"timeout" mapstructure:"timeout"`
	MaxRetries      int               `json:"max-retries" mapstructure:"max-retries"`
}

// NewOptions creates options with the serpapi defaults.
func NewOptions() *Options {
	d := serpapi.DefaultConfig()
	return &Options{
		BaseURL:         d.BaseURL,
		Language:        d.Language,
		Country:         d.Country,
		Currency:        d.Currency,
		PriceMultiplier: d.PriceMultiplier,
		Timeout:         d.Timeout,
		MaxRetries:      d.MaxRetries,
	}
}

// AddFlags adds flags for search options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "serpapi."
	fs.StringVar(&o.BaseURL, p+"base-url", o.BaseURL, "SerpApi search endpoint.")
	fs.StringVar(&o.APIKey, p+"api-key", o.APIKey, "SerpApi key (prefer the SERPAPI_API_KEY env var).")
	fs.StringVar(&o.Language, p+"language", o.Language, "Result language (hl).")
	fs.StringVar(&o.Country, p+"country", o.Country, "Result country (gl).")
	fs.StringVar(&o.Currency, p+"currency", o.Currency, "Hotel price currency.")
	fs.Float64Var(&o.PriceMultiplier, p+"price-multiplier", o.PriceMultiplier, "Factor converting flight prices into the hotel currency.")
	fs.StringToStringVar(&o.Airports, p+"airports", o.Airports, "Extra city=IATA airport mappings.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "Search request timeout.")
	fs.IntVar(&o.MaxRetries, p+"max-retries", o.MaxRetries, "Search retries on transport errors and 5xx.")
}

// Complete reads the key from SERPAPI_API_KEY when no flag set it.
func (o *Options) Complete() error {
	if o.APIKey == "" {
		o.APIKey = os.Getenv("SERPAPI_API_KEY")
	}
	return nil
}

// Validate validates the search options. A missing key is allowed: every
// search then reports an error payload.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	var errs []error
	if o.BaseURL == "" {
		errs = append(errs, fmt.Errorf("serpapi.base-url is required"))
	}
	if o.PriceMultiplier <= 0 {
		errs = append(errs, fmt.Errorf("serpapi.price-multiplier must be positive"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("serpapi.timeout must be positive"))
	}
	return errs
}

// Config converts the options into a client configuration.
func (o *Options) Config() *serpapi.Config {
	return &serpapi.Config{
		BaseURL:         o.BaseURL,
		APIKey:          o.APIKey,
		Language:        o.Language,
		Country:         o.Country,
		Currency:        o.Currency,
		PriceMultiplier: o.PriceMultiplier,
		Airports:        o.Airports,
		Timeout:         o.Timeout,
		MaxRetries:      o.MaxRetries,
	}
}
