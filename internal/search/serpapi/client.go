// Package serpapi implements the flight, hotel and attraction search tools
// on top of the SerpApi Google engines.
package serpapi

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/tripplanner/internal/search"
	"github.com/kart-io/tripplanner/pkg/utils/httpclient"
)

const (
	// DefaultBaseURL is the SerpApi search endpoint.
	DefaultBaseURL = "https://serpapi.com/search.json"

	// maxResults bounds every result list.
	maxResults = 5
)

// DefaultAirports maps city names used in requests to IATA codes.
var DefaultAirports = map[string]string{
	"東京": "NRT",
	"大阪": "KIX",
	"台北": "TPE",
}

// Config configures the SerpApi tools.
type Config struct {
	BaseURL string
	APIKey  string

	// Language is the hl parameter; Country the gl parameter.
	Language string
	Country  string
	Currency string

	// PriceMultiplier converts flight prices into the hotel currency.
	PriceMultiplier float64

	// Airports extends DefaultAirports.
	Airports map[string]string

	Timeout    time.Duration
	MaxRetries int
}

// DefaultConfig returns zh-tw defaults with results priced in TWD. Flight
// prices arrive in USD and are converted at 30.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         DefaultBaseURL,
		Language:        "zh-tw",
		Country:         "tw",
		Currency:        "TWD",
		PriceMultiplier: 30,
		Timeout:         30 * time.Second,
		MaxRetries:      2,
	}
}

// Client performs SerpApi searches.
type Client struct {
	cfg      *Config
	http     *httpclient.Client
	airports map[string]string
	now      func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the outbound client.
func WithHTTPClient(c *httpclient.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithClock replaces the clock used for date checks.
func WithClock(now func() time.Time) Option {
	return func(cl *Client) {
		cl.now = now
	}
}

// NewClient creates a SerpApi client.
func NewClient(cfg *Config, opts ...Option) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PriceMultiplier <= 0 {
		cfg.PriceMultiplier = 1
	}

	airports := make(map[string]string, len(DefaultAirports)+len(cfg.Airports))
	for k, v := range DefaultAirports {
		airports[k] = v
	}
	for k, v := range cfg.Airports {
		airports[k] = strings.ToUpper(v)
	}

	c := &Client{
		cfg:      cfg,
		http:     httpclient.NewClient(cfg.Timeout, cfg.MaxRetries),
		airports: airports,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tools returns the three search tools backed by c.
func (c *Client) Tools() []search.Tool {
	return []search.Tool{
		&FlightsTool{client: c},
		&HotelsTool{client: c},
		&AttractionsTool{client: c},
	}
}

// airportCode maps a city to its airport code, passing unknown values through.
func (c *Client) airportCode(city string) string {
	if code, ok := c.airports[strings.TrimSpace(city)]; ok {
		return code
	}
	return city
}

// apiError is the error member every SerpApi response may carry.
type apiError struct {
	Error string `json:"error"`
}

// search runs one engine query and decodes the response into out.
func (c *Client) search(ctx context.Context, engine string, params url.Values, out interface{}) error {
	q := url.Values{}
	q.Set("engine", engine)
	q.Set("api_key", c.cfg.APIKey)
	if c.cfg.Language != "" {
		q.Set("hl", c.cfg.Language)
	}
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}

	logger.Debugw("serpapi request", "engine", engine, "params", params.Encode())
	return c.http.GetJSON(ctx, c.cfg.BaseURL, q, out)
}
