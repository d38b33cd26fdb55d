// Package planner assembles the trip planner service.
package planner

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/tripplanner/internal/planner/biz"
	"github.com/kart-io/tripplanner/pkg/options"
	cacheopts "github.com/kart-io/tripplanner/pkg/options/cache"
)

var _ options.IOptions = (*Options)(nil)

// Options 行程规划流程配置。
type Options struct {
	// MaxDateRanges 单次规划最多比较的日期范围数量。
	MaxDateRanges int `json:"max-date-ranges" mapstructure:"max-date-ranges"`

	// NightsMode 计算住宿晚数的方式（fixed, stay）。
	NightsMode string `json:"nights-mode" mapstructure:"nights-mode"`

	// FixedNights fixed 模式下的住宿晚数。
	FixedNights int `json:"fixed-nights" mapstructure:"fixed-nights"`

	// HighlightsPerInterest 每个兴趣传给叙事阶段的景点数量。
	HighlightsPerInterest int `json:"highlights-per-interest" mapstructure:"highlights-per-interest"`

	// StepTimeout 单个搜索步骤的超时时间。
	StepTimeout time.Duration `json:"step-timeout" mapstructure:"step-timeout"`

	// RequestTimeout 整个规划流程的超时时间。
	RequestTimeout time.Duration `json:"request-timeout" mapstructure:"request-timeout"`

	// FallbackPlan 模型没有给出可用计划时是否使用确定性计划。
	FallbackPlan bool `json:"fallback-plan" mapstructure:"fallback-plan"`

	// Cache 规划结果缓存配置。
	Cache *cacheopts.Options `json:"cache" mapstructure:"cache"`
}

// NewOptions creates planner options with defaults.
func NewOptions() *Options {
	return &Options{
		MaxDateRanges:         5,
		NightsMode:            biz.NightsFixed,
		FixedNights:           biz.DefaultNights,
		HighlightsPerInterest: 5,
		StepTimeout:           30 * time.Second,
		RequestTimeout:        5 * time.Minute,
		FallbackPlan:          false,
		Cache:                 cacheopts.NewOptions(),
	}
}

// AddFlags adds flags for planner options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "planner."
	fs.IntVar(&o.MaxDateRanges, p+"max-date-ranges", o.MaxDateRanges, "Maximum number of date ranges compared per request.")
	fs.StringVar(&o.NightsMode, p+"nights-mode", o.NightsMode, "How nights are counted: fixed or stay (from hotel dates).")
	fs.IntVar(&o.FixedNights, p+"fixed-nights", o.FixedNights, "Nights charged in fixed mode.")
	fs.IntVar(&o.HighlightsPerInterest, p+"highlights-per-interest", o.HighlightsPerInterest, "Attractions per interest handed to the narrative.")
	fs.DurationVar(&o.StepTimeout, p+"step-timeout", o.StepTimeout, "Timeout of a single search step.")
	fs.DurationVar(&o.RequestTimeout, p+"request-timeout", o.RequestTimeout, "Timeout of a whole planning request (0 disables).")
	fs.BoolVar(&o.FallbackPlan, p+"fallback-plan", o.FallbackPlan, "Use a deterministic plan when the model proposes none.")

	if o.Cache == nil {
		o.Cache = cacheopts.NewOptions()
	}
	o.Cache.AddFlags(fs, append(prefixes, "planner")...)
}

// Complete fills defaults for unset values.
func (o *Options) Complete() error {
	if o.NightsMode == "" {
		o.NightsMode = biz.NightsFixed
	}
	if o.FixedNights <= 0 {
		o.FixedNights = biz.DefaultNights
	}
	if o.HighlightsPerInterest <= 0 {
		o.HighlightsPerInterest = 5
	}
	if o.Cache == nil {
		o.Cache = cacheopts.NewOptions()
	}
	return o.Cache.Complete()
}

// Validate validates the planner options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.MaxDateRanges <= 0 {
		errs = append(errs, fmt.Errorf("planner.max-date-ranges must be positive"))
	}
	if o.NightsMode != biz.NightsFixed && o.NightsMode != biz.NightsStay {
		errs = append(errs, fmt.Errorf("planner.nights-mode must be %s or %s, got %q", biz.NightsFixed, biz.NightsStay, o.NightsMode))
	}
	if o.FixedNights <= 0 {
		errs = append(errs, fmt.Errorf("planner.fixed-nights must be positive"))
	}
	if o.StepTimeout < 0 || o.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("planner timeouts must not be negative"))
	}
	errs = append(errs, o.Cache.Validate()...)
	return errs
}

// SynthesizerConfig returns the plan synthesis settings.
func (o *Options) SynthesizerConfig() *biz.SynthesizerConfig {
	return &biz.SynthesizerConfig{MaxDateRanges: o.MaxDateRanges, FallbackPlan: o.FallbackPlan}
}

// ServiceConfig returns the pipeline settings.
func (o *Options) ServiceConfig() *biz.ServiceConfig {
	return &biz.ServiceConfig{RequestTimeout: o.RequestTimeout, HighlightsPerInterest: o.HighlightsPerInterest}
}

// CacheConfig returns the plan cache settings.
func (o *Options) CacheConfig() *biz.PlanCacheConfig {
	return &biz.PlanCacheConfig{Enabled: o.Cache.Enabled, TTL: o.Cache.TTL, KeyPrefix: o.Cache.KeyPrefix}
}
