// Package policy holds the validated, immutable playback configuration
// shared by the catalog facade and the stream resolver.
package policy

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Quality is a playback quality preference.
type Quality string

const (
	QualityAuto  Quality = "auto"
	Quality480p  Quality = "480p"
	Quality720p  Quality = "720p"
	Quality1080p Quality = "1080p"
	QualityBest  Quality = "best"
)

var qualities = []Quality{QualityAuto, Quality480p, Quality720p, Quality1080p, QualityBest}

// ParseQuality converts a settings value into a Quality.
func ParseQuality(s string) (Quality, error) {
	q := Quality(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(qualities, q) {
		return q, nil
	}
	return "", fmt.Errorf("unknown quality %q", s)
}

// Height returns the target vertical resolution. Auto targets 720p.
// Best returns 0, meaning no upper bound.
func (q Quality) Height() int {
	switch q {
	case Quality480p:
		return 480
	case Quality720p, QualityAuto:
		return 720
	case Quality1080p:
		return 1080
	default:
		return 0
	}
}

// Label is the quality label reported when a strategy does not name one.
func (q Quality) Label() string {
	if q == QualityAuto {
		return string(Quality720p)
	}
	return string(q)
}

// Valid reports whether q is a recognized preference.
func (q Quality) Valid() bool {
	return slices.Contains(qualities, q)
}

// Slot names an extraction capability position in the strategy chain.
type Slot string

const (
	SlotPrimary   Slot = "primary"
	SlotSecondary Slot = "secondary"
)

// Defaults applied when an option is left unset.
const (
	DefaultRequestTimeout = 15 * time.Second
	DefaultCacheCapacity  = 256
	DefaultCacheTTL       = 10 * time.Minute
)

// Options is the raw, unvalidated settings surface.
// Zero values (empty string, nil pointer, nil slice) select the default.
type Options struct {
	QualityPreference string
	Region            string
	SafeSearch        bool
	RequestTimeout    string // Go duration, e.g. "15s"
	CacheCapacity     *int
	CacheTTL          string // Go duration, e.g. "10m"
	StrategyOrder     []string
}

// Policy is an immutable configuration snapshot. Construct with New.
type Policy struct {
	quality        Quality
	region         string
	safeSearch     bool
	requestTimeout time.Duration
	cacheCapacity  int
	cacheTTL       time.Duration
	strategyOrder  []Slot
}

// ValidationError lists every problem found while building a Policy.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid policy: " + strings.Join(e.Problems, "; ")
}

// New validates opts and returns the resulting Policy.
// Out-of-range values are rejected, never clamped.
func New(opts Options) (*Policy, error) {
	p := &Policy{
		quality:        QualityAuto,
		region:         strings.TrimSpace(opts.Region),
		safeSearch:     opts.SafeSearch,
		requestTimeout: DefaultRequestTimeout,
		cacheCapacity:  DefaultCacheCapacity,
		cacheTTL:       DefaultCacheTTL,
		strategyOrder:  []Slot{SlotPrimary, SlotSecondary},
	}
	var problems []string

	if opts.QualityPreference != "" {
		q, err := ParseQuality(opts.QualityPreference)
		if err != nil {
			problems = append(problems, fmt.Sprintf("quality_preference: %v", err))
		}
		p.quality = q
	}

	if opts.RequestTimeout != "" {
		d, err := parsePositiveDuration(opts.RequestTimeout)
		if err != nil {
			problems = append(problems, fmt.Sprintf("request_timeout: %v", err))
		}
		p.requestTimeout = d
	}

	if opts.CacheTTL != "" {
		d, err := parsePositiveDuration(opts.CacheTTL)
		if err != nil {
			problems = append(problems, fmt.Sprintf("cache_ttl: %v", err))
		}
		p.cacheTTL = d
	}

	if opts.CacheCapacity != nil {
		if *opts.CacheCapacity <= 0 {
			problems = append(problems, fmt.Sprintf("cache_capacity: must be greater than 0, got %d", *opts.CacheCapacity))
		}
		p.cacheCapacity = *opts.CacheCapacity
	}

	if opts.StrategyOrder != nil {
		order, err := parseStrategyOrder(opts.StrategyOrder)
		if err != nil {
			problems = append(problems, fmt.Sprintf("strategy_order: %v", err))
		}
		p.strategyOrder = order
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return p, nil
}

// Default returns the policy with every option at its default.
func Default() *Policy {
	p, err := New(Options{})
	if err != nil {
		panic(err)
	}
	return p
}

func parsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

func parseStrategyOrder(raw []string) ([]Slot, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("must name at least one strategy")
	}
	order := make([]Slot, 0, len(raw))
	for _, r := range raw {
		s := Slot(strings.ToLower(strings.TrimSpace(r)))
		if s != SlotPrimary && s != SlotSecondary {
			return nil, fmt.Errorf("unknown strategy %q", r)
		}
		if slices.Contains(order, s) {
			return nil, fmt.Errorf("strategy %q listed twice", r)
		}
		order = append(order, s)
	}
	return order, nil
}

func (p *Policy) Quality() Quality              { return p.quality }
func (p *Policy) Region() string                { return p.region }
func (p *Policy) SafeSearch() bool              { return p.safeSearch }
func (p *Policy) RequestTimeout() time.Duration { return p.requestTimeout }
func (p *Policy) CacheCapacity() int            { return p.cacheCapacity }
func (p *Policy) CacheTTL() time.Duration       { return p.cacheTTL }

// StrategyOrder returns a copy of the configured chain order.
func (p *Policy) StrategyOrder() []Slot { return slices.Clone(p.strategyOrder) }
