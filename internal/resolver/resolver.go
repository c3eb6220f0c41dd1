// Package resolver turns stored source references into playable stream URLs
// through an ordered chain of extraction strategies.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vmunix/fafo/internal/policy"
)

// PlayableStream is a resolved, directly playable URL.
type PlayableStream struct {
	Reference    string    `json:"source_reference"`
	URL          string    `json:"url"`
	QualityLabel string    `json:"quality_label"`
	Class        Class     `json:"class"`
	Strategy     string    `json:"strategy,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	Cached       bool      `json:"cached"`
}

// Options configures a Resolver.
type Options struct {
	// Policy supplies the cache capacity and the defaults for calls that
	// pass a nil policy. Nil means policy.Default().
	Policy *policy.Policy
	// Classifier nil means DefaultClassifier().
	Classifier *Classifier
	// Strategies fills the chain slots. A missing slot fails with
	// ErrCapabilityUnavailable when its turn comes.
	Strategies map[policy.Slot]Strategy
	Metrics    *Metrics
	Logger     *slog.Logger
	// Now overrides the clock used for cache freshness.
	Now func() time.Time
}

// Resolver resolves references with caching and in-flight de-duplication.
// It is safe for concurrent use.
type Resolver struct {
	policy     *policy.Policy
	classifier *Classifier
	strategies map[policy.Slot]Strategy
	cache      *streamCache
	group      singleflight.Group
	metrics    *Metrics
	log        *slog.Logger
	now        func() time.Time
}

// New creates a Resolver.
func New(opts Options) (*Resolver, error) {
	r := &Resolver{
		policy:     opts.Policy,
		classifier: opts.Classifier,
		strategies: make(map[policy.Slot]Strategy, len(opts.Strategies)),
		metrics:    opts.Metrics,
		log:        opts.Logger,
		now:        opts.Now,
	}
	if r.policy == nil {
		r.policy = policy.Default()
	}
	if r.classifier == nil {
		r.classifier = DefaultClassifier()
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	r.log = r.log.With("component", "resolver")
	if r.now == nil {
		r.now = time.Now
	}
	for slot, s := range opts.Strategies {
		if s != nil {
			r.strategies[slot] = s
		}
	}

	cache, err := newStreamCache(r.policy.CacheCapacity(), r.now)
	if err != nil {
		return nil, fmt.Errorf("create stream cache: %w", err)
	}
	r.cache = cache
	return r, nil
}

// Classify reports how ref would be resolved.
func (r *Resolver) Classify(ref string) Class {
	return r.classifier.Classify(ref)
}

// Resolve returns a playable stream for ref at quality q. An empty q uses
// the policy's preference and a nil p uses the resolver's policy.
//
// Direct references and fresh cache hits return without blocking. Otherwise
// concurrent calls for the same (ref, quality) share one pass through the
// strategy chain. That pass is detached from ctx: cancelling ctx only stops
// this caller from waiting.
func (r *Resolver) Resolve(ctx context.Context, ref string, q policy.Quality, p *policy.Policy) (*PlayableStream, error) {
	if p == nil {
		p = r.policy
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrEmptyReference
	}
	if q == "" {
		q = p.Quality()
	}
	if !q.Valid() {
		return nil, fmt.Errorf("resolve %s: unknown quality %q", ref, q)
	}

	if r.classifier.Classify(ref) == ClassDirect {
		r.metrics.outcome("direct")
		return &PlayableStream{
			Reference:    ref,
			URL:          ref,
			QualityLabel: "source",
			Class:        ClassDirect,
		}, nil
	}

	k := cacheKey{ref: ref, quality: q}
	if s, ok := r.cache.get(k); ok {
		r.metrics.outcome("cache_hit")
		s.Cached = true
		return &s, nil
	}

	var leader bool
	ch := r.group.DoChan(k.String(), func() (any, error) {
		leader = true
		// a flight that finished between our miss and joining may have filled it
		if s, ok := r.cache.get(k); ok {
			s.Cached = true
			return s, nil
		}
		return r.runChain(context.WithoutCancel(ctx), k, p)
	})

	select {
	case res := <-ch:
		if !leader {
			r.metrics.sharedWait()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		s := res.Val.(PlayableStream)
		return &s, nil
	case <-ctx.Done():
		r.log.Debug("caller stopped waiting", "ref", ref, "quality", q, "error", ctx.Err())
		return nil, ctx.Err()
	}
}

// runChain tries each strategy in policy order, once each, until one succeeds.
func (r *Resolver) runChain(ctx context.Context, k cacheKey, p *policy.Policy) (PlayableStream, error) {
	req := Request{Reference: k.ref, Quality: k.quality, Region: p.Region()}
	start := time.Now()

	var attempts []Attempt
	for _, slot := range p.StrategyOrder() {
		st := r.strategies[slot]
		name := string(slot)
		if st != nil {
			name = st.Name()
		}

		attemptStart := time.Now()
		out, err := r.attempt(ctx, st, req, p.RequestTimeout())
		elapsed := time.Since(attemptStart)
		if err != nil {
			r.metrics.attempt(name, attemptResult(err))
			r.log.Warn("strategy failed", "slot", slot, "strategy", name, "ref", k.ref,
				"error", err, "duration_ms", elapsed.Milliseconds())
			attempts = append(attempts, Attempt{Slot: slot, Strategy: name, Err: err, Duration: elapsed})
			continue
		}
		r.metrics.attempt(name, "ok")

		label := out.QualityLabel
		if label == "" {
			label = k.quality.Label()
		}
		s := PlayableStream{
			Reference:    k.ref,
			URL:          out.URL,
			QualityLabel: label,
			Class:        ClassStreamingSite,
			Strategy:     name,
			ExpiresAt:    r.now().Add(p.CacheTTL()),
		}
		evicted := r.cache.add(k, s)
		r.metrics.cached(r.cache.len(), evicted)
		r.metrics.outcome("resolved")
		r.log.Info("stream resolved", "slot", slot, "strategy", name, "ref", k.ref,
			"quality", label, "attempts", len(attempts)+1, "duration_ms", time.Since(start).Milliseconds())
		return s, nil
	}

	r.metrics.outcome("failed")
	r.log.Warn("resolution failed", "ref", k.ref, "attempts", len(attempts),
		"duration_ms", time.Since(start).Milliseconds())
	return PlayableStream{}, &ResolutionError{
		Reference: k.ref,
		Class:     ClassStreamingSite,
		Attempts:  attempts,
	}
}

type extractResult struct {
	stream Stream
	err    error
}

// attempt runs one strategy with a hard cutoff. The strategy keeps its
// goroutine until it observes the cancelled context, but the chain moves on
// as soon as the timeout fires.
func (r *Resolver) attempt(ctx context.Context, st Strategy, req Request, timeout time.Duration) (Stream, error) {
	if st == nil {
		return Stream{}, ErrCapabilityUnavailable
	}

	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan extractResult, 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				done <- extractResult{err: fmt.Errorf("strategy panicked: %v", v)}
			}
		}()
		s, err := st.Extract(actx, req)
		done <- extractResult{stream: s, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) && actx.Err() != nil {
				return Stream{}, fmt.Errorf("%w after %s: %w", ErrTimeout, timeout, res.err)
			}
			return Stream{}, res.err
		}
		if strings.TrimSpace(res.stream.URL) == "" {
			return Stream{}, ErrNoStream
		}
		return res.stream, nil
	case <-actx.Done():
		return Stream{}, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}

func attemptResult(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrCapabilityUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// Invalidate drops every cached stream for ref and reports how many were removed.
func (r *Resolver) Invalidate(ref string) int {
	n := r.cache.removeRef(strings.TrimSpace(ref))
	r.metrics.cached(r.cache.len(), false)
	return n
}

// Purge empties the stream cache.
func (r *Resolver) Purge() {
	r.cache.purge()
	r.metrics.cached(0, false)
}

// CacheLen reports the number of cached streams, fresh or not yet swept.
func (r *Resolver) CacheLen() int {
	return r.cache.len()
}
