package facade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/fafo/internal/events"
	"github.com/vmunix/fafo/internal/extract"
	"github.com/vmunix/fafo/internal/policy"
	"github.com/vmunix/fafo/internal/resolver"
)

// ResolvePlayableURL resolves an item's source reference at the policy's
// quality preference.
func (f *Facade) ResolvePlayableURL(ctx context.Context, itemID string) (*resolver.PlayableStream, error) {
	return f.ResolveAtQuality(ctx, itemID, "")
}

// ResolveAtQuality resolves an item's source reference at quality q.
// An empty q uses the policy's preference.
func (f *Facade) ResolveAtQuality(ctx context.Context, itemID string, q policy.Quality) (*resolver.PlayableStream, error) {
	it, err := f.catalog.GetItem(ctx, itemID)
	if err != nil {
		return nil, translate("resolve", err)
	}
	start := time.Now()
	s, err := f.resolver.Resolve(ctx, it.SourceReference, q, f.policy)
	if err != nil {
		var re *resolver.ResolutionError
		if errors.As(err, &re) {
			f.log.Warn("resolution failed", "item_id", itemID, "ref", it.SourceReference,
				"attempts", len(re.Attempts), "duration_ms", time.Since(start).Milliseconds(), "error", err)
			f.publish(ctx, &events.ResolveFailed{
				BaseEvent: events.NewBaseEvent(events.EventResolveFailed, events.EntityItem, itemID),
				Class:     string(re.Class),
				Cause:     err.Error(),
			})
		}
		return nil, translate("resolve", err)
	}
	return s, nil
}

// PlaybackResult is what a player should open for an item.
type PlaybackResult struct {
	Stream *resolver.PlayableStream `json:"stream"`
	// Fallback is set when resolution failed and Stream is the raw source
	// reference offered for direct playback.
	Fallback bool   `json:"fallback"`
	Cause    string `json:"cause,omitempty"`
}

// PlaybackURL resolves an item like ResolvePlayableURL, but recovers from a
// resolution failure by offering the stored reference for direct playback.
// Lookup, validation and cancellation errors are still returned.
func (f *Facade) PlaybackURL(ctx context.Context, itemID string) (*PlaybackResult, error) {
	s, err := f.ResolvePlayableURL(ctx, itemID)
	if err == nil {
		return &PlaybackResult{Stream: s}, nil
	}
	if ErrorCode(err) != CodeResolution {
		return nil, err
	}

	it, gerr := f.catalog.GetItem(ctx, itemID)
	if gerr != nil {
		return nil, translate("playback", gerr)
	}
	var re *resolver.ResolutionError
	errors.As(err, &re)
	return &PlaybackResult{
		Stream: &resolver.PlayableStream{
			Reference:    it.SourceReference,
			URL:          it.SourceReference,
			QualityLabel: "source",
			Class:        re.Class,
		},
		Fallback: true,
		Cause:    err.Error(),
	}, nil
}

// PrefetchResult is the outcome for one item of a Prefetch call.
type PrefetchResult struct {
	ItemID string                   `json:"item_id"`
	Stream *resolver.PlayableStream `json:"stream,omitempty"`
	Err    error                    `json:"-"`
	Error  string                   `json:"error,omitempty"`
}

// PrefetchReport lists Prefetch outcomes in the order the ids were given.
type PrefetchReport struct {
	Results  []PrefetchResult `json:"results"`
	Resolved int              `json:"resolved"`
	Failed   int              `json:"failed"`
}

// Prefetch resolves several items on a bounded worker pool so later
// playback hits the resolver cache. Per-item failures are reported, not
// returned; the error is non-nil only if ctx ends before every item ran.
func (f *Facade) Prefetch(ctx context.Context, itemIDs []string) (*PrefetchReport, error) {
	start := time.Now()
	report := &PrefetchReport{Results: make([]PrefetchResult, len(itemIDs))}
	ran := make([]bool, len(itemIDs))

	var g errgroup.Group
	g.SetLimit(f.workers)
	for i, id := range itemIDs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			s, err := f.ResolvePlayableURL(ctx, id)
			r := PrefetchResult{ItemID: id, Stream: s, Err: err}
			if err != nil {
				r.Error = err.Error()
			}
			report.Results[i] = r
			ran[i] = true
			return nil
		})
	}
	_ = g.Wait()

	for i := range report.Results {
		r := &report.Results[i]
		switch {
		case !ran[i]:
			// never started because ctx ended first
			r.ItemID = itemIDs[i]
			r.Err = translate("prefetch", context.Cause(ctx))
			r.Error = r.Err.Error()
			report.Failed++
		case r.Err != nil:
			report.Failed++
		default:
			report.Resolved++
		}
	}
	f.log.Info("prefetch complete", "items", len(itemIDs), "resolved", report.Resolved,
		"failed", report.Failed, "duration_ms", time.Since(start).Milliseconds())

	if err := ctx.Err(); err != nil {
		return report, translate("prefetch", err)
	}
	return report, nil
}

// ExpandPlaylist lists the entries of a playlist item.
func (f *Facade) ExpandPlaylist(ctx context.Context, itemID string) (*extract.Playlist, error) {
	if f.playlists == nil {
		return nil, translate("expand playlist",
			fmt.Errorf("playlist expansion not configured: %w", resolver.ErrCapabilityUnavailable))
	}
	it, err := f.catalog.GetItem(ctx, itemID)
	if err != nil {
		return nil, translate("expand playlist", err)
	}
	pl, err := f.playlists.Expand(ctx, it.SourceReference)
	return pl, translate("expand playlist", err)
}
