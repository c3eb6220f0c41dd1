package extract

import (
	"context"
	"fmt"
	"net/url"

	"github.com/vmunix/fafo/internal/resolver"
)

// DefaultAddonID is the playback add-on that accepts video-id handoffs.
const DefaultAddonID = "plugin.video.youtube"

// AddonHandoff is a secondary strategy that hands the video id to an
// installed playback add-on instead of extracting a stream itself. The
// add-on picks renditions adaptively, so the result carries no fixed quality.
type AddonHandoff struct {
	addonID   string
	installed func() bool
}

// NewAddonHandoff creates the handoff strategy for addonID.
// installed reports whether the add-on is present; nil means always.
func NewAddonHandoff(addonID string, installed func() bool) *AddonHandoff {
	if addonID == "" {
		addonID = DefaultAddonID
	}
	if installed == nil {
		installed = func() bool { return true }
	}
	return &AddonHandoff{addonID: addonID, installed: installed}
}

func (a *AddonHandoff) Name() string { return "addon:" + a.addonID }

// Extract builds the add-on's play URL for the reference's video id.
func (a *AddonHandoff) Extract(ctx context.Context, req resolver.Request) (resolver.Stream, error) {
	if err := ctx.Err(); err != nil {
		return resolver.Stream{}, err
	}
	if !a.installed() {
		return resolver.Stream{}, fmt.Errorf("%s: %w", a.addonID, resolver.ErrCapabilityUnavailable)
	}
	id := VideoID(req.Reference)
	if id == "" {
		return resolver.Stream{}, fmt.Errorf("%s: no video id in %q", a.addonID, req.Reference)
	}
	q := url.Values{"video_id": {id}}
	return resolver.Stream{
		URL:          fmt.Sprintf("plugin://%s/play/?%s", a.addonID, q.Encode()),
		QualityLabel: "adaptive",
	}, nil
}
