package facade

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vmunix/fafo/internal/catalog"
	"github.com/vmunix/fafo/internal/extract"
	"github.com/vmunix/fafo/internal/resolver"
)

// VideoInfo reads platform metadata for a streaming-site reference.
func (f *Facade) VideoInfo(ctx context.Context, ref string) (*extract.VideoInfo, error) {
	if f.metadata == nil {
		return nil, translate("video info",
			fmt.Errorf("metadata lookups not configured: %w", resolver.ErrCapabilityUnavailable))
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, translate("video info", resolver.ErrEmptyReference)
	}
	ctx, cancel := context.WithTimeout(ctx, f.policy.RequestTimeout())
	defer cancel()

	info, err := f.metadata.Info(ctx, ref)
	return info, translate("video info", err)
}

// SearchRemote searches the video platform, honouring the policy's safe
// search setting. limit <= 0 uses the searcher's default.
func (f *Facade) SearchRemote(ctx context.Context, query string, limit int) ([]extract.VideoInfo, error) {
	if f.platform == nil {
		return nil, translate("search remote",
			fmt.Errorf("platform search not configured: %w", resolver.ErrCapabilityUnavailable))
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, translate("search remote", &catalog.ValidationError{Problems: []string{"query: required"}})
	}

	start := time.Now()
	results, err := f.platform.Search(ctx, query, limit, f.policy.SafeSearch())
	if err != nil {
		return nil, translate("search remote", err)
	}
	f.log.Debug("platform searched", "query", query, "safe_search", f.policy.SafeSearch(),
		"results", len(results), "duration_ms", time.Since(start).Milliseconds())
	return results, nil
}

// enrichFields fills an empty description or thumbnail of a streaming-site
// item from platform metadata. The fields are returned unchanged when the
// lookup is off, not needed, or fails.
func (f *Facade) enrichFields(ctx context.Context, fields catalog.ItemFields) catalog.ItemFields {
	if !f.enrich || f.metadata == nil {
		return fields
	}
	needDescription := strings.TrimSpace(fields.Description) == ""
	needThumbnail := strings.TrimSpace(fields.Thumbnail) == ""
	ref := strings.TrimSpace(fields.SourceReference)
	if (!needDescription && !needThumbnail) || ref == "" || strings.TrimSpace(fields.Title) == "" {
		return fields
	}
	if fields.Kind == catalog.KindPlaylist || !f.isStreamingSite(ref, fields.Kind) {
		return fields
	}

	ctx, cancel := context.WithTimeout(ctx, f.policy.RequestTimeout())
	defer cancel()
	start := time.Now()
	info, err := f.metadata.Info(ctx, ref)
	if err != nil {
		f.log.Warn("metadata lookup failed", "ref", ref, "duration_ms", time.Since(start).Milliseconds(), "error", err)
		return fields
	}
	if needDescription {
		fields.Description = info.Description
	}
	if needThumbnail && strings.HasPrefix(info.Thumbnail, "http") {
		fields.Thumbnail = info.Thumbnail
	}
	f.log.Debug("item enriched", "ref", ref, "video_id", info.ID, "duration_ms", time.Since(start).Milliseconds())
	return fields
}

func (f *Facade) isStreamingSite(ref string, kind catalog.Kind) bool {
	if c, ok := f.resolver.(classifier); ok {
		return c.Classify(ref) == resolver.ClassStreamingSite
	}
	return kind == catalog.KindStreamingSite
}
