package facade

import (
	"context"
	"errors"

	"github.com/vmunix/fafo/internal/catalog"
	"github.com/vmunix/fafo/internal/events"
	"github.com/vmunix/fafo/internal/extract"
	"github.com/vmunix/fafo/internal/policy"
	"github.com/vmunix/fafo/internal/resolver"
)

// ErrMissingDependency is returned when a required dependency is nil.
var ErrMissingDependency = errors.New("missing required dependency")

// Catalog is the catalog store surface the facade passes through to.
type Catalog interface {
	CategoryCounts(ctx context.Context) (map[catalog.Category]int, error)
	ListItems(ctx context.Context, f catalog.ItemFilter) ([]*catalog.Item, error)
	GetItem(ctx context.Context, id string) (*catalog.Item, error)
	CreateItem(ctx context.Context, f catalog.ItemFields) (*catalog.Item, error)
	UpdateItem(ctx context.Context, id string, u catalog.ItemUpdate) (*catalog.Item, error)
	DeleteItem(ctx context.Context, id string) error

	ListLists(ctx context.Context) ([]*catalog.List, error)
	CreateList(ctx context.Context, name, description string) (*catalog.List, error)
	RenameList(ctx context.Context, id, name string) error
	DeleteList(ctx context.Context, id string) error
	AddToList(ctx context.Context, listID, itemID string) error
	RemoveFromList(ctx context.Context, listID, itemID string) error
	GetList(ctx context.Context, id string) (*catalog.ListView, error)

	Search(ctx context.Context, query string, limit int) ([]catalog.SearchResult, error)
	Stats(ctx context.Context) (*catalog.Stats, error)
	ExportCatalog(ctx context.Context, appVersion string) ([]byte, error)
	ImportCatalog(ctx context.Context, data []byte, mode catalog.ImportMode) (*catalog.ImportResult, error)
}

// StreamResolver turns a source reference into a playable stream.
type StreamResolver interface {
	Resolve(ctx context.Context, ref string, q policy.Quality, p *policy.Policy) (*resolver.PlayableStream, error)
}

// PlaylistExpander lists the entries of a playlist reference.
type PlaylistExpander interface {
	Expand(ctx context.Context, ref string) (*extract.Playlist, error)
}

// MetadataSource reads platform metadata for a streaming-site reference.
type MetadataSource interface {
	Info(ctx context.Context, ref string) (*extract.VideoInfo, error)
}

// VideoSearcher searches a video platform.
type VideoSearcher interface {
	Search(ctx context.Context, query string, limit int, safe bool) ([]extract.VideoInfo, error)
}

// classifier is implemented by resolvers that expose reference classification.
type classifier interface {
	Classify(ref string) resolver.Class
}

// cacheInvalidator is implemented by resolvers that cache results per reference.
type cacheInvalidator interface {
	Invalidate(ref string) int
}

// Publisher receives catalog change events.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// HistoryReader reads recorded catalog events.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]events.RawEvent, error)
	ForEntity(ctx context.Context, entityType, entityID string) ([]events.RawEvent, error)
}

// Deps contains the collaborators of a Facade.
// Required dependencies must be non-nil; optional dependencies may be nil.
type Deps struct {
	// Required dependencies
	Catalog  Catalog
	Resolver StreamResolver

	// Optional dependencies
	Playlists PlaylistExpander // nil disables ExpandPlaylist
	Policy    *policy.Policy   // nil means policy.Default()
	Events    Publisher        // nil disables change events
	History   HistoryReader    // nil disables History
	Metadata  MetadataSource   // nil disables enrichment and VideoInfo
	Platform  VideoSearcher    // nil disables SearchRemote
}

// Validate checks that all required dependencies are provided.
func (d Deps) Validate() error {
	if d.Catalog == nil {
		return errors.New("catalog store is required")
	}
	if d.Resolver == nil {
		return errors.New("stream resolver is required")
	}
	return nil
}
