package facade

import (
	"context"
	"fmt"
	"time"

	"github.com/vmunix/fafo/internal/catalog"
	"github.com/vmunix/fafo/internal/policy"
)

// Command is one facade operation with its arguments. The set of commands
// is closed; Execute dispatches on the concrete type.
type Command interface {
	// Name is the operation name used in logs and responses.
	Name() string
	command()
}

type (
	ListCategories struct{}

	ListItems struct {
		Category catalog.Category // empty means every category
		Kind     catalog.Kind     // empty means every kind
		Limit    int
		Offset   int
	}

	GetItem struct{ ID string }

	CreateItem struct {
		Title           string
		SourceReference string
		Kind            catalog.Kind
		Category        catalog.Category
		Description     string
		Thumbnail       string
	}

	// UpdateItem changes the non-nil fields.
	UpdateItem struct {
		ID          string
		Title       *string
		Description *string
		Category    *catalog.Category
	}

	DeleteItem struct{ ID string }

	ListLists struct{}

	CreateList struct {
		ListName    string
		Description string
	}

	RenameList struct {
		ID       string
		ListName string
	}

	DeleteList struct{ ID string }

	AddToList struct {
		ListID string
		ItemID string
	}

	RemoveFromList struct {
		ListID string
		ItemID string
	}

	GetList struct{ ID string }

	// ResolvePlayableURL resolves at Quality, or the policy's preference if empty.
	ResolvePlayableURL struct {
		ItemID  string
		Quality policy.Quality
	}

	Playback struct{ ItemID string }

	Prefetch struct{ ItemIDs []string }

	ExpandPlaylist struct{ ItemID string }

	Search struct {
		Query string
		Limit int
	}

	// SearchRemote searches the video platform rather than the catalog.
	SearchRemote struct {
		Query string
		Limit int
	}

	VideoInfo struct{ Reference string }

	Stats struct{}

	ExportCatalog struct{}

	ImportCatalog struct {
		Snapshot []byte
		Mode     catalog.ImportMode
	}

	// History lists recorded events, narrowed to one entity when EntityID is set.
	History struct {
		EntityType string
		EntityID   string
		Limit      int
	}
)

func (ListCategories) Name() string     { return "list_categories" }
func (ListItems) Name() string          { return "list_items" }
func (GetItem) Name() string            { return "get_item" }
func (CreateItem) Name() string         { return "create_item" }
func (UpdateItem) Name() string         { return "update_item" }
func (DeleteItem) Name() string         { return "delete_item" }
func (ListLists) Name() string          { return "list_lists" }
func (CreateList) Name() string         { return "create_list" }
func (RenameList) Name() string         { return "rename_list" }
func (DeleteList) Name() string         { return "delete_list" }
func (AddToList) Name() string          { return "add_to_list" }
func (RemoveFromList) Name() string     { return "remove_from_list" }
func (GetList) Name() string            { return "get_list" }
func (ResolvePlayableURL) Name() string { return "resolve_playable_url" }
func (Playback) Name() string           { return "playback" }
func (Prefetch) Name() string           { return "prefetch" }
func (ExpandPlaylist) Name() string     { return "expand_playlist" }
func (Search) Name() string             { return "search" }
func (SearchRemote) Name() string       { return "search_remote" }
func (VideoInfo) Name() string          { return "video_info" }
func (Stats) Name() string              { return "stats" }
func (ExportCatalog) Name() string      { return "export_catalog" }
func (ImportCatalog) Name() string      { return "import_catalog" }
func (History) Name() string            { return "history" }

func (ListCategories) command()     {}
func (ListItems) command()          {}
func (GetItem) command()            {}
func (CreateItem) command()         {}
func (UpdateItem) command()         {}
func (DeleteItem) command()         {}
func (ListLists) command()          {}
func (CreateList) command()         {}
func (RenameList) command()         {}
func (DeleteList) command()         {}
func (AddToList) command()          {}
func (RemoveFromList) command()     {}
func (GetList) command()            {}
func (ResolvePlayableURL) command() {}
func (Playback) command()           {}
func (Prefetch) command()           {}
func (ExpandPlaylist) command()     {}
func (Search) command()             {}
func (SearchRemote) command()       {}
func (VideoInfo) command()          {}
func (Stats) command()              {}
func (ExportCatalog) command()      {}
func (ImportCatalog) command()      {}
func (History) command()            {}

// Created is the result of commands that create an entity.
type Created struct {
	ID string `json:"id"`
}

// Response is the result of Execute. Result holds the operation's value and
// is nil for operations that return nothing.
type Response struct {
	Command string `json:"command"`
	Result  any    `json:"result,omitempty"`
}

// Execute runs cmd. The Result type per command:
//
//	ListCategories      map[catalog.Category]int
//	ListItems           []*catalog.Item
//	GetItem, UpdateItem *catalog.Item
//	CreateItem          Created
//	ListLists           []*catalog.List
//	CreateList          Created
//	GetList             *catalog.ListView
//	ResolvePlayableURL  *resolver.PlayableStream
//	Playback            *PlaybackResult
//	Prefetch            *PrefetchReport
//	ExpandPlaylist      *extract.Playlist
//	Search              []catalog.SearchResult
//	SearchRemote        []extract.VideoInfo
//	VideoInfo           *extract.VideoInfo
//	Stats               *catalog.Stats
//	ExportCatalog       []byte
//	ImportCatalog       *catalog.ImportResult
//	History             []events.RawEvent
//
// The remaining commands return a nil Result.
func (f *Facade) Execute(ctx context.Context, cmd Command) (*Response, error) {
	if cmd == nil {
		return nil, &Error{Code: CodeValidation, Op: "execute", Message: "nil command"}
	}
	start := time.Now()
	result, err := f.dispatch(ctx, cmd)
	f.log.Debug("command executed", "command", cmd.Name(), "ok", err == nil,
		"duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		return nil, err
	}
	return &Response{Command: cmd.Name(), Result: result}, nil
}

func (f *Facade) dispatch(ctx context.Context, cmd Command) (any, error) {
	switch c := cmd.(type) {
	case ListCategories:
		return f.ListCategories(ctx)
	case ListItems:
		filter := catalog.ItemFilter{Limit: c.Limit, Offset: c.Offset}
		if c.Category != "" {
			filter.Category = &c.Category
		}
		if c.Kind != "" {
			filter.Kind = &c.Kind
		}
		return f.ListItems(ctx, filter)
	case GetItem:
		return f.GetItem(ctx, c.ID)
	case CreateItem:
		id, err := f.CreateItem(ctx, catalog.ItemFields{
			Title:           c.Title,
			SourceReference: c.SourceReference,
			Kind:            c.Kind,
			Category:        c.Category,
			Description:     c.Description,
			Thumbnail:       c.Thumbnail,
		})
		if err != nil {
			return nil, err
		}
		return Created{ID: id}, nil
	case UpdateItem:
		return f.UpdateItem(ctx, c.ID, catalog.ItemUpdate{
			Title:       c.Title,
			Description: c.Description,
			Category:    c.Category,
		})
	case DeleteItem:
		return nil, f.DeleteItem(ctx, c.ID)
	case ListLists:
		return f.ListLists(ctx)
	case CreateList:
		id, err := f.CreateList(ctx, c.ListName, c.Description)
		if err != nil {
			return nil, err
		}
		return Created{ID: id}, nil
	case RenameList:
		return nil, f.RenameList(ctx, c.ID, c.ListName)
	case DeleteList:
		return nil, f.DeleteList(ctx, c.ID)
	case AddToList:
		return nil, f.AddToList(ctx, c.ListID, c.ItemID)
	case RemoveFromList:
		return nil, f.RemoveFromList(ctx, c.ListID, c.ItemID)
	case GetList:
		return f.GetList(ctx, c.ID)
	case ResolvePlayableURL:
		return f.ResolveAtQuality(ctx, c.ItemID, c.Quality)
	case Playback:
		return f.PlaybackURL(ctx, c.ItemID)
	case Prefetch:
		return f.Prefetch(ctx, c.ItemIDs)
	case ExpandPlaylist:
		return f.ExpandPlaylist(ctx, c.ItemID)
	case Search:
		return f.Search(ctx, c.Query, c.Limit)
	case SearchRemote:
		return f.SearchRemote(ctx, c.Query, c.Limit)
	case VideoInfo:
		return f.VideoInfo(ctx, c.Reference)
	case Stats:
		return f.Stats(ctx)
	case ExportCatalog:
		return f.ExportCatalog(ctx)
	case ImportCatalog:
		return f.ImportCatalog(ctx, c.Snapshot, c.Mode)
	case History:
		return f.History(ctx, c.EntityType, c.EntityID, c.Limit)
	default:
		return nil, &Error{Code: CodeInternal, Op: "execute", Message: fmt.Sprintf("unhandled command %T", cmd)}
	}
}
