// Package facade is the single entry surface for catalog callers such as
// menu renderers and API layers. It composes the catalog store and the
// stream resolver and translates their errors into *Error values.
package facade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/vmunix/fafo/internal/catalog"
	"github.com/vmunix/fafo/internal/events"
	"github.com/vmunix/fafo/internal/policy"
	"github.com/vmunix/fafo/internal/resolver"
)

// DefaultPrefetchWorkers bounds concurrent resolutions started by Prefetch.
const DefaultPrefetchWorkers = 4

// Facade composes a catalog store and a stream resolver.
// It is safe for concurrent use.
type Facade struct {
	catalog    Catalog
	resolver   StreamResolver
	playlists  PlaylistExpander
	events     Publisher
	history    HistoryReader
	metadata   MetadataSource
	platform   VideoSearcher
	enrich     bool
	policy     *policy.Policy
	workers    int
	appVersion string
	log        *slog.Logger
}

// Option configures optional Facade behaviour.
type Option func(*Facade)

// WithPrefetchWorkers sets the Prefetch worker pool size.
func WithPrefetchWorkers(n int) Option {
	return func(f *Facade) {
		if n > 0 {
			f.workers = n
		}
	}
}

// WithEnrichment turns metadata lookups on CreateItem on or off. It is on
// by default and has no effect without a MetadataSource.
func WithEnrichment(on bool) Option {
	return func(f *Facade) { f.enrich = on }
}

// WithAppVersion sets the version recorded in exported snapshots.
func WithAppVersion(v string) Option {
	return func(f *Facade) { f.appVersion = v }
}

// New creates a Facade.
func New(deps Deps, log *slog.Logger, opts ...Option) (*Facade, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingDependency, err)
	}
	if log == nil {
		log = slog.Default()
	}
	f := &Facade{
		catalog:   deps.Catalog,
		resolver:  deps.Resolver,
		playlists: deps.Playlists,
		events:    deps.Events,
		history:   deps.History,
		metadata:  deps.Metadata,
		platform:  deps.Platform,
		enrich:    true,
		policy:    deps.Policy,
		workers:   DefaultPrefetchWorkers,
		log:       log.With("component", "facade"),
	}
	if f.policy == nil {
		f.policy = policy.Default()
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Policy returns the active playback policy.
func (f *Facade) Policy() *policy.Policy { return f.policy }

// ListCategories returns the item count of every known category.
func (f *Facade) ListCategories(ctx context.Context) (map[catalog.Category]int, error) {
	counts, err := f.catalog.CategoryCounts(ctx)
	return counts, translate("list categories", err)
}

// ListItems returns items in creation order.
func (f *Facade) ListItems(ctx context.Context, filter catalog.ItemFilter) ([]*catalog.Item, error) {
	items, err := f.catalog.ListItems(ctx, filter)
	return items, translate("list items", err)
}

func (f *Facade) GetItem(ctx context.Context, id string) (*catalog.Item, error) {
	it, err := f.catalog.GetItem(ctx, id)
	return it, translate("get item", err)
}

// CreateItem adds an item and returns its id. For streaming-site
// references a missing description or thumbnail is filled from platform
// metadata when a MetadataSource is configured; a failed lookup never
// fails the create.
func (f *Facade) CreateItem(ctx context.Context, fields catalog.ItemFields) (string, error) {
	fields = f.enrichFields(ctx, fields)
	it, err := f.catalog.CreateItem(ctx, fields)
	if err != nil {
		return "", translate("create item", err)
	}
	f.log.Debug("item created", "item_id", it.ID, "category", it.Category, "kind", it.Kind)
	f.publish(ctx, &events.ItemAdded{
		BaseEvent: events.NewBaseEvent(events.EventItemAdded, events.EntityItem, it.ID),
		Title:     it.Title,
		Kind:      string(it.Kind),
		Category:  string(it.Category),
	})
	return it.ID, nil
}

func (f *Facade) UpdateItem(ctx context.Context, id string, u catalog.ItemUpdate) (*catalog.Item, error) {
	it, err := f.catalog.UpdateItem(ctx, id, u)
	if err != nil {
		return nil, translate("update item", err)
	}
	f.publish(ctx, &events.ItemUpdated{
		BaseEvent: events.NewBaseEvent(events.EventItemUpdated, events.EntityItem, it.ID),
		Title:     it.Title,
		Category:  string(it.Category),
	})
	return it, nil
}

// DeleteItem removes an item. Deleting an unknown id succeeds and records
// nothing. Lists that reference it are left as they are and filter the id
// out when read. Cached streams for its reference are dropped.
func (f *Facade) DeleteItem(ctx context.Context, id string) error {
	it, err := f.catalog.GetItem(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return translate("delete item", f.catalog.DeleteItem(ctx, id))
	}
	if err != nil {
		return translate("delete item", err)
	}
	if err := f.catalog.DeleteItem(ctx, id); err != nil {
		return translate("delete item", err)
	}
	if inv, ok := f.resolver.(cacheInvalidator); ok {
		if n := inv.Invalidate(it.SourceReference); n > 0 {
			f.log.Debug("cached streams dropped", "item_id", id, "entries", n)
		}
	}
	f.publish(ctx, &events.ItemDeleted{
		BaseEvent:       events.NewBaseEvent(events.EventItemDeleted, events.EntityItem, id),
		SourceReference: it.SourceReference,
	})
	return nil
}

func (f *Facade) ListLists(ctx context.Context) ([]*catalog.List, error) {
	lists, err := f.catalog.ListLists(ctx)
	return lists, translate("list lists", err)
}

// CreateList adds an empty list and returns its id.
func (f *Facade) CreateList(ctx context.Context, name, description string) (string, error) {
	l, err := f.catalog.CreateList(ctx, name, description)
	if err != nil {
		return "", translate("create list", err)
	}
	f.publish(ctx, &events.ListCreated{
		BaseEvent: events.NewBaseEvent(events.EventListCreated, events.EntityList, l.ID),
		Name:      l.Name,
	})
	return l.ID, nil
}

func (f *Facade) RenameList(ctx context.Context, id, name string) error {
	if err := f.catalog.RenameList(ctx, id, name); err != nil {
		return translate("rename list", err)
	}
	f.publish(ctx, &events.ListRenamed{
		BaseEvent: events.NewBaseEvent(events.EventListRenamed, events.EntityList, id),
		Name:      name,
	})
	return nil
}

func (f *Facade) DeleteList(ctx context.Context, id string) error {
	if err := f.catalog.DeleteList(ctx, id); err != nil {
		return translate("delete list", err)
	}
	f.publish(ctx, &events.ListDeleted{
		BaseEvent: events.NewBaseEvent(events.EventListDeleted, events.EntityList, id),
	})
	return nil
}

// AddToList appends an item to a list. Adding a current member is a no-op.
func (f *Facade) AddToList(ctx context.Context, listID, itemID string) error {
	if err := f.catalog.AddToList(ctx, listID, itemID); err != nil {
		return translate("add to list", err)
	}
	f.publish(ctx, &events.ListMembership{
		BaseEvent: events.NewBaseEvent(events.EventListItemAdded, events.EntityList, listID),
		ItemID:    itemID,
	})
	return nil
}

func (f *Facade) RemoveFromList(ctx context.Context, listID, itemID string) error {
	if err := f.catalog.RemoveFromList(ctx, listID, itemID); err != nil {
		return translate("remove from list", err)
	}
	f.publish(ctx, &events.ListMembership{
		BaseEvent: events.NewBaseEvent(events.EventListItemRemoved, events.EntityList, listID),
		ItemID:    itemID,
	})
	return nil
}

// GetList materializes a list. Members deleted since they were added are
// reported in the view's Dangling field rather than in Items.
func (f *Facade) GetList(ctx context.Context, id string) (*catalog.ListView, error) {
	v, err := f.catalog.GetList(ctx, id)
	if err != nil {
		return nil, translate("get list", err)
	}
	if v.Filtered() {
		f.log.Debug("list has dangling members", "list_id", id, "dangling", len(v.Dangling))
	}
	return v, nil
}

func (f *Facade) Search(ctx context.Context, query string, limit int) ([]catalog.SearchResult, error) {
	res, err := f.catalog.Search(ctx, query, limit)
	return res, translate("search", err)
}

func (f *Facade) Stats(ctx context.Context) (*catalog.Stats, error) {
	st, err := f.catalog.Stats(ctx)
	return st, translate("stats", err)
}

// ExportCatalog serializes the whole catalog.
func (f *Facade) ExportCatalog(ctx context.Context) ([]byte, error) {
	data, err := f.catalog.ExportCatalog(ctx, f.appVersion)
	return data, translate("export catalog", err)
}

// ImportCatalog loads a snapshot produced by ExportCatalog.
func (f *Facade) ImportCatalog(ctx context.Context, data []byte, mode catalog.ImportMode) (*catalog.ImportResult, error) {
	res, err := f.catalog.ImportCatalog(ctx, data, mode)
	if err != nil {
		return nil, translate("import catalog", err)
	}
	f.log.Info("catalog imported", "mode", res.Mode, "items", res.Items, "lists", res.Lists)
	f.publish(ctx, &events.CatalogImported{
		BaseEvent: events.NewBaseEvent(events.EventCatalogImported, events.EntityCatalog, ""),
		Mode:      string(res.Mode),
		Items:     res.Items,
		Lists:     res.Lists,
	})
	return res, nil
}

// History returns recorded catalog events, newest first. A non-empty
// entityID narrows the result to that item or list. limit <= 0 returns all.
func (f *Facade) History(ctx context.Context, entityType, entityID string, limit int) ([]events.RawEvent, error) {
	if f.history == nil {
		return nil, translate("history",
			fmt.Errorf("history not configured: %w", resolver.ErrCapabilityUnavailable))
	}
	if entityID == "" {
		evs, err := f.history.Recent(ctx, limit)
		return evs, translate("history", err)
	}
	evs, err := f.history.ForEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, translate("history", err)
	}
	slices.Reverse(evs)
	if limit > 0 && len(evs) > limit {
		evs = evs[:limit]
	}
	return evs, nil
}

// publish emits e when an event sink is configured. Failures are logged;
// the catalog change itself has already succeeded.
func (f *Facade) publish(ctx context.Context, e events.Event) {
	if f.events == nil {
		return
	}
	if err := f.events.Publish(context.WithoutCancel(ctx), e); err != nil {
		f.log.Warn("publish event failed", "type", e.EventType(), "error", err)
	}
}
