package events

// Event types for catalog changes.
const (
	EventItemAdded       = "item.added"
	EventItemUpdated     = "item.updated"
	EventItemDeleted     = "item.deleted"
	EventListCreated     = "list.created"
	EventListRenamed     = "list.renamed"
	EventListDeleted     = "list.deleted"
	EventListItemAdded   = "list.item_added"
	EventListItemRemoved = "list.item_removed"
	EventCatalogImported = "catalog.imported"
	EventResolveFailed   = "item.resolve_failed"
)

// Entity types.
const (
	EntityItem    = "item"
	EntityList    = "list"
	EntityCatalog = "catalog"
)

// ItemAdded is emitted when an item is created.
type ItemAdded struct {
	BaseEvent
	Title    string `json:"title"`
	Kind     string `json:"kind"`
	Category string `json:"category"`
}

// ItemUpdated is emitted when an item's mutable fields change.
type ItemUpdated struct {
	BaseEvent
	Title    string `json:"title"`
	Category string `json:"category"`
}

// ItemDeleted is emitted when an item is removed. Lists that held it keep
// the id.
type ItemDeleted struct {
	BaseEvent
	SourceReference string `json:"source_reference"`
}

// ListCreated is emitted when a list is created.
type ListCreated struct {
	BaseEvent
	Name string `json:"name"`
}

// ListRenamed is emitted when a list gets a new name.
type ListRenamed struct {
	BaseEvent
	Name string `json:"name"`
}

// ListDeleted is emitted when a list is removed.
type ListDeleted struct {
	BaseEvent
}

// ListMembership is emitted when an item is added to or removed from a list.
type ListMembership struct {
	BaseEvent
	ItemID string `json:"item_id"`
}

// CatalogImported is emitted after a snapshot import.
type CatalogImported struct {
	BaseEvent
	Mode  string `json:"mode"`
	Items int    `json:"items"`
	Lists int    `json:"lists"`
}

// ResolveFailed is emitted when every strategy failed for an item.
type ResolveFailed struct {
	BaseEvent
	Class string `json:"class"`
	Cause string `json:"cause"`
}
