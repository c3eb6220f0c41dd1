package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SnapshotVersion is the only snapshot format ImportCatalog accepts.
const SnapshotVersion = 1

// Snapshot is a self-contained serialization of the whole catalog.
type Snapshot struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	AppVersion string    `json:"app_version,omitempty"`
	Items      []*Item   `json:"items"`
	Lists      []*List   `json:"lists"`
}

// ImportMode selects how a snapshot is combined with existing state.
type ImportMode string

const (
	// ImportMerge upserts snapshot entities by id and keeps everything else.
	ImportMerge ImportMode = "merge"
	// ImportReplace discards existing state before loading the snapshot.
	ImportReplace ImportMode = "replace"
)

// ParseImportMode parses "merge" or "replace".
func ParseImportMode(s string) (ImportMode, error) {
	switch m := ImportMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ImportMerge, ImportReplace:
		return m, nil
	}
	return "", invalid("mode: unknown value %q (expected merge or replace)", s)
}

// ImportResult reports what an import wrote.
type ImportResult struct {
	Mode  ImportMode `json:"mode"`
	Items int        `json:"items"`
	Lists int        `json:"lists"`
}

// Export captures the current catalog as a Snapshot.
// The catalog lock is held exclusively so the snapshot is consistent.
func (s *Store) Export(ctx context.Context, appVersion string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.now(),
		AppVersion: appVersion,
	}
	err := s.withTx(ctx, "export", func(q querier) error {
		items, err := listItems(ctx, q, ItemFilter{})
		if err != nil {
			return err
		}
		lists, err := listLists(ctx, q)
		if err != nil {
			return err
		}
		snap.Items = items
		snap.Lists = lists
		return nil
	})
	if err != nil {
		return nil, err
	}
	if snap.Items == nil {
		snap.Items = []*Item{}
	}
	if snap.Lists == nil {
		snap.Lists = []*List{}
	}
	return snap, nil
}

// ExportCatalog serializes the catalog as indented JSON.
func (s *Store) ExportCatalog(ctx context.Context, appVersion string) ([]byte, error) {
	snap, err := s.Export(ctx, appVersion)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// ParseSnapshot decodes and validates serialized snapshot data.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, invalid("snapshot: malformed JSON: %v", err)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Validate checks the snapshot as a whole and reports every problem found.
// List members that name items absent from the snapshot are allowed; they
// are filtered like any other dangling reference.
func (snap *Snapshot) Validate() error {
	var problems []string
	if snap.Version != SnapshotVersion {
		problems = append(problems, fmt.Sprintf("version: unsupported value %d", snap.Version))
	}

	seen := make(map[string]bool, len(snap.Items))
	for i, it := range snap.Items {
		if it == nil {
			problems = append(problems, fmt.Sprintf("items[%d]: null entry", i))
			continue
		}
		if strings.TrimSpace(it.ID) == "" {
			problems = append(problems, fmt.Sprintf("items[%d].id: required", i))
		} else if seen[it.ID] {
			problems = append(problems, fmt.Sprintf("items[%d].id: duplicate %q", i, it.ID))
		}
		seen[it.ID] = true

		_, err := normalizeFields(ItemFields{
			Title:           it.Title,
			SourceReference: it.SourceReference,
			Kind:            it.Kind,
			Category:        it.Category,
			Description:     it.Description,
			Thumbnail:       it.Thumbnail,
		})
		if ve, ok := err.(*ValidationError); ok {
			for _, p := range ve.Problems {
				problems = append(problems, fmt.Sprintf("items[%d].%s", i, p))
			}
		}
	}

	seenLists := make(map[string]bool, len(snap.Lists))
	for i, l := range snap.Lists {
		if l == nil {
			problems = append(problems, fmt.Sprintf("lists[%d]: null entry", i))
			continue
		}
		if strings.TrimSpace(l.ID) == "" {
			problems = append(problems, fmt.Sprintf("lists[%d].id: required", i))
		} else if seenLists[l.ID] {
			problems = append(problems, fmt.Sprintf("lists[%d].id: duplicate %q", i, l.ID))
		}
		seenLists[l.ID] = true
		if strings.TrimSpace(l.Name) == "" {
			problems = append(problems, fmt.Sprintf("lists[%d].name: required", i))
		}
		members := make(map[string]bool, len(l.Items))
		for _, id := range l.Items {
			if members[id] {
				problems = append(problems, fmt.Sprintf("lists[%d].items: duplicate member %q", i, id))
			}
			members[id] = true
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ImportCatalog validates data as a snapshot and loads it.
// Nothing is written unless the whole snapshot is valid.
func (s *Store) ImportCatalog(ctx context.Context, data []byte, mode ImportMode) (*ImportResult, error) {
	snap, err := ParseSnapshot(data)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, snap, mode)
}

// Import loads a decoded snapshot. In merge mode snapshot values win for
// ids that already exist and a list's membership is replaced wholesale.
func (s *Store) Import(ctx context.Context, snap *Snapshot, mode ImportMode) (*ImportResult, error) {
	if mode != ImportMerge && mode != ImportReplace {
		return nil, invalid("mode: unknown value %q (expected merge or replace)", mode)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	err := s.withTx(ctx, "import", func(q querier) error {
		if mode == ImportReplace {
			for _, table := range []string{"list_items", "custom_lists", "media_items"} {
				if _, err := q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
					return storageErr("clear "+table, err)
				}
			}
		}

		for _, it := range snap.Items {
			if err := upsertItem(ctx, q, importedItem(it, now)); err != nil {
				return storageErr(fmt.Sprintf("import item %s", it.ID), err)
			}
		}
		for _, l := range snap.Lists {
			if err := upsertList(ctx, q, importedList(l, now)); err != nil {
				return storageErr(fmt.Sprintf("import list %s", l.ID), err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ImportResult{Mode: mode, Items: len(snap.Items), Lists: len(snap.Lists)}, nil
}

func importedItem(src *Item, now time.Time) *Item {
	f, _ := normalizeFields(ItemFields{
		Title:           src.Title,
		SourceReference: src.SourceReference,
		Kind:            src.Kind,
		Category:        src.Category,
		Description:     src.Description,
		Thumbnail:       src.Thumbnail,
	})
	it := &Item{
		ID:              strings.TrimSpace(src.ID),
		Title:           f.Title,
		SourceReference: f.SourceReference,
		Kind:            f.Kind,
		Category:        f.Category,
		Description:     f.Description,
		Thumbnail:       f.Thumbnail,
		CreatedAt:       src.CreatedAt.UTC(),
		UpdatedAt:       src.UpdatedAt.UTC(),
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	if it.UpdatedAt.IsZero() {
		it.UpdatedAt = it.CreatedAt
	}
	return it
}

func importedList(src *List, now time.Time) *List {
	l := &List{
		ID:          strings.TrimSpace(src.ID),
		Name:        strings.TrimSpace(src.Name),
		Description: strings.TrimSpace(src.Description),
		Items:       src.Items,
		CreatedAt:   src.CreatedAt.UTC(),
		UpdatedAt:   src.UpdatedAt.UTC(),
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = l.CreatedAt
	}
	return l
}

func upsertItem(ctx context.Context, q querier, it *Item) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO media_items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			source_ref = excluded.source_ref,
			kind = excluded.kind,
			category = excluded.category,
			description = excluded.description,
			thumbnail = excluded.thumbnail,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		it.ID, it.Title, it.SourceReference, it.Kind, it.Category,
		it.Description, it.Thumbnail, it.CreatedAt, it.UpdatedAt,
	)
	return err
}

func upsertList(ctx context.Context, q querier, l *List) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO custom_lists (id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		l.ID, l.Name, l.Description, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM list_items WHERE list_id = ?", l.ID); err != nil {
		return err
	}
	return insertMembers(ctx, q, l.ID, l.Items)
}
