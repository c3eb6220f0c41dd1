package catalog

import (
	"context"
	"fmt"
	"strings"
)

const itemColumns = "id, title, source_ref, kind, category, description, thumbnail, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	it := &Item{}
	err := row.Scan(&it.ID, &it.Title, &it.SourceReference, &it.Kind, &it.Category,
		&it.Description, &it.Thumbnail, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func insertItem(ctx context.Context, q querier, it *Item) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO media_items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.Title, it.SourceReference, it.Kind, it.Category,
		it.Description, it.Thumbnail, it.CreatedAt, it.UpdatedAt,
	)
	return err
}

// CreateItem validates f and inserts a new item with a fresh id.
// Duplicate source references are allowed.
func (s *Store) CreateItem(ctx context.Context, f ItemFields) (*Item, error) {
	f, err := normalizeFields(f)
	if err != nil {
		return nil, err
	}

	now := s.now()
	it := &Item{
		ID:              newID(),
		Title:           f.Title,
		SourceReference: f.SourceReference,
		Kind:            f.Kind,
		Category:        f.Category,
		Description:     f.Description,
		Thumbnail:       f.Thumbnail,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	unlock := s.lockEntity(itemKey(it.ID))
	defer unlock()

	if err := insertItem(ctx, s.db, it); err != nil {
		return nil, storageErr("insert item", err)
	}
	return it, nil
}

func getItem(ctx context.Context, q querier, id string) (*Item, error) {
	it, err := scanItem(q.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM media_items WHERE id = ?", id))
	if err != nil {
		return nil, storageErr(fmt.Sprintf("get item %s", id), err)
	}
	return it, nil
}

// GetItem retrieves an item by id.
// Returns ErrNotFound if the item does not exist.
func (s *Store) GetItem(ctx context.Context, id string) (*Item, error) {
	return getItem(ctx, s.db, id)
}

// UpdateItem applies u to the item and returns the updated item.
// Returns ErrNotFound if the item does not exist.
func (s *Store) UpdateItem(ctx context.Context, id string, u ItemUpdate) (*Item, error) {
	unlock := s.lockEntity(itemKey(id))
	defer unlock()

	var updated *Item
	err := s.withTx(ctx, "update item", func(q querier) error {
		it, err := getItem(ctx, q, id)
		if err != nil {
			return err
		}

		f := ItemFields{
			Title:           it.Title,
			SourceReference: it.SourceReference,
			Kind:            it.Kind,
			Category:        it.Category,
			Description:     it.Description,
			Thumbnail:       it.Thumbnail,
		}
		if u.Title != nil {
			f.Title = *u.Title
		}
		if u.Description != nil {
			f.Description = *u.Description
		}
		if u.Category != nil {
			f.Category = *u.Category
		}
		if f, err = normalizeFields(f); err != nil {
			return err
		}

		it.Title = f.Title
		it.Description = f.Description
		it.Category = f.Category
		it.UpdatedAt = s.now()

		_, err = q.ExecContext(ctx, `
			UPDATE media_items SET title = ?, description = ?, category = ?, updated_at = ?
			WHERE id = ?`,
			it.Title, it.Description, it.Category, it.UpdatedAt, id,
		)
		if err != nil {
			return storageErr(fmt.Sprintf("update item %s", id), err)
		}
		updated = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteItem removes an item by id.
// This operation is idempotent - no error is returned if the item does not exist.
// Lists that reference the item are left untouched; GetList filters the id out.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	unlock := s.lockEntity(itemKey(id))
	defer unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM media_items WHERE id = ?", id); err != nil {
		return storageErr(fmt.Sprintf("delete item %s", id), err)
	}
	return nil
}

func listItems(ctx context.Context, q querier, f ItemFilter) ([]*Item, error) {
	var conditions []string
	var args []any

	if f.Category != nil {
		conditions = append(conditions, "category = ?")
		args = append(args, *f.Category)
	}
	if f.Kind != nil {
		conditions = append(conditions, "kind = ?")
		args = append(args, *f.Kind)
	}

	query := "SELECT " + itemColumns + " FROM media_items"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY seq"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list items", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, storageErr("scan item", err)
		}
		results = append(results, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate items", err)
	}
	return results, nil
}

// ListItems returns items matching the filter in creation order.
func (s *Store) ListItems(ctx context.Context, f ItemFilter) ([]*Item, error) {
	if f.Category != nil && !f.Category.Valid() {
		return nil, invalid("category: unknown value %q", *f.Category)
	}
	if f.Kind != nil && !f.Kind.Valid() {
		return nil, invalid("kind: unknown value %q", *f.Kind)
	}
	return listItems(ctx, s.db, f)
}

// itemsByID loads the items with the given ids, keyed by id.
// Unknown ids are simply absent from the result.
func itemsByID(ctx context.Context, q querier, ids []string) (map[string]*Item, error) {
	found := make(map[string]*Item, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := q.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM media_items WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, storageErr("load list items", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, storageErr("scan item", err)
		}
		found[it.ID] = it
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate items", err)
	}
	return found, nil
}

// CategoryCounts returns the number of items per category.
// Every known category is present, zero-filled.
func (s *Store) CategoryCounts(ctx context.Context) (map[Category]int, error) {
	counts := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		counts[c] = 0
	}

	rows, err := s.db.QueryContext(ctx, "SELECT category, COUNT(*) FROM media_items GROUP BY category")
	if err != nil {
		return nil, storageErr("count categories", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var c Category
		var n int
		if err := rows.Scan(&c, &n); err != nil {
			return nil, storageErr("scan category count", err)
		}
		counts[c] = n
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate category counts", err)
	}
	return counts, nil
}

// Stats returns catalog-wide totals.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	cats, err := s.CategoryCounts(ctx)
	if err != nil {
		return nil, err
	}
	st := &Stats{Categories: cats}
	err = s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM media_items),
			(SELECT COUNT(*) FROM custom_lists),
			(SELECT COUNT(*) FROM list_items)`,
	).Scan(&st.Items, &st.Lists, &st.ListEntries)
	if err != nil {
		return nil, storageErr("stats", err)
	}
	return st, nil
}
