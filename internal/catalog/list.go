package catalog

import (
	"context"
	"fmt"
	"strings"
)

func scanList(row rowScanner) (*List, error) {
	l := &List{}
	if err := row.Scan(&l.ID, &l.Name, &l.Description, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return l, nil
}

func getList(ctx context.Context, q querier, id string) (*List, error) {
	l, err := scanList(q.QueryRowContext(ctx,
		"SELECT id, name, description, created_at, updated_at FROM custom_lists WHERE id = ?", id))
	if err != nil {
		return nil, storageErr(fmt.Sprintf("get list %s", id), err)
	}
	ids, err := listMemberIDs(ctx, q, id)
	if err != nil {
		return nil, err
	}
	l.Items = ids
	return l, nil
}

func listMemberIDs(ctx context.Context, q querier, listID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT item_id FROM list_items WHERE list_id = ? ORDER BY position", listID)
	if err != nil {
		return nil, storageErr("list members", err)
	}
	defer func() { _ = rows.Close() }()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("scan list member", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate list members", err)
	}
	return ids, nil
}

func insertList(ctx context.Context, q querier, l *List) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO custom_lists (id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		l.ID, l.Name, l.Description, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return insertMembers(ctx, q, l.ID, l.Items)
}

func insertMembers(ctx context.Context, q querier, listID string, ids []string) error {
	for i, itemID := range ids {
		if _, err := q.ExecContext(ctx,
			"INSERT INTO list_items (list_id, position, item_id) VALUES (?, ?, ?)",
			listID, i+1, itemID,
		); err != nil {
			return err
		}
	}
	return nil
}

// CreateList creates an empty list.
// Returns a ValidationError if name is empty.
func (s *Store) CreateList(ctx context.Context, name, description string) (*List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name: required")
	}

	now := s.now()
	l := &List{
		ID:          newID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Items:       []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	unlock := s.lockEntity(listKey(l.ID))
	defer unlock()

	if err := insertList(ctx, s.db, l); err != nil {
		return nil, storageErr("insert list", err)
	}
	return l, nil
}

// RenameList changes the name of a list.
// Returns ErrNotFound if the list does not exist.
func (s *Store) RenameList(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("name: required")
	}

	unlock := s.lockEntity(listKey(id))
	defer unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE custom_lists SET name = ?, updated_at = ? WHERE id = ?", name, s.now(), id)
	if err != nil {
		return storageErr(fmt.Sprintf("rename list %s", id), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("rename list %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteList removes a list and its membership rows.
// This operation is idempotent. Items in the list are not touched.
func (s *Store) DeleteList(ctx context.Context, id string) error {
	unlock := s.lockEntity(listKey(id))
	defer unlock()

	return s.withTx(ctx, "delete list", func(q querier) error {
		if _, err := q.ExecContext(ctx, "DELETE FROM list_items WHERE list_id = ?", id); err != nil {
			return storageErr(fmt.Sprintf("delete list %s members", id), err)
		}
		if _, err := q.ExecContext(ctx, "DELETE FROM custom_lists WHERE id = ?", id); err != nil {
			return storageErr(fmt.Sprintf("delete list %s", id), err)
		}
		return nil
	})
}

// AddToList appends an item to the end of a list.
// Returns ErrNotFound if either id is unknown. Adding an item that is
// already a member is a no-op and keeps its original position.
func (s *Store) AddToList(ctx context.Context, listID, itemID string) error {
	unlock := s.lockEntity(listKey(listID))
	defer unlock()

	return s.withTx(ctx, "add to list", func(q querier) error {
		var exists int
		if err := q.QueryRowContext(ctx, "SELECT 1 FROM custom_lists WHERE id = ?", listID).Scan(&exists); err != nil {
			return storageErr(fmt.Sprintf("list %s", listID), err)
		}
		if err := q.QueryRowContext(ctx, "SELECT 1 FROM media_items WHERE id = ?", itemID).Scan(&exists); err != nil {
			return storageErr(fmt.Sprintf("item %s", itemID), err)
		}

		var member int
		err := q.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM list_items WHERE list_id = ? AND item_id = ?", listID, itemID,
		).Scan(&member)
		if err != nil {
			return storageErr("check membership", err)
		}
		if member > 0 {
			return nil
		}

		_, err = q.ExecContext(ctx, `
			INSERT INTO list_items (list_id, position, item_id)
			SELECT ?, COALESCE(MAX(position), 0) + 1, ? FROM list_items WHERE list_id = ?`,
			listID, itemID, listID,
		)
		if err != nil {
			return storageErr("insert list member", err)
		}
		return touchList(ctx, q, listID, s.now())
	})
}

// RemoveFromList removes an item from a list, keeping the relative order of
// the remaining members. Unknown list or item ids are not an error.
func (s *Store) RemoveFromList(ctx context.Context, listID, itemID string) error {
	unlock := s.lockEntity(listKey(listID))
	defer unlock()

	return s.withTx(ctx, "remove from list", func(q querier) error {
		res, err := q.ExecContext(ctx,
			"DELETE FROM list_items WHERE list_id = ? AND item_id = ?", listID, itemID)
		if err != nil {
			return storageErr("delete list member", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storageErr("rows affected", err)
		}
		if n == 0 {
			return nil
		}
		return touchList(ctx, q, listID, s.now())
	})
}

func touchList(ctx context.Context, q querier, listID string, at any) error {
	if _, err := q.ExecContext(ctx, "UPDATE custom_lists SET updated_at = ? WHERE id = ?", at, listID); err != nil {
		return storageErr("touch list", err)
	}
	return nil
}

// GetList materializes a list for a caller.
// Stored ids that no longer resolve to an item are filtered out of Items and
// reported in Dangling; the stored sequence itself is not rewritten.
// Returns ErrNotFound if the list does not exist.
func (s *Store) GetList(ctx context.Context, id string) (*ListView, error) {
	var view *ListView
	err := s.withTx(ctx, "get list", func(q querier) error {
		l, err := getList(ctx, q, id)
		if err != nil {
			return err
		}
		found, err := itemsByID(ctx, q, l.Items)
		if err != nil {
			return err
		}

		view = &ListView{List: l, StoredCount: len(l.Items), Items: []*Item{}}
		for _, itemID := range l.Items {
			if it, ok := found[itemID]; ok {
				view.Items = append(view.Items, it)
			} else {
				view.Dangling = append(view.Dangling, itemID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func listLists(ctx context.Context, q querier) ([]*List, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, name, description, created_at, updated_at FROM custom_lists ORDER BY seq")
	if err != nil {
		return nil, storageErr("list lists", err)
	}
	var lists []*List
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			_ = rows.Close()
			return nil, storageErr("scan list", err)
		}
		lists = append(lists, l)
	}
	err = rows.Err()
	_ = rows.Close()
	if err != nil {
		return nil, storageErr("iterate lists", err)
	}

	// members are loaded after the outer rows are closed so a single
	// connection pool never has two result sets open at once
	for _, l := range lists {
		if l.Items, err = listMemberIDs(ctx, q, l.ID); err != nil {
			return nil, err
		}
	}
	return lists, nil
}

// ListLists returns every list in creation order with its stored item ids.
func (s *Store) ListLists(ctx context.Context) ([]*List, error) {
	var lists []*List
	err := s.withTx(ctx, "list lists", func(q querier) error {
		var err error
		lists, err = listLists(ctx, q)
		return err
	})
	return lists, err
}
