package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err, "open db")
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

// fixedClock makes the store stamp entities with a controllable time.
func fixedClock(s *Store, at time.Time) *time.Time {
	now := at
	s.now = func() time.Time { return now }
	return &now
}

func mustCreateItem(t *testing.T, s *Store, title, ref string, cat Category) *Item {
	t.Helper()
	it, err := s.CreateItem(context.Background(), ItemFields{
		Title:           title,
		SourceReference: ref,
		Kind:            KindStreamingSite,
		Category:        cat,
	})
	require.NoError(t, err, "CreateItem(%q)", title)
	return it
}

func mustCreateList(t *testing.T, s *Store, name string) *List {
	t.Helper()
	l, err := s.CreateList(context.Background(), name, "")
	require.NoError(t, err, "CreateList(%q)", name)
	return l
}

// ptr is a helper to create pointer to value
func ptr[T any](v T) *T {
	return &v
}
