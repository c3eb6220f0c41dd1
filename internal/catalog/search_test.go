package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Amélie", "amelie"},
		{"  Big   Buck-Bunny!! ", "big buck bunny"},
		{"ÇA VA", "ca va"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeText(tt.in), "normalizeText(%q)", tt.in)
	}
}

func TestStore_Search(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	bunny := mustCreateItem(t, store, "Big Buck Bunny", "https://example.com/bbb", CategoryMovies)
	amelie := mustCreateItem(t, store, "Amélie", "https://example.com/amelie", CategoryMovies)
	news, err := store.CreateItem(ctx, ItemFields{
		Title:           "Evening News",
		SourceReference: "https://example.com/news.m3u8",
		Kind:            KindLiveFeed,
		Category:        CategoryLiveTV,
		Description:     "Featuring a bunny segment",
	})
	require.NoError(t, err)

	t.Run("title and description", func(t *testing.T) {
		res, err := store.Search(ctx, "BUNNY", 0)
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, bunny.ID, res[0].Item.ID)
		assert.Equal(t, 1.0, res[0].Score)
		assert.Equal(t, news.ID, res[1].Item.ID)
		assert.Less(t, res[1].Score, res[0].Score)
	})

	t.Run("accent insensitive", func(t *testing.T) {
		res, err := store.Search(ctx, "amelie", 0)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, amelie.ID, res[0].Item.ID)
	})

	t.Run("fuzzy title word", func(t *testing.T) {
		res, err := store.Search(ctx, "bunnny", 0)
		require.NoError(t, err)
		require.NotEmpty(t, res)
		assert.Equal(t, bunny.ID, res[0].Item.ID)
		assert.Less(t, res[0].Score, descriptionMatchScore)
	})

	t.Run("limit", func(t *testing.T) {
		res, err := store.Search(ctx, "bunny", 1)
		require.NoError(t, err)
		assert.Len(t, res, 1)
	})

	t.Run("no match", func(t *testing.T) {
		res, err := store.Search(ctx, "zzzzzz", 0)
		require.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("empty query", func(t *testing.T) {
		_, err := store.Search(ctx, " !! ", 0)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}
