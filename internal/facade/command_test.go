package facade

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/fafo/internal/catalog"
	"github.com/vmunix/fafo/internal/policy"
	"github.com/vmunix/fafo/internal/resolver"
)

func TestExecute_CommandSet(t *testing.T) {
	ctx := context.Background()
	primary := resolver.StrategyFunc{
		Label: "primary",
		Fn: func(_ context.Context, req resolver.Request) (resolver.Stream, error) {
			return resolver.Stream{URL: "https://cdn.example/abc123_" + req.Quality.Label() + ".mp4"}, nil
		},
	}
	f := setupTest(t, policy.Options{}, primary, nil).facade

	exec := func(cmd Command) any {
		t.Helper()
		resp, err := f.Execute(ctx, cmd)
		require.NoError(t, err, cmd.Name())
		assert.Equal(t, cmd.Name(), resp.Command)
		return resp.Result
	}

	created := exec(CreateItem{
		Title:           "Big Buck Bunny",
		SourceReference: siteRef,
		Kind:            catalog.KindStreamingSite,
		Category:        catalog.CategoryMovies,
	})
	require.IsType(t, Created{}, created)
	itemID := created.(Created).ID

	items := exec(ListItems{Category: catalog.CategoryMovies}).([]*catalog.Item)
	require.Len(t, items, 1)
	assert.Empty(t, exec(ListItems{Kind: catalog.KindPlaylist}))

	counts := exec(ListCategories{}).(map[catalog.Category]int)
	assert.Equal(t, 1, counts[catalog.CategoryMovies])

	it := exec(UpdateItem{ID: itemID, Description: ptr("Open movie")}).(*catalog.Item)
	assert.Equal(t, "Open movie", it.Description)
	assert.Equal(t, "Open movie", exec(GetItem{ID: itemID}).(*catalog.Item).Description)

	listID := exec(CreateList{ListName: "Favorites"}).(Created).ID
	assert.Nil(t, exec(AddToList{ListID: listID, ItemID: itemID}))
	assert.Nil(t, exec(RenameList{ID: listID, ListName: "Faves"}))
	view := exec(GetList{ID: listID}).(*catalog.ListView)
	assert.Equal(t, "Faves", view.List.Name)
	assert.Len(t, exec(ListLists{}).([]*catalog.List), 1)

	s := exec(ResolvePlayableURL{ItemID: itemID, Quality: policy.Quality480p}).(*resolver.PlayableStream)
	assert.Equal(t, "https://cdn.example/abc123_480p.mp4", s.URL)
	pb := exec(Playback{ItemID: itemID}).(*PlaybackResult)
	assert.Equal(t, "https://cdn.example/abc123_720p.mp4", pb.Stream.URL)
	report := exec(Prefetch{ItemIDs: []string{itemID}}).(*PrefetchReport)
	assert.Equal(t, 1, report.Resolved)

	assert.Len(t, exec(Search{Query: "bunny"}).([]catalog.SearchResult), 1)
	assert.Equal(t, 1, exec(Stats{}).(*catalog.Stats).Items)

	snapshot := exec(ExportCatalog{}).([]byte)
	res := exec(ImportCatalog{Snapshot: snapshot, Mode: catalog.ImportReplace}).(*catalog.ImportResult)
	assert.Equal(t, 1, res.Items)

	assert.Nil(t, exec(RemoveFromList{ListID: listID, ItemID: itemID}))
	assert.Nil(t, exec(DeleteList{ID: listID}))
	assert.Nil(t, exec(DeleteItem{ID: itemID}))
	assert.Empty(t, exec(ListItems{}))
}

func TestExecute_Errors(t *testing.T) {
	ctx := context.Background()
	f := setupTest(t, policy.Options{}, nil, nil).facade

	_, err := f.Execute(ctx, nil)
	assert.Equal(t, CodeValidation, ErrorCode(err))

	_, err = f.Execute(ctx, GetItem{ID: "missing"})
	assert.Equal(t, CodeNotFound, ErrorCode(err))

	_, err = f.Execute(ctx, ExpandPlaylist{ItemID: "missing"})
	assert.Equal(t, CodeUnavailable, ErrorCode(err))

	_, err = f.Execute(ctx, ImportCatalog{Snapshot: []byte(`{}`), Mode: "append"})
	assert.Equal(t, CodeValidation, ErrorCode(err))
}

func TestCommand_Names(t *testing.T) {
	cmds := []Command{
		ListCategories{}, ListItems{}, GetItem{}, CreateItem{}, UpdateItem{}, DeleteItem{},
		ListLists{}, CreateList{}, RenameList{}, DeleteList{}, AddToList{}, RemoveFromList{},
		GetList{}, ResolvePlayableURL{}, Playback{}, Prefetch{}, ExpandPlaylist{}, Search{},
		SearchRemote{}, VideoInfo{}, Stats{}, ExportCatalog{}, ImportCatalog{}, History{},
	}
	seen := map[string]bool{}
	for _, c := range cmds {
		assert.False(t, seen[c.Name()], "duplicate name %s", c.Name())
		seen[c.Name()] = true
	}
}
