package facade

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/fafo/internal/catalog"
	"github.com/vmunix/fafo/internal/extract"
	"github.com/vmunix/fafo/internal/policy"
)

type stubMetadata struct {
	got  []string
	info *extract.VideoInfo
	err  error
}

func (s *stubMetadata) Info(_ context.Context, ref string) (*extract.VideoInfo, error) {
	s.got = append(s.got, ref)
	return s.info, s.err
}

type stubSearcher struct {
	query string
	limit int
	safe  bool
	out   []extract.VideoInfo
	err   error
}

func (s *stubSearcher) Search(_ context.Context, query string, limit int, safe bool) ([]extract.VideoInfo, error) {
	s.query, s.limit, s.safe = query, limit, safe
	return s.out, s.err
}

// newDiscoveryFacade builds a facade over env's store and resolver with the
// given metadata source and platform searcher.
func newDiscoveryFacade(t *testing.T, env *testEnv, p *policy.Policy, md MetadataSource, vs VideoSearcher, opts ...Option) *Facade {
	t.Helper()
	f, err := New(Deps{
		Catalog:  env.store,
		Resolver: env.resolver,
		Policy:   p,
		Metadata: md,
		Platform: vs,
	}, testLogger(), opts...)
	require.NoError(t, err)
	return f
}

var bunnyInfo = &extract.VideoInfo{
	ID:          "abc123",
	Title:       "Big Buck Bunny",
	Description: "A giant rabbit.",
	Thumbnail:   "https://img.example/abc123.jpg",
	Duration:    596,
}

func TestCreateItem_EnrichesStreamingSite(t *testing.T) {
	ctx := context.Background()
	env := setupTest(t, policy.Options{}, nil, nil)
	md := &stubMetadata{info: bunnyInfo}
	f := newDiscoveryFacade(t, env, env.facade.Policy(), md, nil)

	id, err := f.CreateItem(ctx, catalog.ItemFields{
		Title:           "Bunny",
		SourceReference: siteRef,
		Kind:            catalog.KindStreamingSite,
		Category:        catalog.CategoryMovies,
	})
	require.NoError(t, err)

	it, err := f.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Bunny", it.Title, "title is never replaced")
	assert.Equal(t, "A giant rabbit.", it.Description)
	assert.Equal(t, "https://img.example/abc123.jpg", it.Thumbnail)
	assert.Equal(t, []string{siteRef}, md.got)
}

func TestCreateItem_EnrichmentKeepsGivenFields(t *testing.T) {
	ctx := context.Background()
	env := setupTest(t, policy.Options{}, nil, nil)
	md := &stubMetadata{info: bunnyInfo}
	f := newDiscoveryFacade(t, env, env.facade.Policy(), md, nil)

	id, err := f.CreateItem(ctx, catalog.ItemFields{
		Title:           "Bunny",
		SourceReference: siteRef,
		Kind:            catalog.KindStreamingSite,
		Category:        catalog.CategoryMovies,
		Description:     "my notes",
	})
	require.NoError(t, err)
	it, err := f.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "my notes", it.Description)
	assert.Equal(t, "https://img.example/abc123.jpg", it.Thumbnail)

	_, err = f.CreateItem(ctx, catalog.ItemFields{
		Title:           "Complete",
		SourceReference: siteRef,
		Kind:            catalog.KindStreamingSite,
		Category:        catalog.CategoryMovies,
		Description:     "given",
		Thumbnail:       "https://img.example/given.jpg",
	})
	require.NoError(t, err)
	assert.Len(t, md.got, 1, "nothing to fill, no lookup")
}

func TestCreateItem_EnrichmentSkipped(t *testing.T) {
	ctx := context.Background()
	env := setupTest(t, policy.Options{}, nil, nil)
	md := &stubMetadata{info: bunnyInfo}
	f := newDiscoveryFacade(t, env, env.facade.Policy(), md, nil)

	// direct links are not platform references
	_, err := f.CreateItem(ctx, catalog.ItemFields{
		Title:           "Feed",
		SourceReference: "https://cdn.example/live.m3u8",
		Kind:            catalog.KindLiveFeed,
		Category:        catalog.CategoryLiveTV,
	})
	require.NoError(t, err)

	// a failing create does not look anything up
	_, err = f.CreateItem(ctx, catalog.ItemFields{SourceReference: siteRef, Kind: catalog.KindStreamingSite})
	require.Error(t, err)

	off := newDiscoveryFacade(t, env, env.facade.Policy(), md, nil, WithEnrichment(false))
	_, err = off.CreateItem(ctx, catalog.ItemFields{
		Title:           "Bunny",
		SourceReference: siteRef,
		Kind:            catalog.KindStreamingSite,
		Category:        catalog.CategoryMovies,
	})
	require.NoError(t, err)

	assert.Empty(t, md.got)
}

func TestCreateItem_EnrichmentFailureStillCreates(t *testing.T) {
	ctx := context.Background()
	env := setupTest(t, policy.Options{}, nil, nil)
	md := &stubMetadata{err: errors.New("yt-dlp: ERROR: Private video")}
	f := newDiscoveryFacade(t, env, env.facade.Policy(), md, nil)

	id, err := f.CreateItem(ctx, catalog.ItemFields{
		Title:           "Private",
		SourceReference: siteRef,
		Kind:            catalog.KindStreamingSite,
		Category:        catalog.CategoryMovies,
	})
	require.NoError(t, err)
	it, err := f.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, it.Description)
	assert.Empty(t, it.Thumbnail)
}

func TestVideoInfo(t *testing.T) {
	ctx := context.Background()
	env := setupTest(t, policy.Options{}, nil, nil)

	_, err := env.facade.VideoInfo(ctx, siteRef)
	assert.Equal(t, CodeUnavailable, ErrorCode(err))

	md := &stubMetadata{info: bunnyInfo}
	f := newDiscoveryFacade(t, env, env.facade.Policy(), md, nil)

	resp, err := f.Execute(ctx, VideoInfo{Reference: " " + siteRef + " "})
	require.NoError(t, err)
	assert.Equal(t, bunnyInfo, resp.Result)
	assert.Equal(t, []string{siteRef}, md.got)

	_, err = f.VideoInfo(ctx, "  ")
	assert.Equal(t, CodeValidation, ErrorCode(err))
}

func TestSearchRemote(t *testing.T) {
	ctx := context.Background()
	env := setupTest(t, policy.Options{}, nil, nil)

	_, err := env.facade.SearchRemote(ctx, "bunny", 5)
	assert.Equal(t, CodeUnavailable, ErrorCode(err))

	vs := &stubSearcher{out: []extract.VideoInfo{*bunnyInfo}}
	f := newDiscoveryFacade(t, env, env.facade.Policy(), nil, vs)

	resp, err := f.Execute(ctx, SearchRemote{Query: " bunny ", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []extract.VideoInfo{*bunnyInfo}, resp.Result)
	assert.Equal(t, "bunny", vs.query)
	assert.Equal(t, 5, vs.limit)
	assert.False(t, vs.safe)

	_, err = f.SearchRemote(ctx, "", 5)
	assert.Equal(t, CodeValidation, ErrorCode(err))
}

func TestSearchRemote_SafeSearchFromPolicy(t *testing.T) {
	env := setupTest(t, policy.Options{}, nil, nil)
	p, err := policy.New(policy.Options{SafeSearch: true})
	require.NoError(t, err)

	vs := &stubSearcher{}
	f := newDiscoveryFacade(t, env, p, nil, vs)

	_, err = f.SearchRemote(context.Background(), "bunny", 0)
	require.NoError(t, err)
	assert.True(t, vs.safe)
}

func TestSearchRemote_Failure(t *testing.T) {
	env := setupTest(t, policy.Options{}, nil, nil)
	vs := &stubSearcher{err: errors.New("yt-dlp: HTTP Error 429")}
	f := newDiscoveryFacade(t, env, env.facade.Policy(), nil, vs)

	_, err := f.SearchRemote(context.Background(), "bunny", 0)
	require.Error(t, err)
	assert.Equal(t, CodeInternal, ErrorCode(err))
}
