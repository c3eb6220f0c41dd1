package facade

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/fafo/internal/catalog"
	"github.com/vmunix/fafo/internal/extract"
	"github.com/vmunix/fafo/internal/policy"
	"github.com/vmunix/fafo/internal/resolver"
)

func TestFacade_ResolvePlayableURL_Direct(t *testing.T) {
	ctrl := gomock.NewController(t)
	primary := newMockStrategy(ctrl, "primary") // no Extract expected
	f := setupTest(t, policy.Options{}, primary, nil).facade

	id := mustCreate(t, f, "Feed", "https://cdn.example/live.m3u8", catalog.CategoryLiveTV)
	s, err := f.ResolvePlayableURL(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/live.m3u8", s.URL)
	assert.Equal(t, "source", s.QualityLabel)
	assert.Equal(t, resolver.ClassDirect, s.Class)
}

func TestFacade_ResolvePlayableURL_NotFound(t *testing.T) {
	f := setupTest(t, policy.Options{}, nil, nil).facade

	_, err := f.ResolvePlayableURL(context.Background(), "missing")
	assert.Equal(t, CodeNotFound, ErrorCode(err))
}

func TestFacade_ResolveAtQuality(t *testing.T) {
	ctrl := gomock.NewController(t)
	primary := newMockStrategy(ctrl, "primary")
	primary.EXPECT().Extract(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req resolver.Request) (resolver.Stream, error) {
			assert.Equal(t, policy.Quality1080p, req.Quality)
			assert.Equal(t, "NL", req.Region)
			return resolver.Stream{URL: "https://cdn.example/abc123_1080p.mp4", QualityLabel: "1080p"}, nil
		})
	f := setupTest(t, policy.Options{Region: "NL"}, primary, nil).facade

	id := mustCreate(t, f, "Big Buck Bunny", siteRef, catalog.CategoryMovies)
	s, err := f.ResolveAtQuality(context.Background(), id, policy.Quality1080p)
	require.NoError(t, err)
	assert.Equal(t, "1080p", s.QualityLabel)
}

func TestFacade_ResolvePlayableURL_BothFail(t *testing.T) {
	ctrl := gomock.NewController(t)
	cause := errors.New("video unavailable")
	primary := newMockStrategy(ctrl, "primary")
	secondary := newMockStrategy(ctrl, "secondary")
	primary.EXPECT().Extract(gomock.Any(), gomock.Any()).Return(resolver.Stream{}, errors.New("network down"))
	secondary.EXPECT().Extract(gomock.Any(), gomock.Any()).Return(resolver.Stream{}, cause)

	env := setupTest(t, policy.Options{}, primary, secondary)
	id := mustCreate(t, env.facade, "Big Buck Bunny", siteRef, catalog.CategoryMovies)

	_, err := env.facade.ResolvePlayableURL(context.Background(), id)
	require.Error(t, err)
	assert.Equal(t, CodeResolution, ErrorCode(err))
	assert.ErrorIs(t, err, cause)

	var re *resolver.ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Len(t, re.Attempts, 2)
	assert.Equal(t, resolver.ClassStreamingSite, re.Class)

	// catalog state and cache untouched
	_, err = env.facade.GetItem(context.Background(), id)
	assert.NoError(t, err)
	assert.Zero(t, env.resolver.CacheLen())
}

func TestFacade_PlaybackURL(t *testing.T) {
	t.Run("resolved", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		primary := newMockStrategy(ctrl, "primary")
		primary.EXPECT().Extract(gomock.Any(), gomock.Any()).
			Return(resolver.Stream{URL: "https://cdn.example/abc123_720p.mp4"}, nil)
		f := setupTest(t, policy.Options{}, primary, nil).facade
		id := mustCreate(t, f, "Big Buck Bunny", siteRef, catalog.CategoryMovies)

		pb, err := f.PlaybackURL(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, pb.Fallback)
		assert.Empty(t, pb.Cause)
		assert.Equal(t, "https://cdn.example/abc123_720p.mp4", pb.Stream.URL)
	})

	t.Run("falls back to the raw reference", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		primary := newMockStrategy(ctrl, "primary")
		primary.EXPECT().Extract(gomock.Any(), gomock.Any()).Return(resolver.Stream{}, errors.New("boom"))
		f := setupTest(t, policy.Options{StrategyOrder: []string{"primary"}}, primary, nil).facade
		id := mustCreate(t, f, "Big Buck Bunny", siteRef, catalog.CategoryMovies)

		pb, err := f.PlaybackURL(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, pb.Fallback)
		assert.Contains(t, pb.Cause, "boom")
		assert.Equal(t, siteRef, pb.Stream.URL)
		assert.Equal(t, "source", pb.Stream.QualityLabel)
	})

	t.Run("unknown item is still an error", func(t *testing.T) {
		f := setupTest(t, policy.Options{}, nil, nil).facade

		_, err := f.PlaybackURL(context.Background(), "missing")
		assert.Equal(t, CodeNotFound, ErrorCode(err))
	})
}

func TestFacade_Prefetch(t *testing.T) {
	var calls atomic.Int32
	primary := resolver.StrategyFunc{
		Label: "primary",
		Fn: func(_ context.Context, req resolver.Request) (resolver.Stream, error) {
			calls.Add(1)
			if req.Reference == siteRef+"&broken" {
				return resolver.Stream{}, errors.New("removed by uploader")
			}
			return resolver.Stream{URL: req.Reference + "&cdn"}, nil
		},
	}
	env := setupTest(t, policy.Options{StrategyOrder: []string{"primary"}}, primary, nil, WithPrefetchWorkers(2))
	f := env.facade

	var ids []string
	for i := range 5 {
		ids = append(ids, mustCreate(t, f, fmt.Sprintf("video %d", i), fmt.Sprintf("%s%d", siteRef, i), catalog.CategoryMovies))
	}
	broken := mustCreate(t, f, "broken", siteRef+"&broken", catalog.CategoryMovies)
	ids = append(ids, broken, "missing")

	report, err := f.Prefetch(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Resolved)
	assert.Equal(t, 2, report.Failed)
	require.Len(t, report.Results, len(ids))
	for i, r := range report.Results {
		assert.Equal(t, ids[i], r.ItemID, "results keep input order")
	}
	assert.Equal(t, CodeResolution, ErrorCode(report.Results[5].Err))
	assert.Equal(t, CodeNotFound, ErrorCode(report.Results[6].Err))
	assert.Equal(t, 5, env.resolver.CacheLen())
	assert.Equal(t, int32(6), calls.Load())

	// warmed: playback hits the cache
	s, err := f.ResolvePlayableURL(context.Background(), ids[0])
	require.NoError(t, err)
	assert.True(t, s.Cached)
	assert.Equal(t, int32(6), calls.Load())
}

func TestFacade_Prefetch_CanceledContext(t *testing.T) {
	f := setupTest(t, policy.Options{}, nil, nil).facade
	id := mustCreate(t, f, "A", "https://cdn.example/a.mp4", catalog.CategoryMovies)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := f.Prefetch(ctx, []string{id, id})
	require.Error(t, err)
	assert.Equal(t, CodeCanceled, ErrorCode(err))
	require.NotNil(t, report)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, id, report.Results[1].ItemID)
}

func TestFacade_Prefetch_EmptyID(t *testing.T) {
	f := setupTest(t, policy.Options{}, nil, nil).facade
	id := mustCreate(t, f, "A", "https://cdn.example/a.mp4", catalog.CategoryMovies)

	t.Run("reported as not found", func(t *testing.T) {
		var report *PrefetchReport
		var err error
		require.NotPanics(t, func() {
			report, err = f.Prefetch(context.Background(), []string{"", id})
		})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Failed)
		assert.Equal(t, 1, report.Resolved)
		assert.Equal(t, "", report.Results[0].ItemID)
		assert.Equal(t, CodeNotFound, ErrorCode(report.Results[0].Err))
		assert.NotEmpty(t, report.Results[0].Error)
	})

	t.Run("canceled before running", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var report *PrefetchReport
		var err error
		require.NotPanics(t, func() {
			report, err = f.Prefetch(ctx, []string{""})
		})
		assert.Equal(t, CodeCanceled, ErrorCode(err))
		assert.Equal(t, 1, report.Failed)
		assert.Equal(t, CodeCanceled, ErrorCode(report.Results[0].Err))
	})
}

func TestFacade_ExpandPlaylist(t *testing.T) {
	ctx := context.Background()
	ref := "https://www.youtube.com/playlist?list=PLabc"

	t.Run("not configured", func(t *testing.T) {
		f := setupTest(t, policy.Options{}, nil, nil).facade
		id := mustCreate(t, f, "Shorts", ref, catalog.CategoryStreamingSite)

		_, err := f.ExpandPlaylist(ctx, id)
		assert.Equal(t, CodeUnavailable, ErrorCode(err))
	})

	t.Run("expands the stored reference", func(t *testing.T) {
		stub := &stubPlaylists{pl: &extract.Playlist{ID: "PLabc", URL: ref, Entries: []extract.PlaylistEntry{
			{VideoID: "aaaaaaaaaaa", Title: "One", URL: extract.WatchURL("aaaaaaaaaaa")},
		}}}
		env := setupTest(t, policy.Options{}, nil, nil)
		f, err := New(Deps{Catalog: env.store, Resolver: env.resolver, Playlists: stub}, testLogger())
		require.NoError(t, err)
		id := mustCreate(t, f, "Shorts", ref, catalog.CategoryStreamingSite)

		pl, err := f.ExpandPlaylist(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []string{ref}, stub.got)
		require.Len(t, pl.Entries, 1)
		assert.Equal(t, "One", pl.Entries[0].Title)
	})

	t.Run("not a playlist", func(t *testing.T) {
		env := setupTest(t, policy.Options{}, nil, nil)
		stub := &stubPlaylists{err: fmt.Errorf("%q: %w", siteRef, extract.ErrNotPlaylist)}
		f, err := New(Deps{Catalog: env.store, Resolver: env.resolver, Playlists: stub}, testLogger())
		require.NoError(t, err)
		id := mustCreate(t, f, "Single", siteRef, catalog.CategoryMovies)

		_, err = f.ExpandPlaylist(ctx, id)
		assert.Equal(t, CodeValidation, ErrorCode(err))
	})
}
