package facade

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/fafo/internal/catalog"
	"github.com/vmunix/fafo/internal/events"
	"github.com/vmunix/fafo/internal/extract"
	"github.com/vmunix/fafo/internal/policy"
	"github.com/vmunix/fafo/internal/resolver"
	"github.com/vmunix/fafo/internal/resolver/mocks"
)

// testLogger returns a discard logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T {
	return &v
}

// siteRef matches the test classifier's streaming-site pattern.
const siteRef = "https://example-video-site/watch?v=abc123"

var testSitePatterns = []string{`^https?://example-video-site/watch\?v=`}

type testEnv struct {
	facade   *Facade
	store    *catalog.Store
	resolver *resolver.Resolver
	events   *events.EventLog
	bus      *events.Bus
}

// setupTest builds a facade over an in-memory store and a resolver whose
// slots hold the given strategies. A nil strategy leaves its slot empty.
func setupTest(t *testing.T, opts policy.Options, primary, secondary resolver.Strategy, extra ...Option) *testEnv {
	t.Helper()

	db, err := catalog.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := catalog.NewStore(db)

	p, err := policy.New(opts)
	require.NoError(t, err)

	classifier, err := resolver.NewClassifier(testSitePatterns)
	require.NoError(t, err)

	strategies := map[policy.Slot]resolver.Strategy{}
	if primary != nil {
		strategies[policy.SlotPrimary] = primary
	}
	if secondary != nil {
		strategies[policy.SlotSecondary] = secondary
	}
	r, err := resolver.New(resolver.Options{
		Policy:     p,
		Classifier: classifier,
		Strategies: strategies,
		Logger:     testLogger(),
	})
	require.NoError(t, err)

	log := events.NewEventLog(db)
	bus := events.NewBus(log, testLogger())
	t.Cleanup(func() { _ = bus.Close() })

	f, err := New(Deps{
		Catalog:  store,
		Resolver: r,
		Policy:   p,
		Events:   bus,
		History:  log,
	}, testLogger(), extra...)
	require.NoError(t, err)
	return &testEnv{facade: f, store: store, resolver: r, events: log, bus: bus}
}

func newMockStrategy(ctrl *gomock.Controller, name string) *mocks.MockStrategy {
	m := mocks.NewMockStrategy(ctrl)
	m.EXPECT().Name().Return(name).AnyTimes()
	return m
}

func mustCreate(t *testing.T, f *Facade, title, ref string, cat catalog.Category) string {
	t.Helper()
	id, err := f.CreateItem(context.Background(), catalog.ItemFields{
		Title:           title,
		SourceReference: ref,
		Kind:            catalog.KindStreamingSite,
		Category:        cat,
	})
	require.NoError(t, err)
	return id
}

// stubPlaylists returns a fixed playlist for every reference.
type stubPlaylists struct {
	got []string
	pl  *extract.Playlist
	err error
}

func (s *stubPlaylists) Expand(_ context.Context, ref string) (*extract.Playlist, error) {
	s.got = append(s.got, ref)
	return s.pl, s.err
}
