package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/fafo/internal/policy"
	"github.com/vmunix/fafo/internal/resolver"
)

func TestAddonHandoff_Extract(t *testing.T) {
	a := NewAddonHandoff("", nil)

	s, err := a.Extract(context.Background(), resolver.Request{
		Reference: "https://www.youtube.com/watch?v=aqz-KE-bpKQ",
		Quality:   policy.Quality1080p,
	})
	require.NoError(t, err)
	assert.Equal(t, "plugin://plugin.video.youtube/play/?video_id=aqz-KE-bpKQ", s.URL)
	assert.Equal(t, "adaptive", s.QualityLabel)
	assert.Equal(t, "addon:plugin.video.youtube", a.Name())
}

func TestAddonHandoff_NotInstalled(t *testing.T) {
	a := NewAddonHandoff("plugin.video.tube", func() bool { return false })

	_, err := a.Extract(context.Background(), resolver.Request{Reference: "https://youtu.be/aqz-KE-bpKQ"})
	assert.ErrorIs(t, err, resolver.ErrCapabilityUnavailable)
}

func TestAddonHandoff_NoVideoID(t *testing.T) {
	a := NewAddonHandoff("", nil)

	_, err := a.Extract(context.Background(), resolver.Request{Reference: "https://example.com/clip"})
	assert.ErrorContains(t, err, "no video id")
}
