package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVideoID(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"https://www.youtube.com/watch?v=aqz-KE-bpKQ", "aqz-KE-bpKQ"},
		{"https://www.youtube.com/watch?feature=share&v=aqz-KE-bpKQ&t=10", "aqz-KE-bpKQ"},
		{"https://youtu.be/aqz-KE-bpKQ?si=abc", "aqz-KE-bpKQ"},
		{"https://www.youtube.com/embed/aqz-KE-bpKQ", "aqz-KE-bpKQ"},
		{"https://www.youtube.com/shorts/aqz-KE-bpKQ", "aqz-KE-bpKQ"},
		{"https://cdn.example.com/a.mp4", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VideoID(tt.ref), "VideoID(%q)", tt.ref)
	}
}

func TestIsPlaylist(t *testing.T) {
	assert.True(t, IsPlaylist("https://www.youtube.com/playlist?list=PL123"))
	assert.True(t, IsPlaylist("https://www.youtube.com/watch?v=aqz-KE-bpKQ&list=PL123"))
	assert.True(t, IsPlaylist("https://www.youtube.com/channel/UC123"))
	assert.True(t, IsPlaylist("https://www.youtube.com/@blender"))
	assert.False(t, IsPlaylist("https://www.youtube.com/watch?v=aqz-KE-bpKQ"))
}

func TestPlaylistID(t *testing.T) {
	assert.Equal(t, "PL123", PlaylistID("https://www.youtube.com/playlist?list=PL123"))
	assert.Equal(t, "PL9", PlaylistID("https://www.youtube.com/watch?v=x&list=PL9&index=2"))
	assert.Equal(t, "", PlaylistID("https://www.youtube.com/channel/UC123"))
}
