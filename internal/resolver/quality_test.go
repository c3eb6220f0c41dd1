package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vmunix/fafo/internal/policy"
)

func TestSelectFormat(t *testing.T) {
	formats := []Format{
		{Height: 360, URL: "u360"},
		{Height: 480, URL: "u480"},
		{Height: 1080, URL: "u1080"},
	}

	tests := []struct {
		name    string
		q       policy.Quality
		formats []Format
		want    string
	}{
		{"exact", policy.Quality480p, formats, "u480"},
		{"exact 1080", policy.Quality1080p, formats, "u1080"},
		// 720 is 240 from 480 and 360 from 1080
		{"closest", policy.Quality720p, formats, "u480"},
		{"auto targets 720", policy.QualityAuto, formats, "u480"},
		{"best takes tallest", policy.QualityBest, formats, "u1080"},
		{"tie goes lower", policy.Quality720p, []Format{{Height: 1080, URL: "hi"}, {Height: 360, URL: "lo"}}, "lo"},
		{"unknown heights fall back to first", policy.Quality720p, []Format{{URL: "first"}, {URL: "second"}}, "first"},
		{"known heights preferred over unknown", policy.Quality1080p, []Format{{URL: "unknown"}, {Height: 240, URL: "u240"}}, "u240"},
		{"entries without url skipped", policy.Quality480p, []Format{{Height: 480}, {Height: 360, URL: "u360"}}, "u360"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectFormat(tt.q, tt.formats)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got.URL)
		})
	}
}

func TestSelectFormat_Empty(t *testing.T) {
	_, ok := SelectFormat(policy.Quality720p, nil)
	assert.False(t, ok)

	_, ok = SelectFormat(policy.Quality720p, []Format{{Height: 720}})
	assert.False(t, ok)
}

func TestHeightLabel(t *testing.T) {
	assert.Equal(t, "720p", HeightLabel(720))
	assert.Equal(t, "best", HeightLabel(0))
}
