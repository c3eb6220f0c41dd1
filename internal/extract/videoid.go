// Package extract provides the extraction strategies that fill the
// resolver's chain slots, plus playlist expansion.
package extract

import (
	"net/url"
	"regexp"
	"strings"
)

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtu\.be/)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`(?:embed/|shorts/|live/)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`),
}

// VideoID extracts the 11-character video id from a watch, short-link,
// embed, shorts or live URL. Returns "" if none is found.
func VideoID(ref string) string {
	ref = strings.TrimSpace(ref)
	if u, err := url.Parse(ref); err == nil {
		if v := u.Query().Get("v"); len(v) == 11 && validID(v) {
			return v
		}
	}
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(ref); m != nil {
			return m[1]
		}
	}
	return ""
}

func validID(s string) bool {
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_' || r == '-') {
			return false
		}
	}
	return true
}

// playlistMarkers are substrings that mark a reference as a playlist or channel.
var playlistMarkers = []string{"playlist", "list=", "/c/", "/channel/", "/user/", "/@"}

// IsPlaylist reports whether ref looks like a playlist or channel URL.
func IsPlaylist(ref string) bool {
	lower := strings.ToLower(ref)
	for _, m := range playlistMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// PlaylistID returns the list= parameter of ref, or "" if absent.
func PlaylistID(ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	return u.Query().Get("list")
}

// WatchURL is the canonical watch URL for a video id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
