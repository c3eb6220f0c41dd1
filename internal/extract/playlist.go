package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	ytplaylist "github.com/ytget/ytdlp/v2"
)

// ErrNotPlaylist is returned when a reference carries no playlist id.
var ErrNotPlaylist = errors.New("reference is not a playlist")

// PlaylistEntry is one video of an expanded playlist.
type PlaylistEntry struct {
	VideoID string `json:"video_id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
}

// Playlist is an expanded playlist.
type Playlist struct {
	ID      string          `json:"id"`
	URL     string          `json:"url"`
	Entries []PlaylistEntry `json:"entries"`
}

type playlistFetcher func(ctx context.Context, playlistID string, limit int) ([]PlaylistEntry, error)

// PlaylistExpander lists the videos of a playlist reference.
type PlaylistExpander struct {
	fetch   playlistFetcher
	timeout time.Duration
	limit   int
	log     *slog.Logger
}

// DefaultPlaylistTimeout bounds one expansion.
const DefaultPlaylistTimeout = 60 * time.Second

// NewPlaylistExpander creates an expander. limit caps the number of entries
// returned; 0 returns every entry.
func NewPlaylistExpander(timeout time.Duration, limit int, log *slog.Logger) *PlaylistExpander {
	if timeout <= 0 {
		timeout = DefaultPlaylistTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &PlaylistExpander{
		fetch:   fetchPlaylist,
		timeout: timeout,
		limit:   limit,
		log:     log.With("component", "playlist"),
	}
}

// Expand fetches the entries of the playlist named by ref.
func (p *PlaylistExpander) Expand(ctx context.Context, ref string) (*Playlist, error) {
	id := PlaylistID(ref)
	if id == "" {
		return nil, fmt.Errorf("%q: %w", ref, ErrNotPlaylist)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	entries, err := p.fetch(ctx, id, p.limit)
	if err != nil {
		return nil, fmt.Errorf("expand playlist %s: %w", id, err)
	}
	if p.limit > 0 && len(entries) > p.limit {
		entries = entries[:p.limit]
	}
	p.log.Info("playlist expanded", "playlist_id", id, "entries", len(entries),
		"duration_ms", time.Since(start).Milliseconds())
	return &Playlist{ID: id, URL: ref, Entries: entries}, nil
}

func fetchPlaylist(ctx context.Context, playlistID string, limit int) ([]PlaylistEntry, error) {
	items, err := ytplaylist.New().GetPlaylistItemsAll(ctx, playlistID, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]PlaylistEntry, 0, len(items))
	for _, it := range items {
		if it.VideoID == "" {
			continue
		}
		entries = append(entries, PlaylistEntry{
			VideoID: it.VideoID,
			Title:   it.Title,
			URL:     WatchURL(it.VideoID),
		})
	}
	return entries, nil
}
