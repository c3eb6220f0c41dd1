package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lrstanley/go-ytdlp"

	"github.com/vmunix/fafo/internal/resolver"
)

// MaxDescription caps the description length kept from platform metadata.
const MaxDescription = 500

// DefaultSearchLimit is the result count used when a search passes none.
const DefaultSearchLimit = 20

// safeSearchAgeLimit hides age-restricted (18+) videos.
const safeSearchAgeLimit = 17

// VideoInfo is the platform metadata of one video.
type VideoInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	// Duration is in seconds; 0 when unknown or live.
	Duration int    `json:"duration,omitempty"`
	Uploader string `json:"uploader,omitempty"`
	IsLive   bool   `json:"is_live"`
}

type queryArgs struct {
	// Single emits one JSON document for the whole target.
	Single bool
	// Flat lists entries without resolving each one.
	Flat     bool
	AgeLimit int // 0 disables
}

type infoJSON struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	WebpageURL  string          `json:"webpage_url"`
	URL         string          `json:"url"`
	Description string          `json:"description"`
	Thumbnail   string          `json:"thumbnail"`
	Thumbnails  []thumbnailJSON `json:"thumbnails"`
	Duration    float64         `json:"duration"`
	Uploader    string          `json:"uploader"`
	Channel     string          `json:"channel"`
	IsLive      bool            `json:"is_live"`
	Entries     []infoJSON      `json:"entries"`
}

type thumbnailJSON struct {
	URL string `json:"url"`
}

func (j infoJSON) videoInfo() VideoInfo {
	v := VideoInfo{
		ID:          j.ID,
		Title:       j.Title,
		URL:         j.WebpageURL,
		Description: truncateRunes(strings.TrimSpace(j.Description), MaxDescription),
		Thumbnail:   j.Thumbnail,
		Duration:    int(j.Duration),
		Uploader:    j.Uploader,
		IsLive:      j.IsLive,
	}
	// flat entries carry the watch page in url and a thumbnails list only
	if v.URL == "" && strings.HasPrefix(j.URL, "http") {
		v.URL = j.URL
	}
	if v.URL == "" && j.ID != "" {
		v.URL = WatchURL(j.ID)
	}
	if v.Thumbnail == "" && len(j.Thumbnails) > 0 {
		v.Thumbnail = j.Thumbnails[len(j.Thumbnails)-1].URL
	}
	if v.Uploader == "" {
		v.Uploader = j.Channel
	}
	return v
}

// Info reads the metadata of the video at ref without extracting a stream.
func (y *YTDLP) Info(ctx context.Context, ref string) (*VideoInfo, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, resolver.ErrEmptyReference
	}
	start := time.Now()
	out, err := y.query(ctx, ref, queryArgs{})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	var j infoJSON
	if err := json.Unmarshal([]byte(firstLine(out)), &j); err != nil {
		return nil, fmt.Errorf("yt-dlp: decode info: %w", err)
	}
	v := j.videoInfo()
	if v.URL == "" {
		v.URL = ref
	}
	y.log.Debug("info fetched", "ref", ref, "video_id", v.ID, "duration_ms", time.Since(start).Milliseconds())
	return &v, nil
}

// Search runs a platform search for query. With safe set, age-restricted
// videos are left out; yt-dlp then has to resolve each entry to know its
// age rating, which is slower than a flat listing.
func (y *YTDLP) Search(ctx context.Context, query string, limit int, safe bool) ([]VideoInfo, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("yt-dlp: empty search query: %w", resolver.ErrEmptyReference)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	args := queryArgs{Single: true, Flat: !safe}
	if safe {
		args.AgeLimit = safeSearchAgeLimit
	}

	start := time.Now()
	out, err := y.query(ctx, "ytsearch"+strconv.Itoa(limit)+":"+query, args)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	var j infoJSON
	if err := json.Unmarshal([]byte(firstLine(out)), &j); err != nil {
		return nil, fmt.Errorf("yt-dlp: decode search: %w", err)
	}

	results := make([]VideoInfo, 0, len(j.Entries))
	for _, e := range j.Entries {
		if e.ID == "" {
			continue
		}
		results = append(results, e.videoInfo())
	}
	if len(results) > limit {
		results = results[:limit]
	}
	y.log.Info("platform search", "query", query, "safe", safe, "results", len(results),
		"duration_ms", time.Since(start).Milliseconds())
	return results, nil
}

func commandQuerier(executable string) ytdlpQuerier {
	return func(ctx context.Context, target string, q queryArgs) (string, error) {
		cmd := ytdlp.New().
			SkipDownload().
			NoWarnings()
		if q.Single {
			cmd.DumpSingleJSON()
		} else {
			cmd.DumpJSON().NoPlaylist()
		}
		if q.Flat {
			cmd.FlatPlaylist()
		}
		if q.AgeLimit > 0 {
			cmd.AgeLimit(q.AgeLimit)
		}
		return runCommand(ctx, cmd, executable, target)
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
