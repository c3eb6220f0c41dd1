package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/vmunix/fafo/internal/policy"
	"github.com/vmunix/fafo/internal/resolver"
)

// ytdlpInfo is the subset of yt-dlp's --dump-json output we read.
type ytdlpInfo struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	URL     string        `json:"url"`
	Height  int           `json:"height"`
	Formats []ytdlpFormat `json:"formats"`
}

type ytdlpFormat struct {
	FormatID string `json:"format_id"`
	URL      string `json:"url"`
	Height   int    `json:"height"`
	VCodec   string `json:"vcodec"`
	ACodec   string `json:"acodec"`
	Protocol string `json:"protocol"`
}

// progressive reports whether the format carries both audio and video in
// one stream, which is what a plain player can open.
func (f ytdlpFormat) progressive() bool {
	return f.URL != "" && f.VCodec != "none" && f.ACodec != "none"
}

// ytdlpRunner invokes yt-dlp and returns its stdout.
type ytdlpRunner func(ctx context.Context, ref, format, region string) (string, error)

// ytdlpQuerier runs a metadata-only yt-dlp call for target and returns its stdout.
type ytdlpQuerier func(ctx context.Context, target string, q queryArgs) (string, error)

// YTDLP is the primary strategy, backed by the yt-dlp executable. It also
// reads video metadata and searches the platform.
type YTDLP struct {
	run   ytdlpRunner
	query ytdlpQuerier
	log   *slog.Logger
}

// YTDLPOptions configures the yt-dlp strategy.
type YTDLPOptions struct {
	// Executable overrides the yt-dlp binary found on PATH.
	Executable string
	Logger     *slog.Logger
}

// NewYTDLP creates the yt-dlp strategy.
func NewYTDLP(opts YTDLPOptions) *YTDLP {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &YTDLP{
		run:   commandRunner(opts.Executable),
		query: commandQuerier(opts.Executable),
		log:   log.With("component", "yt-dlp"),
	}
}

func (y *YTDLP) Name() string { return "yt-dlp" }

// Extract asks yt-dlp for the reference's formats and picks the rendition
// closest to the requested quality.
func (y *YTDLP) Extract(ctx context.Context, req resolver.Request) (resolver.Stream, error) {
	start := time.Now()
	out, err := y.run(ctx, req.Reference, formatSelector(req.Quality), req.Region)
	if err != nil {
		if ctx.Err() != nil {
			return resolver.Stream{}, ctx.Err()
		}
		return resolver.Stream{}, err
	}

	var info ytdlpInfo
	if err := json.Unmarshal([]byte(firstLine(out)), &info); err != nil {
		return resolver.Stream{}, fmt.Errorf("yt-dlp: decode output: %w", err)
	}

	s, err := pickStream(req.Quality, info)
	if err != nil {
		return resolver.Stream{}, err
	}
	y.log.Debug("formats extracted", "ref", req.Reference, "video_id", info.ID,
		"formats", len(info.Formats), "quality", s.QualityLabel, "duration_ms", time.Since(start).Milliseconds())
	return s, nil
}

func pickStream(q policy.Quality, info ytdlpInfo) (resolver.Stream, error) {
	var candidates []resolver.Format
	for _, f := range info.Formats {
		if f.progressive() {
			candidates = append(candidates, resolver.Format{Height: f.Height, URL: f.URL})
		}
	}
	if f, ok := resolver.SelectFormat(q, candidates); ok {
		return resolver.Stream{URL: f.URL, QualityLabel: resolver.HeightLabel(f.Height)}, nil
	}
	// single-format extractors report the stream at the top level
	if info.URL != "" {
		return resolver.Stream{URL: info.URL, QualityLabel: resolver.HeightLabel(info.Height)}, nil
	}
	return resolver.Stream{}, fmt.Errorf("yt-dlp: %w", resolver.ErrNoStream)
}

// formatSelector narrows yt-dlp's own choice to progressive renditions at or
// below the target height, falling back to whatever is best.
func formatSelector(q policy.Quality) string {
	h := q.Height()
	if h == 0 {
		return "best"
	}
	return fmt.Sprintf("best[height<=%d][ext=mp4]/best[height<=%d]/best", h, h)
}

func commandRunner(executable string) ytdlpRunner {
	return func(ctx context.Context, ref, format, region string) (string, error) {
		cmd := ytdlp.New().
			DumpJSON().
			NoPlaylist().
			NoWarnings().
			Format(format)
		if region != "" {
			cmd.GeoBypassCountry(region)
		}
		return runCommand(ctx, cmd, executable, ref)
	}
}

func runCommand(ctx context.Context, cmd *ytdlp.Command, executable, target string) (string, error) {
	if executable != "" {
		cmd.SetExecutable(executable)
	}
	res, err := cmd.Run(ctx, target)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("yt-dlp: %w: %v", resolver.ErrCapabilityUnavailable, err)
		}
		if res != nil && strings.TrimSpace(res.Stderr) != "" {
			return "", fmt.Errorf("yt-dlp: %s", lastLine(res.Stderr))
		}
		return "", fmt.Errorf("yt-dlp: %w", err)
	}
	return res.Stdout, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
