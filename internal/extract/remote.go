package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vmunix/fafo/internal/resolver"
)

// Remote is a secondary strategy that asks a companion backend to extract
// the stream, via GET {base}/api/video/stream?url=...&quality=....
type Remote struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *slog.Logger
}

// RemoteOptions configures the companion backend client.
type RemoteOptions struct {
	BaseURL string
	// RequestsPerSecond bounds calls to the backend. 0 means unlimited.
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
	Logger            *slog.Logger
}

// NewRemote creates a companion backend client.
func NewRemote(opts RemoteOptions) *Remote {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Remote{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient: client,
		limiter:    rate.NewLimiter(limit, burst),
		log:        log.With("component", "remote", "backend", opts.BaseURL),
	}
}

func (r *Remote) Name() string { return "remote" }

type streamResponse struct {
	Title     string `json:"title"`
	StreamURL string `json:"stream_url"`
	Height    int    `json:"height"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Extract requests a stream URL from the backend.
func (r *Remote) Extract(ctx context.Context, req resolver.Request) (resolver.Stream, error) {
	if r.baseURL == "" {
		return resolver.Stream{}, fmt.Errorf("remote: no backend configured: %w", resolver.ErrCapabilityUnavailable)
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return resolver.Stream{}, fmt.Errorf("remote: rate limit: %w", err)
	}

	u, err := url.Parse(r.baseURL + "/api/video/stream")
	if err != nil {
		return resolver.Stream{}, fmt.Errorf("remote: %w", err)
	}
	q := u.Query()
	q.Set("url", req.Reference)
	if h := req.Quality.Height(); h > 0 {
		q.Set("quality", strconv.Itoa(h))
	}
	if req.Region != "" {
		q.Set("region", req.Region)
	}
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return resolver.Stream{}, fmt.Errorf("remote: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return resolver.Stream{}, err
		}
		return resolver.Stream{}, fmt.Errorf("remote: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resolver.Stream{}, fmt.Errorf("remote: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if json.Unmarshal(body, &e) == nil && e.Detail != "" {
			return resolver.Stream{}, fmt.Errorf("remote: %d: %s", resp.StatusCode, e.Detail)
		}
		return resolver.Stream{}, fmt.Errorf("remote: unexpected status %d", resp.StatusCode)
	}

	var sr streamResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return resolver.Stream{}, fmt.Errorf("remote: decode response: %w", err)
	}
	if sr.StreamURL == "" {
		return resolver.Stream{}, fmt.Errorf("remote: %w", resolver.ErrNoStream)
	}

	r.log.Debug("stream fetched", "ref", req.Reference, "duration_ms", time.Since(start).Milliseconds())
	s := resolver.Stream{URL: sr.StreamURL}
	if sr.Height > 0 {
		s.QualityLabel = resolver.HeightLabel(sr.Height)
	}
	return s, nil
}
