package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/vmunix/fafo/internal/policy"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validLogFormats = map[string]bool{
	"text": true, "json": true, "": true,
}

var validStrategies = map[string]bool{
	StrategyYTDLP: true, StrategyAddon: true, StrategyRemote: true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if !validLogLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level: must be one of debug, info, warn, error; got %q", c.Log.Level))
	}
	if !validLogFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("log.format: must be text or json; got %q", c.Log.Format))
	}

	// Playback settings are validated by the policy itself
	if _, err := c.Policy(); err != nil {
		var pe *policy.ValidationError
		if errors.As(err, &pe) {
			for _, p := range pe.Problems {
				errs = append(errs, "playback."+p)
			}
		} else {
			errs = append(errs, fmt.Sprintf("playback: %v", err))
		}
	}

	for i, p := range c.Resolver.SitePatterns {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Sprintf("resolver.site_patterns[%d]: %v", i, err))
		}
	}
	if c.Resolver.PrefetchWorkers < 0 {
		errs = append(errs, fmt.Sprintf("resolver.prefetch_workers: must not be negative, got %d", c.Resolver.PrefetchWorkers))
	}

	s := c.Strategies
	if !validStrategies[s.Primary] {
		errs = append(errs, fmt.Sprintf("strategies.primary: must be one of yt-dlp, addon, remote; got %q", s.Primary))
	}
	if !validStrategies[s.Secondary] {
		errs = append(errs, fmt.Sprintf("strategies.secondary: must be one of yt-dlp, addon, remote; got %q", s.Secondary))
	}
	if s.Primary != "" && s.Primary == s.Secondary {
		errs = append(errs, fmt.Sprintf("strategies: %q fills both slots", s.Primary))
	}
	if s.Primary == StrategyRemote || s.Secondary == StrategyRemote {
		if s.Remote.BaseURL == "" {
			errs = append(errs, "strategies.remote.base_url: required when remote is used")
		} else if u, err := url.Parse(s.Remote.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("strategies.remote.base_url: not an absolute URL: %q", s.Remote.BaseURL))
		}
	}
	if s.Remote.RequestsPerSecond < 0 {
		errs = append(errs, "strategies.remote.requests_per_second: must not be negative")
	}

	if c.Playlist.Timeout != "" {
		if d, err := time.ParseDuration(c.Playlist.Timeout); err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("playlist.timeout: must be a positive duration, got %q", c.Playlist.Timeout))
		}
	}
	if c.Playlist.Limit < 0 {
		errs = append(errs, fmt.Sprintf("playlist.limit: must not be negative, got %d", c.Playlist.Limit))
	}

	if c.History.Retention != "" {
		if d, err := time.ParseDuration(c.History.Retention); err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("history.retention: must be a positive duration, got %q", c.History.Retention))
		}
	}

	return errs
}

// HistoryRetention returns the configured retention, or 0 to keep everything.
func (c *Config) HistoryRetention() time.Duration {
	d, err := time.ParseDuration(c.History.Retention)
	if err != nil {
		return 0
	}
	return d
}

// PlaylistTimeout returns the configured playlist timeout, or 0 for the default.
func (c *Config) PlaylistTimeout() time.Duration {
	d, err := time.ParseDuration(c.Playlist.Timeout)
	if err != nil {
		return 0
	}
	return d
}
