// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/vmunix/fafo/internal/policy"
)

// Strategy names accepted in [strategies].
const (
	StrategyYTDLP  = "yt-dlp"
	StrategyAddon  = "addon"
	StrategyRemote = "remote"
)

// Config is the root configuration structure.
type Config struct {
	Log        LogConfig        `toml:"log"`
	Database   DatabaseConfig   `toml:"database"`
	Playback   PlaybackConfig   `toml:"playback"`
	Resolver   ResolverConfig   `toml:"resolver"`
	Strategies StrategiesConfig `toml:"strategies"`
	Playlist   PlaylistConfig   `toml:"playlist"`
	History    HistoryConfig    `toml:"history"`
	Metadata   MetadataConfig   `toml:"metadata"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// PlaybackConfig is the settings surface read into a policy.Policy.
type PlaybackConfig struct {
	QualityPreference string   `toml:"quality_preference"`
	Region            string   `toml:"region"`
	SafeSearch        bool     `toml:"safe_search"`
	RequestTimeout    string   `toml:"request_timeout"`
	CacheCapacity     *int     `toml:"cache_capacity"`
	CacheTTL          string   `toml:"cache_ttl"`
	StrategyOrder     []string `toml:"strategy_order"`
}

type ResolverConfig struct {
	// SitePatterns replaces the built-in streaming-site patterns when set.
	SitePatterns    []string `toml:"site_patterns"`
	PrefetchWorkers int      `toml:"prefetch_workers"`
}

// StrategiesConfig chooses what fills each resolver slot. An empty name
// leaves the slot empty.
type StrategiesConfig struct {
	Primary   string       `toml:"primary"`
	Secondary string       `toml:"secondary"`
	YTDLP     YTDLPConfig  `toml:"ytdlp"`
	Addon     AddonConfig  `toml:"addon"`
	Remote    RemoteConfig `toml:"remote"`
}

type YTDLPConfig struct {
	Executable string `toml:"executable"`
}

type AddonConfig struct {
	AddonID string `toml:"addon_id"`
}

type RemoteConfig struct {
	BaseURL           string  `toml:"base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

type PlaylistConfig struct {
	Timeout string `toml:"timeout"`
	Limit   int    `toml:"limit"`
}

// HistoryConfig controls the catalog activity log.
type HistoryConfig struct {
	// Retention drops events older than this when the catalog is opened.
	// Empty keeps everything.
	Retention string `toml:"retention"`
}

// MetadataConfig controls platform metadata lookups through yt-dlp.
type MetadataConfig struct {
	// Enrich fills an empty description or thumbnail of new streaming-site
	// items. Nil means on.
	Enrich *bool `toml:"enrich"`
}

// EnrichItems reports whether new streaming-site items are enriched.
func (c *Config) EnrichItems() bool {
	return c.Metadata.Enrich == nil || *c.Metadata.Enrich
}

// PolicyOptions returns the playback settings as raw policy options.
func (c *Config) PolicyOptions() policy.Options {
	p := c.Playback
	return policy.Options{
		QualityPreference: p.QualityPreference,
		Region:            p.Region,
		SafeSearch:        p.SafeSearch,
		RequestTimeout:    p.RequestTimeout,
		CacheCapacity:     p.CacheCapacity,
		CacheTTL:          p.CacheTTL,
		StrategyOrder:     p.StrategyOrder,
	}
}

// Policy builds the validated playback policy.
func (c *Config) Policy() (*policy.Policy, error) {
	return policy.New(c.PolicyOptions())
}

// Load reads, parses and validates the configuration file.
// Unresolved environment variables, unknown keys and validation problems
// are reported together in a *ConfigError.
func Load(path string) (*Config, error) {
	cfg, missing, err := load(path)
	if err != nil {
		return nil, err
	}

	cerr := &ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cerr.HasErrors() {
		return nil, cerr
	}
	return cfg, nil
}

// LoadWithoutValidation parses the configuration file and applies defaults
// without validating it. Unknown keys are still rejected.
func LoadWithoutValidation(path string) (*Config, error) {
	cfg, _, err := load(path)
	return cfg, err
}

func load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	// Substitute environment variables
	content, missing := substituteEnvVars(string(data))

	var cfg Config
	md, err := toml.Decode(content, &cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, nil, &ConfigError{Path: path, Unknown: keys}
	}

	cfg.applyDefaults()
	return &cfg, missing, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/fafo.db"
	}
	if c.Strategies.Primary == "" && c.Strategies.Secondary == "" {
		c.Strategies.Primary = StrategyYTDLP
		c.Strategies.Secondary = StrategyAddon
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// substituteEnvVars expands ${VAR}, ${VAR:-default} and ${VAR:?message}.
// It returns the expanded content and the variables that could not be
// resolved; unresolved references are left unchanged. Comment text is
// copied through untouched.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	expand := func(match string) string {
		m := envVarPattern.FindStringSubmatch(match)
		name, op, arg := m[1], m[2], m[3]
		value, ok := os.LookupEnv(name)

		switch op {
		case ":-":
			if !ok || value == "" {
				return arg
			}
			return value
		case ":?":
			if !ok || value == "" {
				missing = append(missing, name+": "+arg)
				return match
			}
			return value
		}
		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		code, comment := line, ""
		if at := commentStart(line); at >= 0 {
			code, comment = line[:at], line[at:]
		}
		lines[i] = envVarPattern.ReplaceAllStringFunc(code, expand) + comment
	}
	return strings.Join(lines, "\n"), missing
}

// commentStart returns the index of the # that opens a TOML comment on
// line, or -1. A # inside a basic or literal string does not count.
func commentStart(line string) int {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote == 0 && c == '#':
			return i
		case quote == 0 && (c == '"' || c == '\''):
			quote = c
		case quote == '"' && c == '\\':
			i++
		case c == quote:
			quote = 0
		}
	}
	return -1
}
