package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vmunix/fafo/internal/catalog"
	"github.com/vmunix/fafo/internal/config"
	"github.com/vmunix/fafo/internal/events"
	"github.com/vmunix/fafo/internal/extract"
	"github.com/vmunix/fafo/internal/facade"
	"github.com/vmunix/fafo/internal/policy"
	"github.com/vmunix/fafo/internal/resolver"
)

// app is the wired catalog, resolver and facade for one invocation.
type app struct {
	db       *sql.DB
	resolver *resolver.Resolver
	facade   *facade.Facade
	history  *events.EventLog
	bus      *events.Bus
	registry *prometheus.Registry
	log      *slog.Logger
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	p, err := cfg.Policy()
	if err != nil {
		return nil, fmt.Errorf("playback policy: %w", err)
	}

	classifier := resolver.DefaultClassifier()
	if len(cfg.Resolver.SitePatterns) > 0 {
		classifier, err = resolver.NewClassifier(cfg.Resolver.SitePatterns)
		if err != nil {
			return nil, fmt.Errorf("site patterns: %w", err)
		}
	}

	strategies := map[policy.Slot]resolver.Strategy{}
	for slot, name := range map[policy.Slot]string{
		policy.SlotPrimary:   cfg.Strategies.Primary,
		policy.SlotSecondary: cfg.Strategies.Secondary,
	} {
		st, err := buildStrategy(name, cfg.Strategies, log)
		if err != nil {
			return nil, fmt.Errorf("strategies.%s: %w", slot, err)
		}
		if st != nil {
			strategies[slot] = st
		}
	}

	registry := prometheus.NewRegistry()
	r, err := resolver.New(resolver.Options{
		Policy:     p,
		Classifier: classifier,
		Strategies: strategies,
		Metrics:    resolver.NewMetrics(registry),
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}

	db, err := catalog.OpenDB(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	history := events.NewEventLog(db)
	if retention := cfg.HistoryRetention(); retention > 0 {
		n, err := history.Prune(ctx, retention)
		if err != nil {
			log.Warn("history prune failed", "error", err)
		} else if n > 0 {
			log.Debug("history pruned", "events", n, "retention", retention)
		}
	}
	bus := events.NewBus(history, log)

	// metadata and platform search always go through yt-dlp, whichever
	// strategies fill the resolver slots
	platform := extract.NewYTDLP(extract.YTDLPOptions{Executable: cfg.Strategies.YTDLP.Executable, Logger: log})

	f, err := facade.New(facade.Deps{
		Catalog:   catalog.NewStore(db),
		Resolver:  r,
		Playlists: extract.NewPlaylistExpander(cfg.PlaylistTimeout(), cfg.Playlist.Limit, log),
		Policy:    p,
		Events:    bus,
		History:   history,
		Metadata:  platform,
		Platform:  platform,
	}, log,
		facade.WithPrefetchWorkers(cfg.Resolver.PrefetchWorkers),
		facade.WithAppVersion(version),
		facade.WithEnrichment(cfg.EnrichItems()),
	)
	if err != nil {
		_ = bus.Close()
		_ = db.Close()
		return nil, err
	}

	log.Debug("catalog opened", "database", cfg.Database.Path,
		"primary", cfg.Strategies.Primary, "secondary", cfg.Strategies.Secondary)
	return &app{db: db, resolver: r, facade: f, history: history, bus: bus, registry: registry, log: log}, nil
}

// buildStrategy creates the strategy named in the config. An empty name
// leaves the slot empty and returns nil.
func buildStrategy(name string, cfg config.StrategiesConfig, log *slog.Logger) (resolver.Strategy, error) {
	switch name {
	case "":
		return nil, nil
	case config.StrategyYTDLP:
		return extract.NewYTDLP(extract.YTDLPOptions{Executable: cfg.YTDLP.Executable, Logger: log}), nil
	case config.StrategyAddon:
		return extract.NewAddonHandoff(cfg.Addon.AddonID, nil), nil
	case config.StrategyRemote:
		return extract.NewRemote(extract.RemoteOptions{
			BaseURL:           cfg.Remote.BaseURL,
			RequestsPerSecond: cfg.Remote.RequestsPerSecond,
			Burst:             cfg.Remote.Burst,
			Logger:            log,
		}), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

func (a *app) Close() error {
	return errors.Join(a.bus.Close(), a.db.Close())
}
