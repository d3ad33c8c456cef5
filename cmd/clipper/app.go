package main

import (
	"fmt"
	"log/slog"
	"time"

	"clipper/internal/catalog"
	"clipper/internal/classify"
	"clipper/internal/clipboard"
	"clipper/internal/config"
	"clipper/internal/history"
	"clipper/internal/index"
	"clipper/internal/staging"
)

const (
	indexRetention = 30 * 24 * time.Hour
	stagingMaxAge  = 24 * time.Hour
)

// app holds the components shared by the browser and the subcommands.
type app struct {
	cfg     config.AppConfig
	store   *history.Cliphist
	index   *index.SniffIndex
	stager  *staging.Cache
	catalog *catalog.Catalog
}

// openApp builds the list pipeline. Staging is only needed when something
// will render staged files, so the subcommands leave it off.
func openApp(cfg config.AppConfig, withStaging bool) (*app, error) {
	a := &app{
		cfg:   cfg,
		store: newStore(cfg),
	}

	var cache classify.Cache
	idx, err := index.New(cfg.IndexDB, cfg.Reindex)
	if err != nil {
		slog.Warn("sniff index unavailable, sniffing every entry", "path", cfg.IndexDB, "err", err)
	} else {
		a.index = idx
		cache = idx
		if n, err := idx.Prune(time.Now().Add(-indexRetention)); err != nil {
			slog.Warn("sniff index prune failed", "err", err)
		} else if n > 0 {
			slog.Debug("pruned sniff index", "removed", n)
		}
	}

	var stager catalog.Stager
	if withStaging {
		st, err := staging.New(cfg.StagingDir)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open staging cache: %w", err)
		}
		if n, err := st.Sweep(stagingMaxAge); err != nil {
			slog.Warn("staging sweep failed", "err", err)
		} else if n > 0 {
			slog.Debug("removed stale staging sessions", "count", n)
		}
		a.stager = st
		stager = st
	}

	sniffer := classify.NewFileSniffer(cfg.Sniffer, cfg.StagingDir)
	a.catalog = catalog.New(a.store, classify.New(sniffer, cache), stager, cfg.Workers)
	return a, nil
}

func newStore(cfg config.AppConfig) *history.Cliphist {
	return history.NewCliphist(cfg.Cliphist, cfg.CliphistDB)
}

// newWriter picks the first usable clipboard sink. A missing sink is not
// fatal here; CopyToClipboard reports it.
func newWriter(store clipboard.Decoder) *clipboard.Writer {
	sink, err := clipboard.Detect()
	if err != nil {
		slog.Warn("no clipboard sink", "err", err)
	} else {
		slog.Debug("clipboard sink", "name", sink.Name())
	}
	return clipboard.NewWriter(store, sink)
}

func (a *app) Close() {
	if a.stager != nil {
		if err := a.stager.Close(); err != nil {
			slog.Warn("staging cleanup failed", "err", err)
		}
	}
	if a.index != nil {
		if err := a.index.Close(); err != nil {
			slog.Warn("sniff index close failed", "err", err)
		}
	}
}
