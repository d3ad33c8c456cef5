package main

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"clipper/internal/config"
	"clipper/internal/export"
	"clipper/internal/logging"
	"clipper/internal/ui"
	"clipper/internal/watch"
	"clipper/internal/wipe"
)

func newBrowseCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "clipper",
		Short: "Browse clipboard history and restore an entry",
		Long: `clipper lists the entries cliphist has recorded, previews them, and
copies the selected one back onto the clipboard with enter.

Press x to clear the whole history; press it again within the confirmation
window to actually wipe. clipper exits after a successful wipe.

Config file: $XDG_CONFIG_HOME/clipper/clipper.toml, or --config.
Every flag can also be set as a CLIPPER_<FLAG> env var or a config-file key.

Precedence (lowest → highest): defaults → config file → CLIPPER_* env vars → flags`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			return runBrowse(cfg)
		},
	}

	addStoreFlags(cmd)
	addCatalogFlags(cmd)
	f := cmd.Flags()
	f.String(config.KeyStagingDir, "", "directory for staged image files (default $XDG_RUNTIME_DIR/clipper)")
	f.String(config.KeyExportDir, "", "directory for saved entries (default: current directory)")
	f.String(config.KeyConfirmStyle, config.DefaultConfirmStyle, "wipe confirmation style: button|prompt")
	f.Duration(config.KeyConfirmWindow, wipe.DefaultWindow, "time allowed to confirm a wipe")
	f.Bool(config.KeyWatch, true, "reload when the cliphist database changes")
	f.String(config.KeyLogFile, "", "log file (default $XDG_STATE_HOME/clipper/clipper.log)")

	return cmd
}

func runBrowse(cfg config.AppConfig) error {
	logFile, err := logging.SetupFile(cfg.LogFile, logging.ParseFormat(cfg.LogFormat), logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	slog.Info("clipper starting", "version", Version, "cliphist", cfg.Cliphist, "workers", cfg.Workers)

	a, err := openApp(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	exp, err := export.New(cfg.ExportDir)
	if err != nil {
		return err
	}
	style, err := wipe.StyleByName(cfg.ConfirmStyle)
	if err != nil {
		return err
	}

	opts := ui.Options{
		Catalog:       a.catalog,
		Writer:        newWriter(a.store),
		Exporter:      exp,
		Wiper:         a.store,
		Style:         style,
		ConfirmWindow: cfg.ConfirmWindow,
	}
	if cfg.Watch {
		w, err := watch.New(cfg.WatchPath, watch.DefaultDebounce)
		if err != nil {
			slog.Warn("history watch disabled", "path", cfg.WatchPath, "err", err)
		} else {
			defer w.Close()
			opts.Changes = w.Events()
		}
	}

	p := tea.NewProgram(ui.NewModel(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
