package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"clipper/internal/config"
	"clipper/internal/logging"
)

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and CLIPPER_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → CLIPPER_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	config.SetDefaults(v)

	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("clipper")
		v.SetConfigType("toml")
		if dir, err := config.ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("CLIPPER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addStoreFlags adds the flags every command needs to reach cliphist.
func addStoreFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String(config.KeyCliphist, "cliphist", "cliphist binary")
	f.String(config.KeyCliphistDB, "", "cliphist database path (default: cliphist's own)")
	f.String("config", "", "path to config file (overrides auto-discovery)")
	f.String(config.KeyLogFormat, config.DefaultLogFormat, "log format: auto|text|json")
	f.String(config.KeyLogLevel, config.DefaultLogLevel, "log level: debug|info|warn|error")
}

// addCatalogFlags adds the flags for commands that decode and classify.
func addCatalogFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String(config.KeySniffer, "file", "file(1) binary used to sniff MIME types")
	f.String(config.KeyIndexDB, "", "path to the sniff index (default $XDG_CACHE_HOME/clipper/index.sqlite)")
	f.Bool(config.KeyReindex, false, "discard the sniff index before starting")
	f.Int(config.KeyWorkers, config.DefaultWorkers, "parallel decodes while listing")
}

// loadConfig binds flags and resolves the final AppConfig.
func loadConfig(cmd *cobra.Command, v *viper.Viper) (config.AppConfig, error) {
	if err := bindViper(cmd, v); err != nil {
		return config.AppConfig{}, err
	}
	return config.FromViper(v)
}

// setupStderrLogging is used by the non-interactive subcommands.
func setupStderrLogging(cfg config.AppConfig) {
	logging.Setup(os.Stderr, logging.ParseFormat(cfg.LogFormat), logging.ParseLevel(cfg.LogLevel))
}
