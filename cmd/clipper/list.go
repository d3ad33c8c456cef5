package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"clipper/internal/catalog"
	"clipper/internal/preview"
)

func newListCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the decodable history entries, newest first",
		Long: `Prints one line per entry that decodes successfully:

  <id> <TAB> <category> <TAB> <mime> <TAB> <size> <TAB> <title>

An unreachable history store prints nothing and exits 0.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			setupStderrLogging(cfg)

			a, err := openApp(cfg, false)
			if err != nil {
				return err
			}
			defer a.Close()

			listing, err := a.catalog.Load(commandContext(cmd))
			if err != nil {
				return err
			}
			if listing.StoreErr != nil {
				slog.Warn("history unavailable", "err", listing.StoreErr)
			}
			return printListing(cmd.OutOrStdout(), listing, v.GetInt("width"))
		},
	}

	addStoreFlags(cmd)
	addCatalogFlags(cmd)
	cmd.Flags().Int("width", 80, "truncate titles to this many columns (0 for no limit)")
	return cmd
}

func printListing(w io.Writer, l catalog.Listing, width int) error {
	for _, it := range l.Items {
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			it.Entry.ID(),
			it.Category(),
			it.Class.MIME,
			preview.HumanSize(len(it.Data)),
			preview.Title(it, width),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
