package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"clipper/internal/history"
)

func newCopyCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "copy <id>",
		Short: "Restore the history entry with the given id to the clipboard",
		Long: `Decodes the entry whose id is shown by "clipper list" and writes its exact
bytes to the clipboard through wl-copy, xclip or pbcopy, falling back to the
native clipboard when none is installed.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			setupStderrLogging(cfg)

			store := newStore(cfg)
			ctx := commandContext(cmd)
			entries, err := store.List(ctx)
			if err != nil {
				return err
			}
			e, ok := findEntry(entries, args[0])
			if !ok {
				return fmt.Errorf("no history entry with id %q", args[0])
			}
			if err := newWriter(store).CopyToClipboard(ctx, e); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "copied #%s\n", e.ID())
			return nil
		},
	}

	addStoreFlags(cmd)
	return cmd
}

func findEntry(entries []history.Entry, id string) (history.Entry, bool) {
	for _, e := range entries {
		if e.ID() == id {
			return e, true
		}
	}
	return history.Entry{}, false
}
