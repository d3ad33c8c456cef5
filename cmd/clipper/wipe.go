package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"clipper/internal/config"
	"clipper/internal/wipe"
)

func newWipeCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete the entire clipboard history",
		Long: `Runs "cliphist wipe". Asks for confirmation on stdin unless --yes is given.
This cannot be undone.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			setupStderrLogging(cfg)

			if !v.GetBool("yes") && !confirm(cmd.InOrStdin(), cmd.OutOrStdout()) {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}

			store := newStore(cfg)
			m := wipe.New(store, cfg.ConfirmWindow)
			if _, err := m.Press(commandContext(cmd)); err != nil {
				return err
			}
			st, err := m.Press(commandContext(cmd))
			if err != nil {
				return err
			}
			if st.Phase != wipe.Wiped {
				return fmt.Errorf("wipe did not complete (state %s)", st.Phase)
			}
			slog.Info("history wiped")
			fmt.Fprintln(cmd.OutOrStdout(), "history wiped")
			return nil
		},
	}

	addStoreFlags(cmd)
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	cmd.Flags().Duration(config.KeyConfirmWindow, wipe.DefaultWindow, "time allowed between arming and confirming")
	return cmd
}

func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Delete all clipboard history? [y/N] ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
