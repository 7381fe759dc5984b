package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/woskam/looker-studio-automation/internal/history"
)

func newHistoryCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent consolidation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.cfg.History.Enabled {
				return fmt.Errorf("run history is disabled (history.enabled)")
			}

			store, err := history.Open(cmd.Context(), a.cfg.History.Path, a.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show (0 shows all)")
	return cmd
}
