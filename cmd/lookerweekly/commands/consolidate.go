package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newConsolidateCommand(a *app) *cobra.Command {
	var inputDir, masterFile string

	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Merge every data_week*.csv into the master workbook and a timestamped backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if inputDir != "" {
				a.cfg.Consolidation.InputDir = inputDir
			}
			if masterFile != "" {
				a.cfg.Consolidation.MasterFile = masterFile
			}
			return a.consolidate(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&inputDir, "input-dir", "", "directory holding the period files (overrides config)")
	cmd.Flags().StringVar(&masterFile, "master", "", "master workbook file name or path (overrides config)")
	return cmd
}

func (a *app) consolidate(ctx context.Context, out io.Writer) error {
	recorder := a.openRecorder(ctx)
	defer recorder.Close()

	fmt.Fprintf(out, "Consolidating period files in %s\n", a.cfg.Consolidation.InputDir)

	result, err := a.newConsolidator().Run(ctx)
	recorder.RecordConsolidation(ctx, result)
	printConsolidation(out, result)
	if err != nil {
		fmt.Fprintln(out, "CONSOLIDATION FAILED")
		return err
	}
	fmt.Fprintln(out, "CONSOLIDATION COMPLETE")
	return nil
}
