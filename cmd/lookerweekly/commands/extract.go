package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExtractCommand(a *app) *cobra.Command {
	var (
		reportURL string
		headless  bool
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Export last week's table from the dashboard as a period file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.applyExtractionFlags(cmd, reportURL, headless)
			if err := a.cfg.ValidateForExtraction(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			result, err := a.newExtractor().Extract(cmd.Context())
			if err != nil {
				fmt.Fprintln(out, "EXTRACTION FAILED")
				return err
			}
			printExtraction(out, result)
			return nil
		},
	}

	addExtractionFlags(cmd, &reportURL, &headless)
	return cmd
}

func addExtractionFlags(cmd *cobra.Command, reportURL *string, headless *bool) {
	cmd.Flags().StringVar(reportURL, "report-url", "", "dashboard URL (overrides config)")
	cmd.Flags().BoolVar(headless, "headless", false, "run the browser without a window")
}

func (a *app) applyExtractionFlags(cmd *cobra.Command, reportURL string, headless bool) {
	if reportURL != "" {
		a.cfg.Extraction.ReportURL = reportURL
	}
	if cmd.Flags().Changed("headless") {
		a.cfg.Extraction.Headless = headless
	}
}
