package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/woskam/looker-studio-automation/internal/infrastructure"
	"github.com/woskam/looker-studio-automation/internal/operations"
)

func newRunCommand(a *app) *cobra.Command {
	var (
		reportURL string
		headless  bool
		step      string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Export last week's data, then rebuild the master workbook",
		Long: `Runs the weekly pipeline: the dashboard export, then the consolidation.
A failed consolidation is reported as a warning and does not fail the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.applyExtractionFlags(cmd, reportURL, headless)
			return a.runPipeline(cmd.Context(), cmd.OutOrStdout(), step)
		},
	}

	addExtractionFlags(cmd, &reportURL, &headless)
	cmd.Flags().StringVar(&step, "step", "", "run a single step (extraction or consolidation)")
	return cmd
}

func (a *app) newPipeline(recorder operations.RunRecorder) (*operations.Manager, error) {
	registry := operations.NewRegistry()
	if err := registry.Register(operations.NewExtractionStage(a.newExtractor(), a.logger)); err != nil {
		return nil, err
	}
	consolidate := operations.NewConsolidationStage(a.newConsolidator(), a.logger)
	consolidate.SetRecorder(recorder)
	if err := registry.Register(consolidate); err != nil {
		return nil, err
	}

	manager := operations.NewManager(registry, operations.ConfigFor(a.cfg.Extraction), a.logger)
	manager.SetTelemetry(a.telemetry.Tracer, a.telemetry.Metrics)
	return manager, nil
}

func (a *app) runPipeline(ctx context.Context, out io.Writer, step string) error {
	if step != operations.StageIDConsolidation {
		if err := a.cfg.ValidateForExtraction(); err != nil {
			return err
		}
	}

	recorder := a.openRecorder(ctx)
	defer recorder.Close()

	manager, err := a.newPipeline(recorder)
	if err != nil {
		return err
	}

	resp, err := manager.Execute(ctx, operations.OperationRequest{
		ID:   infrastructure.GetTraceID(ctx),
		Step: step,
		Parameters: map[string]interface{}{
			operations.ParamPeriodDir: a.cfg.PeriodDir(),
			operations.ParamMaster:    a.cfg.Consolidation.MasterPath(),
		},
	})
	printSteps(out, resp)
	if recorder.last != nil {
		printConsolidation(out, recorder.last)
	}
	for _, warning := range resp.Warnings {
		fmt.Fprintf(out, "WARNING: %s\n", warning)
	}
	if err != nil {
		fmt.Fprintln(out, "PIPELINE FAILED")
		return err
	}
	fmt.Fprintln(out, "PIPELINE COMPLETE")
	return nil
}
