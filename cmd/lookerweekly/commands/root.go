package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/woskam/looker-studio-automation/internal/config"
	"github.com/woskam/looker-studio-automation/internal/consolidation"
	"github.com/woskam/looker-studio-automation/internal/extraction"
	"github.com/woskam/looker-studio-automation/internal/infrastructure"
)

const shutdownTimeout = 5 * time.Second

// app carries what every command shares once the root has loaded the
// configuration.
type app struct {
	configPath string
	logLevel   string

	paths     *config.Paths
	cfg       *config.Config
	logger    *slog.Logger
	telemetry *infrastructure.Telemetry
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           config.AppName,
		Short:         "Export weekly dashboard data and consolidate it into one workbook",
		Version:       config.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to lookerweekly.yaml (default: search well-known locations)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newConsolidateCommand(a),
		newExtractCommand(a),
		newRunCommand(a),
		newHistoryCommand(a),
		newCopySessionCommand(a),
	)
	return rootCmd
}

// ExecuteContext runs the command line and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	return execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{}
	rootCmd := newRootCommand(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return config.ExitFailure
	}
	return config.ExitSuccess
}

// setup loads configuration and starts logging and telemetry for the
// command about to run.
func (a *app) setup(cmd *cobra.Command) error {
	paths, err := config.GetPaths()
	if err != nil {
		return err
	}
	a.paths = paths

	cfg, err := config.Load(a.configPath, paths)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid --log-level %q: %w", a.logLevel, err)
		}
	}
	a.cfg = cfg

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	paths.LogPathResolution(logger)
	if err := paths.EnsureDirectories(); err != nil {
		logger.Warn("Default directories not created", slog.String("error", err.Error()))
	}

	a.telemetry, err = infrastructure.InitializeTelemetry(cfg.Telemetry, cmd.OutOrStdout(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	cmd.SetContext(infrastructure.EnsureTraceID(cmd.Context()))
	return nil
}

func (a *app) close() {
	if a.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.telemetry.Shutdown(ctx); err != nil && a.logger != nil {
			a.logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
		cancel()
	}
	infrastructure.CloseLogFile()
}

func (a *app) newConsolidator() *consolidation.Consolidator {
	c := consolidation.NewConsolidator(consolidation.Options{
		InputDir:   a.cfg.Consolidation.InputDir,
		MasterPath: a.cfg.Consolidation.MasterPath(),
		SheetName:  a.cfg.Consolidation.SheetName,
	}, a.logger)
	c.SetTelemetry(a.telemetry.Tracer, a.telemetry.Metrics)
	return c
}

func (a *app) newExtractor() *extraction.Extractor {
	e := extraction.NewExtractor(a.cfg.Extraction, a.cfg.PeriodDir(), a.logger)
	e.SetTelemetry(a.telemetry.Tracer, a.telemetry.Metrics)
	return e
}
