package consolidation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	apperrors "github.com/woskam/looker-studio-automation/internal/errors"
	"github.com/woskam/looker-studio-automation/internal/exporter"
	"github.com/woskam/looker-studio-automation/internal/infrastructure"
	"github.com/woskam/looker-studio-automation/internal/validation"
	"github.com/woskam/looker-studio-automation/pkg/contracts/domain"
)

// Options configures one consolidation run.
type Options struct {
	InputDir   string
	MasterPath string
	SheetName  string
}

// Result describes a consolidation run. It is returned alongside the error
// of a failed run with whatever had been done by then.
type Result struct {
	StartedAt  time.Time
	FinishedAt time.Time
	InputDir   string
	Files      []domain.FileOutcome
	Rows       int
	Columns    int
	First      domain.Period
	Last       domain.Period
	MasterPath string
	BackupPath string
	Err        error
}

// Success reports whether both workbooks were written.
func (r *Result) Success() bool {
	return r.Err == nil && r.BackupPath != ""
}

// Record converts the result into a history entry.
func (r *Result) Record(runID string) domain.RunRecord {
	rec := domain.RunRecord{
		ID:         runID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Status:     domain.RunStatusSucceeded,
		InputDir:   r.InputDir,
		MasterPath: r.MasterPath,
		BackupPath: r.BackupPath,
		Rows:       r.Rows,
		Columns:    r.Columns,
		First:      r.First,
		Last:       r.Last,
		Files:      r.Files,
	}
	if r.Err != nil {
		rec.Status = domain.RunStatusFailed
		rec.Error = r.Err.Error()
	}
	return rec
}

// Consolidator rebuilds the master workbook from every period file in the
// input directory.
type Consolidator struct {
	opts    Options
	writer  *exporter.WorkbookWriter
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.RunMetrics
	now     func() time.Time
}

// NewConsolidator creates a consolidator for opts.
func NewConsolidator(opts Options, logger *slog.Logger) *Consolidator {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = infrastructure.WithComponent(logger, "consolidation")
	return &Consolidator{
		opts:   opts,
		writer: exporter.NewWorkbookWriter(opts.SheetName, logger),
		logger: logger,
		tracer: noop.NewTracerProvider().Tracer(infrastructure.MeterName),
		now:    time.Now,
	}
}

// SetTelemetry attaches a tracer and run metrics. Either may be nil.
func (c *Consolidator) SetTelemetry(tracer trace.Tracer, metrics *infrastructure.RunMetrics) {
	if tracer != nil {
		c.tracer = tracer
	}
	c.metrics = metrics
}

// SetClock replaces the clock used for the backup timestamp.
func (c *Consolidator) SetClock(now func() time.Time) {
	c.now = now
}

// Run discovers, loads, merges and persists. Per-file parse and load errors
// are logged and skipped; an empty discovery, an empty assembly or a write
// failure ends the run with an error.
func (c *Consolidator) Run(ctx context.Context) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "consolidation.run", trace.WithAttributes(
		attribute.String("input.dir", c.opts.InputDir),
		attribute.String("master.path", c.opts.MasterPath),
	))
	defer span.End()

	result := &Result{
		StartedAt:  c.now(),
		InputDir:   c.opts.InputDir,
		MasterPath: c.opts.MasterPath,
	}

	err := c.run(ctx, result)
	result.FinishedAt = c.now()
	result.Err = err
	c.metrics.RecordConsolidation(ctx, result.FinishedAt.Sub(result.StartedAt), result.Rows, err == nil)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		c.logger.ErrorContext(ctx, "CONSOLIDATION FAILED",
			slog.String("input_dir", c.opts.InputDir),
			slog.String("error", err.Error()))
		return result, err
	}

	c.logger.InfoContext(ctx, "CONSOLIDATION COMPLETED SUCCESSFULLY",
		slog.String("master", result.MasterPath),
		slog.String("backup", result.BackupPath),
		slog.Int("rows", result.Rows),
		slog.Int("columns", result.Columns),
		slog.Duration("duration", result.FinishedAt.Sub(result.StartedAt)))
	return result, nil
}

func (c *Consolidator) run(ctx context.Context, result *Result) error {
	found, err := c.discover(ctx)
	if err != nil {
		return err
	}

	batches := c.load(ctx, found, result)
	table, err := Assemble(batches)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			appErr.WithContext("failed_files", len(found)).WithContext("dir", c.opts.InputDir)
		}
		return err
	}

	result.Rows = table.Len()
	result.Columns = len(table.Header())
	if first, last, ok := table.Span(); ok {
		result.First, result.Last = first, last
	}
	c.logger.InfoContext(ctx, "Master table assembled",
		slog.Int("rows", result.Rows),
		slog.Int("columns", result.Columns),
		slog.Int("periods", len(table.Periods())),
		slog.String("first", result.First.String()),
		slog.String("last", result.Last.String()))

	return c.persist(ctx, table, result)
}

func (c *Consolidator) discover(ctx context.Context) ([]discovered, error) {
	_, span := c.tracer.Start(ctx, "consolidation.discover")
	defer span.End()

	infos, err := Discover(c.opts.InputDir)
	if err != nil {
		c.logger.WarnContext(ctx, "No period files to consolidate",
			slog.String("dir", c.opts.InputDir),
			slog.String("pattern", domain.PeriodFileGlob))
		return nil, err
	}

	out := make([]discovered, len(infos))
	names := make([]string, len(infos))
	for i, info := range infos {
		out[i] = discovered{path: info.Path, name: info.Name}
		names[i] = info.Name
	}
	span.SetAttributes(attribute.Int("files", len(out)))
	c.logger.InfoContext(ctx, "Found period files",
		slog.Int("count", len(out)),
		slog.Any("files", names))
	return out, nil
}

type discovered struct {
	path string
	name string
}

// load parses and reads each file, recording one outcome per file.
func (c *Consolidator) load(ctx context.Context, found []discovered, result *Result) []domain.Batch {
	ctx, span := c.tracer.Start(ctx, "consolidation.load")
	defer span.End()

	var batches []domain.Batch
	for _, f := range found {
		outcome := domain.FileOutcome{Name: f.name}

		period, err := ParsePeriod(f.name)
		if err != nil {
			outcome.Status = domain.FileStatusParseFailed
			outcome.Error = err.Error()
			c.logger.ErrorContext(ctx, "Skipping file with undecodable name",
				slog.String("file", f.name),
				slog.String("error", err.Error()))
		} else {
			outcome.Period = period
			batch, err := LoadBatch(f.path, f.name, period)
			if err != nil {
				outcome.Status = domain.FileStatusLoadFailed
				outcome.Error = err.Error()
				c.logger.ErrorContext(ctx, "Skipping unreadable period file",
					slog.String("file", f.name),
					slog.String("period", period.String()),
					slog.String("error", err.Error()))
			} else {
				outcome.Status = domain.FileStatusLoaded
				outcome.Rows = batch.Len()
				batches = append(batches, batch)
				c.logger.InfoContext(ctx, "Loaded period file",
					slog.String("file", f.name),
					slog.String("period", period.String()),
					slog.Int("rows", batch.Len()),
					slog.Int("columns", len(batch.Columns)))
			}
		}

		result.Files = append(result.Files, outcome)
		c.metrics.RecordPeriodFile(ctx, string(outcome.Status))
	}

	span.SetAttributes(
		attribute.Int("files.loaded", len(batches)),
		attribute.Int("files.skipped", len(found)-len(batches)))
	return batches
}

// persist encodes the table once and writes the master, then the backup.
// A master written before a backup failure stays on disk.
func (c *Consolidator) persist(ctx context.Context, table *domain.Table, result *Result) error {
	ctx, span := c.tracer.Start(ctx, "consolidation.persist")
	defer span.End()

	if err := validation.NewFileValidator(c.logger).ValidateWorkbookPath(c.opts.MasterPath); err != nil {
		return apperrors.NewStorageError("master workbook location is not writable", err).
			WithContext("path", c.opts.MasterPath)
	}

	data, err := c.writer.Encode(table)
	if err != nil {
		return apperrors.NewStorageError("failed to encode master workbook", err)
	}

	if err := c.writer.WriteMaster(c.opts.MasterPath, data); err != nil {
		return apperrors.NewStorageError("failed to write master workbook", err).
			WithContext("path", c.opts.MasterPath)
	}

	backup, err := c.writer.WriteBackup(c.opts.MasterPath, data, c.now())
	if err != nil {
		return apperrors.NewStorageError("failed to write backup workbook", err).
			WithContext("path", c.opts.MasterPath)
	}
	result.BackupPath = backup

	span.SetAttributes(
		attribute.String("backup.path", backup),
		attribute.Int("bytes", len(data)))
	return nil
}
