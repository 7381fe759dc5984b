package operations_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woskam/looker-studio-automation/internal/consolidation"
	apperrors "github.com/woskam/looker-studio-automation/internal/errors"
	"github.com/woskam/looker-studio-automation/internal/extraction"
	"github.com/woskam/looker-studio-automation/internal/operations"
	logtest "github.com/woskam/looker-studio-automation/internal/shared/testutil"
	"github.com/woskam/looker-studio-automation/pkg/contracts/domain"
)

type fakeExtractor struct {
	result *extraction.Result
	err    error
	calls  int
}

func (f *fakeExtractor) Extract(context.Context) (*extraction.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeConsolidator struct {
	result *consolidation.Result
	err    error
	calls  int
}

func (f *fakeConsolidator) Run(context.Context) (*consolidation.Result, error) {
	f.calls++
	return f.result, f.err
}

type captureRecorder struct {
	results []*consolidation.Result
}

func (c *captureRecorder) RecordConsolidation(_ context.Context, r *consolidation.Result) {
	c.results = append(c.results, r)
}

func exported(path string) *extraction.Result {
	w := extraction.PreviousWeek(time.Date(2025, time.January, 13, 9, 0, 0, 0, time.Local))
	return &extraction.Result{Window: w, Path: path}
}

func pipeline(t *testing.T, ex operations.Extractor, co operations.Consolidator, rec operations.RunRecorder) *operations.Manager {
	t.Helper()
	logger, _ := logtest.NewTestLogger(t)
	m := operations.NewManager(nil, nil, logger)

	consolidate := operations.NewConsolidationStage(co, logger)
	if rec != nil {
		consolidate.SetRecorder(rec)
	}
	require.NoError(t, m.RegisterStage(consolidate))
	require.NoError(t, m.RegisterStage(operations.NewExtractionStage(ex, logger)))
	return m
}

func TestStageDefinitions(t *testing.T) {
	ex := operations.NewExtractionStage(&fakeExtractor{}, nil)
	assert.Equal(t, operations.StageIDExtraction, ex.ID())
	assert.False(t, ex.Optional())
	assert.Empty(t, ex.GetDependencies())

	co := operations.NewConsolidationStage(&fakeConsolidator{}, nil)
	assert.Equal(t, operations.StageIDConsolidation, co.ID())
	assert.True(t, co.Optional())
	assert.Equal(t, []string{operations.StageIDExtraction}, co.GetDependencies())

	state := operations.NewOperationState("x")
	assert.Error(t, operations.NewExtractionStage(nil, nil).Validate(state))
	assert.Error(t, operations.NewConsolidationStage(nil, nil).Validate(state))
}

func TestPipelineSuccess(t *testing.T) {
	ex := &fakeExtractor{result: exported("/weekly/data_week01_2025.csv")}
	co := &fakeConsolidator{result: &consolidation.Result{MasterPath: "/weekly/master_data.xlsx", Rows: 12, BackupPath: "/weekly/b.xlsx"}}
	rec := &captureRecorder{}

	resp, err := pipeline(t, ex, co, rec).Execute(context.Background(), operations.OperationRequest{})
	require.NoError(t, err)

	assert.Equal(t, operations.OperationStatusCompleted, resp.Status)
	assert.Equal(t, "2025-W01", resp.Steps[operations.StageIDExtraction].Metadata["period"])
	assert.Equal(t, 12, resp.Steps[operations.StageIDConsolidation].Metadata["rows"])
	assert.Len(t, rec.results, 1)
}

func TestPipelineExtractionFailureIsFatal(t *testing.T) {
	ex := &fakeExtractor{err: apperrors.NewExtractionError("'Export data' not found in any chart menu", nil)}
	co := &fakeConsolidator{}

	resp, err := pipeline(t, ex, co, nil).Execute(context.Background(), operations.OperationRequest{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeExtraction))
	assert.Equal(t, operations.OperationStatusFailed, resp.Status)
	assert.Equal(t, operations.StepStatusSkipped, resp.Steps[operations.StageIDConsolidation].Status)
	assert.Equal(t, 0, co.calls)
}

func TestPipelineConsolidationFailureIsNotFatal(t *testing.T) {
	ex := &fakeExtractor{result: exported("/weekly/data_week01_2025.csv")}
	failed := &consolidation.Result{Err: errors.New("disk full")}
	co := &fakeConsolidator{result: failed, err: apperrors.NewStorageError("failed to write master workbook", errors.New("disk full"))}
	rec := &captureRecorder{}

	resp, err := pipeline(t, ex, co, rec).Execute(context.Background(), operations.OperationRequest{})
	require.NoError(t, err)

	assert.Equal(t, operations.OperationStatusCompleted, resp.Status)
	assert.Equal(t, operations.StepStatusFailed, resp.Steps[operations.StageIDConsolidation].Status)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "failed to write master workbook")
	require.Len(t, rec.results, 1, "failed runs are recorded too")
	assert.Same(t, failed, rec.results[0])
}

func TestConsolidationStageWithRealConsolidator(t *testing.T) {
	dir := t.TempDir()
	logtest.WritePeriodFile(t, dir, "data_week02_2025.csv", []string{"Campaign", "Clicks"}, logtest.Rows("b", 2)...)
	logtest.WritePeriodFile(t, dir, "data_week01_2025.csv", []string{"Campaign", "Clicks"}, logtest.Rows("a", 3)...)

	logger, _ := logtest.NewTestLogger(t)
	co := consolidation.NewConsolidator(consolidation.Options{
		InputDir:   dir,
		MasterPath: filepath.Join(dir, "master_data.xlsx"),
		SheetName:  "Data",
	}, logger)

	m := operations.NewManager(nil, nil, logger)
	require.NoError(t, m.RegisterStage(operations.NewConsolidationStage(co, logger)))

	state := operations.NewOperationState("direct")
	step, err := m.GetRegistry().Get(operations.StageIDConsolidation)
	require.NoError(t, err)
	require.NoError(t, step.Execute(context.Background(), state))

	result, ok := operations.ConsolidationResult(state)
	require.True(t, ok)
	assert.Equal(t, 5, result.Rows)
	assert.Equal(t, domain.Period{Year: 2025, Week: 1}, result.First)
	assert.Equal(t, domain.Period{Year: 2025, Week: 2}, result.Last)
	assert.FileExists(t, result.MasterPath)
	assert.FileExists(t, result.BackupPath)

	rows, _ := state.GetContext(operations.ContextKeyRows)
	assert.Equal(t, 5, rows)
}

func TestConsolidationResultMissing(t *testing.T) {
	_, ok := operations.ConsolidationResult(operations.NewOperationState("x"))
	assert.False(t, ok)
}
