package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/woskam/looker-studio-automation/internal/errors"
	"github.com/woskam/looker-studio-automation/internal/shared/testutil"
	"github.com/woskam/looker-studio-automation/pkg/contracts/domain"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	s, err := Open(context.Background(), MemoryPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun(started time.Time) domain.RunRecord {
	return domain.RunRecord{
		ID:         uuid.NewString(),
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Status:     domain.RunStatusSucceeded,
		InputDir:   "/data/weekly",
		MasterPath: "/data/weekly/master_data.xlsx",
		BackupPath: "/data/weekly/master_data_backup_20250120_063000.xlsx",
		Rows:       5,
		Columns:    4,
		First:      domain.Period{Year: 2024, Week: 52},
		Last:       domain.Period{Year: 2025, Week: 2},
		Files: []domain.FileOutcome{
			{Name: "data_week01_2025.csv", Period: domain.Period{Year: 2025, Week: 1}, Status: domain.FileStatusLoaded, Rows: 3},
			{Name: "data_weekXX_2025.csv", Status: domain.FileStatusParseFailed, Error: "[PARSING] cannot decode period"},
			{Name: "data_week02_2025.csv", Period: domain.Period{Year: 2025, Week: 2}, Status: domain.FileStatusLoaded, Rows: 2},
		},
	}
}

func TestRecordAndList(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	base := time.Date(2025, time.January, 20, 6, 30, 0, 0, time.UTC)
	older := sampleRun(base)
	newer := sampleRun(base.Add(7 * 24 * time.Hour))
	newer.Status = domain.RunStatusFailed
	newer.Error = "[ASSEMBLY_EMPTY] no period file could be loaded"
	newer.Files = nil

	require.NoError(t, s.Record(ctx, older))
	require.NoError(t, s.Record(ctx, newer))

	runs, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, newer.ID, runs[0].ID, "newest first")
	assert.Equal(t, domain.RunStatusFailed, runs[0].Status)
	assert.Equal(t, newer.Error, runs[0].Error)
	assert.Empty(t, runs[0].Files)

	got := runs[1]
	assert.Equal(t, older.ID, got.ID)
	assert.True(t, got.StartedAt.Equal(older.StartedAt))
	assert.Equal(t, 1500*time.Millisecond, got.Duration())
	assert.Equal(t, older.First, got.First)
	assert.Equal(t, older.Last, got.Last)
	assert.Equal(t, older.Files, got.Files)
	assert.Equal(t, 2, got.Loaded())
}

func TestRecordRunWithoutPeriods(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	started := time.Date(2025, time.February, 3, 6, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		rec  domain.RunRecord
	}{
		{
			name: "nothing discovered",
			rec: domain.RunRecord{
				ID: uuid.NewString(), StartedAt: started, FinishedAt: started,
				Status:   domain.RunStatusFailed,
				InputDir: "/data/weekly",
				Error:    "[DISCOVERY_EMPTY] no period files found",
			},
		},
		{
			name: "no file could be parsed",
			rec: domain.RunRecord{
				ID: uuid.NewString(), StartedAt: started.Add(time.Minute), FinishedAt: started.Add(time.Minute),
				Status:   domain.RunStatusFailed,
				InputDir: "/data/weekly",
				Error:    "[ASSEMBLY_EMPTY] no period file could be loaded",
				Files: []domain.FileOutcome{
					{Name: "data_weekXX_2025.csv", Status: domain.FileStatusParseFailed, Error: "[PARSING] cannot decode period"},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, s.Record(ctx, tt.rec))
		})
	}

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, run := range runs {
		assert.Equal(t, domain.RunStatusFailed, run.Status)
		assert.Zero(t, run.First)
		assert.Zero(t, run.Last)
	}
	require.Len(t, runs[0].Files, 1)
	assert.Zero(t, runs[0].Files[0].Period)
}

func TestListLimit(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	base := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		require.NoError(t, s.Record(ctx, sampleRun(base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	assert.True(t, runs[0].StartedAt.After(runs[1].StartedAt))

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestRecordRejectsInvalidRecords(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	rec := sampleRun(time.Now())
	rec.ID = "not-a-uuid"
	err := s.Record(ctx, rec)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

	rec = sampleRun(time.Now())
	require.NoError(t, s.Record(ctx, rec))
	err = s.Record(ctx, rec)
	require.Error(t, err, "duplicate run id")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	ctx := context.Background()
	logger, _ := testutil.NewTestLogger(t)

	s, err := Open(ctx, path, logger)
	require.NoError(t, err)
	rec := sampleRun(time.Now())
	require.NoError(t, s.Record(ctx, rec))
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, path, logger)
	require.NoError(t, err)
	defer reopened.Close()

	runs, err := reopened.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, rec.ID, runs[0].ID)
	assert.Len(t, runs[0].Files, 3)
}
