package extraction

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/woskam/looker-studio-automation/internal/errors"
	"github.com/woskam/looker-studio-automation/internal/files"
	"github.com/woskam/looker-studio-automation/internal/shared/testutil"
	"github.com/woskam/looker-studio-automation/pkg/contracts/domain"
)

func TestFinalize(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	fm := files.NewManager("", logger)

	downloads := t.TempDir()
	weekly := filepath.Join(t.TempDir(), "weekly")
	period := domain.Period{Year: 2025, Week: 2}

	src := testutil.WriteRawFile(t, downloads, "Table_export.csv", "A\nnew\n")

	path, err := Finalize(fm, src, weekly, period, logger)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(weekly, "data_week02_2025.csv"), path)
	assert.NoFileExists(t, src)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "A\nnew\n", string(content))
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Period file saved")
}

func TestFinalizeReplacesEarlierExport(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	fm := files.NewManager("", logger)

	downloads := t.TempDir()
	weekly := t.TempDir()
	period := domain.Period{Year: 2025, Week: 2}

	testutil.WriteRawFile(t, weekly, period.FileName(), "A\nold\n")
	src := testutil.WriteRawFile(t, downloads, "Table_export.csv", "A\nnew\n")

	path, err := Finalize(fm, src, weekly, period, logger)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "A\nnew\n", string(content))
}

func TestFinalizeMissingDownload(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	fm := files.NewManager("", logger)

	_, err := Finalize(fm, filepath.Join(t.TempDir(), "gone.csv"), t.TempDir(), domain.Period{Year: 2025, Week: 2}, logger)
	require.Error(t, err)
}

func TestFinalizeRejectsNonCSVDownload(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	fm := files.NewManager("", logger)
	weekly := t.TempDir()
	src := testutil.WriteRawFile(t, t.TempDir(), "Table_export.xlsx", "PK")

	_, err := Finalize(fm, src, weekly, domain.Period{Year: 2025, Week: 2}, logger)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeExtraction))
	assert.FileExists(t, src)
	assert.NoFileExists(t, filepath.Join(weekly, "data_week02_2025.csv"))
}
