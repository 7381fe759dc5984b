package extraction

import (
	"log/slog"
	"path/filepath"

	apperrors "github.com/woskam/looker-studio-automation/internal/errors"
	"github.com/woskam/looker-studio-automation/internal/files"
	"github.com/woskam/looker-studio-automation/internal/validation"
	"github.com/woskam/looker-studio-automation/pkg/contracts/domain"
)

// Finalize moves a finished download to <dir>/data_week<WW>_<YYYY>.csv,
// replacing an earlier export of the same period. The download must be a
// readable .csv file.
func Finalize(fm *files.Manager, downloaded, dir string, period domain.Period, logger *slog.Logger) (string, error) {
	if err := validation.NewFileValidator(logger).ValidateCSVFile(downloaded); err != nil {
		return "", apperrors.NewExtractionError("downloaded export is not usable", err).
			WithContext("source", downloaded)
	}

	if err := fm.CreateDirectory(dir); err != nil {
		return "", apperrors.NewStorageError("failed to create period directory", err).
			WithContext("dir", dir)
	}

	dest := filepath.Join(dir, period.FileName())
	if err := fm.MoveFile(downloaded, dest); err != nil {
		return "", apperrors.NewStorageError("failed to store period file", err).
			WithContext("source", downloaded).
			WithContext("path", dest)
	}

	logger.Info("Period file saved",
		slog.String("path", dest),
		slog.String("period", period.String()))
	return dest, nil
}
