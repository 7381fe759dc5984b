package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/woskam/looker-studio-automation/internal/errors"
	"github.com/woskam/looker-studio-automation/pkg/contracts/domain"
)

const (
	workbookExt = ".xlsx"
	// excelLockPrefix starts the owner file Excel keeps next to an open workbook.
	excelLockPrefix = "~$"
	writeProbe      = ".write_test"
)

// FileValidator checks paths before a command reads or writes them. Every
// failure is logged and returned as a typed application error.
type FileValidator struct {
	logger *slog.Logger
}

func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger}
}

func (v *FileValidator) fail(err *apperrors.AppError, attrs ...any) error {
	v.logger.Error(err.Message, append(attrs, slog.Any("cause", err.Cause))...)
	return err
}

// ValidateInputDirectory reports whether dir exists and is a directory. An
// empty directory is valid; what "nothing there" means is up to the caller.
func (v *FileValidator) ValidateInputDirectory(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return v.fail(apperrors.NewAppError(apperrors.ErrTypeNotFound,
			fmt.Sprintf("directory %s does not exist", dir), err), slog.String("dir", dir))
	case err != nil:
		return v.fail(apperrors.NewStorageError(fmt.Sprintf("cannot stat directory %s", dir), err),
			slog.String("dir", dir))
	case !info.IsDir():
		return v.fail(apperrors.NewValidationError(fmt.Sprintf("%s is not a directory", dir)),
			slog.String("path", dir))
	}
	return nil
}

// ValidateOutputDirectory creates dir when needed and proves it writable
// with a probe file that is removed again.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return v.fail(apperrors.NewStorageError(fmt.Sprintf("cannot create directory %s", dir), err),
			slog.String("dir", dir))
	}

	probe := filepath.Join(dir, writeProbe)
	f, err := os.Create(probe)
	if err != nil {
		return v.fail(apperrors.NewStorageError(fmt.Sprintf("directory %s is not writable", dir), err),
			slog.String("dir", dir))
	}
	f.Close()
	os.Remove(probe)

	v.logger.Debug("Output directory writable", slog.String("dir", dir))
	return nil
}

// ValidateFile reports whether path is an existing regular file that can be
// opened for reading.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return v.fail(apperrors.NewAppError(apperrors.ErrTypeNotFound,
			fmt.Sprintf("file %s does not exist", path), err), slog.String("file", path))
	case err != nil:
		return v.fail(apperrors.NewStorageError(fmt.Sprintf("cannot stat file %s", path), err),
			slog.String("file", path))
	case info.IsDir():
		return v.fail(apperrors.NewValidationError(fmt.Sprintf("%s is a directory, not a file", path)),
			slog.String("path", path))
	}

	f, err := os.Open(path)
	if err != nil {
		return v.fail(apperrors.NewStorageError(fmt.Sprintf("file %s is not readable", path), err),
			slog.String("file", path))
	}
	f.Close()

	v.logger.Debug("File readable", slog.String("file", path), slog.Int64("size", info.Size()))
	return nil
}

// ValidateCSVFile is ValidateFile plus the .csv extension period files and
// dashboard exports carry.
func (v *FileValidator) ValidateCSVFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != domain.PeriodFileExt {
		return v.fail(apperrors.NewValidationError(fmt.Sprintf("%s is not a CSV file (extension %q)", path, ext)),
			slog.String("file", path))
	}
	return nil
}

// ValidateWorkbookPath checks that path names an .xlsx workbook, not an
// Excel lock file, in a writable directory. The workbook need not exist.
func (v *FileValidator) ValidateWorkbookPath(path string) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != workbookExt {
		return v.fail(apperrors.NewValidationError(
			fmt.Sprintf("workbook %s must have the %s extension (got %q)", path, workbookExt, ext)),
			slog.String("path", path))
	}
	if strings.HasPrefix(filepath.Base(path), excelLockPrefix) {
		return v.fail(apperrors.NewValidationError(fmt.Sprintf("workbook %s is an Excel lock file name", path)),
			slog.String("path", path))
	}
	return v.ValidateOutputDirectory(filepath.Dir(path))
}
