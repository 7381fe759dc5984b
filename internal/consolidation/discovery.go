package consolidation

import (
	"errors"
	"io/fs"

	apperrors "github.com/woskam/looker-studio-automation/internal/errors"
	"github.com/woskam/looker-studio-automation/internal/files"
	"github.com/woskam/looker-studio-automation/pkg/contracts/domain"
)

// Discover lists the period files in dir in name order. Files that do not
// match data_week*.csv are ignored. A missing directory and an empty result
// are both reported as a discovery-empty error.
func Discover(dir string) ([]files.FileInfo, error) {
	found, err := files.NewDiscovery("").FindFilesByPattern(dir, domain.PeriodFileGlob)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewDiscoveryEmptyError(dir).WithContext("reason", err.Error())
		}
		return nil, apperrors.NewStorageError("failed to scan input directory", err).
			WithContext("dir", dir)
	}
	if len(found) == 0 {
		return nil, apperrors.NewDiscoveryEmptyError(dir).
			WithContext("pattern", domain.PeriodFileGlob)
	}
	return found, nil
}
