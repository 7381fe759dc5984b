package extraction

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	apperrors "github.com/woskam/looker-studio-automation/internal/errors"
	"github.com/woskam/looker-studio-automation/internal/files"
	"github.com/woskam/looker-studio-automation/internal/validation"
)

// SessionFiles are the Chrome profile files that carry a signed-in session.
var SessionFiles = []string{"Cookies", "Login Data", "Web Data"}

// profileSubdir is the profile inside a Chrome user-data directory.
const profileSubdir = "Default"

// SessionCopy reports what CopySession did with each session file.
type SessionCopy struct {
	Source      string
	Destination string
	Copied      []string
	Missing     []string
	Failed      map[string]error
}

// CopySession copies the session files of the Chrome profile at src into
// the automation user-data directory, so exports run signed in. Chrome must
// be closed while this runs. Files absent from src are reported and
// skipped; copying nothing at all is an error.
func CopySession(fm *files.Manager, src, userDataDir string, logger *slog.Logger) (*SessionCopy, error) {
	report := &SessionCopy{
		Source:      src,
		Destination: filepath.Join(userDataDir, profileSubdir),
		Failed:      make(map[string]error),
	}

	if err := validation.NewFileValidator(logger).ValidateInputDirectory(src); err != nil {
		return report, apperrors.NewNotFoundError("Chrome profile directory").
			WithContext("source", src).
			WithContext("reason", err.Error())
	}

	logger.Info("Copying Chrome session data",
		slog.String("from", report.Source),
		slog.String("to", report.Destination))

	for _, name := range SessionFiles {
		from := filepath.Join(src, name)
		if !fm.FileExists(from) {
			logger.Warn("Session file not found", slog.String("file", name))
			report.Missing = append(report.Missing, name)
			continue
		}
		if err := fm.CopyFile(from, filepath.Join(report.Destination, name)); err != nil {
			logger.Error("Session file could not be copied",
				slog.String("file", name),
				slog.String("error", err.Error()))
			report.Failed[name] = err
			continue
		}
		logger.Info("Session file copied", slog.String("file", name))
		report.Copied = append(report.Copied, name)
	}

	if len(report.Copied) == 0 {
		return report, apperrors.NewNotFoundError("Chrome session files").
			WithContext("source", src).
			WithContext("hint", "close every Chrome window and retry")
	}
	return report, nil
}

// DefaultChromeProfile is the default profile of a regular Chrome install.
func DefaultChromeProfile() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		base := os.Getenv("LOCALAPPDATA")
		if base == "" {
			base = filepath.Join(home, "AppData", "Local")
		}
		return filepath.Join(base, "Google", "Chrome", "User Data", profileSubdir)
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Google", "Chrome", profileSubdir)
	default:
		return filepath.Join(home, ".config", "google-chrome", profileSubdir)
	}
}
