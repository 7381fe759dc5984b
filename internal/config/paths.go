package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths.
// Every default location is resolved against a single base directory.
type Paths struct {
	BaseDir      string
	DataDir      string
	WeeklyDir    string // period files and the master workbook
	DownloadsDir string // browser download target
	ProfileDir   string // dedicated browser profile
	LogsDir      string
	HistoryDB    string
	MetricsFile  string
}

// GetPaths returns the application paths relative to the executable location.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return NewPaths(filepath.Dir(exe)), nil
}

// NewPaths lays out the directory structure below baseDir:
//
//	<base>/
//	  ├── chrome-profile/
//	  ├── data/
//	  │   ├── weekly/      (data_weekWW_YYYY.csv + master workbook)
//	  │   ├── downloads/   (raw browser downloads)
//	  │   └── history.db
//	  └── logs/
func NewPaths(baseDir string) *Paths {
	dataDir := filepath.Join(baseDir, "data")
	logsDir := filepath.Join(baseDir, "logs")

	return &Paths{
		BaseDir:      baseDir,
		DataDir:      dataDir,
		WeeklyDir:    filepath.Join(dataDir, "weekly"),
		DownloadsDir: filepath.Join(dataDir, "downloads"),
		ProfileDir:   filepath.Join(baseDir, "chrome-profile"),
		LogsDir:      logsDir,
		HistoryDB:    filepath.Join(dataDir, "history.db"),
		MetricsFile:  filepath.Join(dataDir, "lookerweekly.prom"),
	}
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.WeeklyDir,
		p.DownloadsDir,
		p.LogsDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("weekly", p.WeeklyDir),
			slog.String("downloads", p.DownloadsDir),
			slog.String("profile", p.ProfileDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("history_db", p.HistoryDB),
			slog.String("metrics", p.MetricsFile),
		))
}
