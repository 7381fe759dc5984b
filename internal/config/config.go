package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of every environment override, e.g.
// WEEKLY_CONSOLIDATION_INPUT_DIR.
const EnvPrefix = "WEEKLY"

// DefaultMasterFile is the master workbook name used when none is configured.
const DefaultMasterFile = "master_data_all_weeks.xlsx"

// Config represents the complete application configuration
type Config struct {
	Logging       LoggingConfig       `yaml:"logging" envconfig:"LOGGING"`
	Consolidation ConsolidationConfig `yaml:"consolidation" envconfig:"CONSOLIDATION"`
	Extraction    ExtractionConfig    `yaml:"extraction" envconfig:"EXTRACTION"`
	History       HistoryConfig       `yaml:"history" envconfig:"HISTORY"`
	Telemetry     TelemetryConfig     `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=text json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// ConsolidationConfig is everything that affects a consolidation run.
type ConsolidationConfig struct {
	InputDir   string `yaml:"input_dir" envconfig:"INPUT_DIR" validate:"required"`
	MasterFile string `yaml:"master_file" envconfig:"MASTER_FILE" validate:"required,endswith=.xlsx"`
	SheetName  string `yaml:"sheet_name" envconfig:"SHEET_NAME" validate:"required,max=31"`
}

// ExtractionConfig drives the browser export.
type ExtractionConfig struct {
	ReportURL        string `yaml:"report_url" envconfig:"REPORT_URL" validate:"omitempty,url"`
	OutputDir        string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	DownloadDir      string `yaml:"download_dir" envconfig:"DOWNLOAD_DIR" validate:"required"`
	DownloadPattern  string `yaml:"download_pattern" envconfig:"DOWNLOAD_PATTERN" validate:"required"`
	ProfileDir       string `yaml:"profile_dir" envconfig:"PROFILE_DIR" validate:"required"`
	Headless         bool   `yaml:"headless" envconfig:"HEADLESS"`
	DebugScreenshots bool   `yaml:"debug_screenshots" envconfig:"DEBUG_SCREENSHOTS"`

	InitialWait       time.Duration `yaml:"initial_wait" envconfig:"INITIAL_WAIT" validate:"min=0"`
	LoginWait         time.Duration `yaml:"login_wait" envconfig:"LOGIN_WAIT" validate:"min=0"`
	DashboardLoadWait time.Duration `yaml:"dashboard_load_wait" envconfig:"DASHBOARD_LOAD_WAIT" validate:"min=0"`
	DateFilterWait    time.Duration `yaml:"date_filter_wait" envconfig:"DATE_FILTER_WAIT" validate:"min=0"`
	LoadingTimeout    time.Duration `yaml:"loading_timeout" envconfig:"LOADING_TIMEOUT" validate:"min=0"`
	MenuWait          time.Duration `yaml:"menu_wait" envconfig:"MENU_WAIT" validate:"min=0"`
	ExportWait        time.Duration `yaml:"export_wait" envconfig:"EXPORT_WAIT" validate:"min=0"`
	DownloadTimeout   time.Duration `yaml:"download_timeout" envconfig:"DOWNLOAD_TIMEOUT" validate:"gt=0"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
}

// HistoryConfig controls the SQLite run ledger.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"ENABLED"`
	Path    string `yaml:"path" envconfig:"PATH" validate:"required_if=Enabled true"`
}

// TelemetryConfig selects the trace exporter and the metrics textfile.
type TelemetryConfig struct {
	ServiceName     string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TraceExporter   string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout"`
	MetricsTextfile string `yaml:"metrics_textfile" envconfig:"METRICS_TEXTFILE"`
}

// MasterPath resolves the master workbook location. A bare file name is
// placed in the input directory.
func (c ConsolidationConfig) MasterPath() string {
	if filepath.IsAbs(c.MasterFile) || strings.ContainsAny(c.MasterFile, `/\`) {
		return c.MasterFile
	}
	return filepath.Join(c.InputDir, c.MasterFile)
}

// PeriodDir is where renamed period files are written; it defaults to the
// consolidation input directory so the two components meet on disk.
func (c *Config) PeriodDir() string {
	if c.Extraction.OutputDir != "" {
		return c.Extraction.OutputDir
	}
	return c.Consolidation.InputDir
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is empty the well-known locations are searched), then WEEKLY_*
// environment overrides. The result is validated.
func Load(path string, paths *Paths) (*Config, error) {
	cfg := Default(paths)

	if path == "" {
		path = findConfigFile(paths)
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// mergeFile overlays the YAML file on top of the current values; keys
// absent from the file keep their defaults.
func (c *Config) mergeFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// findConfigFile returns the first existing well-known config file, or "".
func findConfigFile(paths *Paths) string {
	locations := []string{"lookerweekly.yaml", filepath.Join("configs", "lookerweekly.yaml")}
	if paths != nil {
		locations = append(locations,
			filepath.Join(paths.BaseDir, "lookerweekly.yaml"),
			filepath.Join(paths.BaseDir, "configs", "lookerweekly.yaml"))
	}

	for _, location := range locations {
		if FileExists(location) {
			return location
		}
	}
	return ""
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	return nil
}

// ValidateForExtraction adds the constraints only the browser export needs.
func (c *Config) ValidateForExtraction() error {
	if c.Extraction.ReportURL == "" {
		return fmt.Errorf("extraction.report_url is required")
	}
	if c.PeriodDir() == "" {
		return fmt.Errorf("extraction.output_dir is required")
	}
	return nil
}

// Default returns default configuration. Paths supplies the directory
// defaults; nil keeps them relative to the working directory.
func Default(paths *Paths) *Config {
	if paths == nil {
		paths = NewPaths(".")
	}

	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Output:   "both",
			FilePath: paths.GetLogPath("lookerweekly.log"),
		},
		Consolidation: ConsolidationConfig{
			InputDir:   paths.WeeklyDir,
			MasterFile: DefaultMasterFile,
			SheetName:  "Sheet1",
		},
		Extraction: ExtractionConfig{
			DownloadDir:       paths.DownloadsDir,
			DownloadPattern:   "*Table*.csv",
			ProfileDir:        paths.ProfileDir,
			Headless:          false,
			DebugScreenshots:  true,
			InitialWait:       5 * time.Second,
			LoginWait:         60 * time.Second,
			DashboardLoadWait: 10 * time.Second,
			DateFilterWait:    20 * time.Second,
			LoadingTimeout:    30 * time.Second,
			MenuWait:          3 * time.Second,
			ExportWait:        10 * time.Second,
			DownloadTimeout:   60 * time.Second,
			Timeout:           15 * time.Minute,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    paths.HistoryDB,
		},
		Telemetry: TelemetryConfig{
			ServiceName:     "lookerweekly",
			TraceExporter:   "none",
			MetricsTextfile: paths.MetricsFile,
		},
	}
}
