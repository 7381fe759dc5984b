package config

// Application constants
const (
	AppName    = "lookerweekly"
	AppVersion = "1.0.0"

	// BackupPrefix and BackupTimeLayout name the timestamped master copy,
	// e.g. master_data_backup_20250113_070000.xlsx.
	BackupPrefix     = "master_data_backup_"
	BackupTimeLayout = "20060102_150405"
	BackupExt        = ".xlsx"

	// ExitSuccess and ExitFailure are the only process exit codes.
	ExitSuccess = 0
	ExitFailure = 1
)
