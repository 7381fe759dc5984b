// Package config provides configuration loading for the weekly export tool.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Command line flags (applied by the caller)
//  2. Environment variables prefixed WEEKLY_
//  3. A YAML file (lookerweekly.yaml next to the binary or passed with --config)
//  4. Default values
//
// # Environment Variables
//
//	WEEKLY_CONSOLIDATION_INPUT_DIR=/srv/weekly
//	WEEKLY_CONSOLIDATION_MASTER_FILE=master_data_all_weeks.xlsx
//	WEEKLY_EXTRACTION_REPORT_URL=https://lookerstudio.google.com/reporting/...
//	WEEKLY_LOGGING_LEVEL=debug
//
// # Paths
//
// Default directories are resolved relative to the executable, never the
// working directory, so a scheduler can start the binary from anywhere.
package config
