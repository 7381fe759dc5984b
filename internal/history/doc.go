// Package history keeps a SQLite ledger of consolidation runs: one row per
// run with its counts, artifacts and error, and one row per discovered
// period file with its outcome.
package history
