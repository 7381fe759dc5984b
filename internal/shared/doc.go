// Package shared holds helpers used by more than one package. Its testutil
// subpackage captures slog output and writes period CSV fixtures for tests.
package shared
