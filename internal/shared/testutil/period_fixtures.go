package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// WritePeriodFile writes a CSV with header and rows into dir under name and
// returns its path.
func WritePeriodFile(t *testing.T, dir, name string, header []string, rows ...[]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.Write(header))
	require.NoError(t, w.WriteAll(rows))
	return path
}

// WriteRawFile writes content verbatim, for malformed inputs.
func WriteRawFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// Rows builds n rows of the form {prefix-i, i} for a two-column header.
func Rows(prefix string, n int) [][]string {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{prefix + "-" + strconv.Itoa(i), strconv.Itoa(i)}
	}
	return rows
}
