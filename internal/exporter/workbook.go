package exporter

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/woskam/looker-studio-automation/internal/config"
	"github.com/woskam/looker-studio-automation/pkg/contracts/domain"
)

const defaultSheet = "Sheet1"

// ErrCellTooLong reports a value longer than an xlsx cell can hold. excelize
// would silently cut it to excelize.TotalCellChars characters.
var ErrCellTooLong = errors.New("value exceeds the xlsx cell limit")

func checkCellLength(s string, row int, column string) error {
	if n := utf8.RuneCountInString(s); n > excelize.TotalCellChars {
		return fmt.Errorf("%w: data row %d column %q holds %d characters (limit %d)",
			ErrCellTooLong, row, column, n, excelize.TotalCellChars)
	}
	return nil
}

// WorkbookWriter persists the master table as an xlsx workbook.
type WorkbookWriter struct {
	sheet  string
	logger *slog.Logger
}

// NewWorkbookWriter creates a writer that puts the table on the named sheet.
func NewWorkbookWriter(sheet string, logger *slog.Logger) *WorkbookWriter {
	if sheet == "" {
		sheet = defaultSheet
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{sheet: sheet, logger: logger}
}

// Encode renders the table into xlsx bytes. Year and Week are written as
// numbers; source values go through cellValue. A value too long for a cell
// fails the encode with ErrCellTooLong instead of being truncated.
func (w *WorkbookWriter) Encode(table *domain.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if w.sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, w.sheet); err != nil {
			return nil, fmt.Errorf("failed to name sheet %q: %w", w.sheet, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	sw, err := f.NewStreamWriter(w.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := table.Header()
	headerRow := make([]interface{}, len(header))
	for i, name := range header {
		if err := checkCellLength(name, 0, fmt.Sprintf("#%d", i+1)); err != nil {
			return nil, err
		}
		headerRow[i] = excelize.Cell{StyleID: headerStyle, Value: name}
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for i, row := range table.Rows {
		values := make([]interface{}, 0, len(row.Values)+2)
		values = append(values, row.Period.Year, row.Period.Week)
		for j, v := range row.Values {
			if err := checkCellLength(v.String(), i+1, table.Columns[j]); err != nil {
				return nil, err
			}
			values = append(values, cellValue(v))
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush worksheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteMaster writes the encoded workbook to path, replacing any previous
// content.
func (w *WorkbookWriter) WriteMaster(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create master directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open master workbook: %w", err)
	}
	if err := writeAndClose(file, data); err != nil {
		return fmt.Errorf("failed to write master workbook: %w", err)
	}

	w.logger.Info("Master workbook written",
		slog.String("path", path),
		slog.Int("bytes", len(data)))
	return nil
}

// WriteBackup writes the encoded workbook next to masterPath under a
// timestamped name. An existing file with that name is never replaced.
func (w *WorkbookWriter) WriteBackup(masterPath string, data []byte, now time.Time) (string, error) {
	path := BackupPath(masterPath, now)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create backup workbook: %w", err)
	}
	if err := writeAndClose(file, data); err != nil {
		return "", fmt.Errorf("failed to write backup workbook: %w", err)
	}

	w.logger.Info("Backup workbook written", slog.String("path", path))
	return path, nil
}

// BackupPath is <dir of master>/master_data_backup_<YYYYMMDD_HHMMSS>.xlsx.
func BackupPath(masterPath string, now time.Time) string {
	name := config.BackupPrefix + now.Format(config.BackupTimeLayout) + config.BackupExt
	return filepath.Join(filepath.Dir(masterPath), name)
}

func writeAndClose(file *os.File, data []byte) error {
	if _, err := bytes.NewReader(data).WriteTo(file); err != nil {
		file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
