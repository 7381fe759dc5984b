// Package exporter writes the master table as an xlsx workbook.
//
// WorkbookWriter encodes a table once with excelize's stream writer and
// writes the same bytes twice: to the master path, replacing any earlier
// master, and to a timestamped backup next to it that is never replaced.
// Cells that look numeric are written as numbers; missing values are left
// empty.
//
//	w := exporter.NewWorkbookWriter("Sheet1", logger)
//	data, err := w.Encode(table)
//	err = w.WriteMaster(masterPath, data)
//	backup, err := w.WriteBackup(masterPath, data, time.Now())
package exporter
