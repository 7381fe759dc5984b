// Package consolidation rebuilds the master workbook from the weekly period
// files in one directory.
//
// A run discovers data_week*.csv files, decodes each file's Period from its
// name, loads its records, merges every batch into one table aligned by
// column name and sorted by (Year, Week), then writes the master workbook
// and a timestamped backup. A file whose name or content cannot be read is
// skipped and logged; the run fails only when nothing was found, nothing
// loaded, or a workbook could not be written.
package consolidation
