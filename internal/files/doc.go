// Package files provides file system operations and discovery utilities.
//
// Discovery finds files by glob pattern (period files, browser downloads)
// and reports downloads that are still in progress.
//
// Manager copies, moves and deletes files. Relative paths resolve against a
// base directory to keep the tool independent of the working directory.
//
//	discovery := files.NewDiscovery(paths.BaseDir)
//	periodFiles, err := discovery.FindFilesByPattern(paths.WeeklyDir, "data_week*.csv")
//
//	manager := files.NewManager(paths.BaseDir, logger)
//	err = manager.MoveFile(download.Path, filepath.Join(paths.WeeklyDir, "data_week03_2025.csv"))
package files
