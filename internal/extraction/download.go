package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/woskam/looker-studio-automation/internal/files"
)

const defaultPollInterval = time.Second

// DownloadWatcher waits for the browser to finish writing an export.
type DownloadWatcher struct {
	dir       string
	pattern   string
	interval  time.Duration
	discovery *files.Discovery
	logger    *slog.Logger
}

// NewDownloadWatcher watches dir for files matching pattern.
func NewDownloadWatcher(dir, pattern string, logger *slog.Logger) *DownloadWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &DownloadWatcher{
		dir:       dir,
		pattern:   pattern,
		interval:  defaultPollInterval,
		discovery: files.NewDiscovery(""),
		logger:    logger,
	}
}

// SetInterval changes the poll interval.
func (w *DownloadWatcher) SetInterval(d time.Duration) {
	if d > 0 {
		w.interval = d
	}
}

// Wait returns the newest matching file modified at or after since, once no
// partial download remains in the directory. It gives up after timeout.
func (w *DownloadWatcher) Wait(ctx context.Context, since time.Time, timeout time.Duration) (files.FileInfo, error) {
	w.logger.InfoContext(ctx, "Waiting for download",
		slog.String("dir", w.dir),
		slog.String("pattern", w.pattern),
		slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if file, ok, err := w.poll(since); err != nil {
			return files.FileInfo{}, err
		} else if ok {
			w.logger.InfoContext(ctx, "Download complete",
				slog.String("file", file.Path),
				slog.Int64("size_bytes", file.Size))
			return file, nil
		}

		select {
		case <-ctx.Done():
			return files.FileInfo{}, fmt.Errorf("download timeout after %s: %w", timeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (w *DownloadWatcher) poll(since time.Time) (files.FileInfo, bool, error) {
	found, err := w.discovery.FindFilesByPattern(w.dir, w.pattern)
	if err != nil {
		return files.FileInfo{}, false, err
	}
	found = files.FilterModifiedSince(found, since)
	if len(found) == 0 {
		return files.FileInfo{}, false, nil
	}

	partial, err := w.discovery.HasPartialDownloads(w.dir)
	if err != nil || partial {
		return files.FileInfo{}, false, err
	}

	latest, ok := files.GetLatestFile(found)
	return latest, ok, nil
}
