package fsutil

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Default retry policy for RemoveAllForce.
const (
	DefaultRemoveAttempts = 3
	DefaultRemoveBackoff  = 2 * time.Second
)

// RemoveAllForce removes dir and everything beneath it, retrying up to
// attempts times with a fixed backoff. Before each retry it clears read-only
// permission bits that commonly block removal of freshly downloaded files.
// Cleanup failure must never mask a successful run, so this function logs a
// warning and returns instead of propagating an error.
func RemoveAllForce(dir string, attempts int, backoff time.Duration, logger *slog.Logger) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			makeWritable(dir)
			time.Sleep(backoff)
		}

		lastErr = os.RemoveAll(dir)
		if lastErr == nil {
			logger.Info("Removed temporary directory", slog.String("dir", dir))
			return
		}

		logger.Warn("Failed to remove temporary directory",
			slog.String("dir", dir),
			slog.Int("attempt", attempt),
			slog.String("error", lastErr.Error()),
		)
	}

	logger.Warn("Leaving temporary directory for manual removal",
		slog.String("dir", dir),
		slog.String("error", lastErr.Error()),
	)
}

// makeWritable walks the tree and sets owner-write permissions on every entry
// it can reach. Walk errors are ignored; the subsequent RemoveAll reports the
// outcome.
func makeWritable(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			_ = os.Chmod(path, 0755)
		} else {
			_ = os.Chmod(path, 0644)
		}
		return nil
	})
}
