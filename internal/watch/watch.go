package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kedrpeek/Voice-RVC/internal/poll"
)

// partialSuffixes are filename endings that mark an in-progress download.
// Files carrying one of these never count as arrived.
var partialSuffixes = []string{".crdownload", ".part", ".tmp", ".download"}

// Watcher detects new files appearing in a directory via bounded polling.
type Watcher struct {
	Waiter poll.Waiter
}

// NewWatcher creates a watcher polling at the given interval.
func NewWatcher(interval time.Duration) *Watcher {
	return &Watcher{Waiter: poll.NewWaiter(interval)}
}

// ListFiles returns the set of completed (non-partial) regular file names in
// dir.
func ListFiles(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory %s: %w", dir, err)
	}

	files := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || isPartial(entry.Name()) {
			continue
		}
		files[entry.Name()] = struct{}{}
	}
	return files, nil
}

// ModifiedTime returns the modification timestamp of path.
func ModifiedTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.ModTime(), nil
}

// AwaitNewFile polls dir until a completed file not present in before
// appears, returning its full path. When several new files exist, the most
// recently modified one wins. Returns poll.ErrTimeout when the ceiling
// elapses first.
func (w *Watcher) AwaitNewFile(ctx context.Context, dir string, before map[string]struct{}, ceiling time.Duration) (string, error) {
	var found string

	err := w.Waiter.Until(ctx, ceiling, func(context.Context) (bool, error) {
		current, err := ListFiles(dir)
		if err != nil {
			return false, err
		}

		var newest string
		var newestTime time.Time
		for name := range current {
			if _, known := before[name]; known {
				continue
			}
			mtime, err := ModifiedTime(filepath.Join(dir, name))
			if err != nil {
				// The file may have been renamed between listing and
				// stat; treat it as not arrived yet.
				continue
			}
			if newest == "" || mtime.After(newestTime) {
				newest = name
				newestTime = mtime
			}
		}
		if newest == "" {
			return false, nil
		}
		found = filepath.Join(dir, newest)
		return true, nil
	})
	if err != nil {
		return "", err
	}
	return found, nil
}

func isPartial(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
