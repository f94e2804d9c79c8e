// Package fsutil provides best-effort filesystem cleanup for run-scoped
// temporary directories.
package fsutil
