// Package startup provides utilities for application startup tasks.
package startup

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultCleanupAge is the minimum age of a temp file before it counts as orphaned.
const DefaultCleanupAge = 1 * time.Hour

// CleanupOrphanedTempFiles removes temp files left next to target by
// interrupted atomic writes. Only files named ".<base>.*.tmp" and older than
// maxAge are removed, so a write in progress is never touched.
//
// Returns the number of files removed and any error encountered.
func CleanupOrphanedTempFiles(logger *slog.Logger, target string, maxAge time.Duration) (int, error) {
	dir := filepath.Dir(target)
	prefix := "." + filepath.Base(target) + "."

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("snapshot directory does not exist, skipping cleanup",
				"path", dir,
			)
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	var removed int

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".tmp") {
			continue
		}

		path := filepath.Join(dir, name)
		info, err := entry.Info()
		if err != nil {
			logger.Debug("failed to stat temp file", "path", path, "error", err)
			continue
		}

		if info.ModTime().After(cutoff) {
			logger.Debug("preserving recent temp file",
				"path", path,
				"age", time.Since(info.ModTime()).Round(time.Second),
			)
			continue
		}

		if err := os.Remove(path); err != nil {
			logger.Warn("failed to remove orphaned temp file",
				"path", path,
				"error", err,
			)
			continue
		}

		logger.Debug("removed orphaned temp file",
			"path", path,
			"age", time.Since(info.ModTime()).Round(time.Second),
		)
		removed++
	}

	return removed, nil
}
