package scratch

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"transcriber/internal/logging"
)

// EngineDirPattern matches the per-job output directories engines create
// beside the scratch source file.
const EngineDirPattern = ".whisperx-*"

// SweepResult summarizes one sweep pass.
type SweepResult struct {
	Removed int
	Kept    int
	Failed  int
}

// Sweep deletes regular files in dir whose modification time is older than
// maxAge relative to now. Stale directories matching EngineDirPattern are
// removed with their contents; other subdirectories are left alone. A
// non-positive maxAge disables the sweep.
func Sweep(logger *slog.Logger, dir string, maxAge time.Duration, now time.Time) (SweepResult, error) {
	var result SweepResult
	if maxAge <= 0 || strings.TrimSpace(dir) == "" {
		return result, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return result, err
	}
	cutoff := now.Add(-maxAge)
	for _, entry := range entries {
		if !entry.Type().IsRegular() && !isEngineDir(entry) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			result.Kept++
			continue
		}
		fullPath := filepath.Join(dir, entry.Name())
		remove := os.Remove
		if entry.IsDir() {
			remove = os.RemoveAll
		}
		if err := remove(fullPath); err != nil && !os.IsNotExist(err) {
			result.Failed++
			logging.WarnWithContext(logger, "scratch sweep remove failed; file remains", "scratch_sweep_failed",
				logging.String("path", fullPath),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on paths.scratch_dir"),
				logging.String(logging.FieldImpact, "stale scratch file remains on disk"),
			)
			continue
		}
		result.Removed++
		if logger != nil {
			logger.Debug("scratch file swept",
				logging.String("path", fullPath),
				logging.Duration("age", now.Sub(info.ModTime()).Round(time.Second)),
				logging.String(logging.FieldEventType, "scratch_swept"),
			)
		}
	}
	if logger != nil && result.Removed > 0 {
		logger.Info("scratch sweep finished",
			logging.Int("removed", result.Removed),
			logging.Int("kept", result.Kept),
			logging.Int("failed", result.Failed),
		)
	}
	return result, nil
}

func isEngineDir(entry os.DirEntry) bool {
	if !entry.IsDir() {
		return false
	}
	matched, _ := filepath.Match(EngineDirPattern, entry.Name())
	return matched
}
