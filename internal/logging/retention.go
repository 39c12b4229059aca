package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// PruneRunLogs deletes per-run JSON logs in logDir older than retentionDays.
// current, the log of the active run, is never removed. A retentionDays of 0
// keeps everything.
func PruneRunLogs(logger *slog.Logger, logDir string, retentionDays int, current string) {
	if retentionDays <= 0 || logDir == "" {
		return
	}
	matches, err := filepath.Glob(filepath.Join(logDir, RunLogPattern))
	if err != nil {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	keep := absPath(current)

	pruned := 0
	for _, path := range matches {
		if current != "" && absPath(path) == keep {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "run log prune failed", "log_retention_failed",
				String("log_path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions and log_dir ownership"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		pruned++
	}
	if pruned > 0 && logger != nil {
		logger.Debug("run logs pruned",
			String(FieldEventType, "log_pruned"),
			Int("count", pruned),
			Int("retention_days", retentionDays),
		)
	}
}

func absPath(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
