package workspace

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tubeharvest/internal/logging"
)

// CleanResult contains the outcome of a temp-file sweep.
type CleanResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes temporary files left by interrupted atomic writes that
// are older than maxAge. Finished artifacts are never touched.
func (c Channel) CleanStale(maxAge time.Duration, logger *slog.Logger) CleanResult {
	result := CleanResult{}
	cutoff := time.Now().Add(-maxAge)

	for _, dir := range append([]string{c.Root}, c.Dirs()...) {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
			}
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !IsTempFile(entry.Name()) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			info, err := entry.Info()
			if err != nil {
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.Remove(path); err != nil {
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
				logging.WarnWithContext(logger, "failed to remove stale temp file", "workspace_cleanup_failed",
					logging.String("file_path", path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check workspace_dir permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
				continue
			}
			result.Removed = append(result.Removed, path)
			if logger != nil {
				logger.Debug("removed stale temp file",
					logging.String("file_path", path),
					logging.Duration("age", time.Since(info.ModTime())),
					logging.String(logging.FieldEventType, "workspace_cleanup"),
				)
			}
		}
	}
	return result
}

// ChannelInfo summarizes a channel folder for status output.
type ChannelInfo struct {
	Name    string
	Path    string
	Pending int
	Size    int64
	ModTime time.Time
}

// ListChannels returns every channel folder under dir with the count and
// size of artifacts still waiting for archival.
func ListChannels(dir string, folders Folders) ([]ChannelInfo, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []ChannelInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		ch := channelAt(filepath.Join(dir, entry.Name()), entry.Name(), folders, Naming{})
		pending, err := ch.Pending()
		if err != nil {
			return nil, err
		}
		var size int64
		for _, path := range pending {
			if st, err := os.Stat(path); err == nil {
				size += st.Size()
			}
		}
		out = append(out, ChannelInfo{
			Name:    entry.Name(),
			Path:    ch.Root,
			Pending: len(pending),
			Size:    size,
			ModTime: info.ModTime(),
		})
	}
	return out, nil
}
