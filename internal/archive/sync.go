package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"tubeharvest/internal/logging"
	"tubeharvest/internal/services"
	"tubeharvest/internal/workspace"
)

// SyncOptions controls one workspace sync.
type SyncOptions struct {
	// BaseFolder is the top-level archive folder shared by all channels.
	BaseFolder string
	// KeepLocal leaves local artifacts in place after upload.
	KeepLocal bool
}

// SyncResult counts the files handled by Sync.
type SyncResult struct {
	Uploaded int
	Skipped  int
	Removed  int
	Failed   int
}

// Sync uploads every finished artifact in ch to the configured artifact
// folders under <base>/<channel>. A file is removed locally
// only after the store reported success, including skip-if-exists. Failures
// are counted and logged; the first one is returned after all files were
// attempted.
func Sync(ctx context.Context, store Store, ch workspace.Channel, opts SyncOptions, logger *slog.Logger) (SyncResult, error) {
	var result SyncResult
	if store == nil {
		return result, nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	base, err := store.EnsureFolder(ctx, opts.BaseFolder, "")
	if err != nil {
		return result, fmt.Errorf("ensure base folder: %w", err)
	}
	channelFolder, err := store.EnsureFolder(ctx, filepath.Base(ch.Root), base)
	if err != nil {
		return result, fmt.Errorf("ensure channel folder: %w", err)
	}

	var firstErr error
	for _, dir := range ch.Dirs() {
		files, err := listArtifacts(dir)
		if err != nil {
			return result, err
		}
		if len(files) == 0 {
			continue
		}
		folder, err := store.EnsureFolder(ctx, filepath.Base(dir), channelFolder)
		if err != nil {
			return result, fmt.Errorf("ensure %s folder: %w", filepath.Base(dir), err)
		}
		for _, file := range files {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			res, err := store.Upload(ctx, file, folder)
			if err != nil {
				result.Failed++
				logging.WarnWithContext(logger, "archive upload failed", "archive_upload_failed",
					logging.String(logging.FieldErrorHint, "file stays in the workspace and is retried next run"),
					logging.String("artifact", filepath.Base(file)),
					logging.Error(err),
				)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if res.Skipped {
				result.Skipped++
				logger.Debug("archive file already present", logging.String("artifact", filepath.Base(file)))
			} else {
				result.Uploaded++
				logger.Debug("archive file uploaded", logging.String("artifact", filepath.Base(file)), logging.String("id", res.ID))
			}
			if opts.KeepLocal {
				continue
			}
			if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
				logging.WarnWithContext(logger, "remove archived file failed", "archive_cleanup_failed",
					logging.String("artifact", filepath.Base(file)),
					logging.Error(err),
					logging.String(logging.FieldImpact, "file is uploaded again next run and skipped"),
				)
				continue
			}
			result.Removed++
		}
	}
	return result, firstErr
}

func listArtifacts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrExternalTool, "archive", "list workspace", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || workspace.IsTempFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
