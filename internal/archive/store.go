package archive

import (
	"context"
	"fmt"
	"strings"

	"tubeharvest/internal/config"
	"tubeharvest/internal/services"
	"tubeharvest/internal/services/googleauth"
)

// Store is a remote archive.
type Store interface {
	// EnsureFolder returns the id of the folder called name under parent,
	// creating it when missing. An empty parent means the store root.
	EnsureFolder(ctx context.Context, name, parent string) (string, error)
	// Upload copies the local file into folder unless a file with the same
	// name already exists there.
	Upload(ctx context.Context, localPath, folder string) (Result, error)
}

// Result describes one upload.
type Result struct {
	ID      string
	Skipped bool
}

// Open builds the store selected by cfg.Archive.Backend. The none backend
// returns a nil store.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "archive", "open", "config is nil", nil)
	}
	switch cfg.Archive.Backend {
	case config.ArchiveNone:
		return nil, nil
	case config.ArchiveLocal:
		return NewLocalStore(cfg.Archive.Local.Dir)
	case config.ArchiveS3:
		return NewS3Store(ctx, cfg.Archive.S3)
	case config.ArchiveDrive:
		client, err := googleauth.HTTPClient(ctx, cfg.Archive.Drive.CredentialsFile, googleauth.ScopeDriveFile)
		if err != nil {
			return nil, err
		}
		return NewDriveStore(ctx, client)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "archive", "open", fmt.Sprintf("unsupported backend %q", cfg.Archive.Backend), nil)
	}
}

// contentType maps the artifact extensions to upload MIME types.
func contentType(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".mp3"):
		return "audio/mpeg"
	case strings.HasSuffix(lower, ".txt"):
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
