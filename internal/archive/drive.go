package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"tubeharvest/internal/services"
)

const folderMimeType = "application/vnd.google-apps.folder"

// driveFiles is the slice of the Drive files API the store uses.
type driveFiles interface {
	find(ctx context.Context, query string) ([]*drive.File, error)
	create(ctx context.Context, meta *drive.File, media io.Reader, mimeType string) (*drive.File, error)
}

// DriveStore archives into Google Drive. Folder and file ids are Drive ids.
type DriveStore struct {
	files driveFiles
}

// NewDriveStore builds a store on an authorized HTTP client. Extra options
// are appended after the client, which lets tests point it at a fake server.
func NewDriveStore(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*DriveStore, error) {
	all := append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	svc, err := drive.NewService(ctx, all...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "archive", "drive client", "failed to create Drive service", err)
	}
	return &DriveStore{files: &driveService{svc: svc}}, nil
}

// EnsureFolder finds or creates a folder by (name, parent).
func (s *DriveStore) EnsureFolder(ctx context.Context, name, parent string) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(name), folderMimeType)
	if parent != "" {
		query += fmt.Sprintf(" and '%s' in parents", escapeQuery(parent))
	}
	found, err := s.files.find(ctx, query)
	if err != nil {
		return "", classifyDriveError("find folder", err)
	}
	if len(found) > 0 {
		return found[0].Id, nil
	}
	meta := &drive.File{Name: name, MimeType: folderMimeType}
	if parent != "" {
		meta.Parents = []string{parent}
	}
	created, err := s.files.create(ctx, meta, nil, "")
	if err != nil {
		return "", classifyDriveError("create folder", err)
	}
	return created.Id, nil
}

// Upload skips the transfer when folder already holds a file of that name.
func (s *DriveStore) Upload(ctx context.Context, localPath, folder string) (Result, error) {
	name := filepath.Base(localPath)
	query := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false", escapeQuery(name), escapeQuery(folder))
	found, err := s.files.find(ctx, query)
	if err != nil {
		return Result{}, classifyDriveError("find file", err)
	}
	if len(found) > 0 {
		return Result{ID: found[0].Id, Skipped: true}, nil
	}

	f, err := os.Open(localPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "archive", "open artifact", localPath, err)
	}
	defer f.Close()

	created, err := s.files.create(ctx, &drive.File{Name: name, Parents: []string{folder}}, f, contentType(name))
	if err != nil {
		return Result{}, classifyDriveError("upload file", err)
	}
	return Result{ID: created.Id}, nil
}

// escapeQuery quotes a value for a single-quoted Drive query literal.
func escapeQuery(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, `'`, `\'`)
}

func classifyDriveError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusNotFound:
			return services.Wrap(services.ErrNotFound, "archive", op, "Drive returned 404", err)
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500:
			return services.Wrap(services.ErrTransient, "archive", op, fmt.Sprintf("Drive returned %d", apiErr.Code), err)
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return services.Wrap(services.ErrConfiguration, "archive", op, fmt.Sprintf("Drive rejected credentials (%d)", apiErr.Code), err)
		}
	}
	return services.Wrap(services.ErrExternalTool, "archive", op, "Drive request failed", err)
}

type driveService struct {
	svc *drive.Service
}

func (d *driveService) find(ctx context.Context, query string) ([]*drive.File, error) {
	list, err := d.svc.Files.List().Q(query).Spaces("drive").Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return list.Files, nil
}

func (d *driveService) create(ctx context.Context, meta *drive.File, media io.Reader, mimeType string) (*drive.File, error) {
	call := d.svc.Files.Create(meta).Fields("id").Context(ctx)
	if media != nil {
		call = call.Media(media, googleapi.ContentType(mimeType))
	}
	return call.Do()
}
