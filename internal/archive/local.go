package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"tubeharvest/internal/fileutil"
	"tubeharvest/internal/services"
)

// LocalStore mirrors the archive into a directory tree, for NAS mounts and
// synced folders. Folder ids are absolute paths.
type LocalStore struct {
	root string
}

// NewLocalStore creates root when needed.
func NewLocalStore(root string) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, services.Wrap(services.ErrConfiguration, "archive", "local store", "archive directory is empty", nil)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "archive", "local store", "create archive directory", err)
	}
	return &LocalStore{root: root}, nil
}

// EnsureFolder creates parent/name, with the store root as default parent.
func (s *LocalStore) EnsureFolder(_ context.Context, name, parent string) (string, error) {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return "", services.Wrap(services.ErrValidation, "archive", "ensure folder", "invalid folder name "+name, nil)
	}
	if parent == "" {
		parent = s.root
	}
	dir := filepath.Join(parent, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "archive", "ensure folder", dir, err)
	}
	return dir, nil
}

// Upload copies localPath into folder and verifies the copy.
func (s *LocalStore) Upload(_ context.Context, localPath, folder string) (Result, error) {
	dest := filepath.Join(folder, filepath.Base(localPath))
	if fileutil.Exists(dest) {
		return Result{ID: dest, Skipped: true}, nil
	}
	if err := fileutil.CopyFileVerified(localPath, dest); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "archive", "copy artifact", dest, err)
	}
	return Result{ID: dest}, nil
}
