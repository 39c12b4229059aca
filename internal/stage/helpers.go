package stage

import (
	"os"
	"strings"

	"tubeharvest/internal/fileutil"
	"tubeharvest/internal/services"
)

// LoadArtifact reads a stored stage output. An empty file counts as missing
// so a truncated artifact is regenerated instead of propagated.
func LoadArtifact(stageName, path string) (string, bool, error) {
	if !fileutil.Exists(path) {
		return "", false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, services.Wrap(
			services.ErrValidation, stageName, "load artifact",
			"Stored artifact unreadable; delete it to regenerate", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", false, nil
	}
	return text, true, nil
}

// StoreArtifact writes text atomically.
func StoreArtifact(stageName, path, text string) error {
	if err := fileutil.WriteFileAtomic(path, []byte(text), 0o644); err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "store artifact", path, err)
	}
	return nil
}
