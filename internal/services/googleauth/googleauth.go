// Package googleauth turns a service-account key file into an authorized HTTP
// client for the Google APIs the harvester calls.
package googleauth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2/google"

	"tubeharvest/internal/services"
)

const (
	// ScopeCloudPlatform covers Text-to-Speech.
	ScopeCloudPlatform = "https://www.googleapis.com/auth/cloud-platform"
	// ScopeDriveFile limits Drive access to files the service account created.
	ScopeDriveFile = "https://www.googleapis.com/auth/drive.file"
)

// HTTPClient reads the service-account JSON at path and returns a client that
// signs requests for scopes.
func HTTPClient(ctx context.Context, path string, scopes ...string) (*http.Client, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "auth", "service account", "credentials file not configured", nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "auth", "service account", "read "+path, err)
	}
	jwt, err := google.JWTConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "auth", "service account", fmt.Sprintf("parse %s", path), err)
	}
	return jwt.Client(ctx), nil
}
