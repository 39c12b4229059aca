package preflight

import (
	"fmt"
	"strings"

	"tubeharvest/internal/config"
	"tubeharvest/internal/stage"
)

// CheckFeedFromConfig summarizes the feed backend from config alone.
func CheckFeedFromConfig(cfg *config.Config) Result {
	const name = "Feed"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	switch cfg.Feed.Source {
	case config.FeedDataAPI:
		if strings.TrimSpace(cfg.Feed.APIKey) == "" {
			return Result{Name: name, Detail: "data_api: missing API key (set YOUTUBE_API_KEY)"}
		}
		return Result{Name: name, Passed: true, Detail: "data_api"}
	case config.FeedRSS:
		for _, channel := range cfg.Channels {
			if !strings.HasPrefix(channel, "UC") {
				return Result{Name: name, Detail: fmt.Sprintf("rss: %q is not a channel id (UC...)", channel)}
			}
		}
		return Result{Name: name, Passed: true, Detail: "rss"}
	default:
		return Result{Name: name, Passed: true, Detail: cfg.Feed.Source}
	}
}

// CheckArchiveFromConfig summarizes the archive backend from config alone.
func CheckArchiveFromConfig(cfg *config.Config) Result {
	const name = "Archive"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	switch cfg.Archive.Backend {
	case config.ArchiveNone:
		return Result{Name: name, Passed: true, Detail: "Disabled (artifacts stay in the workspace)"}
	case config.ArchiveDrive:
		if strings.TrimSpace(cfg.Archive.Drive.CredentialsFile) == "" {
			return Result{Name: name, Detail: "drive: missing credentials file"}
		}
		return Result{Name: name, Passed: true, Detail: "drive: " + cfg.Archive.BaseFolder}
	case config.ArchiveS3:
		if cfg.Archive.S3.Bucket == "" {
			return Result{Name: name, Detail: "s3: missing bucket"}
		}
		target := "s3://" + cfg.Archive.S3.Bucket
		if cfg.Archive.S3.Prefix != "" {
			target += "/" + cfg.Archive.S3.Prefix
		}
		return Result{Name: name, Passed: true, Detail: target}
	case config.ArchiveLocal:
		if cfg.Archive.Local.Dir == "" {
			return Result{Name: name, Detail: "local: missing directory"}
		}
		return Result{Name: name, Passed: true, Detail: cfg.Archive.Local.Dir}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unsupported backend %q", cfg.Archive.Backend)}
	}
}

// FromStageHealth converts pipeline stage health into results.
func FromStageHealth(health []stage.Health) []Result {
	out := make([]Result, 0, len(health))
	for _, h := range health {
		detail := h.Detail
		if h.Ready && detail == "" {
			detail = "Ready"
		}
		out = append(out, Result{Name: "Stage " + h.Name, Passed: h.Ready, Detail: detail})
	}
	return out
}
