package youtube

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tubeharvest/internal/config"
	"tubeharvest/internal/feed"
	"tubeharvest/internal/services"
)

// NewSource builds the feed source selected by feed.source.
func NewSource(ctx context.Context, cfg *config.Config) (feed.Source, error) {
	client := &http.Client{Timeout: time.Duration(cfg.Feed.RequestTimeout) * time.Second}
	switch cfg.Feed.Source {
	case config.FeedBrowse, "":
		return NewBrowseSource(client, cfg.Feed.UserAgent, cfg.Feed.Language, WithMaxPages(cfg.Feed.MaxPages)), nil
	case config.FeedRSS:
		return NewRSSSource(client, cfg.Feed.UserAgent, ""), nil
	case config.FeedDataAPI:
		return NewDataAPISource(ctx, cfg.Feed.APIKey, cfg.Feed.MaxPages)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "feed", "select source", fmt.Sprintf("unsupported feed source %q", cfg.Feed.Source), nil)
	}
}

// NewTranscriptClientFromConfig builds the transcript fetcher from config.
func NewTranscriptClientFromConfig(cfg *config.Config) *TranscriptClient {
	client := &http.Client{Timeout: time.Duration(cfg.Transcripts.RequestTimeout) * time.Second}
	return NewTranscriptClient(client, cfg.Feed.UserAgent, cfg.Feed.Language, WithPreserveFormatting(cfg.Transcripts.PreserveFormatting))
}
