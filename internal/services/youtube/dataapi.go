package youtube

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"tubeharvest/internal/feed"
	"tubeharvest/internal/relage"
	"tubeharvest/internal/services"
)

const playlistPageSize = 50

// DataAPISource pages a channel's uploads playlist through the Data API.
type DataAPISource struct {
	service  *ytapi.Service
	maxPages int
	now      func() time.Time
}

// NewDataAPISource builds the API client. Extra options are appended after the
// API key, so tests can redirect the endpoint.
func NewDataAPISource(ctx context.Context, apiKey string, maxPages int, opts ...option.ClientOption) (*DataAPISource, error) {
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "feed", "data api", "api key required", nil)
	}
	all := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := ytapi.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &DataAPISource{service: svc, maxPages: maxPages, now: time.Now}, nil
}

// Videos implements feed.Source.
func (s *DataAPISource) Videos(ctx context.Context, channel string) iter.Seq2[feed.Item, error] {
	return func(yield func(feed.Item, error) bool) {
		uploads, err := s.uploadsPlaylist(ctx, channel)
		if err != nil {
			yield(feed.Item{}, err)
			return
		}
		token := ""
		for pages := 1; ; pages++ {
			call := s.service.PlaylistItems.List([]string{"snippet", "contentDetails"}).
				PlaylistId(uploads).
				MaxResults(playlistPageSize).
				Context(ctx)
			if token != "" {
				call = call.PageToken(token)
			}
			resp, err := call.Do()
			if err != nil {
				yield(feed.Item{}, classifyAPIError(err, "list uploads"))
				return
			}
			now := s.now()
			for _, entry := range resp.Items {
				item, ok := itemFromPlaylistEntry(entry, now)
				if !ok {
					continue
				}
				if !yield(item, nil) {
					return
				}
			}
			token = resp.NextPageToken
			if token == "" || (s.maxPages > 0 && pages >= s.maxPages) {
				return
			}
		}
	}
}

func (s *DataAPISource) uploadsPlaylist(ctx context.Context, channel string) (string, error) {
	call := s.service.Channels.List([]string{"contentDetails"}).Context(ctx)
	kind, ref := feed.ClassifyChannel(channel)
	switch kind {
	case feed.ChannelID:
		call = call.Id(ref)
	case feed.ChannelHandle:
		call = call.ForHandle(ref)
	default:
		call = call.ForUsername(ref)
	}
	resp, err := call.Do()
	if err != nil {
		return "", classifyAPIError(err, "resolve channel")
	}
	for _, ch := range resp.Items {
		if ch.ContentDetails != nil && ch.ContentDetails.RelatedPlaylists != nil && ch.ContentDetails.RelatedPlaylists.Uploads != "" {
			return ch.ContentDetails.RelatedPlaylists.Uploads, nil
		}
	}
	return "", services.Wrap(services.ErrNotFound, "feed", "resolve channel", fmt.Sprintf("no uploads playlist for %q", channel), nil)
}

func itemFromPlaylistEntry(entry *ytapi.PlaylistItem, now time.Time) (feed.Item, bool) {
	if entry == nil {
		return feed.Item{}, false
	}
	var item feed.Item
	var published string
	if entry.ContentDetails != nil {
		item.ID = entry.ContentDetails.VideoId
		published = entry.ContentDetails.VideoPublishedAt
	}
	if entry.Snippet != nil {
		item.Title = entry.Snippet.Title
		if item.ID == "" && entry.Snippet.ResourceId != nil {
			item.ID = entry.Snippet.ResourceId.VideoId
		}
		if published == "" {
			published = entry.Snippet.PublishedAt
		}
	}
	if item.ID == "" {
		return feed.Item{}, false
	}
	if ts, err := time.Parse(time.RFC3339, published); err == nil {
		item.AgeText = relage.Since(ts, now)
	}
	return item, true
}

func classifyAPIError(err error, op string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return services.Wrap(services.ErrRateLimited, "feed", op, "http 429", err)
		case apiErr.Code == http.StatusForbidden && hasReason(apiErr, "quotaExceeded", "rateLimitExceeded"):
			return services.Wrap(services.ErrRateLimited, "feed", op, "quota exhausted", err)
		case apiErr.Code == http.StatusNotFound:
			return services.Wrap(services.ErrNotFound, "feed", op, "", err)
		}
	}
	return services.Wrap(services.ErrExternalTool, "feed", op, "youtube data api", err)
}

func hasReason(apiErr *googleapi.Error, reasons ...string) bool {
	for _, item := range apiErr.Errors {
		for _, reason := range reasons {
			if item.Reason == reason {
				return true
			}
		}
	}
	return false
}
