package youtube

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"tubeharvest/internal/feed"
	"tubeharvest/internal/relage"
	"tubeharvest/internal/services"
)

// RSSSource reads the public uploads feed of a channel.
type RSSSource struct {
	client    *http.Client
	baseURL   string
	userAgent string
	now       func() time.Time
}

// NewRSSSource constructs an RSS-backed source. baseURL may be empty.
func NewRSSSource(client *http.Client, userAgent, baseURL string) *RSSSource {
	if client == nil {
		client = http.DefaultClient
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &RSSSource{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		now:       time.Now,
	}
}

// Videos implements feed.Source. The whole feed is one request; items carry
// age text derived from their publish time.
func (s *RSSSource) Videos(ctx context.Context, channel string) iter.Seq2[feed.Item, error] {
	return func(yield func(feed.Item, error) bool) {
		kind, ref := feed.ClassifyChannel(channel)
		if kind != feed.ChannelID {
			yield(feed.Item{}, services.Wrap(services.ErrConfiguration, "feed", "rss", fmt.Sprintf("channel %q must be a UC... channel id for the rss source", channel), nil))
			return
		}
		parser := gofeed.NewParser()
		parser.Client = s.client
		parser.UserAgent = s.userAgent
		parsed, err := parser.ParseURLWithContext(s.baseURL+"/feeds/videos.xml?channel_id="+url.QueryEscape(ref), ctx)
		if err != nil {
			yield(feed.Item{}, classifyFeedError(err))
			return
		}
		now := s.now()
		for _, entry := range parsed.Items {
			item, ok := itemFromEntry(entry, now)
			if !ok {
				continue
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}

func itemFromEntry(entry *gofeed.Item, now time.Time) (feed.Item, bool) {
	if entry == nil {
		return feed.Item{}, false
	}
	id := extensionValue(entry, "yt", "videoId")
	if id == "" {
		if parsed, err := url.Parse(entry.Link); err == nil {
			id = parsed.Query().Get("v")
		}
	}
	if id == "" {
		return feed.Item{}, false
	}
	item := feed.Item{ID: id, Title: strings.TrimSpace(entry.Title)}
	switch {
	case entry.PublishedParsed != nil:
		item.AgeText = relage.Since(*entry.PublishedParsed, now)
	case entry.UpdatedParsed != nil:
		item.AgeText = relage.Since(*entry.UpdatedParsed, now)
	}
	return item, true
}

func extensionValue(entry *gofeed.Item, namespace, name string) string {
	ns, ok := entry.Extensions[namespace]
	if !ok {
		return ""
	}
	for _, ext := range ns[name] {
		if value := strings.TrimSpace(ext.Value); value != "" {
			return value
		}
	}
	return ""
}

func classifyFeedError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusTooManyRequests:
			return services.Wrap(services.ErrRateLimited, "feed", "rss", "http 429 too many requests", err)
		case http.StatusNotFound:
			return services.Wrap(services.ErrNotFound, "feed", "rss", "channel feed not found", err)
		}
	}
	return services.Wrap(services.ErrExternalTool, "feed", "rss", "fetch channel feed", err)
}
