package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strings"

	"tubeharvest/internal/feed"
	"tubeharvest/internal/services"
)

// BrowseSource lists a channel by walking its /videos page.
type BrowseSource struct {
	client   httpDoer
	baseURL  string
	headers  requestOptions
	maxPages int
}

// BrowseOption customizes a BrowseSource.
type BrowseOption func(*BrowseSource)

// WithBrowseBaseURL points the source at another host. Used by tests.
func WithBrowseBaseURL(base string) BrowseOption {
	return func(s *BrowseSource) {
		s.baseURL = strings.TrimRight(base, "/")
	}
}

// WithMaxPages bounds how many listing pages are fetched. Zero means no bound.
func WithMaxPages(n int) BrowseOption {
	return func(s *BrowseSource) {
		if n >= 0 {
			s.maxPages = n
		}
	}
}

// NewBrowseSource constructs the page-walking source.
func NewBrowseSource(client *http.Client, userAgent, language string, opts ...BrowseOption) *BrowseSource {
	s := &BrowseSource{
		client:  client,
		baseURL: defaultBaseURL,
		headers: requestOptions{userAgent: userAgent, language: language},
	}
	if s.client == nil {
		s.client = http.DefaultClient
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Videos implements feed.Source. Pages are fetched only when the consumer
// pulls past the end of the previous one.
func (s *BrowseSource) Videos(ctx context.Context, channel string) iter.Seq2[feed.Item, error] {
	return func(yield func(feed.Item, error) bool) {
		page, cfg, err := s.firstPage(ctx, channel)
		if err != nil {
			yield(feed.Item{}, err)
			return
		}
		seen := make(map[string]struct{})
		for pages := 1; ; pages++ {
			for _, item := range page.items {
				if _, dup := seen[item.ID]; dup {
					continue
				}
				seen[item.ID] = struct{}{}
				if !yield(item, nil) {
					return
				}
			}
			if page.continuation == "" || (s.maxPages > 0 && pages >= s.maxPages) {
				return
			}
			page, err = s.nextPage(ctx, cfg, page.continuation)
			if err != nil {
				yield(feed.Item{}, err)
				return
			}
		}
	}
}

func (s *BrowseSource) channelURL(channel string) string {
	kind, ref := feed.ClassifyChannel(channel)
	switch kind {
	case feed.ChannelID:
		return s.baseURL + "/channel/" + url.PathEscape(ref) + "/videos"
	case feed.ChannelHandle:
		return s.baseURL + "/" + url.PathEscape(ref) + "/videos"
	default:
		return s.baseURL + "/@" + url.PathEscape(ref) + "/videos"
	}
}

func (s *BrowseSource) firstPage(ctx context.Context, channel string) (pageItems, innertubeConfig, error) {
	target := s.channelURL(channel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return pageItems{}, innertubeConfig{}, fmt.Errorf("build channel request: %w", err)
	}
	s.headers.apply(req)
	body, err := fetch(s.client, req, "feed", "fetch channel page")
	if err != nil {
		return pageItems{}, innertubeConfig{}, err
	}
	data, err := extractInitialData(body)
	if err != nil {
		return pageItems{}, innertubeConfig{}, services.Wrap(services.ErrExternalTool, "feed", "parse channel page", target, err)
	}
	var page pageItems
	collectVideos(data, &page)
	return page, parseInnertubeConfig(body), nil
}

type browseRequest struct {
	Context      innertubeContext `json:"context"`
	Continuation string           `json:"continuation"`
}

type innertubeContext struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
	HL            string `json:"hl,omitempty"`
}

func (s *BrowseSource) nextPage(ctx context.Context, cfg innertubeConfig, token string) (pageItems, error) {
	payload, err := json.Marshal(browseRequest{
		Context: innertubeContext{Client: innertubeClient{
			ClientName:    webClientName,
			ClientVersion: cfg.clientVersion,
			HL:            s.headers.language,
		}},
		Continuation: token,
	})
	if err != nil {
		return pageItems{}, fmt.Errorf("encode browse request: %w", err)
	}
	endpoint := s.baseURL + "/youtubei/v1/browse"
	if cfg.apiKey != "" {
		endpoint += "?key=" + url.QueryEscape(cfg.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return pageItems{}, fmt.Errorf("build browse request: %w", err)
	}
	s.headers.apply(req)
	req.Header.Set("Content-Type", "application/json")
	body, err := fetch(s.client, req, "feed", "fetch continuation")
	if err != nil {
		return pageItems{}, err
	}
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return pageItems{}, services.Wrap(services.ErrExternalTool, "feed", "decode continuation", "", err)
	}
	var page pageItems
	collectVideos(data, &page)
	return page, nil
}
