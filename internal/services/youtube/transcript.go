package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"tubeharvest/internal/services"
)

const (
	playerClientName    = "ANDROID"
	playerClientVersion = "20.10.38"
)

var (
	allTagsPattern        = regexp.MustCompile(`<[^>]*>`)
	nonFormattingTagsExpr = regexp.MustCompile(`(?i)</?(?:[a-z][a-z0-9]*)\b[^>]*>`)
	formattingTags        = map[string]struct{}{
		"strong": {}, "em": {}, "b": {}, "i": {}, "mark": {},
		"small": {}, "del": {}, "ins": {}, "sub": {}, "sup": {},
	}
)

// TranscriptClient downloads caption tracks for a video.
type TranscriptClient struct {
	client             httpDoer
	baseURL            string
	headers            requestOptions
	preserveFormatting bool
}

// TranscriptOption customizes a TranscriptClient.
type TranscriptOption func(*TranscriptClient)

// WithTranscriptBaseURL points the client at another host. Used by tests.
func WithTranscriptBaseURL(base string) TranscriptOption {
	return func(c *TranscriptClient) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithPreserveFormatting keeps inline emphasis tags in caption text.
func WithPreserveFormatting(preserve bool) TranscriptOption {
	return func(c *TranscriptClient) {
		c.preserveFormatting = preserve
	}
}

// NewTranscriptClient constructs a transcript fetcher.
func NewTranscriptClient(client *http.Client, userAgent, language string, opts ...TranscriptOption) *TranscriptClient {
	c := &TranscriptClient{
		client:  client,
		baseURL: defaultBaseURL,
		headers: requestOptions{userAgent: userAgent, language: language},
	}
	if c.client == nil {
		c.client = http.DefaultClient
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CaptionTrack is one caption track advertised by the player.
type CaptionTrack struct {
	BaseURL      string
	LanguageCode string
	Name         string
	Generated    bool
}

// Fetch returns the transcript of videoID as plain text, one caption line per
// text line. languages is an ordered preference list; when empty the first
// advertised track wins.
func (c *TranscriptClient) Fetch(ctx context.Context, videoID string, languages []string) (string, error) {
	tracks, err := c.Tracks(ctx, videoID)
	if err != nil {
		return "", err
	}
	track, err := selectTrack(tracks, languages)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "transcript", "select track", videoID, err)
	}
	return c.download(ctx, track)
}

// Tracks lists the caption tracks available for videoID.
func (c *TranscriptClient) Tracks(ctx context.Context, videoID string) ([]CaptionTrack, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, services.Wrap(services.ErrValidation, "transcript", "tracks", "video id required", nil)
	}
	watchURL := c.baseURL + "/watch?v=" + url.QueryEscape(videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build watch request: %w", err)
	}
	c.headers.apply(req)
	page, err := fetch(c.client, req, "transcript", "fetch watch page")
	if err != nil {
		return nil, err
	}
	cfg := parseInnertubeConfig(page)
	if cfg.apiKey == "" {
		return nil, services.Wrap(services.ErrExternalTool, "transcript", "parse watch page", "innertube api key not found", nil)
	}
	player, err := c.player(ctx, cfg.apiKey, videoID)
	if err != nil {
		return nil, err
	}
	return player.tracks(videoID)
}

type playerRequest struct {
	Context innertubeContext `json:"context"`
	VideoID string           `json:"videoId"`
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		Renderer *struct {
			CaptionTracks []struct {
				BaseURL      string          `json:"baseUrl"`
				LanguageCode string          `json:"languageCode"`
				Kind         string          `json:"kind"`
				Name         json.RawMessage `json:"name"`
			} `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

func (c *TranscriptClient) player(ctx context.Context, apiKey, videoID string) (playerResponse, error) {
	var resp playerResponse
	payload, err := json.Marshal(playerRequest{
		Context: innertubeContext{Client: innertubeClient{ClientName: playerClientName, ClientVersion: playerClientVersion}},
		VideoID: videoID,
	})
	if err != nil {
		return resp, fmt.Errorf("encode player request: %w", err)
	}
	endpoint := c.baseURL + "/youtubei/v1/player?key=" + url.QueryEscape(apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return resp, fmt.Errorf("build player request: %w", err)
	}
	c.headers.apply(req)
	req.Header.Set("Content-Type", "application/json")
	body, err := fetch(c.client, req, "transcript", "fetch player")
	if err != nil {
		return resp, err
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return resp, services.Wrap(services.ErrExternalTool, "transcript", "decode player", videoID, err)
	}
	return resp, nil
}

func (p playerResponse) tracks(videoID string) ([]CaptionTrack, error) {
	status := p.PlayabilityStatus.Status
	reason := p.PlayabilityStatus.Reason
	switch {
	case status == "LOGIN_REQUIRED" && strings.Contains(strings.ToLower(reason), "not a bot"):
		return nil, services.Wrap(services.ErrIPBlocked, "transcript", "player", reason, nil)
	case status != "" && status != "OK":
		return nil, services.Wrap(services.ErrExternalTool, "transcript", "player", fmt.Sprintf("video %s unplayable: %s %s", videoID, status, reason), nil)
	}
	if p.Captions == nil || p.Captions.Renderer == nil || len(p.Captions.Renderer.CaptionTracks) == 0 {
		return nil, services.Wrap(services.ErrCaptionsDisabled, "transcript", "player", "subtitles are disabled for "+videoID, nil)
	}
	out := make([]CaptionTrack, 0, len(p.Captions.Renderer.CaptionTracks))
	for _, raw := range p.Captions.Renderer.CaptionTracks {
		var name any
		_ = json.Unmarshal(raw.Name, &name)
		out = append(out, CaptionTrack{
			BaseURL:      strings.Replace(raw.BaseURL, "&fmt=srv3", "", 1),
			LanguageCode: raw.LanguageCode,
			Name:         textOf(name),
			Generated:    raw.Kind == "asr",
		})
	}
	return out, nil
}

// selectTrack walks languages in order, preferring manually created tracks
// over generated ones for each language.
func selectTrack(tracks []CaptionTrack, languages []string) (CaptionTrack, error) {
	if len(tracks) == 0 {
		return CaptionTrack{}, errors.New("no caption tracks")
	}
	if len(languages) == 0 {
		for _, track := range tracks {
			if !track.Generated {
				return track, nil
			}
		}
		return tracks[0], nil
	}
	for _, lang := range languages {
		lang = strings.TrimSpace(lang)
		for _, generated := range []bool{false, true} {
			for _, track := range tracks {
				if track.Generated == generated && strings.EqualFold(track.LanguageCode, lang) {
					return track, nil
				}
			}
		}
	}
	available := make([]string, 0, len(tracks))
	for _, track := range tracks {
		available = append(available, track.LanguageCode)
	}
	return CaptionTrack{}, fmt.Errorf("no transcript in %v (available: %v)", languages, available)
}

type timedText struct {
	Lines []struct {
		Text string `xml:",innerxml"`
	} `xml:"text"`
}

func (c *TranscriptClient) download(ctx context.Context, track CaptionTrack) (string, error) {
	target := track.BaseURL
	if strings.HasPrefix(target, "/") {
		target = c.baseURL + target
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("build timedtext request: %w", err)
	}
	c.headers.apply(req)
	body, err := fetch(c.client, req, "transcript", "fetch timedtext")
	if err != nil {
		return "", err
	}
	var doc timedText
	if err := xml.Unmarshal(body, &doc); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "transcript", "decode timedtext", "", err)
	}
	lines := make([]string, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		text := c.cleanLine(line.Text)
		if text != "" {
			lines = append(lines, text)
		}
	}
	if len(lines) == 0 {
		return "", services.Wrap(services.ErrExternalTool, "transcript", "decode timedtext", "empty transcript", nil)
	}
	return strings.Join(lines, "\n"), nil
}

// cleanLine unescapes a caption line and strips markup. The raw inner XML is
// entity-encoded once by the XML layer and once more by the caption service.
func (c *TranscriptClient) cleanLine(raw string) string {
	text := html.UnescapeString(html.UnescapeString(raw))
	if c.preserveFormatting {
		text = nonFormattingTagsExpr.ReplaceAllStringFunc(text, func(tag string) string {
			name := strings.ToLower(strings.Trim(tag, "</> "))
			if idx := strings.IndexAny(name, " \t"); idx >= 0 {
				name = name[:idx]
			}
			if _, keep := formattingTags[name]; keep {
				return tag
			}
			return ""
		})
	} else {
		text = allTagsPattern.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}
