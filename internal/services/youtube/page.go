package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"tubeharvest/internal/services"
)

const (
	defaultBaseURL   = "https://www.youtube.com"
	maxPageBytes     = 8 << 20
	consentCookie    = "CONSENT=YES+cb; SOCS=CAI"
	webClientName    = "WEB"
	defaultWebClient = "2.20240101.00.00"
)

var (
	innertubeKeyPattern     = regexp.MustCompile(`"INNERTUBE_API_KEY":\s*"([^"]+)"`)
	innertubeVersionPattern = regexp.MustCompile(`"INNERTUBE_CLIENT_VERSION":\s*"([^"]+)"`)
	initialDataMarkers      = []string{"var ytInitialData = ", `window["ytInitialData"] = `, "ytInitialData = "}
)

// httpDoer is the subset of *http.Client the clients use.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// requestOptions are the headers every request carries.
type requestOptions struct {
	userAgent string
	language  string
}

func (o requestOptions) apply(req *http.Request) {
	if o.userAgent != "" {
		req.Header.Set("User-Agent", o.userAgent)
	}
	if o.language != "" {
		req.Header.Set("Accept-Language", o.language)
	}
	req.Header.Set("Cookie", consentCookie)
}

// fetch issues req and returns the body, classifying throttling and missing
// pages with services markers.
func fetch(client httpDoer, req *http.Request, stage, op string) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrExternalTool, stage, op, "request failed", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stage, op, "read body", err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, services.Wrap(services.ErrRateLimited, stage, op, "http 429 too many requests", nil)
	case resp.StatusCode == http.StatusNotFound:
		return nil, services.Wrap(services.ErrNotFound, stage, op, req.URL.Path, nil)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, services.Wrap(services.ErrExternalTool, stage, op, fmt.Sprintf("http %d: %s", resp.StatusCode, snippet(body)), nil)
	}
	if isBotCheck(body) {
		return nil, services.Wrap(services.ErrIPBlocked, stage, op, "request answered with a captcha", nil)
	}
	return body, nil
}

func isBotCheck(body []byte) bool {
	text := string(body)
	return strings.Contains(text, `class="g-recaptcha"`) || strings.Contains(text, "/sorry/index")
}

// innertubeConfig holds the values scraped from a page's ytcfg block.
type innertubeConfig struct {
	apiKey        string
	clientVersion string
}

func parseInnertubeConfig(page []byte) innertubeConfig {
	var cfg innertubeConfig
	if m := innertubeKeyPattern.FindSubmatch(page); m != nil {
		cfg.apiKey = string(m[1])
	}
	if m := innertubeVersionPattern.FindSubmatch(page); m != nil {
		cfg.clientVersion = string(m[1])
	}
	if cfg.clientVersion == "" {
		cfg.clientVersion = defaultWebClient
	}
	return cfg
}

// extractInitialData decodes the ytInitialData object embedded in page.
func extractInitialData(page []byte) (map[string]any, error) {
	text := string(page)
	for _, marker := range initialDataMarkers {
		idx := strings.Index(text, marker)
		if idx < 0 {
			continue
		}
		var data map[string]any
		dec := json.NewDecoder(strings.NewReader(text[idx+len(marker):]))
		if err := dec.Decode(&data); err != nil {
			return nil, fmt.Errorf("decode ytInitialData: %w", err)
		}
		return data, nil
	}
	return nil, errors.New("ytInitialData not found in page")
}

func snippet(body []byte) string {
	text := strings.Join(strings.Fields(string(body)), " ")
	if len(text) > 160 {
		text = text[:160] + "..."
	}
	return text
}
