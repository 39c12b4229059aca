package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tubeharvest/internal/services"
)

type playerFixture struct {
	status string
	reason string
	tracks []map[string]any
}

func transcriptServer(t *testing.T, fixture playerFixture, timedtext string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<script>ytcfg.set({"INNERTUBE_API_KEY":"watch-key"});</script>`)
	})
	mux.HandleFunc("/youtubei/v1/player", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "watch-key" {
			t.Errorf("player called without key")
		}
		var req playerRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Context.Client.ClientName != playerClientName {
			t.Errorf("unexpected client %q", req.Context.Client.ClientName)
		}
		resp := map[string]any{"playabilityStatus": map[string]any{"status": fixture.status, "reason": fixture.reason}}
		if fixture.tracks != nil {
			tracks := make([]any, len(fixture.tracks))
			for i, tr := range fixture.tracks {
				tracks[i] = tr
			}
			resp["captions"] = map[string]any{"playerCaptionsTracklistRenderer": map[string]any{"captionTracks": tracks}}
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, timedtext, r.URL.Query().Get("lang"))
	})
	return httptest.NewServer(mux)
}

const sampleTimedText = `<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0.0" dur="1.5">[%s] Hello &amp;amp; welcome</text>
<text start="1.5" dur="2.0">it&amp;#39;s &lt;b&gt;bold&lt;/b&gt; &lt;font color="red"&gt;news&lt;/font&gt;</text>
<text start="3.5" dur="1.0">   </text>
</transcript>`

func track(lang, kind string) map[string]any {
	return map[string]any{
		"baseUrl":      "/api/timedtext?v=vid&lang=" + lang + "&fmt=srv3",
		"languageCode": lang,
		"kind":         kind,
		"name":         map[string]any{"simpleText": lang},
	}
}

func TestTranscriptFetchPreferredLanguage(t *testing.T) {
	server := transcriptServer(t, playerFixture{status: "OK", tracks: []map[string]any{
		track("de", ""), track("en", "asr"), track("en", ""),
	}}, sampleTimedText)
	defer server.Close()

	client := NewTranscriptClient(server.Client(), "ua", "en", WithTranscriptBaseURL(server.URL))
	text, err := client.Fetch(context.Background(), "vid", []string{"en"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := "[en] Hello & welcome\nit's bold news"
	if text != want {
		t.Fatalf("got %q want %q", text, want)
	}
}

func TestTranscriptPreserveFormatting(t *testing.T) {
	server := transcriptServer(t, playerFixture{status: "OK", tracks: []map[string]any{track("en", "")}}, sampleTimedText)
	defer server.Close()

	client := NewTranscriptClient(server.Client(), "", "", WithTranscriptBaseURL(server.URL), WithPreserveFormatting(true))
	text, err := client.Fetch(context.Background(), "vid", nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := "[en] Hello & welcome\nit's <b>bold</b> news"
	if text != want {
		t.Fatalf("got %q want %q", text, want)
	}
}

func TestTranscriptFailureMarkers(t *testing.T) {
	cases := []struct {
		name    string
		fixture playerFixture
		langs   []string
		marker  error
	}{
		{"captions disabled", playerFixture{status: "OK"}, nil, services.ErrCaptionsDisabled},
		{"bot check", playerFixture{status: "LOGIN_REQUIRED", reason: "Sign in to confirm you're not a bot"}, nil, services.ErrIPBlocked},
		{"unplayable", playerFixture{status: "ERROR", reason: "Video unavailable"}, nil, services.ErrExternalTool},
		{"language missing", playerFixture{status: "OK", tracks: []map[string]any{track("fr", "")}}, []string{"en"}, services.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := transcriptServer(t, tc.fixture, sampleTimedText)
			defer server.Close()
			client := NewTranscriptClient(server.Client(), "", "", WithTranscriptBaseURL(server.URL))
			_, err := client.Fetch(context.Background(), "vid", tc.langs)
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
		})
	}
}

func TestTranscriptRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewTranscriptClient(server.Client(), "", "", WithTranscriptBaseURL(server.URL))
	_, err := client.Fetch(context.Background(), "vid", nil)
	if !errors.Is(err, services.ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
	if !services.Halts(err) {
		t.Fatal("rate limit should halt the scan")
	}
}

func TestSelectTrackPrefersManual(t *testing.T) {
	tracks := []CaptionTrack{
		{LanguageCode: "en", Generated: true, BaseURL: "asr"},
		{LanguageCode: "es", BaseURL: "es"},
		{LanguageCode: "en", BaseURL: "manual"},
	}
	got, err := selectTrack(tracks, []string{"de", "en"})
	if err != nil || got.BaseURL != "manual" {
		t.Fatalf("got %+v err %v", got, err)
	}
	got, err = selectTrack(tracks, nil)
	if err != nil || got.BaseURL != "es" {
		t.Fatalf("default selection got %+v err %v", got, err)
	}
}
