package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"google.golang.org/api/option"

	"tubeharvest/internal/services"
)

func TestDataAPISourcePagesUploads(t *testing.T) {
	var pageCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/channels", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("forHandle") != "@chan" {
			t.Errorf("expected handle lookup, got %s", r.URL.RawQuery)
		}
		if r.URL.Query().Get("key") != "api-key" {
			t.Errorf("expected api key on request")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []any{map[string]any{
				"id":             "UCx",
				"contentDetails": map[string]any{"relatedPlaylists": map[string]any{"uploads": "UUx"}},
			}},
		})
	})
	mux.HandleFunc("/youtube/v3/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		pageCalls++
		if r.URL.Query().Get("playlistId") != "UUx" {
			t.Errorf("unexpected playlist %s", r.URL.RawQuery)
		}
		resp := map[string]any{}
		switch r.URL.Query().Get("pageToken") {
		case "":
			resp["items"] = []any{map[string]any{
				"snippet":        map[string]any{"title": "Newest", "publishedAt": "2026-10-15T09:00:00Z"},
				"contentDetails": map[string]any{"videoId": "a1", "videoPublishedAt": "2026-10-15T10:00:00Z"},
			}}
			resp["nextPageToken"] = "p2"
		case "p2":
			resp["items"] = []any{map[string]any{
				"snippet":        map[string]any{"title": "Older", "publishedAt": "2026-10-12T12:00:00Z", "resourceId": map[string]any{"videoId": "b2"}},
				"contentDetails": map[string]any{},
			}}
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	src, err := NewDataAPISource(context.Background(), "api-key", 0, option.WithEndpoint(server.URL+"/"))
	if err != nil {
		t.Fatalf("NewDataAPISource: %v", err)
	}
	src.now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }

	items, err := collect(t, src, "@chan", 0)
	if err != nil {
		t.Fatalf("Videos: %v", err)
	}
	if len(items) != 2 || pageCalls != 2 {
		t.Fatalf("items=%+v pageCalls=%d", items, pageCalls)
	}
	if items[0].ID != "a1" || items[0].AgeText != "2 hours ago" {
		t.Fatalf("unexpected first item %+v", items[0])
	}
	if items[1].ID != "b2" || items[1].Title != "Older" || items[1].AgeText != "3 days ago" {
		t.Fatalf("unexpected second item %+v", items[1])
	}
}

func TestDataAPISourceQuotaIsRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota","errors":[{"reason":"quotaExceeded","message":"quota"}]}}`))
	}))
	defer server.Close()

	src, err := NewDataAPISource(context.Background(), "api-key", 0, option.WithEndpoint(server.URL+"/"))
	if err != nil {
		t.Fatalf("NewDataAPISource: %v", err)
	}
	_, err = collect(t, src, "UCabcdefghijklmnopqrstuv", 0)
	if !errors.Is(err, services.ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
}

func TestDataAPISourceRequiresKey(t *testing.T) {
	if _, err := NewDataAPISource(context.Background(), "", 0); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
