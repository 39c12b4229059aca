package youtube

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tubeharvest/internal/services"
)

const sampleAtom = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
 <title>Channel</title>
 <entry>
  <id>yt:video:new1</id>
  <yt:videoId>new1</yt:videoId>
  <title>Fresh upload</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=new1"/>
  <published>2026-10-15T06:00:00+00:00</published>
 </entry>
 <entry>
  <id>yt:video:old1</id>
  <title>Older upload</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=old1"/>
  <published>2026-10-01T12:00:00+00:00</published>
 </entry>
</feed>`

func TestRSSSourceDerivesAgeText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feeds/videos.xml" || r.URL.Query().Get("channel_id") != "UCabcdefghijklmnopqrstuv" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, sampleAtom)
	}))
	defer server.Close()

	src := NewRSSSource(server.Client(), "ua", server.URL)
	src.now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }

	items, err := collect(t, src, "UCabcdefghijklmnopqrstuv", 0)
	if err != nil {
		t.Fatalf("Videos: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %+v", items)
	}
	if items[0].ID != "new1" || items[0].Title != "Fresh upload" || items[0].AgeText != "6 hours ago" {
		t.Fatalf("unexpected first item %+v", items[0])
	}
	if items[1].ID != "old1" || items[1].AgeText != "2 weeks ago" {
		t.Fatalf("unexpected second item %+v", items[1])
	}
}

func TestRSSSourceRequiresChannelID(t *testing.T) {
	src := NewRSSSource(nil, "", "http://127.0.0.1:0")
	_, err := collect(t, src, "@handle", 0)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRSSSourceRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	src := NewRSSSource(server.Client(), "", server.URL)
	_, err := collect(t, src, "UCabcdefghijklmnopqrstuv", 0)
	if !errors.Is(err, services.ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
}
