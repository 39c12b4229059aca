package ledger

import (
	"context"
	"testing"
	"time"
)

// exerciseLedger runs the behaviour every backend must share.
func exerciseLedger(t *testing.T, l Ledger) {
	t.Helper()
	ctx := context.Background()
	scraped := time.Date(2025, 6, 1, 8, 30, 0, 0, time.Local)

	if _, ok, err := l.Lookup(ctx, "vid1"); err != nil || ok {
		t.Fatalf("empty ledger lookup: ok=%v err=%v", ok, err)
	}

	first := []Record{
		{VideoID: "vid1", UploadDate: "2 hours ago", VideoURL: "https://www.youtube.com/watch?v=vid1", ScrapedAt: scraped, Status: StatusPending},
		{VideoID: "vid1", UploadDate: "2 hours ago", VideoURL: "https://www.youtube.com/watch?v=vid1", ScrapedAt: scraped, Status: StatusFailed, Reason: ReasonCaptionsDisabled, Detail: "Subtitles disabled"},
		{VideoID: "vid2", UploadDate: "1 day ago", VideoURL: "https://www.youtube.com/watch?v=vid2", ScrapedAt: scraped, Status: StatusSuccess},
	}
	if err := l.Merge(ctx, first); err != nil {
		t.Fatalf("merge first batch: %v", err)
	}

	status, ok, err := l.Lookup(ctx, "vid1")
	if err != nil || !ok || status != StatusFailed {
		t.Fatalf("vid1 lookup = %q ok=%v err=%v", status, ok, err)
	}
	status, ok, err = l.Lookup(ctx, "vid2")
	if err != nil || !ok || status != StatusSuccess {
		t.Fatalf("vid2 lookup = %q ok=%v err=%v", status, ok, err)
	}

	second := []Record{
		{VideoID: "vid1", UploadDate: "2 hours ago", VideoURL: "https://www.youtube.com/watch?v=vid1", ScrapedAt: scraped.Add(time.Hour), Status: StatusSuccess},
		{VideoID: "vid3", UploadDate: "5 minutes ago", VideoURL: "https://www.youtube.com/watch?v=vid3", ScrapedAt: scraped.Add(time.Hour), Status: StatusFailed, Reason: ReasonSummaryFailed, Detail: "llm: 500"},
	}
	if err := l.Merge(ctx, second); err != nil {
		t.Fatalf("merge second batch: %v", err)
	}

	records, err := l.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records after dedupe, got %d: %+v", len(records), records)
	}
	byID := map[string]Record{}
	for _, r := range records {
		byID[r.VideoID] = r
	}
	if byID["vid1"].Status != StatusSuccess || byID["vid1"].Reason != ReasonNone {
		t.Fatalf("expected vid1 replaced by newest write, got %+v", byID["vid1"])
	}
	if byID["vid3"].Reason != ReasonSummaryFailed || byID["vid3"].Detail != "llm: 500" {
		t.Fatalf("expected reason and detail to persist, got %+v", byID["vid3"])
	}
	if !byID["vid2"].ScrapedAt.Equal(scraped) {
		t.Fatalf("scrape timestamp lost: %v", byID["vid2"].ScrapedAt)
	}
	if records[len(records)-1].VideoID == "vid2" {
		t.Fatalf("expected list ordered by write recency, got %+v", records)
	}

	// Same id observed under a new upload-date text: the newest record decides.
	if err := l.Merge(ctx, []Record{{VideoID: "vid2", UploadDate: "2 days ago", VideoURL: "https://www.youtube.com/watch?v=vid2", ScrapedAt: scraped, Status: StatusFailed, Reason: ReasonOther}}); err != nil {
		t.Fatalf("merge third batch: %v", err)
	}
	status, _, _ = l.Lookup(ctx, "vid2")
	if status != StatusFailed {
		t.Fatalf("expected most recent record to decide lookup, got %q", status)
	}

	if err := l.Merge(ctx, nil); err != nil {
		t.Fatalf("empty merge: %v", err)
	}
}
