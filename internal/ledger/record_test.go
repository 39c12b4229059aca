package ledger

import (
	"testing"
	"time"
)

func rec(id, date string, status Status) Record {
	return Record{VideoID: id, UploadDate: date, VideoURL: "https://www.youtube.com/watch?v=" + id, Status: status}
}

func TestMergeRecordsKeepsNewestPerKey(t *testing.T) {
	existing := []Record{
		rec("a", "2 days ago", StatusFailed),
		rec("b", "3 days ago", StatusSuccess),
	}
	incoming := []Record{
		rec("c", "1 hour ago", StatusPending),
		rec("a", "2 days ago", StatusSuccess),
		rec("c", "1 hour ago", StatusSuccess),
	}

	merged := MergeRecords(existing, incoming)
	if len(merged) != 3 {
		t.Fatalf("expected 3 records, got %d: %+v", len(merged), merged)
	}
	wantOrder := []string{"b", "a", "c"}
	for i, id := range wantOrder {
		if merged[i].VideoID != id {
			t.Fatalf("position %d: got %s want %s", i, merged[i].VideoID, id)
		}
	}
	if merged[1].Status != StatusSuccess || merged[2].Status != StatusSuccess {
		t.Fatalf("expected newest writes to win, got %+v", merged)
	}
}

func TestMergeRecordsDistinctUploadDatesAreDistinctKeys(t *testing.T) {
	merged := MergeRecords(
		[]Record{rec("a", "2 days ago", StatusFailed)},
		[]Record{rec("a", "3 days ago", StatusSuccess)},
	)
	if len(merged) != 2 {
		t.Fatalf("expected both keys to survive, got %d", len(merged))
	}
	status, ok := LatestStatus(merged, "a")
	if !ok || status != StatusSuccess {
		t.Fatalf("latest status = %q, %v", status, ok)
	}
}

func TestMergeRecordsEmpty(t *testing.T) {
	if got := MergeRecords(nil, nil); len(got) != 0 {
		t.Fatalf("expected empty merge, got %d", len(got))
	}
}

func TestLatestStatusUsesMostRecentWrite(t *testing.T) {
	records := []Record{
		rec("a", "1 day ago", StatusSuccess),
		rec("a", "2 days ago", StatusFailed),
	}
	status, ok := LatestStatus(records, "a")
	if !ok || status != StatusFailed {
		t.Fatalf("expected FAILED from the latest write, got %q", status)
	}
	if _, ok := LatestStatus(records, "zzz"); ok {
		t.Fatal("expected absent id")
	}
}

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"SUCCESS", " success ", "Pending", "FAILED"} {
		if _, err := ParseStatus(raw); err != nil {
			t.Fatalf("ParseStatus(%q): %v", raw, err)
		}
	}
	if _, err := ParseStatus("DONE"); err == nil {
		t.Fatal("expected unknown status error")
	}
}

func TestScrapeDateLayout(t *testing.T) {
	r := Record{ScrapedAt: time.Date(2025, 3, 9, 14, 5, 7, 0, time.Local)}
	if got := r.ScrapeDate(); got != "2025-03-09 14:05:07" {
		t.Fatalf("unexpected scrape date %q", got)
	}
	if (Record{}).ScrapeDate() != "" {
		t.Fatal("zero time should render empty")
	}
}
