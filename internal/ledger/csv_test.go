package ledger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCSVLedgerConformance(t *testing.T) {
	exerciseLedger(t, NewCSV(filepath.Join(t.TempDir(), CSVFileName)))
}

func TestCSVLedgerReadsLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), CSVFileName)
	legacy := strings.Join([]string{
		"Video URL,Video ID,Upload Date,Scrape Date,Status",
		"https://www.youtube.com/watch?v=aaa,aaa,1 day ago,2025-01-02 10:00:00,SUCCESS",
		"https://www.youtube.com/watch?v=bbb,bbb,2 days ago,2025-01-02 10:00:05,FAILED - Subtitles disabled",
		"https://www.youtube.com/watch?v=ccc,ccc,3 days ago,2025-01-02 10:00:09,FAILED",
		"https://www.youtube.com/watch?v=aaa,aaa,1 day ago,2025-01-03 10:00:00,FAILED",
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewCSV(path)
	records, err := l.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected duplicate legacy rows collapsed, got %d", len(records))
	}
	byID := map[string]Record{}
	for _, r := range records {
		byID[r.VideoID] = r
	}
	if byID["bbb"].Status != StatusFailed || byID["bbb"].Reason != ReasonCaptionsDisabled {
		t.Fatalf("legacy captions status not decoded: %+v", byID["bbb"])
	}
	if byID["ccc"].Reason != ReasonOther {
		t.Fatalf("bare FAILED should map to other, got %+v", byID["ccc"])
	}
	status, ok, err := l.Lookup(context.Background(), "aaa")
	if err != nil || !ok || status != StatusFailed {
		t.Fatalf("expected the later legacy row to win, got %q ok=%v err=%v", status, ok, err)
	}
}

func TestCSVLedgerWritesExtendedHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), CSVFileName)
	l := NewCSV(path)
	if err := l.Merge(context.Background(), []Record{{VideoID: "v", UploadDate: "1 hour ago", Status: StatusFailed, Reason: ReasonIPBlocked, Detail: "recaptcha"}}); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "Video URL,Video ID,Upload Date,Scrape Date,Status,Failure Reason,Detail" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], ",FAILED,ip_blocked,recaptcha") {
		t.Fatalf("unexpected row %q", lines[1])
	}

	// A fresh instance sees what the first one wrote.
	status, ok, err := NewCSV(path).Lookup(context.Background(), "v")
	if err != nil || !ok || status != StatusFailed {
		t.Fatalf("reload lookup = %q ok=%v err=%v", status, ok, err)
	}
}

func TestCSVLedgerRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), CSVFileName)
	if err := os.WriteFile(path, []byte("name,age\nbob,3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := NewCSV(path).Lookup(context.Background(), "x"); err == nil {
		t.Fatal("expected missing column error")
	}
}

func TestDecodeStatus(t *testing.T) {
	cases := []struct {
		raw    string
		status Status
		reason Reason
	}{
		{"SUCCESS", StatusSuccess, ReasonNone},
		{"PENDING", StatusPending, ReasonNone},
		{"FAILED", StatusFailed, ReasonOther},
		{"FAILED - Subtitles disabled", StatusFailed, ReasonCaptionsDisabled},
		{"FAILED - Too many requests", StatusFailed, ReasonOther},
		{"garbage", StatusFailed, ReasonOther},
	}
	for _, tc := range cases {
		status, reason, _ := decodeStatus(tc.raw)
		if status != tc.status || reason != tc.reason {
			t.Fatalf("decodeStatus(%q) = %s/%s, want %s/%s", tc.raw, status, reason, tc.status, tc.reason)
		}
	}
}
