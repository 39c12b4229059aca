package ledger

import (
	"fmt"
	"strings"
	"time"
)

// Status is the processing state recorded for an item.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// ParseStatus converts a persisted status string. Unknown values are rejected.
func ParseStatus(value string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending, nil
	case StatusSuccess:
		return StatusSuccess, nil
	case StatusFailed:
		return StatusFailed, nil
	default:
		return "", fmt.Errorf("unknown ledger status %q", value)
	}
}

// Reason tags why an item ended FAILED. The free-form detail lives in Record.Detail.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonRateLimited      Reason = "rate_limited"
	ReasonIPBlocked        Reason = "ip_blocked"
	ReasonCaptionsDisabled Reason = "captions_disabled"
	ReasonSummaryFailed    Reason = "summary_failed"
	ReasonSynthesisFailed  Reason = "synthesis_failed"
	ReasonOther            Reason = "other"
)

// ScrapeDateLayout is the persisted layout of Record.ScrapedAt.
const ScrapeDateLayout = "2006-01-02 15:04:05"

// Record is one ledger row.
type Record struct {
	VideoURL   string
	VideoID    string
	UploadDate string
	ScrapedAt  time.Time
	Status     Status
	Reason     Reason
	Detail     string
}

// Key identifies a record for deduplication.
type Key struct {
	VideoID    string
	UploadDate string
}

// Key returns the deduplication key of r.
func (r Record) Key() Key {
	return Key{VideoID: r.VideoID, UploadDate: r.UploadDate}
}

// ScrapeDate renders ScrapedAt in the persisted layout.
func (r Record) ScrapeDate() string {
	if r.ScrapedAt.IsZero() {
		return ""
	}
	return r.ScrapedAt.Format(ScrapeDateLayout)
}

// MergeRecords combines existing with incoming and keeps, for each key, only
// the last occurrence. Survivors are ordered by the position of that last
// occurrence, so the slice order always reflects write recency.
func MergeRecords(existing, incoming []Record) []Record {
	combined := make([]Record, 0, len(existing)+len(incoming))
	combined = append(combined, existing...)
	combined = append(combined, incoming...)

	last := make(map[Key]int, len(combined))
	for i, rec := range combined {
		last[rec.Key()] = i
	}
	merged := make([]Record, 0, len(last))
	for i, rec := range combined {
		if last[rec.Key()] == i {
			merged = append(merged, rec)
		}
	}
	return merged
}

// LatestStatus returns the status of the most recent record for videoID in a
// recency-ordered slice.
func LatestStatus(records []Record, videoID string) (Status, bool) {
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].VideoID == videoID {
			return records[i].Status, true
		}
	}
	return "", false
}
