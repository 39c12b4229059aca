package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"tubeharvest/internal/fileutil"
)

var csvHeader = []string{"Video URL", "Video ID", "Upload Date", "Scrape Date", "Status", "Failure Reason", "Detail"}

// legacyCaptionsStatus is how earlier installs recorded a captions-disabled failure.
const legacyCaptionsStatus = "FAILED - Subtitles disabled"

// CSVLedger stores one channel's records in a CSV file. The file is rewritten
// in full on every merge through a temp file and rename.
type CSVLedger struct {
	path string

	mu      sync.Mutex
	loaded  bool
	records []Record
}

// NewCSV returns a ledger backed by the CSV file at path. The file is created
// on the first merge.
func NewCSV(path string) *CSVLedger {
	return &CSVLedger{path: path}
}

// Path returns the CSV file location.
func (l *CSVLedger) Path() string { return l.path }

func (l *CSVLedger) Merge(_ context.Context, records []Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.loadLocked(); err != nil {
		return err
	}
	merged := MergeRecords(l.records, records)
	err := fileutil.WriteAtomic(l.path, 0o644, func(w io.Writer) error {
		return writeCSV(w, merged)
	})
	if err != nil {
		return fmt.Errorf("write ledger %s: %w", l.path, err)
	}
	l.records = merged
	return nil
}

func (l *CSVLedger) Lookup(_ context.Context, videoID string) (Status, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.loadLocked(); err != nil {
		return "", false, err
	}
	status, ok := LatestStatus(l.records, videoID)
	return status, ok, nil
}

func (l *CSVLedger) List(_ context.Context) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.loadLocked(); err != nil {
		return nil, err
	}
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out, nil
}

func (l *CSVLedger) loadLocked() error {
	if l.loaded {
		return nil
	}
	file, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		l.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer file.Close()

	records, err := readCSV(file)
	if err != nil {
		return fmt.Errorf("read ledger %s: %w", l.path, err)
	}
	l.records = records
	l.loaded = true
	return nil
}

func readCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, required := range []string{"Video ID", "Upload Date", "Status"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}
	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		status, reason, detail := decodeStatus(field(row, "Status"))
		if r := strings.TrimSpace(field(row, "Failure Reason")); r != "" {
			reason = Reason(r)
		}
		if d := field(row, "Detail"); d != "" {
			detail = d
		}
		records = append(records, Record{
			VideoURL:   field(row, "Video URL"),
			VideoID:    field(row, "Video ID"),
			UploadDate: field(row, "Upload Date"),
			ScrapedAt:  parseScrapeDate(field(row, "Scrape Date")),
			Status:     status,
			Reason:     reason,
			Detail:     detail,
		})
	}
	return MergeRecords(nil, records), nil
}

// decodeStatus accepts both the plain status column and the composite
// "FAILED - <detail>" strings written by earlier installs.
func decodeStatus(raw string) (Status, Reason, string) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, legacyCaptionsStatus) {
		return StatusFailed, ReasonCaptionsDisabled, "Subtitles disabled"
	}
	if head, tail, ok := strings.Cut(raw, " - "); ok {
		if status, err := ParseStatus(head); err == nil {
			return status, ReasonOther, strings.TrimSpace(tail)
		}
	}
	status, err := ParseStatus(raw)
	if err != nil {
		return StatusFailed, ReasonOther, raw
	}
	if status == StatusFailed {
		return status, ReasonOther, ""
	}
	return status, ReasonNone, ""
}

func writeCSV(w io.Writer, records []Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			rec.VideoURL,
			rec.VideoID,
			rec.UploadDate,
			rec.ScrapeDate(),
			string(rec.Status),
			string(rec.Reason),
			rec.Detail,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
