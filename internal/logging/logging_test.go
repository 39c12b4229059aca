package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tubeharvest/internal/config"
	"tubeharvest/internal/services"
)

func newTestPretty(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	lvl := new(slog.LevelVar)
	lvl.Set(level)
	return slog.New(newPrettyHandler(buf, lvl, false))
}

func TestPrettyHandlerHeaderAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewComponentLogger(newTestPretty(&buf, slog.LevelInfo), "pipeline")
	logger.Info("transcript saved",
		String(FieldChannel, "@veritasium"),
		String(FieldVideoID, "abc123"),
		String(FieldStage, "transcript"),
		String(FieldEventType, "stage_complete"),
		Int64("audio_bytes", 2048),
		String(FieldCorrelationID, "run-1"),
	)

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if !strings.Contains(lines[0], "INFO [pipeline] @veritasium · abc123 (transcript) – transcript saved") {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if lines[1] != "    - Event: stage_complete" {
		t.Fatalf("expected event field first, got %q", lines[1])
	}
	if !strings.Contains(out, "    - Audio Size: 2.0 KiB") {
		t.Fatalf("expected humanized bytes in %q", out)
	}
	if !strings.Contains(out, "+ 1 more field hidden") {
		t.Fatalf("expected correlation id hidden at info level: %q", out)
	}
}

func TestPrettyHandlerDebugShowsAllFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelDebug)
	logger.Debug("lookup", String(FieldCorrelationID, "run-9"), String("url", "https://example.com"))
	out := buf.String()
	if !strings.Contains(out, "DEBUG") || !strings.Contains(out, "    correlation_id: run-9") {
		t.Fatalf("unexpected debug output: %q", out)
	}
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelWarn)
	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("expected info suppressed, got %q", buf.String())
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := services.WithChannel(context.Background(), "@chan")
	ctx = services.WithVideoID(ctx, "vid1")
	ctx = services.WithStage(ctx, "summary")
	WithContext(ctx, newTestPretty(&buf, slog.LevelInfo)).Info("hello")
	if !strings.Contains(buf.String(), "@chan · vid1 (summary) – hello") {
		t.Fatalf("context fields missing: %q", buf.String())
	}
}

func TestFormatSubject(t *testing.T) {
	cases := map[[3]string]string{
		{"@a", "", ""}:       "@a",
		{"@a", "v", ""}:      "@a · v",
		{"@a", "v", "audio"}: "@a · v (audio)",
		{"", "", "scan"}:     "scan",
		{"", "", ""}:         "",
	}
	for in, want := range cases {
		if got := FormatSubject(in[0], in[1], in[2]); got != want {
			t.Errorf("FormatSubject(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newJSONHandler(&buf, new(slog.LevelVar), false))
	WarnWithContext(logger, "archive upload skipped", "archive_skip", String(FieldErrorHint, "check credentials"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload[FieldEventType] != "archive_skip" {
		t.Fatalf("event type = %v", payload[FieldEventType])
	}
	if payload[FieldErrorHint] != "check credentials" {
		t.Fatalf("hint overwritten: %v", payload[FieldErrorHint])
	}
	if payload[FieldImpact] == nil {
		t.Fatalf("expected default impact")
	}
	if payload["level"] != "warn" || payload["msg"] != "archive upload skipped" {
		t.Fatalf("unexpected json keys: %v", payload)
	}
}

func TestFanoutHandlerWritesBoth(t *testing.T) {
	var a, b bytes.Buffer
	infoLvl := new(slog.LevelVar)
	debugLvl := new(slog.LevelVar)
	debugLvl.Set(slog.LevelDebug)
	infoLvl.Set(slog.LevelInfo)
	logger := slog.New(newFanoutHandler(newPrettyHandler(&a, infoLvl, false), newJSONHandler(&b, debugLvl, false)))
	logger.Debug("only json")
	logger.With(String(FieldChannel, "@c")).Error("both", Error(errors.New("boom")))

	if strings.Contains(a.String(), "only json") {
		t.Fatalf("console should skip debug: %q", a.String())
	}
	if !strings.Contains(a.String(), "boom") {
		t.Fatalf("console missing error: %q", a.String())
	}
	if strings.Count(b.String(), "\n") != 2 {
		t.Fatalf("json should hold two lines: %q", b.String())
	}
}

func TestNewFromConfigWritesRunLog(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Format = "json"
	logger, runPath, err := NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if filepath.Dir(runPath) != cfg.Paths.LogDir {
		t.Fatalf("run log %q outside %q", runPath, cfg.Paths.LogDir)
	}
	logger.Debug("debug line")
	data, err := os.ReadFile(runPath)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	if !strings.Contains(string(data), "debug line") {
		t.Fatalf("run log missing debug line: %q", data)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestPruneRunLogs(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "tubeharvest-20200101-000000.log")
	current := filepath.Join(dir, "tubeharvest-20200102-000000.log")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, current, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		stale := time.Now().AddDate(0, 0, -60)
		if err := os.Chtimes(p, stale, stale); err != nil {
			t.Fatal(err)
		}
	}

	PruneRunLogs(NewNop(), dir, 30, current)

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected old run log removed, err=%v", err)
	}
	for _, p := range []string{current, other} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s kept: %v", p, err)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	if got := FormatBytes(512); got != "512 B" {
		t.Fatalf("got %q", got)
	}
	if got := FormatBytes(3 * 1024 * 1024); got != "3.0 MiB" {
		t.Fatalf("got %q", got)
	}
}

func TestJSONHandlerRendersDurationsInSeconds(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newJSONHandler(&buf, new(slog.LevelVar), false))
	logger.Info("stage complete", Duration("stage_duration", 1500*time.Millisecond))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["stage_duration"] != 1.5 {
		t.Fatalf("stage_duration = %v", payload["stage_duration"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("missing ts key: %v", payload)
	}
}
