package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tubeharvest/internal/logging"
)

var testFolders = Folders{Transcripts: "Transcripts", Summaries: "Summaries", Audio: "Audio"}

func TestForChannelLayout(t *testing.T) {
	dir := t.TempDir()
	ch := ForChannel(dir, "@Veritasium!", testFolders, Naming{MaxLength: 30, WithDate: true})
	if ch.Root != filepath.Join(dir, "Veritasium") {
		t.Fatalf("unexpected root %q", ch.Root)
	}
	if err := ch.Ensure(); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	for _, sub := range ch.Dirs() {
		if st, err := os.Stat(sub); err != nil || !st.IsDir() {
			t.Fatalf("expected directory %s", sub)
		}
	}
}

func TestStem(t *testing.T) {
	published := time.Date(2026, 10, 12, 15, 0, 0, 0, time.UTC)
	cases := []struct {
		name   string
		naming Naming
		title  string
		want   string
	}{
		{"truncated with date", Naming{MaxLength: 10, WithDate: true}, "How Rockets Work: Part 2", "How_Rocket_20261012"},
		{"no date", Naming{MaxLength: 30}, "Hello, World", "Hello_World"},
		{"empty title", Naming{MaxLength: 30, WithDate: true}, "!!!", "video_20261012"},
		{"unbounded", Naming{WithDate: true}, "A B", "A_B_20261012"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ch := ForChannel(t.TempDir(), "@c", testFolders, tc.naming)
			if got := ch.Stem(tc.title, published); got != tc.want {
				t.Fatalf("Stem(%q) = %q, want %q", tc.title, got, tc.want)
			}
		})
	}
}

func TestArtifactsAndPending(t *testing.T) {
	ch := ForChannel(t.TempDir(), "@c", testFolders, Naming{MaxLength: 30, WithDate: true})
	if err := ch.Ensure(); err != nil {
		t.Fatal(err)
	}
	arts := ch.Artifacts("Title_20261012")
	if !strings.HasSuffix(arts.Summary, filepath.Join("Summaries", "Title_20261012_summary.txt")) {
		t.Fatalf("unexpected summary path %q", arts.Summary)
	}
	if err := os.WriteFile(arts.Transcript, []byte("t"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(ch.Audio, ".Title.mp3.123.tmp"), []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}
	transcript, summary, audio := arts.Complete()
	if !transcript || summary || audio {
		t.Fatalf("unexpected completion %v %v %v", transcript, summary, audio)
	}
	pending, err := ch.Pending()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0] != arts.Transcript {
		t.Fatalf("unexpected pending %v", pending)
	}
}

func TestCleanStaleRemovesOnlyOldTempFiles(t *testing.T) {
	ch := ForChannel(t.TempDir(), "@c", testFolders, Naming{})
	if err := ch.Ensure(); err != nil {
		t.Fatal(err)
	}
	oldTmp := filepath.Join(ch.Audio, ".a.mp3.1.tmp")
	newTmp := filepath.Join(ch.Audio, ".b.mp3.2.tmp")
	artifact := filepath.Join(ch.Audio, "a.mp3")
	for _, p := range []string{oldTmp, newTmp, artifact} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-2 * time.Hour)
	for _, p := range []string{oldTmp, artifact} {
		if err := os.Chtimes(p, old, old); err != nil {
			t.Fatal(err)
		}
	}

	result := ch.CleanStale(time.Hour, logging.NewNop())
	if len(result.Removed) != 1 || result.Removed[0] != oldTmp {
		t.Fatalf("unexpected removal %v", result.Removed)
	}
	for _, p := range []string{newTmp, artifact} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("%s should remain: %v", p, err)
		}
	}
}

func TestListChannels(t *testing.T) {
	dir := t.TempDir()
	ch := ForChannel(dir, "@alpha", testFolders, Naming{})
	if err := ch.Ensure(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(ch.Summaries, "x_summary.txt"), []byte("12345"), 0o644); err != nil {
		t.Fatal(err)
	}
	infos, err := ListChannels(dir, testFolders)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].Name != "alpha" || infos[0].Pending != 1 || infos[0].Size != 5 {
		t.Fatalf("unexpected infos %+v", infos)
	}
	if infos, err := ListChannels(filepath.Join(dir, "missing"), testFolders); err != nil || infos != nil {
		t.Fatalf("missing dir: %v %v", infos, err)
	}
}
