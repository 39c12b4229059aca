package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"tubeharvest/internal/config"
)

const legacyYAML = `
channels:
  - "@TwoMinutePapers"
  - "UCsXVk37bltHxD1rDPwtNM8Q"
preferred_languages: ["en", "en-US"]
html_formatting: false
file_name_max_length: 40
processing:
  days_back: 5
  skip_keywords: ["short"]
  rate_limiting:
    delay_between_videos: 1
openai:
  model: "gpt-4o-mini"
  temperature: 0.2
tts:
  voice_gender: "female"
  audio:
    sample_rate: 16000
drive:
  base_folder: "Harvest"
  subfolders:
    audio: "Podcasts"
`

func TestImportLegacy(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(legacyYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.ImportLegacy(path)
	if err != nil {
		t.Fatalf("ImportLegacy: %v", err)
	}
	if len(cfg.Channels) != 2 {
		t.Fatalf("unexpected channels %v", cfg.Channels)
	}
	if cfg.Transcripts.PreserveFormatting {
		t.Fatal("expected html_formatting=false to disable formatting")
	}
	if cfg.Processing.FileNameMaxLength != 40 || cfg.Processing.DaysBack != 5 {
		t.Fatalf("unexpected processing %+v", cfg.Processing)
	}
	if cfg.Processing.DelayBetweenVideos != 1 || cfg.Processing.DelayBetweenChannels != 5 {
		t.Fatalf("expected absent keys to keep defaults, got %+v", cfg.Processing)
	}
	if cfg.LLM.Model != "gpt-4o-mini" || cfg.LLM.MaxTokens != 4000 {
		t.Fatalf("unexpected llm %+v", cfg.LLM)
	}
	if cfg.TTS.VoiceGender != "FEMALE" || cfg.TTS.SampleRateHertz != 16000 {
		t.Fatalf("unexpected tts %+v", cfg.TTS)
	}
	if cfg.Archive.BaseFolder != "Harvest" || cfg.Archive.AudioFolder != "Podcasts" || cfg.Archive.TranscriptsFolder != "Transcripts" {
		t.Fatalf("unexpected archive %+v", cfg.Archive)
	}
	if cfg.Ledger.Backend != config.LedgerCSV {
		t.Fatalf("expected legacy installs to keep the csv ledger, got %q", cfg.Ledger.Backend)
	}
}

func TestLoadReadsYAMLPaths(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(legacyYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || cfg.Channels[0] != "@TwoMinutePapers" {
		t.Fatalf("unexpected load result exists=%v channels=%v", exists, cfg.Channels)
	}
}
