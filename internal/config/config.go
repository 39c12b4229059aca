package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkspaceDir string `toml:"workspace_dir"`
	StateDir     string `toml:"state_dir"`
	LogDir       string `toml:"log_dir"`
}

// Processing contains the scan and eligibility settings.
type Processing struct {
	DaysBack             int      `toml:"days_back"`
	SkipKeywords         []string `toml:"skip_keywords"`
	MaxRetries           int      `toml:"max_retries"`
	FileNameMaxLength    int      `toml:"file_name_max_length"`
	FileNameTimestamp    bool     `toml:"file_name_timestamp"`
	DelayBetweenVideos   int      `toml:"delay_between_videos"`
	DelayBetweenChannels int      `toml:"delay_between_channels"`
}

// Feed selects and configures the channel listing backend.
type Feed struct {
	Source         string `toml:"source"`
	APIKey         string `toml:"api_key"`
	UserAgent      string `toml:"user_agent"`
	Language       string `toml:"language"`
	RequestTimeout int    `toml:"request_timeout"`
	MaxPages       int    `toml:"max_pages"`
}

// Transcripts configures caption retrieval.
type Transcripts struct {
	PreferredLanguages []string `toml:"preferred_languages"`
	PreserveFormatting bool     `toml:"preserve_formatting"`
	RequestTimeout     int      `toml:"request_timeout"`
}

// LLM contains the summarizer connection settings.
type LLM struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	MaxTokens      int     `toml:"max_tokens"`
	Temperature    float64 `toml:"temperature"`
	Referer        string  `toml:"referer"`
	Title          string  `toml:"title"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// TTS configures Google Cloud Text-to-Speech.
type TTS struct {
	CredentialsFile string  `toml:"credentials_file"`
	Endpoint        string  `toml:"endpoint"`
	LanguageCode    string  `toml:"language_code"`
	VoiceName       string  `toml:"voice_name"`
	VoiceGender     string  `toml:"voice_gender"`
	SpeakingRate    float64 `toml:"speaking_rate"`
	Pitch           float64 `toml:"pitch"`
	VolumeGainDB    float64 `toml:"volume_gain_db"`
	SampleRateHertz int     `toml:"sample_rate_hertz"`
	ChunkBytes      int     `toml:"chunk_bytes"`
	ChunkPauseMS    int     `toml:"chunk_pause_ms"`
}

// DriveArchive configures the Google Drive archive backend.
type DriveArchive struct {
	CredentialsFile string `toml:"credentials_file"`
}

// S3Archive configures the S3-compatible archive backend.
type S3Archive struct {
	Bucket       string `toml:"bucket"`
	Region       string `toml:"region"`
	Profile      string `toml:"profile"`
	Prefix       string `toml:"prefix"`
	Endpoint     string `toml:"endpoint"`
	UsePathStyle bool   `toml:"use_path_style"`

	// Static keys for S3-compatible stores outside the AWS credential chain.
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
}

// LocalArchive configures the directory mirror archive backend.
type LocalArchive struct {
	Dir string `toml:"dir"`
}

// Archive selects the remote store and the folder names shared with the
// local channel workspace.
type Archive struct {
	Backend           string       `toml:"backend"`
	BaseFolder        string       `toml:"base_folder"`
	TranscriptsFolder string       `toml:"transcripts_folder"`
	SummariesFolder   string       `toml:"summaries_folder"`
	AudioFolder       string       `toml:"audio_folder"`
	KeepLocal         bool         `toml:"keep_local"`
	Drive             DriveArchive `toml:"drive"`
	S3                S3Archive    `toml:"s3"`
	Local             LocalArchive `toml:"local"`
}

// Ledger selects the processed-item ledger backend.
type Ledger struct {
	Backend        string `toml:"backend"`
	Path           string `toml:"path"`
	RedisURL       string `toml:"redis_url"`
	RedisKeyPrefix string `toml:"redis_key_prefix"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Run            bool   `toml:"run"`
	Channel        bool   `toml:"channel"`
	Halts          bool   `toml:"halts"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for tubeharvest.
//
// Configuration sections by subsystem:
//   - Channels: handles or channel ids to harvest, in order
//   - Paths: workspace, state, and log directories
//   - Processing: recency window, skip keywords, retry bound, throttling
//   - Feed: channel listing backend (browse, rss, data_api)
//   - Transcripts: caption language preference and formatting
//   - LLM: summarizer connection settings
//   - TTS: speech synthesis voice and chunking
//   - Archive: remote store backend and folder names
//   - Ledger: processed-item ledger backend
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Channels      []string      `toml:"channels"`
	Paths         Paths         `toml:"paths"`
	Processing    Processing    `toml:"processing"`
	Feed          Feed          `toml:"feed"`
	Transcripts   Transcripts   `toml:"transcripts"`
	LLM           LLM           `toml:"llm"`
	TTS           TTS           `toml:"tts"`
	Archive       Archive       `toml:"archive"`
	Ledger        Ledger        `toml:"ledger"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		if isLegacyPath(resolvedPath) {
			if err := decodeLegacyFile(resolvedPath, &cfg); err != nil {
				return nil, "", false, err
			}
		} else {
			file, err := os.Open(resolvedPath)
			if err != nil {
				return nil, "", false, fmt.Errorf("open config: %w", err)
			}
			defer file.Close()

			decoder := toml.NewDecoder(file)
			if err := decoder.Decode(&cfg); err != nil {
				return nil, "", false, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tubeharvest.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the workspace, state, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkspaceDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Archive.Backend == ArchiveLocal && strings.TrimSpace(c.Archive.Local.Dir) != "" {
		if err := os.MkdirAll(c.Archive.Local.Dir, 0o755); err != nil {
			return fmt.Errorf("create archive directory %q: %w", c.Archive.Local.Dir, err)
		}
	}
	return nil
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "tubeharvest.lock")
}

// RecencyWindow is the maximum item age eligible for processing.
func (c *Config) RecencyWindow() time.Duration {
	return time.Duration(c.Processing.DaysBack) * 24 * time.Hour
}

// VideoDelay is the pause after each freshly fetched, successful item.
func (c *Config) VideoDelay() time.Duration {
	return time.Duration(c.Processing.DelayBetweenVideos) * time.Second
}

// ChannelDelay is the pause between channels.
func (c *Config) ChannelDelay() time.Duration {
	return time.Duration(c.Processing.DelayBetweenChannels) * time.Second
}

// Folders returns the artifact folder names in transcript, summary, audio order.
func (c *Config) Folders() (transcripts, summaries, audio string) {
	return c.Archive.TranscriptsFolder, c.Archive.SummariesFolder, c.Archive.AudioFolder
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// LLMConfig contains the summarizer connection settings.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	Temperature    float64
	Referer        string
	Title          string
	TimeoutSeconds int
}

// SummarizerLLM returns the summarizer connection settings.
func (c *Config) SummarizerLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		MaxTokens:      c.LLM.MaxTokens,
		Temperature:    c.LLM.Temperature,
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}
