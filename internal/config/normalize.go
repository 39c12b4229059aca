package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeChannels()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProcessing()
	c.normalizeFeed()
	c.normalizeTranscripts()
	c.normalizeLLM()
	if err := c.normalizeTTS(); err != nil {
		return err
	}
	if err := c.normalizeArchive(); err != nil {
		return err
	}
	if err := c.normalizeLedger(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeChannels() {
	seen := make(map[string]struct{}, len(c.Channels))
	out := make([]string, 0, len(c.Channels))
	for _, channel := range c.Channels {
		channel = strings.TrimSpace(channel)
		if channel == "" {
			continue
		}
		if _, dup := seen[channel]; dup {
			continue
		}
		seen[channel] = struct{}{}
		out = append(out, channel)
	}
	c.Channels = out
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkspaceDir, err = expandPath(c.Paths.WorkspaceDir); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProcessing() {
	keywords := make([]string, 0, len(c.Processing.SkipKeywords))
	for _, kw := range c.Processing.SkipKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	c.Processing.SkipKeywords = keywords
}

func (c *Config) normalizeFeed() {
	c.Feed.Source = strings.ToLower(strings.TrimSpace(c.Feed.Source))
	if c.Feed.Source == "" {
		c.Feed.Source = FeedBrowse
	}
	if c.Feed.APIKey == "" {
		if value, ok := os.LookupEnv("YOUTUBE_API_KEY"); ok {
			c.Feed.APIKey = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Feed.UserAgent) == "" {
		c.Feed.UserAgent = defaultFeedUserAgent
	}
	if strings.TrimSpace(c.Feed.Language) == "" {
		c.Feed.Language = defaultFeedLanguage
	}
}

func (c *Config) normalizeTranscripts() {
	langs := make([]string, 0, len(c.Transcripts.PreferredLanguages))
	for _, lang := range c.Transcripts.PreferredLanguages {
		if lang = strings.TrimSpace(lang); lang != "" {
			langs = append(langs, lang)
		}
	}
	c.Transcripts.PreferredLanguages = langs
}

func (c *Config) normalizeLLM() {
	if c.LLM.APIKey == "" {
		for _, key := range []string{"OPENAI_API_KEY", "OPENROUTER_API_KEY"} {
			if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
				c.LLM.APIKey = strings.TrimSpace(value)
				break
			}
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
}

func (c *Config) normalizeTTS() error {
	if strings.TrimSpace(c.TTS.CredentialsFile) == "" {
		c.TTS.CredentialsFile = googleCredentialsFromEnv()
	}
	var err error
	if c.TTS.CredentialsFile, err = expandPath(strings.TrimSpace(c.TTS.CredentialsFile)); err != nil {
		return fmt.Errorf("tts.credentials_file: %w", err)
	}
	c.TTS.VoiceGender = strings.ToUpper(strings.TrimSpace(c.TTS.VoiceGender))
	if c.TTS.VoiceGender == "" {
		c.TTS.VoiceGender = defaultTTSVoiceGender
	}
	c.TTS.Endpoint = strings.TrimSpace(c.TTS.Endpoint)
	return nil
}

func (c *Config) normalizeArchive() error {
	c.Archive.Backend = strings.ToLower(strings.TrimSpace(c.Archive.Backend))
	if c.Archive.Backend == "" {
		c.Archive.Backend = ArchiveDrive
	}
	if strings.TrimSpace(c.Archive.BaseFolder) == "" {
		c.Archive.BaseFolder = defaultArchiveBaseFolder
	}
	if strings.TrimSpace(c.Archive.TranscriptsFolder) == "" {
		c.Archive.TranscriptsFolder = defaultTranscriptsFolder
	}
	if strings.TrimSpace(c.Archive.SummariesFolder) == "" {
		c.Archive.SummariesFolder = defaultSummariesFolder
	}
	if strings.TrimSpace(c.Archive.AudioFolder) == "" {
		c.Archive.AudioFolder = defaultAudioFolder
	}

	if strings.TrimSpace(c.Archive.Drive.CredentialsFile) == "" {
		c.Archive.Drive.CredentialsFile = c.TTS.CredentialsFile
	}
	var err error
	if c.Archive.Drive.CredentialsFile, err = expandPath(strings.TrimSpace(c.Archive.Drive.CredentialsFile)); err != nil {
		return fmt.Errorf("archive.drive.credentials_file: %w", err)
	}
	if c.Archive.Local.Dir, err = expandPath(strings.TrimSpace(c.Archive.Local.Dir)); err != nil {
		return fmt.Errorf("archive.local.dir: %w", err)
	}
	c.Archive.S3.Bucket = strings.TrimSpace(c.Archive.S3.Bucket)
	c.Archive.S3.Prefix = strings.Trim(strings.TrimSpace(c.Archive.S3.Prefix), "/")
	c.Archive.S3.AccessKeyID = strings.TrimSpace(c.Archive.S3.AccessKeyID)
	c.Archive.S3.SecretAccessKey = strings.TrimSpace(c.Archive.S3.SecretAccessKey)
	if c.Archive.S3.Region == "" {
		c.Archive.S3.Region = strings.TrimSpace(os.Getenv("AWS_REGION"))
	}
	return nil
}

func (c *Config) normalizeLedger() error {
	c.Ledger.Backend = strings.ToLower(strings.TrimSpace(c.Ledger.Backend))
	if c.Ledger.Backend == "" {
		c.Ledger.Backend = LedgerSQLite
	}
	if strings.TrimSpace(c.Ledger.Path) == "" {
		c.Ledger.Path = filepath.Join(c.Paths.StateDir, defaultLedgerFile)
	}
	var err error
	if c.Ledger.Path, err = expandPath(c.Ledger.Path); err != nil {
		return fmt.Errorf("ledger.path: %w", err)
	}
	if value, ok := os.LookupEnv("REDIS_URL"); ok && strings.TrimSpace(value) != "" && c.Ledger.RedisURL == defaultRedisURL {
		c.Ledger.RedisURL = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Ledger.RedisKeyPrefix) == "" {
		c.Ledger.RedisKeyPrefix = defaultRedisKeyPrefix
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func googleCredentialsFromEnv() string {
	if value, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS"); ok {
		return strings.TrimSpace(value)
	}
	return ""
}
