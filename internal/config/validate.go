package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProcessing(); err != nil {
		return err
	}
	if err := c.validateFeed(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateTTS(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateLedger(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"notifications.request_timeout": c.Notifications.RequestTimeout,
		"feed.request_timeout":          c.Feed.RequestTimeout,
		"transcripts.request_timeout":   c.Transcripts.RequestTimeout,
	})
}

// ValidateRunnable extends Validate with the checks only a harvest run needs.
func (c *Config) ValidateRunnable() error {
	if len(c.Channels) == 0 {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("no channels configured; add channels to %s (create with 'tubeharvest config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateProcessing() error {
	if err := ensurePositiveMap(map[string]int{
		"processing.days_back":            c.Processing.DaysBack,
		"processing.file_name_max_length": c.Processing.FileNameMaxLength,
	}); err != nil {
		return err
	}
	return ensureNonNegativeMap(map[string]int{
		"processing.max_retries":            c.Processing.MaxRetries,
		"processing.delay_between_videos":   c.Processing.DelayBetweenVideos,
		"processing.delay_between_channels": c.Processing.DelayBetweenChannels,
		"feed.max_pages":                    c.Feed.MaxPages,
	})
}

func (c *Config) validateFeed() error {
	switch c.Feed.Source {
	case FeedBrowse, FeedRSS:
		return nil
	case FeedDataAPI:
		if strings.TrimSpace(c.Feed.APIKey) == "" {
			return errors.New("feed.api_key is required when feed.source is data_api (or set YOUTUBE_API_KEY)")
		}
		return nil
	default:
		return fmt.Errorf("feed.source: unsupported value %q (want browse, rss, or data_api)", c.Feed.Source)
	}
}

func (c *Config) validateLLM() error {
	if err := ensurePositiveMap(map[string]int{
		"llm.max_tokens":      c.LLM.MaxTokens,
		"llm.timeout_seconds": c.LLM.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	return nil
}

func (c *Config) validateTTS() error {
	switch c.TTS.VoiceGender {
	case "NEUTRAL", "MALE", "FEMALE":
	default:
		return fmt.Errorf("tts.voice_gender: unsupported value %q (want NEUTRAL, MALE, or FEMALE)", c.TTS.VoiceGender)
	}
	if c.TTS.SpeakingRate < 0.25 || c.TTS.SpeakingRate > 4.0 {
		return errors.New("tts.speaking_rate must be between 0.25 and 4.0")
	}
	if c.TTS.ChunkBytes > maxTTSChunkBytes {
		return fmt.Errorf("tts.chunk_bytes must not exceed %d", maxTTSChunkBytes)
	}
	if c.TTS.ChunkPauseMS < 0 {
		return errors.New("tts.chunk_pause_ms must not be negative")
	}
	return ensurePositiveMap(map[string]int{
		"tts.chunk_bytes":       c.TTS.ChunkBytes,
		"tts.sample_rate_hertz": c.TTS.SampleRateHertz,
	})
}

func (c *Config) validateArchive() error {
	switch c.Archive.Backend {
	case ArchiveDrive, ArchiveNone:
	case ArchiveS3:
		if c.Archive.S3.Bucket == "" {
			return errors.New("archive.s3.bucket must be set when archive.backend is s3")
		}
		if (c.Archive.S3.AccessKeyID == "") != (c.Archive.S3.SecretAccessKey == "") {
			return errors.New("archive.s3.access_key_id and archive.s3.secret_access_key must be set together")
		}
	case ArchiveLocal:
		if c.Archive.Local.Dir == "" {
			return errors.New("archive.local.dir must be set when archive.backend is local")
		}
	default:
		return fmt.Errorf("archive.backend: unsupported value %q (want drive, s3, local, or none)", c.Archive.Backend)
	}
	names := map[string]string{
		"archive.transcripts_folder": c.Archive.TranscriptsFolder,
		"archive.summaries_folder":   c.Archive.SummariesFolder,
		"archive.audio_folder":       c.Archive.AudioFolder,
	}
	seen := make(map[string]string, len(names))
	for key, name := range names {
		if strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("%s must be a single folder name", key)
		}
		if other, dup := seen[name]; dup {
			return fmt.Errorf("%s and %s must differ", other, key)
		}
		seen[name] = key
	}
	return nil
}

func (c *Config) validateLedger() error {
	switch c.Ledger.Backend {
	case LedgerSQLite, LedgerCSV:
		return nil
	case LedgerRedis:
		if strings.TrimSpace(c.Ledger.RedisURL) == "" {
			return errors.New("ledger.redis_url must be set when ledger.backend is redis")
		}
		return nil
	default:
		return fmt.Errorf("ledger.backend: unsupported value %q (want sqlite, csv, or redis)", c.Ledger.Backend)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must not be negative")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func ensureNonNegativeMap(values map[string]int) error {
	for key, value := range values {
		if value < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	return nil
}
