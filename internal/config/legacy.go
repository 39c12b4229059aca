package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// legacyConfig mirrors the config.yaml layout used by earlier installs.
// Pointer fields distinguish absent keys from zero values so defaults survive.
type legacyConfig struct {
	Channels           []string `yaml:"channels"`
	PreferredLanguages []string `yaml:"preferred_languages"`
	HTMLFormatting     *bool    `yaml:"html_formatting"`
	FileNameMaxLength  *int     `yaml:"file_name_max_length"`
	FileNameTimestamp  *bool    `yaml:"file_name_timestamp"`
	Processing         struct {
		DaysBack     *int     `yaml:"days_back"`
		SkipKeywords []string `yaml:"skip_keywords"`
		MaxRetries   *int     `yaml:"max_retries"`
		RateLimiting struct {
			DelayBetweenVideos   *int `yaml:"delay_between_videos"`
			DelayBetweenChannels *int `yaml:"delay_between_channels"`
		} `yaml:"rate_limiting"`
	} `yaml:"processing"`
	OpenAI struct {
		Model       *string  `yaml:"model"`
		MaxTokens   *int     `yaml:"max_tokens"`
		Temperature *float64 `yaml:"temperature"`
	} `yaml:"openai"`
	TTS struct {
		LanguageCode *string  `yaml:"language_code"`
		VoiceName    *string  `yaml:"voice_name"`
		VoiceGender  *string  `yaml:"voice_gender"`
		SpeakingRate *float64 `yaml:"speaking_rate"`
		Audio        struct {
			SampleRate *int     `yaml:"sample_rate"`
			VolumeGain *float64 `yaml:"volume_gain"`
		} `yaml:"audio"`
	} `yaml:"tts"`
	Drive struct {
		BaseFolder *string `yaml:"base_folder"`
		Subfolders struct {
			Transcripts *string `yaml:"transcripts"`
			Summaries   *string `yaml:"summaries"`
			Audio       *string `yaml:"audio"`
		} `yaml:"subfolders"`
	} `yaml:"drive"`
}

func isLegacyPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func decodeLegacyFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	var legacy legacyConfig
	if err := yaml.Unmarshal(data, &legacy); err != nil {
		return fmt.Errorf("parse legacy config: %w", err)
	}
	legacy.apply(cfg)
	return nil
}

// ImportLegacy reads a legacy config.yaml and returns the equivalent
// normalized configuration, ready to be encoded as TOML.
func ImportLegacy(path string) (*Config, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := decodeLegacyFile(expanded, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l legacyConfig) apply(cfg *Config) {
	if len(l.Channels) > 0 {
		cfg.Channels = append([]string(nil), l.Channels...)
	}
	if l.PreferredLanguages != nil {
		cfg.Transcripts.PreferredLanguages = append([]string(nil), l.PreferredLanguages...)
	}
	setBool(&cfg.Transcripts.PreserveFormatting, l.HTMLFormatting)
	setInt(&cfg.Processing.FileNameMaxLength, l.FileNameMaxLength)
	setBool(&cfg.Processing.FileNameTimestamp, l.FileNameTimestamp)

	setInt(&cfg.Processing.DaysBack, l.Processing.DaysBack)
	if l.Processing.SkipKeywords != nil {
		cfg.Processing.SkipKeywords = append([]string(nil), l.Processing.SkipKeywords...)
	}
	setInt(&cfg.Processing.MaxRetries, l.Processing.MaxRetries)
	setInt(&cfg.Processing.DelayBetweenVideos, l.Processing.RateLimiting.DelayBetweenVideos)
	setInt(&cfg.Processing.DelayBetweenChannels, l.Processing.RateLimiting.DelayBetweenChannels)

	setString(&cfg.LLM.Model, l.OpenAI.Model)
	setInt(&cfg.LLM.MaxTokens, l.OpenAI.MaxTokens)
	setFloat(&cfg.LLM.Temperature, l.OpenAI.Temperature)

	setString(&cfg.TTS.LanguageCode, l.TTS.LanguageCode)
	setString(&cfg.TTS.VoiceName, l.TTS.VoiceName)
	setString(&cfg.TTS.VoiceGender, l.TTS.VoiceGender)
	setFloat(&cfg.TTS.SpeakingRate, l.TTS.SpeakingRate)
	setInt(&cfg.TTS.SampleRateHertz, l.TTS.Audio.SampleRate)
	setFloat(&cfg.TTS.VolumeGainDB, l.TTS.Audio.VolumeGain)

	setString(&cfg.Archive.BaseFolder, l.Drive.BaseFolder)
	setString(&cfg.Archive.TranscriptsFolder, l.Drive.Subfolders.Transcripts)
	setString(&cfg.Archive.SummariesFolder, l.Drive.Subfolders.Summaries)
	setString(&cfg.Archive.AudioFolder, l.Drive.Subfolders.Audio)
	cfg.Archive.Backend = ArchiveDrive
	cfg.Ledger.Backend = LedgerCSV
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
