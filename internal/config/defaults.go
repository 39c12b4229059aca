package config

// Feed sources.
const (
	FeedBrowse  = "browse"
	FeedRSS     = "rss"
	FeedDataAPI = "data_api"
)

// Archive backends.
const (
	ArchiveDrive = "drive"
	ArchiveS3    = "s3"
	ArchiveLocal = "local"
	ArchiveNone  = "none"
)

// Ledger backends.
const (
	LedgerSQLite = "sqlite"
	LedgerCSV    = "csv"
	LedgerRedis  = "redis"
)

const (
	defaultConfigPath           = "~/.config/tubeharvest/config.toml"
	defaultWorkspaceDir         = "~/.local/share/tubeharvest/channels"
	defaultStateDir             = "~/.local/share/tubeharvest"
	defaultLogDir               = "~/.local/share/tubeharvest/logs"
	defaultDaysBack             = 3
	defaultMaxRetries           = 3
	defaultFileNameMaxLength    = 30
	defaultDelayBetweenVideos   = 3
	defaultDelayBetweenChannels = 5
	defaultFeedUserAgent        = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	defaultFeedLanguage         = "en"
	defaultRequestTimeout       = 30
	defaultLLMBaseURL           = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel             = "gpt-4.1-nano"
	defaultLLMMaxTokens         = 4000
	defaultLLMTemperature       = 0.5
	defaultLLMTitle             = "tubeharvest"
	defaultLLMTimeoutSeconds    = 120
	defaultTTSLanguageCode      = "en-US"
	defaultTTSVoiceName         = "en-US-Standard-B"
	defaultTTSVoiceGender       = "NEUTRAL"
	defaultTTSSampleRate        = 24000
	defaultTTSChunkBytes        = 4900
	defaultTTSChunkPauseMS      = 100
	maxTTSChunkBytes            = 5000
	defaultArchiveBaseFolder    = "YTTranscript"
	defaultTranscriptsFolder    = "Transcripts"
	defaultSummariesFolder      = "Summaries"
	defaultAudioFolder          = "Audio"
	defaultLedgerFile           = "ledger.db"
	defaultRedisURL             = "redis://localhost:6379/0"
	defaultRedisKeyPrefix       = "tubeharvest"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			StateDir:     defaultStateDir,
			LogDir:       defaultLogDir,
		},
		Processing: Processing{
			DaysBack:             defaultDaysBack,
			SkipKeywords:         []string{"short", "shorts"},
			MaxRetries:           defaultMaxRetries,
			FileNameMaxLength:    defaultFileNameMaxLength,
			FileNameTimestamp:    true,
			DelayBetweenVideos:   defaultDelayBetweenVideos,
			DelayBetweenChannels: defaultDelayBetweenChannels,
		},
		Feed: Feed{
			Source:         FeedBrowse,
			UserAgent:      defaultFeedUserAgent,
			Language:       defaultFeedLanguage,
			RequestTimeout: defaultRequestTimeout,
		},
		Transcripts: Transcripts{
			PreferredLanguages: []string{"en"},
			PreserveFormatting: true,
			RequestTimeout:     defaultRequestTimeout,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			MaxTokens:      defaultLLMMaxTokens,
			Temperature:    defaultLLMTemperature,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		TTS: TTS{
			LanguageCode:    defaultTTSLanguageCode,
			VoiceName:       defaultTTSVoiceName,
			VoiceGender:     defaultTTSVoiceGender,
			SpeakingRate:    1.0,
			SampleRateHertz: defaultTTSSampleRate,
			ChunkBytes:      defaultTTSChunkBytes,
			ChunkPauseMS:    defaultTTSChunkPauseMS,
		},
		Archive: Archive{
			Backend:           ArchiveDrive,
			BaseFolder:        defaultArchiveBaseFolder,
			TranscriptsFolder: defaultTranscriptsFolder,
			SummariesFolder:   defaultSummariesFolder,
			AudioFolder:       defaultAudioFolder,
		},
		Ledger: Ledger{
			Backend:        LedgerSQLite,
			RedisURL:       defaultRedisURL,
			RedisKeyPrefix: defaultRedisKeyPrefix,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			Run:            true,
			Channel:        true,
			Halts:          true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
