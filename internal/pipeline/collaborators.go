package pipeline

import "context"

// TranscriptFetcher returns the plain caption text of a video.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string, languages []string) (string, error)
}

// Summarizer condenses a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, transcript, channelDetails, videoDetails string) (string, error)
}

// Synthesizer turns one chunk of text into MP3 bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}
