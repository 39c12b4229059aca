package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"tubeharvest/internal/logging"
	"tubeharvest/internal/services"
	"tubeharvest/internal/stage"
)

// TranscriptStage fetches captions and stores them as <stem>.txt.
type TranscriptStage struct {
	fetcher   TranscriptFetcher
	languages []string
	logger    *slog.Logger
}

// NewTranscriptStage builds the stage.
func NewTranscriptStage(fetcher TranscriptFetcher, languages []string) *TranscriptStage {
	return &TranscriptStage{fetcher: fetcher, languages: languages, logger: logging.NewNop()}
}

func (s *TranscriptStage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Prepare loads a stored transcript and reports stage.ErrSkip when found.
func (s *TranscriptStage) Prepare(_ context.Context, item *stage.Item) error {
	text, ok, err := stage.LoadArtifact(StageTranscript, item.Artifacts.Transcript)
	if err != nil {
		return err
	}
	if ok {
		item.Transcript = text
		return stage.ErrSkip
	}
	return nil
}

func (s *TranscriptStage) Execute(ctx context.Context, item *stage.Item) error {
	if s.fetcher == nil {
		return services.Wrap(services.ErrConfiguration, StageTranscript, "fetch", "transcript fetcher unavailable", nil)
	}
	text, err := s.fetcher.Fetch(ctx, item.Video.ID, s.languages)
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return services.Wrap(services.ErrNotFound, StageTranscript, "fetch", "caption track is empty", nil)
	}
	if err := stage.StoreArtifact(StageTranscript, item.Artifacts.Transcript, text); err != nil {
		return err
	}
	item.Transcript = text
	item.FreshTranscript = true
	s.logger.Debug("transcript stored",
		logging.Int("chars", len(text)),
		logging.String("transcript_path", item.Artifacts.Transcript),
	)
	return nil
}

func (s *TranscriptStage) HealthCheck(context.Context) stage.Health {
	if s.fetcher == nil {
		return stage.Unhealthy(StageTranscript, "transcript fetcher not configured")
	}
	return stage.Healthy(StageTranscript)
}
