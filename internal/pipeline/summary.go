package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"tubeharvest/internal/logging"
	"tubeharvest/internal/services"
	"tubeharvest/internal/stage"
	"tubeharvest/internal/textutil"
)

// SummaryStage condenses the transcript into <stem>_summary.txt.
type SummaryStage struct {
	summarizer Summarizer
	logger     *slog.Logger
}

// NewSummaryStage builds the stage.
func NewSummaryStage(summarizer Summarizer) *SummaryStage {
	return &SummaryStage{summarizer: summarizer, logger: logging.NewNop()}
}

func (s *SummaryStage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func (s *SummaryStage) Prepare(_ context.Context, item *stage.Item) error {
	text, ok, err := stage.LoadArtifact(StageSummary, item.Artifacts.Summary)
	if err != nil {
		return err
	}
	if ok {
		item.Summary = text
		return stage.ErrSkip
	}
	if item.Transcript == "" {
		return services.Wrap(services.ErrValidation, StageSummary, "prepare", "transcript missing", nil)
	}
	return nil
}

func (s *SummaryStage) Execute(ctx context.Context, item *stage.Item) error {
	if s.summarizer == nil {
		return services.Wrap(services.ErrConfiguration, StageSummary, "summarize", "summarizer unavailable", nil)
	}
	channelDetails := "Channel: " + item.Channel
	videoDetails := fmt.Sprintf("Title: %s, URL: %s", item.Video.DisplayTitle(), item.Video.URL())
	raw, err := s.summarizer.Summarize(ctx, item.Transcript, channelDetails, videoDetails)
	if err != nil {
		return err
	}
	summary := textutil.CleanSummary(raw)
	if summary == "" {
		return services.Wrap(services.ErrValidation, StageSummary, "summarize", "summary is empty after cleanup", nil)
	}
	if err := stage.StoreArtifact(StageSummary, item.Artifacts.Summary, summary); err != nil {
		return err
	}
	item.Summary = summary
	s.logger.Debug("summary stored", logging.Int("chars", len(summary)))
	return nil
}

func (s *SummaryStage) HealthCheck(ctx context.Context) stage.Health {
	if s.summarizer == nil {
		return stage.Unhealthy(StageSummary, "summarizer not configured")
	}
	if checker, ok := s.summarizer.(healthChecker); ok {
		return stage.FromError(StageSummary, checker.HealthCheck(ctx))
	}
	return stage.Healthy(StageSummary)
}
