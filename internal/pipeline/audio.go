package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"tubeharvest/internal/fileutil"
	"tubeharvest/internal/logging"
	"tubeharvest/internal/services"
	"tubeharvest/internal/stage"
	"tubeharvest/internal/textutil"
)

// DefaultBackoff is the wait before each synthesis retry. Retries past the
// end of the table reuse the last entry.
var DefaultBackoff = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

// AudioOptions tunes synthesis.
type AudioOptions struct {
	ChunkBytes int
	ChunkPause time.Duration
	MaxRetries int
	Backoff    []time.Duration
	Sleep      services.Sleeper
}

// AudioStage synthesizes the summary into <stem>.mp3.
type AudioStage struct {
	synth  Synthesizer
	opts   AudioOptions
	logger *slog.Logger
}

// NewAudioStage builds the stage.
func NewAudioStage(synth Synthesizer, opts AudioOptions) *AudioStage {
	if opts.ChunkBytes <= 0 {
		opts.ChunkBytes = 4900
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if len(opts.Backoff) == 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.Sleep == nil {
		opts.Sleep = services.Sleep
	}
	return &AudioStage{synth: synth, opts: opts, logger: logging.NewNop()}
}

func (s *AudioStage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Prepare skips when the audio exists and requires a summary otherwise.
func (s *AudioStage) Prepare(_ context.Context, item *stage.Item) error {
	if fileutil.Exists(item.Artifacts.Audio) {
		return stage.ErrSkip
	}
	if item.Summary == "" {
		text, ok, err := stage.LoadArtifact(StageAudio, item.Artifacts.Summary)
		if err != nil {
			return err
		}
		if !ok {
			return services.Wrap(services.ErrValidation, StageAudio, "prepare", "summary missing", nil)
		}
		item.Summary = text
	}
	return nil
}

// Execute synthesizes every chunk before writing, so a failure leaves no
// audio file behind.
func (s *AudioStage) Execute(ctx context.Context, item *stage.Item) error {
	if s.synth == nil {
		return services.Wrap(services.ErrConfiguration, StageAudio, "synthesize", "synthesizer unavailable", nil)
	}
	chunks := textutil.ChunkSentences(item.Summary, s.opts.ChunkBytes)
	if len(chunks) == 0 {
		return services.Wrap(services.ErrValidation, StageAudio, "chunk", "summary has no speakable text", nil)
	}

	segments := make([][]byte, 0, len(chunks))
	total := 0
	for i, chunk := range chunks {
		if i > 0 && s.opts.ChunkPause > 0 {
			if err := s.opts.Sleep(ctx, s.opts.ChunkPause); err != nil {
				return err
			}
		}
		audio, err := s.synthesize(ctx, chunk, i)
		if err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		segments = append(segments, audio)
		total += len(audio)
	}

	err := fileutil.WriteAtomic(item.Artifacts.Audio, 0o644, func(w io.Writer) error {
		for _, segment := range segments {
			if _, err := w.Write(segment); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return services.Wrap(services.ErrExternalTool, StageAudio, "store artifact", item.Artifacts.Audio, err)
	}
	item.Chunks = len(chunks)
	item.AudioBytes = total
	s.logger.Info("audio stored",
		logging.Int("chunk_count", len(chunks)),
		logging.Int("audio_bytes", total),
	)
	return nil
}

func (s *AudioStage) synthesize(ctx context.Context, text string, index int) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		audio, err := s.synth.Synthesize(ctx, text)
		if err == nil {
			return audio, nil
		}
		if !errors.Is(err, services.ErrTransient) || attempt >= s.opts.MaxRetries {
			return nil, err
		}
		delay := s.opts.Backoff[min(attempt, len(s.opts.Backoff)-1)]
		logging.WarnWithContext(s.logger, "synthesis failed, retrying", "synthesis_retry",
			logging.Int("chunk", index+1),
			logging.Int("attempt", attempt+1),
			logging.Duration("delay", delay),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "transient connection failure"),
			logging.String(logging.FieldImpact, "chunk is retried"),
		)
		if err := s.opts.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (s *AudioStage) HealthCheck(context.Context) stage.Health {
	if s.synth == nil {
		return stage.Unhealthy(StageAudio, "synthesizer not configured")
	}
	return stage.Healthy(StageAudio)
}
