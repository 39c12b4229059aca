package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"tubeharvest/internal/ledger"
	"tubeharvest/internal/logging"
	"tubeharvest/internal/notifications"
	"tubeharvest/internal/services"
	"tubeharvest/internal/stage"
	"tubeharvest/internal/stageexec"
)

// Stage names, also used as the stage field in logs.
const (
	StageTranscript = "transcript"
	StageSummary    = "summary"
	StageAudio      = "audio"
)

// Result is the terminal state of one item.
type Result struct {
	Status ledger.Status
	Reason ledger.Reason
	Detail string
	Err    error
	// Halt asks the scan controller to stop the channel.
	Halt bool
	// Interrupted is set when the run context ended mid-item. No terminal
	// record should be written, leaving the item PENDING.
	Interrupted bool
	// FreshTranscript mirrors stage.Item.FreshTranscript.
	FreshTranscript bool
}

type step struct {
	name    string
	handler stage.Handler
	// reason overrides the error classification for failures of this step.
	reason ledger.Reason
}

// Runner executes the stages in order.
type Runner struct {
	steps    []step
	logger   *slog.Logger
	notifier notifications.Service
}

// Deps are the collaborators and settings of a Runner.
type Deps struct {
	Fetcher     TranscriptFetcher
	Summarizer  Summarizer
	Synthesizer Synthesizer
	Languages   []string
	Audio       AudioOptions
	Notifier    notifications.Service
	Logger      *slog.Logger
}

// NewRunner wires the three stages.
func NewRunner(deps Deps) *Runner {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		steps: []step{
			{name: StageTranscript, handler: NewTranscriptStage(deps.Fetcher, deps.Languages)},
			{name: StageSummary, handler: NewSummaryStage(deps.Summarizer), reason: ledger.ReasonSummaryFailed},
			{name: StageAudio, handler: NewAudioStage(deps.Synthesizer, deps.Audio), reason: ledger.ReasonSynthesisFailed},
		},
		logger:   logger,
		notifier: deps.Notifier,
	}
}

// Run drives item through every stage. A failing stage ends the item and
// the remaining stages are not attempted.
func (r *Runner) Run(ctx context.Context, item *stage.Item) Result {
	ctx = services.WithVideoID(ctx, item.Video.ID)
	for _, st := range r.steps {
		_, err := stageexec.Run(ctx, stageexec.Options{
			Logger:    r.logger,
			Notifier:  r.notifier,
			Handler:   st.handler,
			StageName: st.name,
			Item:      item,
		})
		if err == nil {
			continue
		}
		result := Result{
			Status:          ledger.StatusFailed,
			Detail:          err.Error(),
			Err:             err,
			FreshTranscript: item.FreshTranscript,
		}
		switch {
		case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
			result.Interrupted = true
		case st.reason != ledger.ReasonNone:
			result.Reason = st.reason
		default:
			result.Reason = services.FailureReason(err)
			result.Halt = services.Halts(err)
		}
		return result
	}
	return Result{Status: ledger.StatusSuccess, FreshTranscript: item.FreshTranscript}
}

// HealthChecks reports the readiness of every stage.
func (r *Runner) HealthChecks(ctx context.Context) []stage.Health {
	out := make([]stage.Health, 0, len(r.steps))
	for _, st := range r.steps {
		out = append(out, st.handler.HealthCheck(ctx))
	}
	return out
}
