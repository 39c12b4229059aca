package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tubeharvest/internal/logging"
	"tubeharvest/internal/notifications"
	"tubeharvest/internal/services"
	"tubeharvest/internal/stage"
)

// Options controls one stage execution.
type Options struct {
	Logger    *slog.Logger
	Notifier  notifications.Service
	Handler   stage.Handler
	StageName string
	Item      *stage.Item
	Now       func() time.Time
}

// Outcome reports how a stage ended when it did not fail.
type Outcome string

const (
	Completed Outcome = "completed"
	Skipped   Outcome = "skipped"
)

// Run prepares and executes a stage with structured start, skip, complete,
// and failure logging. The stage error is returned unchanged so callers can
// classify it.
func Run(ctx context.Context, opts Options) (Outcome, error) {
	if opts.Handler == nil {
		return "", fmt.Errorf("stage handler unavailable: %s", opts.StageName)
	}
	if opts.Item == nil {
		return "", fmt.Errorf("stage item is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	stageCtx := services.WithStage(ctx, opts.StageName)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)
	if aware, ok := opts.Handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	started := now()
	stageLogger.Debug(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("title", opts.Item.Video.DisplayTitle()),
	)

	if err := opts.Handler.Prepare(stageCtx, opts.Item); err != nil {
		if errors.Is(err, stage.ErrSkip) {
			stageLogger.Info(
				"stage skipped, output already present",
				logging.String(logging.FieldEventType, "stage_skip"),
			)
			return Skipped, nil
		}
		return "", handleFailure(stageCtx, stageLogger, opts, err)
	}

	if err := opts.Handler.Execute(stageCtx, opts.Item); err != nil {
		return "", handleFailure(stageCtx, stageLogger, opts, err)
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", now().Sub(started).Round(time.Millisecond)),
	)
	return Completed, nil
}

func handleFailure(ctx context.Context, logger *slog.Logger, opts Options, stageErr error) error {
	details := services.DetailsOf(stageErr)
	message := strings.TrimSpace(details.Message)
	if message == "" {
		message = "stage failed"
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldErrorKind, details.Marker),
		logging.String("reason", string(services.FailureReason(stageErr))),
		logging.Error(stageErr),
	}
	if services.Halts(stageErr) {
		attrs = append(attrs,
			logging.String(logging.FieldErrorHint, "upstream is throttling this address; wait before the next run"),
			logging.String(logging.FieldImpact, "remaining items of this channel are deferred"),
		)
	}
	logging.ErrorWithContext(logger, "stage failed", "stage_failure", attrs...)

	if opts.Notifier != nil && ctx.Err() == nil {
		label := fmt.Sprintf("%s %s of %s", opts.StageName, opts.Item.Video.ID, opts.Item.Channel)
		if err := opts.Notifier.Publish(ctx, notifications.EventError, notifications.Payload{
			"error":   message,
			"context": label,
		}); err != nil {
			logger.Debug("stage error notification failed", logging.Error(err))
		}
	}
	return stageErr
}
