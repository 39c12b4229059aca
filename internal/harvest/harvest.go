// Package harvest runs the configured channels in order: scan, then archive,
// then the inter-channel pause. A failing channel is reported and the run
// moves on to the next one.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tubeharvest/internal/archive"
	"tubeharvest/internal/logging"
	"tubeharvest/internal/notifications"
	"tubeharvest/internal/scan"
	"tubeharvest/internal/services"
)

// staleTempAge is how old an orphaned temp file must be before it is removed.
const staleTempAge = 24 * time.Hour

// Scanner scans one channel.
type Scanner interface {
	Scan(ctx context.Context, channel string) (scan.Report, error)
}

// Options configures an Orchestrator.
type Options struct {
	Channels     []string
	Scanner      Scanner
	Store        archive.Store
	Archive      archive.SyncOptions
	ChannelDelay time.Duration
	Notifier     notifications.Service
	Sleep        services.Sleeper
	Now          func() time.Time
	Logger       *slog.Logger
}

// ChannelResult is the outcome of one channel.
type ChannelResult struct {
	Channel string
	Report  scan.Report
	Archive archive.SyncResult
	Err     error
}

// Summary is the outcome of a run.
type Summary struct {
	Channels  []ChannelResult
	Succeeded int
	Failed    int
	Errors    int
	Duration  time.Duration
}

// Orchestrator runs channels sequentially.
type Orchestrator struct {
	opts   Options
	logger *slog.Logger
}

// New builds an orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Scanner == nil {
		return nil, errors.New("harvest: scanner is required")
	}
	if opts.Notifier == nil {
		opts.Notifier = notifications.NewService(nil)
	}
	if opts.Sleep == nil {
		opts.Sleep = services.Sleep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{opts: opts, logger: logging.NewComponentLogger(opts.Logger, "harvest")}, nil
}

// Run processes every channel. The error is non-nil only when ctx ended the
// run early; per-channel failures are in the summary.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	started := o.opts.Now()
	logger := logging.WithContext(ctx, o.logger)
	var summary Summary

	o.publish(ctx, logger, notifications.EventRunStarted, notifications.Payload{"channels": len(o.opts.Channels)})
	logger.Info("harvest started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("channels", len(o.opts.Channels)),
	)

	for i, channel := range o.opts.Channels {
		if ctx.Err() != nil {
			break
		}
		result := o.runChannel(ctx, channel)
		summary.Channels = append(summary.Channels, result)
		summary.Succeeded += result.Report.Succeeded
		summary.Failed += result.Report.Failed
		if result.Err != nil {
			summary.Errors++
		}

		if i < len(o.opts.Channels)-1 && o.opts.ChannelDelay > 0 {
			logger.Debug("pausing before next channel", logging.Duration("delay", o.opts.ChannelDelay))
			if err := o.opts.Sleep(ctx, o.opts.ChannelDelay); err != nil {
				break
			}
		}
	}

	summary.Duration = o.opts.Now().Sub(started)
	o.publish(context.WithoutCancel(ctx), logger, notifications.EventRunCompleted, notifications.Payload{
		"channels":  len(summary.Channels),
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"duration":  summary.Duration,
	})
	logger.Info("harvest finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("channels", len(summary.Channels)),
		logging.Int("items_processed", summary.Succeeded),
		logging.Int("items_failed", summary.Failed),
		logging.Int("channel_errors", summary.Errors),
		logging.Duration("run_duration", summary.Duration.Round(time.Millisecond)),
	)
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (o *Orchestrator) runChannel(ctx context.Context, channel string) ChannelResult {
	started := o.opts.Now()
	ctx = services.WithChannel(ctx, channel)
	logger := logging.WithContext(ctx, o.logger)
	result := ChannelResult{Channel: channel}

	report, err := o.opts.Scanner.Scan(ctx, channel)
	result.Report = report
	if err != nil {
		result.Err = err
		logging.ErrorWithContext(logger, "channel scan failed", "channel_failed",
			logging.String(logging.FieldErrorKind, services.DetailsOf(err).Marker),
			logging.String(logging.FieldErrorHint, "the next channel is processed; rerun to retry this one"),
			logging.Error(err),
		)
		o.publish(ctx, logger, notifications.EventError, notifications.Payload{"context": channel, "error": err})
	}
	if report.Halt.Throttled() {
		o.publish(ctx, logger, notifications.EventScanHalted, notifications.Payload{"channel": channel, "reason": string(report.Halt)})
	}

	if report.Workspace.Root != "" && o.opts.Store != nil && ctx.Err() == nil {
		report.Workspace.CleanStale(staleTempAge, logger)
		synced, syncErr := archive.Sync(ctx, o.opts.Store, report.Workspace, o.opts.Archive, logger)
		result.Archive = synced
		if syncErr != nil {
			syncErr = fmt.Errorf("archive %s: %w", channel, syncErr)
			if result.Err == nil {
				result.Err = syncErr
			}
			logging.ErrorWithContext(logger, "channel archive failed", "archive_failed",
				logging.String(logging.FieldErrorHint, "unarchived files stay in the workspace and are retried next run"),
				logging.Error(syncErr),
			)
			o.publish(ctx, logger, notifications.EventError, notifications.Payload{"context": channel + " archive", "error": syncErr})
		}
	}

	logger.Info("channel finished",
		logging.String(logging.FieldEventType, "channel_complete"),
		logging.Int("items_processed", report.Succeeded),
		logging.Int("items_failed", report.Failed),
		logging.Int("uploaded", result.Archive.Uploaded),
		logging.Int("upload_skipped", result.Archive.Skipped),
		logging.Duration("channel_duration", o.opts.Now().Sub(started).Round(time.Millisecond)),
	)
	o.publish(ctx, logger, notifications.EventChannelCompleted, notifications.Payload{
		"channel":   channel,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"halt":      string(report.Halt),
	})
	return result
}

func (o *Orchestrator) publish(ctx context.Context, logger *slog.Logger, event notifications.Event, payload notifications.Payload) {
	if ctx.Err() != nil {
		return
	}
	if err := o.opts.Notifier.Publish(ctx, event, payload); err != nil {
		logger.Debug("notification failed", logging.String("event", string(event)), logging.Error(err))
	}
}
