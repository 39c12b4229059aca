// Package scan walks one channel feed, newest first, and drives every
// eligible item through the pipeline.
//
// The walk stops at the first item that is older than the recency window or
// whose age cannot be read, and at the first upstream throttling signal. All
// ledger records of the walk are merged in a single write at the end, also
// when the run is interrupted.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tubeharvest/internal/eligibility"
	"tubeharvest/internal/feed"
	"tubeharvest/internal/ledger"
	"tubeharvest/internal/logging"
	"tubeharvest/internal/pipeline"
	"tubeharvest/internal/relage"
	"tubeharvest/internal/services"
	"tubeharvest/internal/stage"
	"tubeharvest/internal/workspace"
)

// HaltReason explains why a scan ended before the feed was exhausted.
type HaltReason string

const (
	HaltNone          HaltReason = ""
	HaltTooOld        HaltReason = "too_old"
	HaltUnparsableAge HaltReason = "unparsable_age"
	HaltRateLimited   HaltReason = "rate_limited"
	HaltIPBlocked     HaltReason = "ip_blocked"
	HaltFeedError     HaltReason = "feed_error"
	HaltLedgerError   HaltReason = "ledger_error"
	HaltInterrupted   HaltReason = "interrupted"
)

// Throttled reports whether the halt came from upstream throttling.
func (h HaltReason) Throttled() bool {
	return h == HaltRateLimited || h == HaltIPBlocked
}

// Report summarizes one channel scan.
type Report struct {
	Channel   string
	Workspace workspace.Channel
	Scanned   int
	Skipped   int
	Eligible  int
	Succeeded int
	Failed    int
	Skips     map[eligibility.Reason]int
	Halt      HaltReason
	// Err is the feed, ledger, or stage error behind Halt, when there is one.
	Err      error
	Duration time.Duration
}

// ItemRunner runs the pipeline for one item.
type ItemRunner interface {
	Run(ctx context.Context, item *stage.Item) pipeline.Result
}

// Options configures a Controller.
type Options struct {
	Source       feed.Source
	Ledgers      ledger.Provider
	Filter       *eligibility.Filter
	Runner       ItemRunner
	WorkspaceDir string
	Folders      workspace.Folders
	Naming       workspace.Naming
	VideoDelay   time.Duration
	Sleep        services.Sleeper
	Now          func() time.Time
	Logger       *slog.Logger
}

// Controller scans channels.
type Controller struct {
	opts   Options
	logger *slog.Logger
}

// New validates opts and builds a controller.
func New(opts Options) (*Controller, error) {
	switch {
	case opts.Source == nil:
		return nil, errors.New("scan: feed source is required")
	case opts.Ledgers == nil:
		return nil, errors.New("scan: ledger provider is required")
	case opts.Filter == nil:
		return nil, errors.New("scan: eligibility filter is required")
	case opts.Runner == nil:
		return nil, errors.New("scan: pipeline runner is required")
	case opts.WorkspaceDir == "":
		return nil, errors.New("scan: workspace directory is required")
	}
	if opts.Sleep == nil {
		opts.Sleep = services.Sleep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{opts: opts, logger: logging.NewComponentLogger(opts.Logger, "scan")}, nil
}

// Scan processes channel. The returned error covers setup and the final
// ledger write; feed and stage problems end the scan through Report.Halt.
func (c *Controller) Scan(ctx context.Context, channel string) (Report, error) {
	started := c.opts.Now()
	ctx = services.WithChannel(ctx, channel)
	logger := logging.WithContext(ctx, c.logger)

	report := Report{Channel: channel, Skips: map[eligibility.Reason]int{}}
	ws := workspace.ForChannel(c.opts.WorkspaceDir, channel, c.opts.Folders, c.opts.Naming)
	report.Workspace = ws
	if err := ws.Ensure(); err != nil {
		return report, services.Wrap(services.ErrConfiguration, "scan", "prepare workspace", ws.Root, err)
	}
	led, err := c.opts.Ledgers.ForChannel(ctx, channel, ws.Root)
	if err != nil {
		return report, fmt.Errorf("open ledger for %s: %w", channel, err)
	}

	logger.Info("channel scan started",
		logging.String(logging.FieldEventType, "scan_start"),
		logging.String("window", relage.Format(c.opts.Filter.Window())),
	)

	var batch []ledger.Record
	c.walk(ctx, logger, led, ws, &report, &batch)

	report.Duration = c.opts.Now().Sub(started)
	if report.Scanned == 0 && report.Halt == HaltNone {
		logging.WarnWithContext(logger, "no videos found for channel", "scan_empty",
			logging.String(logging.FieldErrorHint, "check the handle spelling, confirm the channel has public videos, or use the channel id (starts with UC)"),
			logging.String(logging.FieldImpact, "nothing harvested for this channel"),
		)
	}

	mergeErr := led.Merge(context.WithoutCancel(ctx), batch)
	c.logReport(logger, report, len(batch))
	if mergeErr != nil {
		return report, fmt.Errorf("merge ledger for %s: %w", channel, mergeErr)
	}
	return report, nil
}

func (c *Controller) walk(ctx context.Context, logger *slog.Logger, led ledger.Ledger, ws workspace.Channel, report *Report, batch *[]ledger.Record) {
	for item, err := range c.opts.Source.Videos(ctx, report.Channel) {
		if err != nil {
			report.Err = err
			report.Halt = HaltFeedError
			if ctx.Err() != nil {
				report.Halt = HaltInterrupted
			}
			return
		}
		if ctx.Err() != nil {
			report.Halt = HaltInterrupted
			return
		}
		report.Scanned++

		decision, err := c.opts.Filter.Evaluate(ctx, item, led)
		if err != nil {
			report.Err = err
			report.Halt = HaltLedgerError
			return
		}
		itemLogger := logger.With(logging.String(logging.FieldVideoID, item.ID))

		switch decision.Verdict {
		case eligibility.Skip:
			report.Skipped++
			report.Skips[decision.Reason]++
			itemLogger.Debug("item skipped",
				logging.String(logging.FieldDecision, string(decision.Reason)),
				logging.String("title", item.DisplayTitle()),
				logging.String("age", item.AgeText),
			)
			continue
		case eligibility.Halt:
			report.Halt = HaltReason(decision.Reason)
			itemLogger.Info("scan stopped",
				logging.String(logging.FieldDecision, string(decision.Reason)),
				logging.String("title", item.DisplayTitle()),
				logging.String("age", item.AgeText),
			)
			return
		}

		report.Eligible++
		stem := ws.Stem(item.DisplayTitle(), decision.Published)
		record := ledger.Record{
			VideoURL:   item.URL(),
			VideoID:    item.ID,
			UploadDate: item.AgeText,
			ScrapedAt:  c.opts.Now(),
			Status:     ledger.StatusPending,
		}
		*batch = append(*batch, record)
		itemLogger.Info("processing item",
			logging.String(logging.FieldEventType, "item_start"),
			logging.String("title", item.DisplayTitle()),
			logging.String("age", item.AgeText),
		)

		result := c.opts.Runner.Run(ctx, &stage.Item{
			Channel:   report.Channel,
			Video:     item,
			Stem:      stem,
			Artifacts: ws.Artifacts(stem),
		})
		if result.Interrupted {
			report.Halt = HaltInterrupted
			report.Err = result.Err
			return
		}

		record.ScrapedAt = c.opts.Now()
		record.Status = result.Status
		record.Reason = result.Reason
		record.Detail = result.Detail
		*batch = append(*batch, record)

		if result.Status == ledger.StatusSuccess {
			report.Succeeded++
			itemLogger.Info("item harvested",
				logging.String(logging.FieldEventType, "item_complete"),
				logging.String("status", string(result.Status)),
			)
		} else {
			report.Failed++
			itemLogger.Warn("item failed",
				logging.String(logging.FieldEventType, "item_failed"),
				logging.String("status", string(result.Status)),
				logging.String("reason", string(result.Reason)),
			)
		}

		if result.Halt {
			report.Halt = HaltReason(result.Reason)
			report.Err = result.Err
			return
		}
		if result.FreshTranscript && c.opts.VideoDelay > 0 {
			itemLogger.Debug("throttling before next item", logging.Duration("delay", c.opts.VideoDelay))
			if err := c.opts.Sleep(ctx, c.opts.VideoDelay); err != nil {
				report.Halt = HaltInterrupted
				return
			}
		}
	}
}

func (c *Controller) logReport(logger *slog.Logger, report Report, records int) {
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "scan_complete"),
		logging.Int("items_seen", report.Scanned),
		logging.Int("items_processed", report.Succeeded),
		logging.Int("items_failed", report.Failed),
		logging.Int("items_skipped", report.Skipped),
		logging.Int("ledger_records", records),
		logging.Duration("scan_duration", report.Duration.Round(time.Millisecond)),
	}
	if report.Halt != HaltNone {
		attrs = append(attrs, logging.String("halted", string(report.Halt)))
	}
	if report.Err != nil {
		attrs = append(attrs, logging.Error(report.Err))
	}
	if report.Halt == HaltFeedError || report.Halt == HaltLedgerError || report.Halt.Throttled() {
		logging.WarnWithContext(logger, "channel scan ended early", "scan_halted", attrs...)
		return
	}
	logger.Info("channel scan finished", logging.Args(attrs...)...)
}
