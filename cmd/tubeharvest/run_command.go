package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tubeharvest/internal/config"
	"tubeharvest/internal/harvest"
	"tubeharvest/internal/logging"
	"tubeharvest/internal/notifications"
	"tubeharvest/internal/preflight"
	"tubeharvest/internal/runlock"
	"tubeharvest/internal/services"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var channels []string
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan every configured channel and process new videos",
		Long: "Scan the configured channels newest-first, fetch transcripts, summarize\n" +
			"them, synthesize audio, and archive the results. Use --channel to limit\n" +
			"the run to specific channels.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			selected := selectChannels(cfg.Channels, channels)
			if len(selected) == 0 {
				if err := cfg.ValidateRunnable(); err != nil {
					return err
				}
				return errors.New("none of the requested channels are configured")
			}
			return runHarvest(cmd.Context(), cmd.OutOrStdout(), cfg, selected, skipPreflight)
		},
	}

	cmd.Flags().StringSliceVar(&channels, "channel", nil, "Only process these channels (repeatable; defaults to all configured)")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start without running preflight checks")
	return cmd
}

// selectChannels returns the configured channels, or the requested ones. A
// requested channel that is not configured is still honoured so one-off runs
// need no config edit.
func selectChannels(configured, requested []string) []string {
	if len(requested) == 0 {
		return configured
	}
	out := make([]string, 0, len(requested))
	seen := make(map[string]struct{}, len(requested))
	for _, ch := range requested {
		ch = strings.TrimSpace(ch)
		if ch == "" {
			continue
		}
		if _, ok := seen[ch]; ok {
			continue
		}
		seen[ch] = struct{}{}
		out = append(out, ch)
	}
	return out
}

func runHarvest(parent context.Context, out io.Writer, cfg *config.Config, channels []string, skipPreflight bool) error {
	if parent == nil {
		parent = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	lock, err := runlock.Acquire(cfg.LockPath())
	if err != nil {
		return err
	}
	defer lock.Release()

	logger, runLog, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logging.PruneRunLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, runLog)

	runID := uuid.NewString()
	runCtx := services.WithRequestID(signalCtx, runID)

	if !skipPreflight {
		if failed := preflight.Failed(preflight.RunAll(runCtx, cfg)); len(failed) > 0 {
			for _, r := range failed {
				logging.ErrorWithContext(logging.WithContext(runCtx, logger), "preflight check failed", "preflight_failed",
					logging.String("check", r.Name),
					logging.String("detail", r.Detail),
					logging.String(logging.FieldErrorHint, "run `tubeharvest status` for the full report"),
				)
			}
			return fmt.Errorf("preflight failed: %s", failedNames(failed))
		}
	}

	notifier := notifications.NewService(cfg)
	h, err := buildHarvester(runCtx, cfg, channels, notifier, logger)
	if err != nil {
		return err
	}
	defer h.Close()

	summary, runErr := h.orchestrator.Run(runCtx)
	fmt.Fprintln(out, renderRunSummary(summary))
	if runLog != "" {
		fmt.Fprintf(out, "Run log: %s\n", runLog)
	}
	if runErr != nil {
		return runErr
	}
	if summary.Errors > 0 {
		return fmt.Errorf("%d of %d channels reported errors", summary.Errors, len(summary.Channels))
	}
	return nil
}

func failedNames(results []preflight.Result) string {
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	return strings.Join(names, ", ")
}

func renderRunSummary(summary harvest.Summary) string {
	rows := make([][]string, 0, len(summary.Channels))
	for _, ch := range summary.Channels {
		halt := string(ch.Report.Halt)
		if halt == "" {
			halt = "-"
		}
		errText := "-"
		if ch.Err != nil {
			errText = truncate(ch.Err.Error(), 60)
		}
		rows = append(rows, []string{
			ch.Channel,
			strconv.Itoa(ch.Report.Scanned),
			strconv.Itoa(ch.Report.Skipped),
			strconv.Itoa(ch.Report.Succeeded),
			strconv.Itoa(ch.Report.Failed),
			strconv.Itoa(ch.Archive.Uploaded),
			halt,
			errText,
		})
	}
	table := renderTable(
		[]string{"Channel", "Scanned", "Skipped", "Processed", "Failed", "Uploaded", "Halt", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft},
	)
	return fmt.Sprintf("%s\nProcessed %d, failed %d in %s", table, summary.Succeeded, summary.Failed, summary.Duration.Round(time.Second))
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
