package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"tubeharvest/internal/config"
	"tubeharvest/internal/ledger"
	"tubeharvest/internal/logging"
	"tubeharvest/internal/pipeline"
	"tubeharvest/internal/preflight"
	"tubeharvest/internal/runlock"
	"tubeharvest/internal/services/llm"
	"tubeharvest/internal/services/tts"
	"tubeharvest/internal/services/youtube"
	"tubeharvest/internal/stage"
	"tubeharvest/internal/workspace"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, preflight checks, and pending workspace files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			p := newStatusPrinter(out)

			p.section("Harvester")
			if ctx.configSeen {
				p.line("Config", statusOK, ctx.configPath)
			} else {
				p.line("Config", statusWarn, ctx.configPath+" (not found, using defaults)")
			}
			if len(cfg.Channels) == 0 {
				p.line("Channels", statusWarn, "none configured")
			} else {
				p.line("Channels", statusInfo, strconv.Itoa(len(cfg.Channels)))
			}
			p.line("Recency window", statusInfo, fmt.Sprintf("%d days", cfg.Processing.DaysBack))
			p.line("Ledger", statusInfo, ledgerDescription(cfg))
			held, pid, err := runlock.Held(cfg.LockPath())
			switch {
			case err != nil:
				p.line("Run", statusWarn, err.Error())
			case held && pid > 0:
				p.line("Run", statusInfo, fmt.Sprintf("in progress (pid %d)", pid))
			case held:
				p.line("Run", statusInfo, "in progress")
			default:
				p.line("Run", statusInfo, "idle")
			}

			p.section("Preflight")
			checkCtx := cmd.Context()
			if checkCtx == nil {
				checkCtx = context.Background()
			}
			results := preflight.RunAll(checkCtx, cfg)
			if cfg.Archive.Backend != config.ArchiveS3 {
				results = append(results, preflight.CheckArchiveFromConfig(cfg))
			}
			if cfg.Feed.Source != config.FeedDataAPI {
				results = append(results, preflight.CheckFeedFromConfig(cfg))
			}
			for _, r := range results {
				p.result(r)
			}

			p.section("Stages")
			for _, r := range preflight.FromStageHealth(stageHealth(checkCtx, cfg)) {
				p.result(r)
			}

			channels, err := workspace.ListChannels(cfg.Paths.WorkspaceDir, workspace.FoldersFromConfig(cfg))
			if err != nil {
				return fmt.Errorf("list workspace: %w", err)
			}
			p.section("Workspace")
			if len(channels) == 0 {
				p.line("Channels", statusInfo, "workspace is empty")
				return nil
			}
			rows := make([][]string, 0, len(channels))
			for _, ch := range channels {
				rows = append(rows, []string{
					ch.Name,
					strconv.Itoa(ch.Pending),
					logging.FormatBytes(ch.Size),
					ch.ModTime.Format(time.DateTime),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Channel", "Pending files", "Size", "Modified"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func ledgerDescription(cfg *config.Config) string {
	switch cfg.Ledger.Backend {
	case config.LedgerRedis:
		return "redis (" + cfg.Ledger.RedisKeyPrefix + ")"
	case config.LedgerCSV:
		return "csv (per-channel " + ledger.CSVFileName + ")"
	default:
		return cfg.Ledger.Backend + " (" + cfg.Ledger.Path + ")"
	}
}

// stageHealth builds the pipeline stages without opening the ledger or the
// archive so their readiness can be reported.
func stageHealth(ctx context.Context, cfg *config.Config) []stage.Health {
	llmCfg := cfg.SummarizerLLM()
	deps := pipeline.Deps{
		Fetcher: youtube.NewTranscriptClientFromConfig(cfg),
		Summarizer: llm.NewClient(llm.Config{
			APIKey:  llmCfg.APIKey,
			BaseURL: llmCfg.BaseURL,
			Model:   llmCfg.Model,
			Referer: llmCfg.Referer,
			Title:   llmCfg.Title,
		}, llm.WithRetryMaxAttempts(1)),
	}
	if synth, err := tts.NewFromConfig(ctx, cfg); err == nil {
		deps.Synthesizer = synth
	}
	return pipeline.NewRunner(deps).HealthChecks(ctx)
}
