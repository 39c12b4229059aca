package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tubeharvest/internal/archive"
	"tubeharvest/internal/config"
	"tubeharvest/internal/eligibility"
	"tubeharvest/internal/harvest"
	"tubeharvest/internal/ledger"
	"tubeharvest/internal/notifications"
	"tubeharvest/internal/pipeline"
	"tubeharvest/internal/scan"
	"tubeharvest/internal/services/llm"
	"tubeharvest/internal/services/tts"
	"tubeharvest/internal/services/youtube"
	"tubeharvest/internal/workspace"
)

// harvester bundles an orchestrator with the resources it holds open.
type harvester struct {
	orchestrator *harvest.Orchestrator
	ledgers      ledger.Provider
}

func (h *harvester) Close() error {
	if h == nil || h.ledgers == nil {
		return nil
	}
	return h.ledgers.Close()
}

// buildHarvester wires every collaborator selected by cfg for channels.
func buildHarvester(ctx context.Context, cfg *config.Config, channels []string, notifier notifications.Service, logger *slog.Logger) (*harvester, error) {
	source, err := youtube.NewSource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("feed source: %w", err)
	}

	llmCfg := cfg.SummarizerLLM()
	summarizer := llm.NewClient(llm.Config{
		APIKey:         llmCfg.APIKey,
		BaseURL:        llmCfg.BaseURL,
		Model:          llmCfg.Model,
		MaxTokens:      llmCfg.MaxTokens,
		Temperature:    llmCfg.Temperature,
		Referer:        llmCfg.Referer,
		Title:          llmCfg.Title,
		TimeoutSeconds: llmCfg.TimeoutSeconds,
	})

	synth, err := tts.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("text-to-speech: %w", err)
	}

	store, err := archive.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}

	ledgers, err := ledger.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}

	runner := pipeline.NewRunner(pipeline.Deps{
		Fetcher:     youtube.NewTranscriptClientFromConfig(cfg),
		Summarizer:  summarizer,
		Synthesizer: synth,
		Languages:   cfg.Transcripts.PreferredLanguages,
		Audio: pipeline.AudioOptions{
			ChunkBytes: cfg.TTS.ChunkBytes,
			ChunkPause: time.Duration(cfg.TTS.ChunkPauseMS) * time.Millisecond,
			MaxRetries: cfg.Processing.MaxRetries,
		},
		Notifier: notifier,
		Logger:   logger,
	})

	scanner, err := scan.New(scan.Options{
		Source:       source,
		Ledgers:      ledgers,
		Filter:       eligibility.New(cfg.Processing.SkipKeywords, cfg.RecencyWindow(), time.Now),
		Runner:       runner,
		WorkspaceDir: cfg.Paths.WorkspaceDir,
		Folders:      workspace.FoldersFromConfig(cfg),
		Naming:       workspace.NamingFromConfig(cfg),
		VideoDelay:   cfg.VideoDelay(),
		Logger:       logger,
	})
	if err != nil {
		return nil, errors.Join(err, ledgers.Close())
	}

	orchestrator, err := harvest.New(harvest.Options{
		Channels: channels,
		Scanner:  scanner,
		Store:    store,
		Archive: archive.SyncOptions{
			BaseFolder: cfg.Archive.BaseFolder,
			KeepLocal:  cfg.Archive.KeepLocal,
		},
		ChannelDelay: cfg.ChannelDelay(),
		Notifier:     notifier,
		Logger:       logger,
	})
	if err != nil {
		return nil, errors.Join(err, ledgers.Close())
	}

	return &harvester{orchestrator: orchestrator, ledgers: ledgers}, nil
}
