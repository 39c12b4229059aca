package preflight

import (
	"context"

	"tubeharvest/internal/config"
	"tubeharvest/internal/services/googleauth"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Workspace directory", cfg.Paths.WorkspaceDir),
		CheckFreeSpace("Workspace free space", cfg.Paths.WorkspaceDir, MinFreeBytes),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckLLM(ctx, "Summarizer LLM", cfg.SummarizerLLM()),
		CheckCredentialsFile("TTS credentials", cfg.TTS.CredentialsFile, googleauth.ScopeCloudPlatform),
	}

	if cfg.Feed.Source == config.FeedDataAPI {
		results = append(results, CheckFeedFromConfig(cfg))
	}
	if cfg.Ledger.Backend == config.LedgerRedis {
		results = append(results, CheckRedis(ctx, cfg.Ledger.RedisURL))
	}

	switch cfg.Archive.Backend {
	case config.ArchiveDrive:
		results = append(results, CheckCredentialsFile("Drive credentials", cfg.Archive.Drive.CredentialsFile, googleauth.ScopeDriveFile))
	case config.ArchiveLocal:
		results = append(results, CheckDirectoryAccess("Archive directory", cfg.Archive.Local.Dir))
	case config.ArchiveS3:
		results = append(results, CheckArchiveFromConfig(cfg))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
