// Package logging assembles structured slog loggers and formatting helpers used
// across tubeharvest.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code automatically
// tags log lines with the channel, video ID, stage, and run correlation ID.
// NewFromConfig fans console output out to a per-run JSON log file so each
// harvest leaves a machine-readable trail that PruneRunLogs later prunes.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape and routing guarantees as the rest
// of the system.
package logging
