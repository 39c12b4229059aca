// Package llm provides an OpenAI-compatible chat client used to summarize
// video transcripts.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Summarize: send a transcript with channel and video context, receive
// the model's plain-text summary.
// Client.HealthCheck: single-attempt probe used by preflight.
//
// # Retry Behaviour
//
// Summarize retries on HTTP 408/429/5xx errors, network timeouts, and empty
// completions with exponential backoff (base 1s, max 10s, up to 5 attempts by
// default). Retry-After headers are honoured up to the cap. Context
// cancellation aborts retries immediately.
//
// The returned text still needs markdown stripping; see textutil.CleanSummary.
package llm
