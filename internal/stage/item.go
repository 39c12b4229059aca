package stage

import (
	"tubeharvest/internal/feed"
	"tubeharvest/internal/workspace"
)

// Item is one eligible video moving through the pipeline. Stages fill the
// text fields as they complete, so later stages never re-read earlier output
// from disk within one run.
type Item struct {
	Channel   string
	Video     feed.Item
	Stem      string
	Artifacts workspace.Artifacts

	Transcript string
	Summary    string
	AudioBytes int

	// FreshTranscript is set when the transcript was fetched in this run
	// rather than loaded from the workspace.
	FreshTranscript bool
	// Chunks counts the synthesized audio segments.
	Chunks int
}
