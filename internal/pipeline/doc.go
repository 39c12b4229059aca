// Package pipeline drives one eligible video through the transcript, summary,
// and audio stages.
//
// Each stage writes exactly one artifact and treats that artifact's presence
// as proof of completion, so a rerun after a partial failure resumes at the
// first missing file. A transcript failure ends the item immediately; summary
// and audio failures are recorded against the item while the transcript stays
// in the workspace for the next run.
package pipeline
