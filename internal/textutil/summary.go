package textutil

import (
	"regexp"
	"strings"
)

var (
	markdownMarkers = regexp.MustCompile("[*#_`]")
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

// CleanSummary strips markdown emphasis and heading markers and collapses
// whitespace so the text reads cleanly when synthesized.
func CleanSummary(text string) string {
	text = markdownMarkers.ReplaceAllString(text, "")
	text = whitespaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
