package logging

import "strings"

// FormatSubject builds the channel/video/stage subject string used in console output.
func FormatSubject(channel, videoID, stage string) string {
	channel = strings.TrimSpace(channel)
	videoID = strings.TrimSpace(videoID)
	stage = strings.TrimSpace(stage)
	parts := make([]string, 0, 2)
	if channel != "" {
		parts = append(parts, channel)
	}
	switch {
	case videoID != "" && stage != "":
		parts = append(parts, videoID+" ("+stage+")")
	case videoID != "":
		parts = append(parts, videoID)
	case stage != "":
		parts = append(parts, stage)
	}
	return strings.Join(parts, " · ")
}
