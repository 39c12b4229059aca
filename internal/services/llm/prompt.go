package llm

import "strings"

// SummarySystemPrompt frames the model as a plain-text summarizer.
const SummarySystemPrompt = "You are a detailed and analytical summarization assistant. Do not use any markdown formatting in your output."

// BuildSummaryPrompt assembles the user message sent with each transcript.
func BuildSummaryPrompt(transcript, channelDetails, videoDetails string) string {
	var b strings.Builder
	b.Grow(len(transcript) + 768)
	b.WriteString("Using the details provided below, generate a comprehensive and detailed summary that thoroughly covers all key insights and nuances present in the transcript. ")
	b.WriteString("Provide a detailed explanation including any critical analysis or observations that are relevant. ")
	b.WriteString("Explain with examples from the transcript where applicable. ")
	b.WriteString("Explain technical steps being explained where applicable. ")
	b.WriteString("Include the channel name and video details at the beginning. ")
	b.WriteString("Do not use any markdown formatting (avoid symbols like asterisks, hashes, underscores, or backticks).\n\n")
	b.WriteString("Channel Details:\n")
	b.WriteString(strings.TrimSpace(channelDetails))
	b.WriteString("\n\nVideo Details:\n")
	b.WriteString(strings.TrimSpace(videoDetails))
	b.WriteString("\n\nTranscript:\n")
	b.WriteString(transcript)
	b.WriteString("\n\nDetailed Summary:")
	return b.String()
}
