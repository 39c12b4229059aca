package textutil

import "strings"

// SplitSentences breaks text into runs that end with one or more of '.', '!'
// or '?'. A trailing fragment without a terminator is kept as the last
// sentence, and text with no terminator at all is a single sentence.
func SplitSentences(text string) []string {
	var (
		sentences []string
		start     int
		inTerm    bool
	)
	for i, r := range text {
		isTerm := r == '.' || r == '!' || r == '?'
		if inTerm && !isTerm {
			sentences = append(sentences, text[start:i])
			start = i
		}
		inTerm = isTerm
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	if len(sentences) == 0 {
		return []string{text}
	}
	return sentences
}

// ChunkSentences groups sentences greedily into chunks whose UTF-8 size stays
// within maxBytes. A single sentence larger than maxBytes becomes its own
// chunk. Chunks are trimmed and empty chunks dropped.
func ChunkSentences(text string, maxBytes int) []string {
	var (
		chunks  []string
		current strings.Builder
	)
	flush := func() {
		if chunk := strings.TrimSpace(current.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
	}
	for _, sentence := range SplitSentences(text) {
		if current.Len()+len(sentence) <= maxBytes {
			current.WriteString(sentence)
			continue
		}
		flush()
		current.WriteString(sentence)
	}
	flush()
	return chunks
}
