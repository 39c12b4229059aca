// Package textutil provides the text shaping used around the pipeline:
// filesystem-safe artifact names, summary cleanup, and sentence-aligned
// chunking of text for byte-limited speech synthesis requests.
package textutil
