package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize is roughly 375 tokens, safe for every embedding model we use.
const DefaultChunkSize = 1500

const paragraphSeparator = "\n\n"

var paragraphBoundary = regexp.MustCompile(`\n[ \t\r]*\n`)

// SplitParagraphs splits text on blank-line boundaries and returns the
// trimmed, non-empty paragraphs in order.
func SplitParagraphs(text string) []string {
	raw := paragraphBoundary.Split(text, -1)
	paragraphs := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		paragraphs = append(paragraphs, p)
	}
	return paragraphs
}

// ChunkText packs whole paragraphs into chunks of at most maxChunkSize
// characters. A paragraph is never split: one longer than the bound becomes
// its own oversized chunk.
func ChunkText(text string, maxChunkSize int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultChunkSize
	}

	var chunks []string
	var buf strings.Builder
	bufLen := 0

	flush := func() {
		chunk := strings.TrimSpace(buf.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		buf.Reset()
		bufLen = 0
	}

	for _, paragraph := range SplitParagraphs(text) {
		pLen := utf8.RuneCountInString(paragraph)
		if bufLen > 0 && bufLen+pLen+len(paragraphSeparator) > maxChunkSize {
			flush()
		}
		buf.WriteString(paragraph)
		buf.WriteString(paragraphSeparator)
		bufLen += pLen + len(paragraphSeparator)
	}
	flush()

	return chunks
}
