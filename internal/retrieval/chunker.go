package retrieval

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxChunkChars bounds chunk size for embedding quality.
	DefaultMaxChunkChars = 700
	// joiner glues accumulated pieces inside a chunk regardless of the
	// separator the source text was split on.
	joiner = "\n\n"
)

// ChunkText splits content on separator and greedily packs the trimmed parts
// into chunks of at most maxChars. A single part longer than maxChars becomes
// its own oversized chunk rather than being split mid-part. Text that yields
// no parts at all comes back as one verbatim chunk so nothing indexable is
// ever dropped.
func ChunkText(content, separator string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}

	var parts []string
	for _, part := range strings.Split(content, separator) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}

	var chunks []string
	current := ""
	for _, part := range parts {
		piece := strings.TrimSpace(separator + part)
		candidate := piece
		if current != "" {
			candidate = strings.TrimSpace(current + joiner + piece)
		}
		// Size is measured in characters, not bytes.
		if utf8.RuneCountInString(candidate) <= maxChars {
			current = candidate
			continue
		}
		if current != "" {
			chunks = append(chunks, current)
		}
		current = piece
	}
	if current != "" {
		chunks = append(chunks, current)
	}

	if len(chunks) == 0 {
		return []string{content}
	}
	return chunks
}
