// Package splitter turns normalised document text into ordered,
// overlapping chunks with stable boundaries. Splitting is a pure
// function of its inputs: identical text always produces identical
// chunks, which keeps vector IDs stable across re-indexing runs.
package splitter

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pressvec/pressvec-cli/internal/core/domain"
)

// DefaultChunkSize is the default chunk window in characters.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default overlap between chunks.
const DefaultChunkOverlap = 200

// boundaryWindow is the fraction of the chunk window searched backward
// for a natural cut point.
const boundaryWindow = 5 // last 1/5th

var whitespaceRuns = regexp.MustCompile(`\s+`)

// Normalize collapses all whitespace runs to single spaces and trims
// the ends.
func Normalize(text string) string {
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(text, " "))
}

// Split normalises text and cuts it into chunks of at most chunkSize
// characters with the given overlap. Boundaries prefer a sentence end,
// then a whitespace boundary, searched within the last 20% of the
// window; otherwise the cut lands at the window edge. Text no longer
// than chunkSize comes back as a single chunk.
func Split(text string, chunkSize, overlap int) []domain.Chunk {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 4
	}

	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}
	if len(normalized) <= chunkSize {
		return []domain.Chunk{{Text: normalized, Index: 0}}
	}

	chunks := make([]domain.Chunk, 0, len(normalized)/(chunkSize-overlap)+1)
	start := 0
	index := 0

	for start < len(normalized) {
		end := start + chunkSize
		if end >= len(normalized) {
			end = len(normalized)
		} else {
			end = cutPoint(normalized, start, end)
		}

		piece := strings.TrimSpace(normalized[start:end])
		if piece != "" {
			chunks = append(chunks, domain.Chunk{Text: piece, Index: index})
			index++
		}

		if end >= len(normalized) {
			break
		}

		// Advance to end-overlap, clamped so the cursor always moves
		// forward even when overlap >= the produced chunk length.
		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// cutPoint picks the chunk end position for the window [start, naiveEnd).
// It scans backward through the last 20% of the window for a sentence
// end followed by a space, falling back to the last space, falling back
// to the naive position aligned to a rune boundary.
func cutPoint(s string, start, naiveEnd int) int {
	window := naiveEnd - start
	limit := naiveEnd - window/boundaryWindow
	if limit < start {
		limit = start
	}

	lastSpace := -1
	for i := naiveEnd - 1; i >= limit; i-- {
		if s[i] != ' ' {
			continue
		}
		if lastSpace < 0 {
			lastSpace = i
		}
		if i > start && isSentenceEnd(s[i-1]) {
			return i
		}
	}
	if lastSpace > start {
		return lastSpace
	}

	// No natural boundary in the window; cut at the naive position but
	// never in the middle of a multi-byte rune.
	end := naiveEnd
	for end > start && !utf8.RuneStart(s[end]) {
		end--
	}
	return end
}

func isSentenceEnd(c byte) bool {
	switch c {
	case '.', '!', '?':
		return true
	default:
		return false
	}
}
