package splitter

import (
	"fmt"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"collapses spaces", "a  b   c", "a b c"},
		{"collapses mixed whitespace", "a\t\nb\r\n  c", "a b c"},
		{"trims ends", "  hello  ", "hello"},
		{"empty", "", ""},
		{"only whitespace", " \t\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplit_ShortText(t *testing.T) {
	text := "A short paragraph that fits in one chunk."
	chunks := Split(text, 1000, 200)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != text {
		t.Errorf("expected chunk to equal normalized input, got %q", chunks[0].Text)
	}
	if chunks[0].Index != 0 {
		t.Errorf("expected index 0, got %d", chunks[0].Index)
	}
}

func TestSplit_EmptyText(t *testing.T) {
	if chunks := Split("", 1000, 200); chunks != nil {
		t.Errorf("expected nil for empty text, got %d chunks", len(chunks))
	}
	if chunks := Split("   \n\t  ", 1000, 200); chunks != nil {
		t.Errorf("expected nil for whitespace-only text, got %d chunks", len(chunks))
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 100)

	first := Split(text, 300, 50)
	second := Split(text, 300, 50)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs: %q vs %q", i, first[i].Text, second[i].Text)
		}
	}
}

func TestSplit_IndexesContiguous(t *testing.T) {
	text := strings.Repeat("Sentence one here. Sentence two follows. ", 50)
	chunks := Split(text, 200, 40)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Errorf("chunk %d has index %d", i, chunk.Index)
		}
	}
}

func TestSplit_ChunksWithinSize(t *testing.T) {
	text := strings.Repeat("Lorem ipsum dolor sit amet consectetur adipiscing elit. ", 100)
	chunkSize := 250
	chunks := Split(text, chunkSize, 50)

	for i, chunk := range chunks {
		if len(chunk.Text) > chunkSize {
			t.Errorf("chunk %d has length %d, exceeds %d", i, len(chunk.Text), chunkSize)
		}
		if chunk.Text == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
}

func TestSplit_PrefersSentenceBoundary(t *testing.T) {
	// The sentence end lands inside the last 20% of the window, so the
	// chunk should end with the period.
	text := strings.Repeat("word ", 30) + "End of sentence. " + strings.Repeat("more ", 40)
	chunks := Split(text, 170, 20)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Text, ".") {
		t.Errorf("expected first chunk to end at the sentence boundary, got %q", chunks[0].Text)
	}
}

func TestSplit_FallsBackToWhitespace(t *testing.T) {
	// No sentence punctuation anywhere; cuts should still land between
	// words.
	text := strings.Repeat("alpha beta gamma delta ", 50)
	chunks := Split(text, 200, 40)

	for i, chunk := range chunks {
		if strings.HasPrefix(chunk.Text, " ") || strings.HasSuffix(chunk.Text, " ") {
			t.Errorf("chunk %d has ragged edges: %q", i, chunk.Text)
		}
	}
}

func TestSplit_NoBoundaryInWindow(t *testing.T) {
	// One unbroken run longer than the chunk size forces naive cuts.
	text := strings.Repeat("x", 2500)
	chunks := Split(text, 1000, 200)

	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0].Text) != 1000 {
		t.Errorf("expected naive cut at 1000, got %d", len(chunks[0].Text))
	}
}

func TestSplit_CursorAlwaysAdvances(t *testing.T) {
	// Overlap nearly equal to chunk size must not loop forever; the
	// clamp forces forward progress.
	text := strings.Repeat("ab ", 500)
	chunks := Split(text, 100, 99)

	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	seen := make(map[int]bool)
	for _, chunk := range chunks {
		if seen[chunk.Index] {
			t.Fatalf("duplicate chunk index %d", chunk.Index)
		}
		seen[chunk.Index] = true
	}
}

func TestSplit_OverlapBounded(t *testing.T) {
	// Every sentence is unique so each chunk has a single position in
	// the source.
	var b strings.Builder
	for i := 0; i < 80; i++ {
		fmt.Fprintf(&b, "Sentence number %03d sits right here. ", i)
	}
	text := b.String()
	size, overlap := 300, 60
	chunks := Split(text, size, overlap)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// The start of chunk i+1 reaches back no further than overlap
	// characters before the end of chunk i, and always advances.
	normalized := Normalize(text)
	prevStart, prevEnd := -1, 0
	for i, chunk := range chunks {
		start := strings.Index(normalized, chunk.Text)
		if start < 0 {
			t.Fatalf("chunk %d not found in source", i)
		}
		if start <= prevStart {
			t.Errorf("chunk %d start %d did not advance past %d", i, start, prevStart)
		}
		if i > 0 && prevEnd-start > overlap {
			t.Errorf("chunk %d overlaps previous by %d (> %d)", i, prevEnd-start, overlap)
		}
		prevStart, prevEnd = start, start+len(chunk.Text)
	}
	if prevEnd != len(normalized) {
		t.Errorf("chunks end at %d, want full coverage of %d", prevEnd, len(normalized))
	}
}

func TestSplit_MultibyteSafe(t *testing.T) {
	text := strings.Repeat("日本語のテキスト", 200)
	chunks := Split(text, 500, 100)

	for i, chunk := range chunks {
		for _, r := range chunk.Text {
			if r == '�' {
				t.Fatalf("chunk %d contains a broken rune", i)
			}
		}
	}
}

func TestSplit_DefaultsApplied(t *testing.T) {
	text := strings.Repeat("word ", 400)

	// Invalid parameters fall back to sane values instead of panicking.
	if chunks := Split(text, 0, 0); len(chunks) == 0 {
		t.Error("expected chunks with default size")
	}
	if chunks := Split(text, 100, 100); len(chunks) == 0 {
		t.Error("expected chunks with clamped overlap")
	}
}
