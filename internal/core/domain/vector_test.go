package domain

import (
	"errors"
	"testing"
)

func TestVectorID(t *testing.T) {
	tests := []struct {
		name       string
		documentID int
		chunkIndex int
		want       string
	}{
		{"first chunk", 42, 0, "doc-42-chunk-0"},
		{"later chunk", 42, 17, "doc-42-chunk-17"},
		{"zero document", 0, 0, "doc-0-chunk-0"},
		{"large values", 987654321, 1000, "doc-987654321-chunk-1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VectorID(1, tt.documentID, tt.chunkIndex)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("VectorID(1, %d, %d) = %q, want %q",
					tt.documentID, tt.chunkIndex, got, tt.want)
			}
		})
	}
}

func TestVectorID_Deterministic(t *testing.T) {
	first, _ := VectorID(1, 7, 3)
	second, _ := VectorID(1, 7, 3)
	if first != second {
		t.Errorf("same input produced different IDs: %q vs %q", first, second)
	}
}

func TestVectorID_UnknownSchema(t *testing.T) {
	_, err := VectorID(99, 1, 0)
	if !errors.Is(err, ErrUnsupportedSchema) {
		t.Errorf("expected ErrUnsupportedSchema, got %v", err)
	}
}

func TestParseVectorID_RoundTrip(t *testing.T) {
	for _, docID := range []int{0, 1, 42, 987654321} {
		for _, chunk := range []int{0, 5, 999} {
			id, err := VectorID(1, docID, chunk)
			if err != nil {
				t.Fatalf("VectorID(1, %d, %d): %v", docID, chunk, err)
			}
			gotDoc, gotChunk, ok := ParseVectorID(1, id)
			if !ok {
				t.Fatalf("ParseVectorID(1, %q) failed", id)
			}
			if gotDoc != docID || gotChunk != chunk {
				t.Errorf("round trip of %q gave (%d, %d), want (%d, %d)",
					id, gotDoc, gotChunk, docID, chunk)
			}
		}
	}
}

func TestParseVectorID_RejectsForeignIDs(t *testing.T) {
	foreign := []string{
		"",
		"doc-",
		"doc-42",
		"doc-42-chunk-",
		"doc--chunk-0",
		"doc-abc-chunk-0",
		"doc-42-chunk-xyz",
		"doc-42-chunk--1",
		"doc--5-chunk-0",
		"post-42-chunk-0",
		"42-chunk-0",
		"some-external-vector-id",
	}

	for _, id := range foreign {
		if _, _, ok := ParseVectorID(1, id); ok {
			t.Errorf("ParseVectorID(1, %q) accepted a foreign ID", id)
		}
	}
}

func TestParseVectorID_UnknownSchema(t *testing.T) {
	if _, _, ok := ParseVectorID(2, "doc-1-chunk-0"); ok {
		t.Error("unknown schema versions must not parse")
	}
}
