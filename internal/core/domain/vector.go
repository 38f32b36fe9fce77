package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Metadata keys carried on every stored vector.
const (
	// MetaDomain scopes a vector to one source site so multiple
	// sites can share a vector index.
	MetaDomain = "domain"

	// MetaSchemaVersion records the ID/metadata scheme version the
	// vector was written with.
	MetaSchemaVersion = "schemaVersion"

	// MetaDocumentID is the numeric source document ID.
	MetaDocumentID = "documentId"

	// MetaChunkIndex is the chunk's position within its document.
	MetaChunkIndex = "chunkIndex"

	// MetaCategory is the source content type.
	MetaCategory = "category"

	// MetaTitle is the document title.
	MetaTitle = "title"

	// MetaURL is the document's public link.
	MetaURL = "url"

	// MetaContentHash is a hash of the full document body, kept for
	// change detection.
	MetaContentHash = "contentHash"
)

// CurrentSchemaVersion is the vector identity scheme written by this
// build. Reads accept any known version.
const CurrentSchemaVersion = 1

// Vector is one embedding stored in the remote index.
type Vector struct {
	// ID is the deterministic identity derived from the document ID
	// and chunk index. It is the system's only durable cross-run key
	// and drives reconciliation.
	ID string

	// Values is the embedding, fixed dimension per index.
	Values []float32

	// Metadata always carries at least MetaDomain and
	// MetaSchemaVersion.
	Metadata map[string]any
}

// VectorID derives the stored identity for a chunk of a document under
// the given scheme version. The v1 scheme is "doc-{id}-chunk-{n}".
// Identical input always yields the identical ID, which is what makes
// re-indexing idempotent.
func VectorID(schemaVersion, documentID, chunkIndex int) (string, error) {
	switch schemaVersion {
	case 1:
		return fmt.Sprintf("doc-%d-chunk-%d", documentID, chunkIndex), nil
	default:
		return "", fmt.Errorf("%w: vector ID scheme version %d", ErrUnsupportedSchema, schemaVersion)
	}
}

// ParseVectorID reverses VectorID, recovering the document ID and chunk
// index from a stored vector identity. Returns ok=false for IDs that do
// not match the scheme (foreign vectors sharing the index are expected
// and skipped by callers).
func ParseVectorID(schemaVersion int, id string) (documentID, chunkIndex int, ok bool) {
	switch schemaVersion {
	case 1:
		rest, found := strings.CutPrefix(id, "doc-")
		if !found {
			return 0, 0, false
		}
		docPart, chunkPart, found := strings.Cut(rest, "-chunk-")
		if !found {
			return 0, 0, false
		}
		docID, err := strconv.Atoi(docPart)
		if err != nil || docID < 0 {
			return 0, 0, false
		}
		idx, err := strconv.Atoi(chunkPart)
		if err != nil || idx < 0 {
			return 0, 0, false
		}
		return docID, idx, true
	default:
		return 0, 0, false
	}
}

// QueryMatch is one similarity-search hit.
type QueryMatch struct {
	ID       string
	Score    float32
	Metadata map[string]any
}

// IndexStats is a snapshot of the remote index reported by the store.
type IndexStats struct {
	// VectorCount is the total number of vectors in the index, all
	// domains included.
	VectorCount int64

	// Dimension is the index's embedding dimension.
	Dimension int
}
