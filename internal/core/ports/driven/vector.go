package driven

import (
	"context"

	"github.com/pressvec/pressvec-cli/internal/core/domain"
)

// VectorIndex is the gateway to the remote vector store. All read and
// delete operations are scoped to the current domain so multiple source
// sites can share one index.
type VectorIndex interface {
	// Upsert writes vectors in batches. Empty input is a no-op.
	// Upserts are idempotent: vector IDs are deterministic.
	Upsert(ctx context.Context, vectors []domain.Vector) error

	// DeleteByIDs removes vectors by ID in batches. Empty input is a
	// no-op.
	DeleteByIDs(ctx context.Context, ids []string) error

	// DeleteByDocumentIDs removes every vector belonging to the
	// given source documents via a single metadata-filtered delete.
	DeleteByDocumentIDs(ctx context.Context, documentIDs []int) error

	// ListDomainVectorIDs enumerates the IDs of every vector whose
	// domain metadata matches the current domain.
	ListDomainVectorIDs(ctx context.Context) ([]string, error)

	// DeleteAllForDomain removes every domain-scoped vector and
	// returns how many were deleted.
	DeleteAllForDomain(ctx context.Context) (int, error)

	// Query returns the IDs and scores of the topK nearest
	// domain-scoped vectors.
	Query(ctx context.Context, vector []float32, topK int) ([]domain.QueryMatch, error)

	// Stats returns an index-wide snapshot.
	Stats(ctx context.Context) (*domain.IndexStats, error)

	// UpsertedCount returns the cumulative number of vectors
	// upserted through this gateway.
	UpsertedCount() int64
}
