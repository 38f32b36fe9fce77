package driving

import (
	"context"

	"github.com/pressvec/pressvec-cli/internal/core/domain"
)

// PipelineOrchestrator runs the ingestion-to-vector pipeline.
type PipelineOrchestrator interface {
	// Index fetches all documents, chunks, embeds and upserts them.
	// It never returns an error: every failure, fatal ones included,
	// is recorded in the result and Success is set accordingly.
	Index(ctx context.Context) *domain.RunResult

	// Clean removes vectors whose source documents no longer exist.
	// It is a no-op when reconciliation is disabled in settings.
	Clean(ctx context.Context) (*domain.CleanResult, error)

	// DeleteAll removes every vector scoped to the current domain
	// and returns how many were deleted.
	DeleteAll(ctx context.Context) (int, error)

	// Stats returns an index-wide snapshot from the vector store.
	Stats(ctx context.Context) (*domain.IndexStats, error)

	// Status returns a snapshot of the in-flight run.
	Status() *domain.RunStatus
}
