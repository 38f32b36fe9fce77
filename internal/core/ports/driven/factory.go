package driven

import "github.com/pressvec/pressvec-cli/internal/core/domain"

// PipelineFactory builds the per-run collaborators from loaded
// settings. Settings govern the content types, embedding model and
// index identity, so the adapters can only be constructed once settings
// are known.
type PipelineFactory interface {
	// ContentSource builds the document fetcher.
	ContentSource(settings *domain.Settings) (ContentSource, error)

	// EmbeddingService builds the embedding generator.
	EmbeddingService(settings *domain.Settings) (EmbeddingService, error)

	// VectorIndex builds the vector store gateway.
	VectorIndex(settings *domain.Settings) (VectorIndex, error)
}
