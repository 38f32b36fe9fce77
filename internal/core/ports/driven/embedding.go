package driven

import "context"

// EmbeddingService generates vector embeddings for text.
type EmbeddingService interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. The result
	// preserves input order and has exactly one vector per text.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// RequestCount returns the cumulative number of underlying API
	// calls made, for observability.
	RequestCount() int64
}
