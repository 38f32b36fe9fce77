package driven

import (
	"context"

	"github.com/pressvec/pressvec-cli/internal/core/domain"
)

// ContentSource yields normalised documents from the source site.
type ContentSource interface {
	// FetchAll streams every indexable document. The document
	// channel is closed when all categories are drained. Category
	// failures are reported on the error channel but never stop
	// other categories; documents already yielded stay valid.
	// Each call performs fresh network requests.
	FetchAll(ctx context.Context) (<-chan domain.Document, <-chan error)
}
