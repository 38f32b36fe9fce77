package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Settings is the remote configuration document governing a run.
// It is fetched once per run and immutable thereafter.
type Settings struct {
	// SchemaVersion selects the vector identity scheme.
	SchemaVersion int `json:"schemaVersion" validate:"min=1"`

	// PostTypes are the content types to index, in configuration
	// order. Ignored when AutoDiscover is set.
	PostTypes []string `json:"postTypes"`

	// PostTypesExclude are content types never indexed, applied on
	// top of PostTypes or discovery.
	PostTypesExclude []string `json:"postTypesExclude"`

	// AutoDiscover enables discovering indexable content types from
	// the source instead of using PostTypes.
	AutoDiscover bool `json:"autoDiscover"`

	// CleanDeleted enables orphaned-vector reconciliation.
	CleanDeleted bool `json:"cleanDeleted"`

	// EmbeddingModel is the embedding model identifier.
	EmbeddingModel string `json:"embeddingModel" validate:"required"`

	// EmbeddingDimension is the vector dimension requested from the
	// embedding API and expected by the index.
	EmbeddingDimension int `json:"embeddingDimension" validate:"min=1,max=10000"`

	// ChunkSize is the chunk window in characters.
	ChunkSize int `json:"chunkSize" validate:"min=100,max=10000"`

	// ChunkOverlap is the character overlap between consecutive
	// chunks. Must be smaller than ChunkSize.
	ChunkOverlap int `json:"chunkOverlap" validate:"min=0"`

	// VectorIndexHost is the data-plane host of the vector index.
	VectorIndexHost string `json:"vectorIndexHost" validate:"required"`

	// VectorIndexName identifies the index.
	VectorIndexName string `json:"vectorIndexName" validate:"required"`
}

// Validate checks the settings invariants. The overlap/size relation is
// a cross-field rule the struct tags cannot express.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if s.ChunkOverlap >= s.ChunkSize {
		return fmt.Errorf("%w: chunkOverlap %d must be smaller than chunkSize %d",
			ErrInvalidSettings, s.ChunkOverlap, s.ChunkSize)
	}
	if _, err := VectorID(s.SchemaVersion, 0, 0); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return nil
}

// Categories returns the content types to fetch in order, with the
// exclusion list applied. The discovered slice is only consulted when
// AutoDiscover is set.
func (s *Settings) Categories(discovered []string) []string {
	source := s.PostTypes
	if s.AutoDiscover {
		source = discovered
	}

	excluded := make(map[string]struct{}, len(s.PostTypesExclude))
	for _, t := range s.PostTypesExclude {
		excluded[t] = struct{}{}
	}

	out := make([]string, 0, len(source))
	for _, t := range source {
		if _, skip := excluded[t]; skip {
			continue
		}
		out = append(out, t)
	}
	return out
}
