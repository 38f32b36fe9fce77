// Package factory builds the per-run pipeline collaborators from
// loaded settings and local configuration.
package factory

import (
	"fmt"

	"github.com/pressvec/pressvec-cli/internal/adapters/driven/config/file"
	"github.com/pressvec/pressvec-cli/internal/adapters/driven/embedding/openai"
	"github.com/pressvec/pressvec-cli/internal/adapters/driven/vectorstore/pinecone"
	"github.com/pressvec/pressvec-cli/internal/connectors/wordpress"
	"github.com/pressvec/pressvec-cli/internal/core/domain"
	"github.com/pressvec/pressvec-cli/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.PipelineFactory = (*Factory)(nil)

// Factory builds adapters from the local config plus run settings.
type Factory struct {
	cfg *file.Config
}

// New creates a factory over the local configuration.
func New(cfg *file.Config) *Factory {
	return &Factory{cfg: cfg}
}

// ContentSource builds the WordPress fetcher.
func (f *Factory) ContentSource(settings *domain.Settings) (driven.ContentSource, error) {
	client, err := wordpress.NewClient(wordpress.ClientConfig{
		SiteURL:     f.cfg.SiteURL,
		Username:    f.cfg.Username,
		AppPassword: f.cfg.AppPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("create wordpress client: %w", err)
	}
	return wordpress.New(client, settings), nil
}

// EmbeddingService builds the OpenAI embedding generator.
func (f *Factory) EmbeddingService(settings *domain.Settings) (driven.EmbeddingService, error) {
	svc, err := openai.NewEmbeddingService(openai.Config{
		APIKey:     f.cfg.OpenAIAPIKey,
		Model:      settings.EmbeddingModel,
		Dimensions: settings.EmbeddingDimension,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding service: %w", err)
	}
	return svc, nil
}

// VectorIndex builds the Pinecone gateway.
func (f *Factory) VectorIndex(settings *domain.Settings) (driven.VectorIndex, error) {
	store, err := pinecone.NewStore(pinecone.Config{
		Host:          settings.VectorIndexHost,
		APIKey:        f.cfg.PineconeAPIKey,
		Namespace:     f.cfg.Namespace,
		Domain:        f.cfg.Domain,
		SchemaVersion: settings.SchemaVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("create vector store: %w", err)
	}
	return store, nil
}
