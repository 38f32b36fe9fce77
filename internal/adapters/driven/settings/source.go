// Package settings loads the remote settings document that governs a
// run: chunking parameters, embedding model, content types and index
// identity.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pressvec/pressvec-cli/internal/core/domain"
	"github.com/pressvec/pressvec-cli/internal/core/ports/driven"
	"github.com/pressvec/pressvec-cli/internal/logger"
)

// Ensure HTTPSource implements the interface.
var _ driven.SettingsSource = (*HTTPSource)(nil)

const defaultTimeout = 15 * time.Second

// HTTPSource fetches settings from a remote JSON document once and
// caches them for the lifetime of the process. Settings failures are
// fatal: nothing downstream can be configured without them.
type HTTPSource struct {
	client *http.Client
	url    string

	mu     sync.Mutex
	cached *domain.Settings
}

// NewHTTPSource creates a source reading the given URL.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		client: &http.Client{Timeout: defaultTimeout},
		url:    url,
	}
}

// Load returns the settings, fetching and validating them on the first
// call. A failed fetch is not cached; the next call tries again.
func (s *HTTPSource) Load(ctx context.Context) (*domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return s.cached, nil
	}

	loaded, err := s.fetch(ctx)
	if err != nil {
		return nil, domain.Fatal("load settings", err)
	}
	if err := loaded.Validate(); err != nil {
		return nil, domain.Fatal("validate settings", err)
	}

	logger.Info("Settings loaded: model=%s dim=%d chunkSize=%d overlap=%d",
		loaded.EmbeddingModel, loaded.EmbeddingDimension, loaded.ChunkSize, loaded.ChunkOverlap)
	s.cached = loaded
	return s.cached, nil
}

func (s *HTTPSource) fetch(ctx context.Context) (*domain.Settings, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("settings endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var loaded domain.Settings
	if err := json.Unmarshal(body, &loaded); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	// Documents written before versioning carry no schemaVersion.
	if loaded.SchemaVersion == 0 {
		loaded.SchemaVersion = domain.CurrentSchemaVersion
	}
	return &loaded, nil
}
