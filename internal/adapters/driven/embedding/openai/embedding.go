// Package openai provides an embedding service adapter using the
// OpenAI embeddings API, with rate limiting, circuit breaking, retry
// and per-item fallback for failed batches.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pressvec/pressvec-cli/internal/core/domain"
	"github.com/pressvec/pressvec-cli/internal/core/ports/driven"
	"github.com/pressvec/pressvec-cli/internal/logger"
	"github.com/pressvec/pressvec-cli/internal/resilience"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "text-embedding-3-small"
	DefaultTimeout   = 60 * time.Second
	DefaultBatchSize = 256

	// groupConcurrency bounds concurrent batch-group requests.
	groupConcurrency = 3

	// Rate limiter tuning for the embeddings endpoint.
	requestsPerSecond = 5.0
	requestBurst      = 10
)

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Dimensions is the requested embedding dimension.
	Dimensions int

	// BatchSize is the maximum texts per API request (default 256).
	BatchSize int

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// EmbeddingService generates embeddings using the OpenAI API.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	batchSize  int

	limiter  *resilience.Limiter
	breaker  *resilience.Breaker
	retry    resilience.Retry
	requests atomic.Int64
}

// embeddingRequest is the OpenAI API request format.
type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// embeddingResponse is the OpenAI API response format.
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewEmbeddingService creates a new OpenAI embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &EmbeddingService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		batchSize:  cfg.BatchSize,
		limiter:    resilience.NewLimiter(requestsPerSecond, requestBurst),
		breaker:    resilience.NewBreaker("openai", resilience.DefaultFailureThreshold, resilience.DefaultResetTimeout),
		retry:      resilience.NewRetry(),
	}, nil
}

// Embed generates a vector embedding for a single text. The call is
// rate limited, circuit broken and retried with backoff.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	var embeddings [][]float32
	err := s.retry.Do(ctx, func() error {
		var callErr error
		embeddings, callErr = s.callGuarded(ctx, []string{text})
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, domain.Permanent("embed", fmt.Errorf("no embedding returned"))
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for many texts, order preserving.
// Texts are split into groups of at most BatchSize; groups run with
// bounded concurrency. A group whose request fails, or comes back with
// the wrong item count, falls back to one Embed call per text.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	groups := make([][]string, 0, len(texts)/s.batchSize+1)
	for start := 0; start < len(texts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		groups = append(groups, texts[start:end])
	}

	outcomes, err := resilience.RunBounded(ctx, groups, groupConcurrency,
		func(ctx context.Context, group []string) ([][]float32, error) {
			return s.embedGroup(ctx, group)
		})
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}

	results := make([][]float32, 0, len(texts))
	var firstErr error
	for _, outcome := range outcomes {
		if outcome.Err != nil && firstErr == nil {
			firstErr = outcome.Err
		}
		results = append(results, outcome.Value...)
	}

	if len(results) == 0 {
		if firstErr != nil {
			return nil, fmt.Errorf("embed batch: %w", firstErr)
		}
		return nil, domain.Permanent("embed batch", fmt.Errorf("no embeddings returned for %d texts", len(texts)))
	}
	if firstErr != nil {
		return nil, fmt.Errorf("embed batch: %w", firstErr)
	}
	return results, nil
}

// embedGroup embeds one group with a single API request, falling back
// to per-item calls when the request fails or the response item count
// does not match.
func (s *EmbeddingService) embedGroup(ctx context.Context, group []string) ([][]float32, error) {
	embeddings, err := s.callGuarded(ctx, group)
	if err == nil && len(embeddings) == len(group) {
		return embeddings, nil
	}
	if err != nil {
		logger.Warn("Batch embedding failed, falling back to per-item calls: %v", err)
	} else {
		logger.Warn("Batch embedding returned %d items for %d texts, falling back to per-item calls",
			len(embeddings), len(group))
	}

	fallback := make([][]float32, len(group))
	for i, text := range group {
		vec, itemErr := s.Embed(ctx, text)
		if itemErr != nil {
			return nil, itemErr
		}
		fallback[i] = vec
	}
	return fallback, nil
}

// callGuarded performs one API call under the rate limiter and circuit
// breaker.
func (s *EmbeddingService) callGuarded(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	var embeddings [][]float32
	err := s.breaker.Do(func() error {
		var callErr error
		embeddings, callErr = s.call(ctx, texts)
		return callErr
	})
	return embeddings, err
}

// call performs the HTTP request and classifies failures into the
// retryable/permanent taxonomy.
func (s *EmbeddingService) call(ctx context.Context, texts []string) ([][]float32, error) {
	s.requests.Add(1)

	reqBody := embeddingRequest{
		Model:      s.model,
		Input:      texts,
		Dimensions: s.dimensions,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, domain.Permanent("marshal request", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/embeddings",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, domain.Permanent("create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		// Network resets and timeouts are worth retrying.
		return nil, domain.Transient("send request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.Transient("read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, body)
	}

	var embedResp embeddingResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, domain.Permanent("decode response", err)
	}
	if embedResp.Error != nil {
		return nil, domain.Permanent("openai", fmt.Errorf("%s", embedResp.Error.Message))
	}

	// Convert float64 to float32, ordered by index.
	embeddings := make([][]float32, len(texts))
	for _, data := range embedResp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			continue
		}
		embedding := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			embedding[i] = float32(v)
		}
		embeddings[data.Index] = embedding
	}

	out := make([][]float32, 0, len(embeddings))
	for _, e := range embeddings {
		if e != nil {
			out = append(out, e)
		}
	}
	return out, nil
}

// classifyStatus maps an HTTP failure status onto the error taxonomy:
// 429 and 5xx are retryable, other 4xx are not.
func classifyStatus(status int, body []byte) error {
	msg := string(body)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	switch {
	case status == http.StatusTooManyRequests:
		return domain.Transient("openai", fmt.Errorf("%w: status %d: %s", domain.ErrRateLimited, status, msg))
	case status >= 500:
		return domain.Transient("openai", fmt.Errorf("status %d: %s", status, msg))
	default:
		return domain.Permanent("openai", fmt.Errorf("status %d: %s", status, msg))
	}
}

// RequestCount returns the cumulative number of API calls made.
func (s *EmbeddingService) RequestCount() int64 {
	return s.requests.Load()
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}
