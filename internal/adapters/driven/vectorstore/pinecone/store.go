// Package pinecone provides the vector store gateway over Pinecone's
// data-plane REST API. All reads and deletes are scoped to the current
// domain via vector metadata so multiple sites can share one index.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pressvec/pressvec-cli/internal/core/domain"
	"github.com/pressvec/pressvec-cli/internal/core/ports/driven"
	"github.com/pressvec/pressvec-cli/internal/logger"
	"github.com/pressvec/pressvec-cli/internal/resilience"
)

// Ensure Store implements the interface.
var _ driven.VectorIndex = (*Store)(nil)

// Batch sizes and pacing for store mutations.
const (
	UpsertBatchSize = 100
	DeleteBatchSize = 1000
	ListPageSize    = 100

	// interBatchDelay paces delete batches so a large cleanup does
	// not saturate the API.
	interBatchDelay = 200 * time.Millisecond

	// Rate limiter tuning for the data-plane endpoints.
	requestsPerSecond = 10.0
	requestBurst      = 20

	defaultTimeout = 30 * time.Second
)

// Config holds the connection settings for one index.
type Config struct {
	// Host is the index data-plane host, e.g.
	// https://my-index-abc123.svc.us-east-1.pinecone.io.
	Host string

	// APIKey authenticates data-plane requests (required).
	APIKey string

	// Namespace scopes all operations within the index.
	Namespace string

	// Domain identifies this source site in vector metadata.
	Domain string

	// SchemaVersion is the vector identity scheme in use.
	SchemaVersion int

	// Timeout is the per-request timeout (default 30s).
	Timeout time.Duration
}

// Store is the Pinecone-backed vector store gateway.
type Store struct {
	client        *http.Client
	host          string
	apiKey        string
	namespace     string
	domain        string
	schemaVersion int

	limiter  *resilience.Limiter
	retry    resilience.Retry
	upserted atomic.Int64
}

// NewStore creates a gateway for the configured index.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("pinecone: host is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone: API key is required")
	}
	if cfg.Domain == "" {
		return nil, fmt.Errorf("pinecone: domain is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	host := cfg.Host
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	host = strings.TrimSuffix(host, "/")

	return &Store{
		client:        &http.Client{Timeout: cfg.Timeout},
		host:          host,
		apiKey:        cfg.APIKey,
		namespace:     cfg.Namespace,
		domain:        cfg.Domain,
		schemaVersion: cfg.SchemaVersion,
		limiter:       resilience.NewLimiter(requestsPerSecond, requestBurst),
		retry:         resilience.NewRetry(),
	}, nil
}

// apiVector is Pinecone's wire representation of a vector.
type apiVector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Upsert writes vectors in batches of 100 under the rate limiter and
// retry policy. Empty input is a no-op. Batches that already completed
// stay written if a later batch fails; re-running heals partial state
// because vector IDs are deterministic.
func (s *Store) Upsert(ctx context.Context, vectors []domain.Vector) error {
	if len(vectors) == 0 {
		return nil
	}

	for start := 0; start < len(vectors); start += UpsertBatchSize {
		end := start + UpsertBatchSize
		if end > len(vectors) {
			end = len(vectors)
		}
		batch := vectors[start:end]

		apiVectors := make([]apiVector, len(batch))
		for i, v := range batch {
			// Stamp the scoping metadata; domain and schemaVersion
			// are the gateway's contract, not the caller's.
			metadata := make(map[string]any, len(v.Metadata)+2)
			for k, val := range v.Metadata {
				metadata[k] = val
			}
			metadata[domain.MetaDomain] = s.domain
			metadata[domain.MetaSchemaVersion] = s.schemaVersion
			apiVectors[i] = apiVector{ID: v.ID, Values: v.Values, Metadata: metadata}
		}

		payload := map[string]any{
			"vectors":   apiVectors,
			"namespace": s.namespace,
		}
		err := s.retry.Do(ctx, func() error {
			if err := s.limiter.Acquire(ctx); err != nil {
				return err
			}
			return s.post(ctx, "/vectors/upsert", payload, nil)
		})
		if err != nil {
			return &domain.StoreError{Op: "upsert", Err: err}
		}
		s.upserted.Add(int64(len(batch)))
	}
	return nil
}

// DeleteByIDs removes vectors in batches of 1000 with a small delay
// between batches. Empty input is a no-op.
func (s *Store) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	for start := 0; start < len(ids); start += DeleteBatchSize {
		end := start + DeleteBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		payload := map[string]any{
			"ids":       ids[start:end],
			"namespace": s.namespace,
		}
		err := s.retry.Do(ctx, func() error {
			if err := s.limiter.Acquire(ctx); err != nil {
				return err
			}
			return s.post(ctx, "/vectors/delete", payload, nil)
		})
		if err != nil {
			return &domain.StoreError{Op: "delete", Err: err}
		}

		if end < len(ids) {
			timer := time.NewTimer(interBatchDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return nil
}

// DeleteByDocumentIDs removes every vector belonging to the given
// documents with one metadata-filtered delete.
func (s *Store) DeleteByDocumentIDs(ctx context.Context, documentIDs []int) error {
	if len(documentIDs) == 0 {
		return nil
	}

	payload := map[string]any{
		"namespace": s.namespace,
		"filter": map[string]any{
			"$and": []map[string]any{
				{domain.MetaDomain: map[string]any{"$eq": s.domain}},
				{domain.MetaDocumentID: map[string]any{"$in": documentIDs}},
			},
		},
	}
	err := s.retry.Do(ctx, func() error {
		if err := s.limiter.Acquire(ctx); err != nil {
			return err
		}
		return s.post(ctx, "/vectors/delete", payload, nil)
	})
	if err != nil {
		return &domain.StoreError{Op: "delete by document", Err: err}
	}
	return nil
}

// listResponse is the /vectors/list response shape.
type listResponse struct {
	Vectors []struct {
		ID string `json:"id"`
	} `json:"vectors"`
	Pagination *struct {
		Next string `json:"next"`
	} `json:"pagination"`
}

// fetchResponse is the /vectors/fetch response shape.
type fetchResponse struct {
	Vectors map[string]apiVector `json:"vectors"`
}

// ListDomainVectorIDs enumerates every vector ID whose domain metadata
// matches this store's domain. The list API returns bare IDs only, so
// each page's IDs are fetched back to read their metadata before
// filtering; the store cannot filter listings server-side by metadata.
func (s *Store) ListDomainVectorIDs(ctx context.Context) ([]string, error) {
	var matched []string
	token := ""

	for {
		page, err := s.listPage(ctx, token)
		if err != nil {
			return nil, &domain.StoreError{Op: "list", Err: err}
		}
		if len(page.Vectors) > 0 {
			ids := make([]string, len(page.Vectors))
			for i, v := range page.Vectors {
				ids[i] = v.ID
			}

			vectors, err := s.fetch(ctx, ids)
			if err != nil {
				return nil, &domain.StoreError{Op: "fetch", Err: err}
			}
			for _, id := range ids {
				v, ok := vectors[id]
				if !ok {
					continue
				}
				if v.Metadata[domain.MetaDomain] == s.domain {
					matched = append(matched, id)
				}
			}
		}

		if page.Pagination == nil || page.Pagination.Next == "" {
			break
		}
		token = page.Pagination.Next
	}

	logger.Debug("Enumerated %d vectors for domain %s", len(matched), s.domain)
	return matched, nil
}

// listPage retrieves one page of bare vector IDs.
func (s *Store) listPage(ctx context.Context, token string) (*listResponse, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(ListPageSize))
	if s.namespace != "" {
		query.Set("namespace", s.namespace)
	}
	if token != "" {
		query.Set("paginationToken", token)
	}

	var page listResponse
	err := s.retry.Do(ctx, func() error {
		if err := s.limiter.Acquire(ctx); err != nil {
			return err
		}
		return s.get(ctx, "/vectors/list?"+query.Encode(), &page)
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// fetch retrieves full vectors (metadata included) by ID.
func (s *Store) fetch(ctx context.Context, ids []string) (map[string]apiVector, error) {
	query := url.Values{}
	for _, id := range ids {
		query.Add("ids", id)
	}
	if s.namespace != "" {
		query.Set("namespace", s.namespace)
	}

	var resp fetchResponse
	err := s.retry.Do(ctx, func() error {
		if err := s.limiter.Acquire(ctx); err != nil {
			return err
		}
		return s.get(ctx, "/vectors/fetch?"+query.Encode(), &resp)
	})
	if err != nil {
		return nil, err
	}
	return resp.Vectors, nil
}

// DeleteAllForDomain enumerates and removes every domain-scoped
// vector. No-ops cleanly when the domain has no vectors.
func (s *Store) DeleteAllForDomain(ctx context.Context) (int, error) {
	ids, err := s.ListDomainVectorIDs(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.DeleteByIDs(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// queryResponse is the /query response shape.
type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float32        `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

// Query returns the topK nearest domain-scoped vectors.
func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]domain.QueryMatch, error) {
	if topK <= 0 {
		topK = 10
	}

	payload := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"namespace":       s.namespace,
		"includeMetadata": true,
		"filter": map[string]any{
			domain.MetaDomain: map[string]any{"$eq": s.domain},
		},
	}

	var resp queryResponse
	err := s.retry.Do(ctx, func() error {
		if err := s.limiter.Acquire(ctx); err != nil {
			return err
		}
		return s.post(ctx, "/query", payload, &resp)
	})
	if err != nil {
		return nil, &domain.StoreError{Op: "query", Err: err}
	}

	matches := make([]domain.QueryMatch, len(resp.Matches))
	for i, m := range resp.Matches {
		matches[i] = domain.QueryMatch{ID: m.ID, Score: m.Score, Metadata: m.Metadata}
	}
	return matches, nil
}

// statsResponse is the /describe_index_stats response shape.
type statsResponse struct {
	Dimension        int   `json:"dimension"`
	TotalVectorCount int64 `json:"totalVectorCount"`
}

// Stats returns an index-wide snapshot.
func (s *Store) Stats(ctx context.Context) (*domain.IndexStats, error) {
	var resp statsResponse
	err := s.retry.Do(ctx, func() error {
		if err := s.limiter.Acquire(ctx); err != nil {
			return err
		}
		return s.post(ctx, "/describe_index_stats", map[string]any{}, &resp)
	})
	if err != nil {
		return nil, &domain.StoreError{Op: "stats", Err: err}
	}
	return &domain.IndexStats{
		VectorCount: resp.TotalVectorCount,
		Dimension:   resp.Dimension,
	}, nil
}

// UpsertedCount returns the cumulative number of vectors upserted.
func (s *Store) UpsertedCount() int64 {
	return s.upserted.Load()
}

// post sends a JSON POST to the data plane and decodes the response
// into out when out is non-nil.
func (s *Store) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Permanent("marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.host+path, bytes.NewReader(body))
	if err != nil {
		return domain.Permanent("create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return s.send(req, out)
}

// get sends a GET to the data plane and decodes the response into out.
func (s *Store) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.host+path, http.NoBody)
	if err != nil {
		return domain.Permanent("create request", err)
	}
	return s.send(req, out)
}

// send executes the request and classifies failures: 429 and 5xx are
// retryable, other non-2xx are permanent.
func (s *Store) send(req *http.Request, out any) error {
	req.Header.Set("Api-Key", s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.Transient("send request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Transient("read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(body)
		if len(msg) > 200 {
			msg = msg[:200]
		}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return domain.Transient("pinecone", fmt.Errorf("%w: status %d: %s", domain.ErrRateLimited, resp.StatusCode, msg))
		case resp.StatusCode >= 500:
			return domain.Transient("pinecone", fmt.Errorf("status %d: %s", resp.StatusCode, msg))
		default:
			return domain.Permanent("pinecone", fmt.Errorf("status %d: %s", resp.StatusCode, msg))
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.Permanent("decode response", err)
	}
	return nil
}
