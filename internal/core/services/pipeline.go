package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/pressvec/pressvec-cli/internal/core/domain"
	"github.com/pressvec/pressvec-cli/internal/core/ports/driven"
	"github.com/pressvec/pressvec-cli/internal/core/ports/driving"
	"github.com/pressvec/pressvec-cli/internal/logger"
	"github.com/pressvec/pressvec-cli/internal/postprocessors/splitter"
	"github.com/pressvec/pressvec-cli/internal/resilience"
)

// Ensure Orchestrator implements the interface.
var _ driving.PipelineOrchestrator = (*Orchestrator)(nil)

// DefaultConcurrency is the default number of documents processed at
// once.
const DefaultConcurrency = 4

// Orchestrator composes the pipeline components into the index, clean
// and delete-all operations. It exclusively owns the run's progress
// counters; Status hands out copies.
type Orchestrator struct {
	settingsSource driven.SettingsSource
	factory        driven.PipelineFactory
	concurrency    int

	mu       sync.RWMutex
	phase    domain.RunPhase
	progress domain.RunProgress
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency sets how many documents are processed concurrently.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// NewOrchestrator creates a pipeline orchestrator.
func NewOrchestrator(settingsSource driven.SettingsSource, factory driven.PipelineFactory, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		settingsSource: settingsSource,
		factory:        factory,
		concurrency:    DefaultConcurrency,
		phase:          domain.PhaseIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// runDeps are the per-run collaborators built from settings.
type runDeps struct {
	settings *domain.Settings
	source   driven.ContentSource
	embedder driven.EmbeddingService
	store    driven.VectorIndex
}

// Index runs the full pipeline: load settings, drain the content
// source, process every document (chunk, embed, upsert) with bounded
// concurrency, and aggregate the outcomes. It never returns an error
// and never panics out; every failure lands in the result.
func (o *Orchestrator) Index(ctx context.Context) (result *domain.RunResult) {
	result = &domain.RunResult{RunID: uuid.NewString()}

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Errors = append(result.Errors, domain.RunError{
				Message: fmt.Sprintf("fatal: panic during run: %v", r),
			})
			result.Stats = o.snapshotProgress()
			o.setPhase(domain.PhaseFailed)
		}
	}()

	o.resetProgress()
	logger.Section("Index run " + result.RunID)

	// Load settings and build the per-run collaborators. Failures
	// here are fatal: nothing else can proceed.
	o.setPhase(domain.PhaseLoadingSettings)
	deps, err := o.buildDeps(ctx)
	if err != nil {
		return o.failRun(result, err)
	}

	// Drain the source fully before processing. Buffering all
	// documents trades memory for simple, commutative accounting.
	// A partial fetch is tolerable here: re-running heals it because
	// vector IDs are deterministic.
	o.setPhase(domain.PhaseFetching)
	docs, _ := o.drainSource(ctx, deps.source)
	o.setTotalDocuments(len(docs))
	logger.Info("Fetched %d documents", len(docs))

	// Process documents with bounded concurrency. Per-document
	// failures never abort the batch.
	o.setPhase(domain.PhaseProcessing)
	outcomes, err := resilience.RunBounded(ctx, docs, o.concurrency,
		func(ctx context.Context, doc domain.Document) (int, error) {
			chunks, procErr := o.processDocument(ctx, deps, doc)
			o.recordDocument(chunks, procErr)
			return chunks, procErr
		})
	if err != nil {
		return o.failRun(result, domain.Fatal("run workers", err))
	}

	// Aggregate and report.
	o.setPhase(domain.PhaseReporting)
	for i, outcome := range outcomes {
		if outcome.Err != nil {
			result.Errors = append(result.Errors, domain.RunError{
				DocumentID: docs[i].ID,
				Message:    outcome.Err.Error(),
			})
		}
	}

	if stats, statsErr := deps.store.Stats(ctx); statsErr == nil {
		result.IndexStats = stats
	} else {
		logger.Warn("Fetching index stats failed: %v", statsErr)
	}

	result.Stats = o.snapshotProgress()
	result.Success = result.Stats.ErrorCount == 0
	if result.Success {
		o.setPhase(domain.PhaseSucceeded)
	} else {
		o.setPhase(domain.PhaseFailed)
	}

	logger.Info("Run %s: %d/%d documents, %d chunks, %d errors",
		result.RunID, result.Stats.ProcessedDocuments, result.Stats.TotalDocuments,
		result.Stats.ProcessedChunks, result.Stats.ErrorCount)
	return result
}

// processDocument chunks one document, embeds all chunk texts as one
// batch and upserts the resulting vectors. Returns the chunk count. A
// document with no chunkable text is skipped, counted as processed
// with zero chunks.
func (o *Orchestrator) processDocument(ctx context.Context, deps *runDeps, doc domain.Document) (int, error) {
	chunks := splitter.Split(doc.Text(), deps.settings.ChunkSize, deps.settings.ChunkOverlap)
	if len(chunks) == 0 {
		logger.Debug("Document %s/%d has no chunks, skipping", doc.Category, doc.ID)
		return 0, nil
	}
	o.addTotalChunks(len(chunks))

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embeddings, err := deps.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return len(chunks), fmt.Errorf("embed document %d: %w", doc.ID, err)
	}
	if len(embeddings) != len(chunks) {
		return len(chunks), fmt.Errorf("embed document %d: got %d embeddings for %d chunks",
			doc.ID, len(embeddings), len(chunks))
	}

	contentHash := hashContent(doc.Content)
	vectors := make([]domain.Vector, len(chunks))
	for i, chunk := range chunks {
		id, idErr := domain.VectorID(deps.settings.SchemaVersion, doc.ID, chunk.Index)
		if idErr != nil {
			return len(chunks), idErr
		}
		// The gateway stamps domain and schemaVersion; everything
		// else rides along here.
		vectors[i] = domain.Vector{
			ID:     id,
			Values: embeddings[i],
			Metadata: map[string]any{
				domain.MetaDocumentID:  doc.ID,
				domain.MetaChunkIndex:  chunk.Index,
				domain.MetaCategory:    doc.Category,
				domain.MetaTitle:       doc.Title,
				domain.MetaURL:         doc.URL,
				domain.MetaContentHash: contentHash,
			},
		}
	}

	if err := deps.store.Upsert(ctx, vectors); err != nil {
		return len(chunks), fmt.Errorf("upsert document %d: %w", doc.ID, err)
	}
	return len(chunks), nil
}

// Clean diffs the live document IDs against the stored vector IDs and
// deletes vectors whose documents no longer exist at the source.
func (o *Orchestrator) Clean(ctx context.Context) (*domain.CleanResult, error) {
	deps, err := o.buildDeps(ctx)
	if err != nil {
		return nil, err
	}
	if !deps.settings.CleanDeleted {
		logger.Info("Reconciliation disabled in settings, skipping clean")
		return &domain.CleanResult{Skipped: true}, nil
	}

	logger.Section("Clean")

	// The diff is only sound against the complete live set: a category
	// that failed to fetch would look deleted and its vectors would be
	// destroyed. Any fetch error aborts the clean.
	docs, fetchErrs := o.drainSource(ctx, deps.source)
	if fetchErrs > 0 {
		return nil, fmt.Errorf("clean aborted: content fetch incomplete (%d fetch errors)", fetchErrs)
	}
	live := make(map[int]struct{})
	for _, doc := range docs {
		live[doc.ID] = struct{}{}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	storedIDs, err := deps.store.ListDomainVectorIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate vectors: %w", err)
	}

	var orphaned []string
	orphanedDocs := make(map[int]struct{})
	for _, id := range storedIDs {
		docID, _, ok := domain.ParseVectorID(deps.settings.SchemaVersion, id)
		if !ok {
			logger.Debug("Skipping unparseable vector ID %s", id)
			continue
		}
		if _, alive := live[docID]; !alive {
			orphaned = append(orphaned, id)
			orphanedDocs[docID] = struct{}{}
		}
	}

	if len(orphaned) > 0 {
		logger.Info("Deleting %d orphaned vectors from %d deleted documents",
			len(orphaned), len(orphanedDocs))
		if err := deps.store.DeleteByIDs(ctx, orphaned); err != nil {
			return nil, fmt.Errorf("delete orphaned vectors: %w", err)
		}
	}

	return &domain.CleanResult{
		LiveDocuments:     len(live),
		StoredVectors:     len(storedIDs),
		OrphanedDocuments: len(orphanedDocs),
		DeletedVectors:    len(orphaned),
	}, nil
}

// DeleteAll removes every vector scoped to the current domain,
// independent of the live document set.
func (o *Orchestrator) DeleteAll(ctx context.Context) (int, error) {
	deps, err := o.buildDeps(ctx)
	if err != nil {
		return 0, err
	}
	return deps.store.DeleteAllForDomain(ctx)
}

// Stats returns an index-wide snapshot from the vector store.
func (o *Orchestrator) Stats(ctx context.Context) (*domain.IndexStats, error) {
	deps, err := o.buildDeps(ctx)
	if err != nil {
		return nil, err
	}
	return deps.store.Stats(ctx)
}

// Status returns a snapshot of the in-flight run.
func (o *Orchestrator) Status() *domain.RunStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	// Copies, so callers cannot mutate internal state.
	return &domain.RunStatus{
		Phase:    o.phase,
		Progress: o.progress,
	}
}

// buildDeps loads settings and constructs the per-run collaborators.
// Every failure here is fatal.
func (o *Orchestrator) buildDeps(ctx context.Context) (*runDeps, error) {
	loaded, err := o.settingsSource.Load(ctx)
	if err != nil {
		if domain.IsFatal(err) {
			return nil, err
		}
		return nil, domain.Fatal("load settings", err)
	}

	source, err := o.factory.ContentSource(loaded)
	if err != nil {
		return nil, domain.Fatal("init content source", err)
	}
	embedder, err := o.factory.EmbeddingService(loaded)
	if err != nil {
		return nil, domain.Fatal("init embedding service", err)
	}
	store, err := o.factory.VectorIndex(loaded)
	if err != nil {
		return nil, domain.Fatal("init vector store", err)
	}

	return &runDeps{
		settings: loaded,
		source:   source,
		embedder: embedder,
		store:    store,
	}, nil
}

// drainSource collects the full document stream into memory and counts
// the source errors it reported. Errors are category-scoped and do not
// invalidate documents from other categories, but a non-zero count
// means the returned set is incomplete.
func (o *Orchestrator) drainSource(ctx context.Context, source driven.ContentSource) ([]domain.Document, int) {
	docsCh, errsCh := source.FetchAll(ctx)

	var docs []domain.Document
	fetchErrs := 0
	for docsCh != nil || errsCh != nil {
		select {
		case doc, ok := <-docsCh:
			if !ok {
				docsCh = nil
				continue
			}
			docs = append(docs, doc)
		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			fetchErrs++
			logger.Warn("Content source: %v", err)
		}
	}
	return docs, fetchErrs
}

// failRun records a fatal error and finalises the result.
func (o *Orchestrator) failRun(result *domain.RunResult, err error) *domain.RunResult {
	logger.Error("Run %s failed: %v", result.RunID, err)
	result.Success = false
	result.Errors = append(result.Errors, domain.RunError{Message: err.Error()})
	result.Stats = o.snapshotProgress()
	o.setPhase(domain.PhaseFailed)
	return result
}

func (o *Orchestrator) setPhase(p domain.RunPhase) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phase = p
}

func (o *Orchestrator) resetProgress() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress = domain.RunProgress{}
}

func (o *Orchestrator) setTotalDocuments(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress.TotalDocuments = n
}

func (o *Orchestrator) addTotalChunks(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress.TotalChunks += n
}

// recordDocument folds one document outcome into the progress
// counters. Aggregation is commutative; completion order does not
// matter.
func (o *Orchestrator) recordDocument(chunks int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress.ProcessedDocuments++
	if err != nil {
		o.progress.ErrorCount++
		return
	}
	o.progress.ProcessedChunks += chunks
}

func (o *Orchestrator) snapshotProgress() domain.RunProgress {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.progress
}

// hashContent returns a short hex hash of the document body, stored in
// vector metadata for future change detection.
func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:8])
}
