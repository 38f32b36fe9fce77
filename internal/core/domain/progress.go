package domain

// RunPhase is the orchestrator's position in the pipeline state
// machine.
type RunPhase string

// Pipeline phases.
const (
	PhaseIdle            RunPhase = "idle"
	PhaseLoadingSettings RunPhase = "loading_settings"
	PhaseFetching        RunPhase = "fetching"
	PhaseProcessing      RunPhase = "processing"
	PhaseReporting       RunPhase = "reporting"
	PhaseSucceeded       RunPhase = "succeeded"
	PhaseFailed          RunPhase = "failed"
)

// RunProgress holds the counters for one indexing run. The orchestrator
// owns the single mutable instance; everything handed out is a copy.
type RunProgress struct {
	TotalDocuments     int
	ProcessedDocuments int
	TotalChunks        int
	ProcessedChunks    int
	ErrorCount         int
}

// RunError is one recorded failure. DocumentID is zero for run-level
// failures that are not tied to a single document.
type RunError struct {
	DocumentID int
	Message    string
}

// RunResult is the outcome of an indexing run.
type RunResult struct {
	// RunID identifies this run in logs.
	RunID string

	// Success is true when the run completed with zero errors.
	Success bool

	// Stats are the final progress counters.
	Stats RunProgress

	// Errors holds every recorded failure, document-level and fatal.
	Errors []RunError

	// IndexStats is the post-run store snapshot, nil when the stats
	// query failed or never ran.
	IndexStats *IndexStats
}

// RunStatus is a point-in-time snapshot of an in-flight run.
type RunStatus struct {
	Phase    RunPhase
	Progress RunProgress
}

// CleanResult reports one reconciliation pass.
type CleanResult struct {
	// Skipped is true when reconciliation is disabled in settings.
	Skipped bool

	// LiveDocuments is the number of documents currently published
	// at the source.
	LiveDocuments int

	// StoredVectors is the number of domain-scoped vectors
	// enumerated from the store.
	StoredVectors int

	// OrphanedDocuments is the number of distinct source documents
	// that no longer exist but still had vectors.
	OrphanedDocuments int

	// DeletedVectors is the number of vectors removed.
	DeletedVectors int
}
