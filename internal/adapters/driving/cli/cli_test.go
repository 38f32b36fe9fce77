package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressvec/pressvec-cli/internal/core/domain"
)

// mockOrchestrator is injected into the package-level orchestrator so
// commands run without real configuration.
type mockOrchestrator struct {
	indexResult  *domain.RunResult
	cleanResult  *domain.CleanResult
	cleanErr     error
	deleteCount  int
	deleteErr    error
	deleteCalled bool
	stats        *domain.IndexStats
	statsErr     error
}

func (m *mockOrchestrator) Index(ctx context.Context) *domain.RunResult {
	if m.indexResult != nil {
		return m.indexResult
	}
	return &domain.RunResult{Success: true}
}

func (m *mockOrchestrator) Clean(ctx context.Context) (*domain.CleanResult, error) {
	return m.cleanResult, m.cleanErr
}

func (m *mockOrchestrator) DeleteAll(ctx context.Context) (int, error) {
	m.deleteCalled = true
	return m.deleteCount, m.deleteErr
}

func (m *mockOrchestrator) Stats(ctx context.Context) (*domain.IndexStats, error) {
	return m.stats, m.statsErr
}

func (m *mockOrchestrator) Status() *domain.RunStatus {
	return &domain.RunStatus{Phase: domain.PhaseProcessing}
}

// execute runs the command tree with the mock injected and captures
// the output.
func execute(t *testing.T, mock *mockOrchestrator, stdin string, args ...string) (string, error) {
	t.Helper()

	prev := orchestrator
	orchestrator = mock
	t.Cleanup(func() { orchestrator = prev })

	// Flag values survive between Execute calls; reset them.
	deleteAllForce = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestIndexCommand_Success(t *testing.T) {
	mock := &mockOrchestrator{indexResult: &domain.RunResult{
		RunID:   "run-1",
		Success: true,
		Stats: domain.RunProgress{
			TotalDocuments:     3,
			ProcessedDocuments: 3,
			TotalChunks:        9,
			ProcessedChunks:    9,
		},
		IndexStats: &domain.IndexStats{VectorCount: 9, Dimension: 1536},
	}}

	out, err := execute(t, mock, "", "index")
	require.NoError(t, err)
	assert.Contains(t, out, "Documents: 3/3")
	assert.Contains(t, out, "Chunks: 9/9")
	assert.Contains(t, out, "9 vectors")
	assert.Contains(t, out, "completed successfully")
}

func TestIndexCommand_ErrorsReported(t *testing.T) {
	mock := &mockOrchestrator{indexResult: &domain.RunResult{
		Success: false,
		Stats:   domain.RunProgress{TotalDocuments: 2, ProcessedDocuments: 2, ErrorCount: 1},
		Errors: []domain.RunError{
			{DocumentID: 42, Message: "embed document 42: boom"},
		},
	}}

	out, err := execute(t, mock, "", "index")
	require.Error(t, err)
	assert.Contains(t, out, "document 42")
	assert.Contains(t, out, "Errors: 1")
}

func TestIndexCommand_ErrorDisplayCapped(t *testing.T) {
	var runErrors []domain.RunError
	for i := 1; i <= maxDisplayedErrors+3; i++ {
		runErrors = append(runErrors, domain.RunError{
			DocumentID: i,
			Message:    fmt.Sprintf("embed document %d: boom", i),
		})
	}
	mock := &mockOrchestrator{indexResult: &domain.RunResult{
		Success: false,
		Stats:   domain.RunProgress{ErrorCount: len(runErrors)},
		Errors:  runErrors,
	}}

	out, err := execute(t, mock, "", "index")
	require.Error(t, err)
	assert.Contains(t, out, "... and 3 more")
	assert.NotContains(t, out, fmt.Sprintf("document %d:", maxDisplayedErrors+1))
}

func TestCleanCommand(t *testing.T) {
	mock := &mockOrchestrator{cleanResult: &domain.CleanResult{
		LiveDocuments:     10,
		StoredVectors:     30,
		OrphanedDocuments: 2,
		DeletedVectors:    5,
	}}

	out, err := execute(t, mock, "", "clean")
	require.NoError(t, err)
	assert.Contains(t, out, "Live documents: 10")
	assert.Contains(t, out, "Deleted 5 orphaned vectors from 2 deleted documents")
}

func TestCleanCommand_Skipped(t *testing.T) {
	mock := &mockOrchestrator{cleanResult: &domain.CleanResult{Skipped: true}}

	out, err := execute(t, mock, "", "clean")
	require.NoError(t, err)
	assert.Contains(t, out, "disabled in settings")
}

func TestCleanCommand_NothingOrphaned(t *testing.T) {
	mock := &mockOrchestrator{cleanResult: &domain.CleanResult{LiveDocuments: 4, StoredVectors: 4}}

	out, err := execute(t, mock, "", "clean")
	require.NoError(t, err)
	assert.Contains(t, out, "No orphaned vectors")
}

func TestCleanCommand_Failure(t *testing.T) {
	mock := &mockOrchestrator{cleanErr: errors.New("enumerate vectors: down")}

	_, err := execute(t, mock, "", "clean")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clean failed")
}

func TestDeleteAllCommand_Force(t *testing.T) {
	mock := &mockOrchestrator{deleteCount: 12}

	out, err := execute(t, mock, "", "delete-all", "--force")
	require.NoError(t, err)
	assert.True(t, mock.deleteCalled)
	assert.Contains(t, out, "Deleted 12 vectors")
}

func TestDeleteAllCommand_Confirmed(t *testing.T) {
	mock := &mockOrchestrator{deleteCount: 3}

	out, err := execute(t, mock, "y\n", "delete-all")
	require.NoError(t, err)
	assert.True(t, mock.deleteCalled)
	assert.Contains(t, out, "Deleted 3 vectors")
}

func TestDeleteAllCommand_Declined(t *testing.T) {
	mock := &mockOrchestrator{deleteCount: 3}

	out, err := execute(t, mock, "n\n", "delete-all")
	require.NoError(t, err)
	assert.False(t, mock.deleteCalled)
	assert.Contains(t, out, "Aborted")
}

func TestDeleteAllCommand_EmptyDomain(t *testing.T) {
	mock := &mockOrchestrator{deleteCount: 0}

	out, err := execute(t, mock, "", "delete-all", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "No vectors found")
}

func TestStatsCommand(t *testing.T) {
	mock := &mockOrchestrator{stats: &domain.IndexStats{VectorCount: 4200, Dimension: 1536}}

	out, err := execute(t, mock, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "4200")
	assert.Contains(t, out, "1536")
}

func TestStatsCommand_Failure(t *testing.T) {
	mock := &mockOrchestrator{statsErr: errors.New("unreachable")}

	_, err := execute(t, mock, "", "stats")
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, &mockOrchestrator{}, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pressvec version")
}
