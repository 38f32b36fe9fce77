package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/pressvec/pressvec-cli/internal/core/domain"
	"github.com/pressvec/pressvec-cli/internal/core/ports/driving"
)

// maxDisplayedErrors caps error output; the full list stays in the run
// result.
const maxDisplayedErrors = 5

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index all published content into the vector store",
	Long: `Fetches all published documents, splits them into chunks, generates
embeddings and upserts the vectors. Vector IDs are deterministic, so
re-running heals any partial state from an interrupted run.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if orchestrator == nil {
		return errors.New("pipeline not configured")
	}

	ctx := context.Background()
	cmd.Println("Indexing...")

	result := indexWithProgress(ctx, cmd, orchestrator)

	cmd.Printf("Documents: %d/%d  Chunks: %d/%d  Errors: %d\n",
		result.Stats.ProcessedDocuments, result.Stats.TotalDocuments,
		result.Stats.ProcessedChunks, result.Stats.TotalChunks,
		result.Stats.ErrorCount)
	if result.IndexStats != nil {
		cmd.Printf("Index now holds %d vectors (dimension %d)\n",
			result.IndexStats.VectorCount, result.IndexStats.Dimension)
	}

	if !result.Success {
		for i, runErr := range result.Errors {
			if i == maxDisplayedErrors {
				cmd.Printf("  ... and %d more\n", len(result.Errors)-maxDisplayedErrors)
				break
			}
			if runErr.DocumentID != 0 {
				cmd.Printf("  document %d: %s\n", runErr.DocumentID, runErr.Message)
			} else {
				cmd.Printf("  %s\n", runErr.Message)
			}
		}
		return errors.New("indexing completed with errors")
	}

	cmd.Println("Indexing completed successfully.")
	return nil
}

// indexWithProgress runs the pipeline while printing progress updates.
func indexWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	orch driving.PipelineOrchestrator,
) *domain.RunResult {
	resultCh := make(chan *domain.RunResult, 1)
	go func() {
		resultCh <- orch.Index(ctx)
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case result := <-resultCh:
			return result
		case <-ticker.C:
			status := orch.Status()
			if status != nil && status.Progress.ProcessedDocuments > lastCount {
				cmd.Printf("\rProcessing... %d/%d documents",
					status.Progress.ProcessedDocuments, status.Progress.TotalDocuments)
				lastCount = status.Progress.ProcessedDocuments
			}
		}
	}
}
