package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove vectors for deleted source documents",
	Long: `Compares the documents currently published at the source against
the vectors stored for this domain and deletes vectors whose source
documents no longer exist. Skipped when reconciliation is disabled in
the remote settings.`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, _ []string) error {
	if orchestrator == nil {
		return errors.New("pipeline not configured")
	}

	result, err := orchestrator.Clean(context.Background())
	if err != nil {
		return fmt.Errorf("clean failed: %w", err)
	}

	if result.Skipped {
		cmd.Println("Reconciliation is disabled in settings; nothing done.")
		return nil
	}

	cmd.Printf("Live documents: %d  Stored vectors: %d\n",
		result.LiveDocuments, result.StoredVectors)
	if result.DeletedVectors == 0 {
		cmd.Println("No orphaned vectors found.")
		return nil
	}
	cmd.Printf("Deleted %d orphaned vectors from %d deleted documents.\n",
		result.DeletedVectors, result.OrphanedDocuments)
	return nil
}
