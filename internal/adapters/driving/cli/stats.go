package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show vector index statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if orchestrator == nil {
		return errors.New("pipeline not configured")
	}

	stats, err := orchestrator.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("fetch stats: %w", err)
	}

	cmd.Printf("Vectors:   %d\n", stats.VectorCount)
	cmd.Printf("Dimension: %d\n", stats.Dimension)
	return nil
}
