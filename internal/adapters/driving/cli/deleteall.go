package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var deleteAllForce bool

var deleteAllCmd = &cobra.Command{
	Use:   "delete-all",
	Short: "Delete every vector for this domain",
	Long: `Removes every vector scoped to the current domain from the index,
regardless of whether the source documents still exist. Vectors
belonging to other domains sharing the index are untouched.`,
	RunE: runDeleteAll,
}

func init() {
	deleteAllCmd.Flags().BoolVarP(&deleteAllForce, "force", "f", false,
		"skip the confirmation prompt")
	rootCmd.AddCommand(deleteAllCmd)
}

func runDeleteAll(cmd *cobra.Command, _ []string) error {
	if orchestrator == nil {
		return errors.New("pipeline not configured")
	}

	if !deleteAllForce {
		cmd.Print("Delete ALL vectors for this domain? [y/N]: ")
		reader := bufio.NewReader(cmd.InOrStdin())
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	deleted, err := orchestrator.DeleteAll(context.Background())
	if err != nil {
		return fmt.Errorf("delete all failed: %w", err)
	}

	if deleted == 0 {
		cmd.Println("No vectors found for this domain.")
		return nil
	}
	cmd.Printf("Deleted %d vectors.\n", deleted)
	return nil
}
