package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [source-id]",
	Short: "Remove an ingested document",
	Long: `Removes all stored chunks for a source from the vector store
and drops its ledger entry. Deleting a source that was never ingested
is a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	sourceID := args[0]

	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if err := ingestService.DeleteDocument(context.Background(), sourceID); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	cmd.Printf("Deleted %q.\n", sourceID)
	return nil
}
