package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragline/internal/core/ports/driving"
)

var sourcesJSON bool

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List ingested documents",
	Long:  `Lists all ingested documents from the ledger, most recent first.`,
	RunE:  runSources,
}

func init() {
	sourcesCmd.Flags().BoolVar(&sourcesJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	sources, err := ingestService.ListSources(context.Background())
	if err != nil {
		return fmt.Errorf("listing sources failed: %w", err)
	}

	if sourcesJSON {
		data, err := json.MarshalIndent(sources, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal sources: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	return outputSourcesTable(cmd, sources)
}

func outputSourcesTable(cmd *cobra.Command, sources []driving.SourceInfo) error {
	if len(sources) == 0 {
		cmd.Println("No documents ingested.")
		return nil
	}

	cmd.Println("Ingested documents:")
	cmd.Println()
	for i := range sources {
		cmd.Printf("  %s\n", sources[i].SourceID)
		cmd.Printf("      Chunks: %d  Model: %s  Ingested: %s\n",
			sources[i].ChunkCount, sources[i].EmbeddingModel, sources[i].IngestedAt)
	}
	cmd.Println()

	return nil
}
