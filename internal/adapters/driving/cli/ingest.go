package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [source-id] [file]",
	Short: "Ingest a document into the vector store",
	Long: `Chunks the document, embeds each chunk and stores the vectors.

The source-id identifies the document; re-ingesting the same source-id
overwrites previously stored chunks. Pass "-" as the file to read from
standard input.`,
	Args: cobra.ExactArgs(2),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	sourceID, path := args[0], args[1]

	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	content, err := readDocument(cmd, path)
	if err != nil {
		return err
	}

	doc := domain.Document{
		SourceID: sourceID,
		Content:  content,
	}

	count, err := ingestService.Ingest(context.Background(), doc)
	if err != nil {
		var partial *domain.PartialIngestionError
		if errors.As(err, &partial) {
			cmd.PrintErrf("Ingestion stopped at chunk %d: %d of %d chunks stored.\n",
				partial.FailedIndex, partial.Committed, partial.Total)
			cmd.PrintErrln("Re-running ingest is safe; stored chunks are overwritten.")
		}
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Ingested %q: %d chunks stored.\n", sourceID, count)
	return nil
}

func readDocument(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
