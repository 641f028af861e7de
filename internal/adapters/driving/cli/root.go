// Package cli provides the command-line interface for Ragline.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragline/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragline/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragline/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragline/internal/chunker"
	"github.com/custodia-labs/ragline/internal/core/ports/driving"
	"github.com/custodia-labs/ragline/internal/core/services"
	"github.com/custodia-labs/ragline/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Persistent flags.
var (
	verbose   bool
	configDir string
	dataDir   string
)

// Services wired at startup. Tests replace these directly.
var (
	ingestService    driving.IngestService
	retrievalService driving.RetrievalService
	generateService  driving.GenerateService
	settingsService  driving.SettingsService
)

// servicesReady guards against re-initialising services that tests
// (or a previous Execute call) already wired.
var servicesReady bool

// closers releases adapter resources on shutdown.
var closers []func()

var rootCmd = &cobra.Command{
	Use:   "ragline",
	Short: "Retrieval-augmented generation over your own documents",
	Long: `Ragline ingests documents into a vector store and answers
questions about them using retrieval-augmented generation.

Documents are chunked, embedded and stored; queries retrieve the most
similar chunks and feed them as context to a language model.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.ragline)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.ragline/data)")
}

// Execute wires up services and runs the root command.
func Execute() error {
	if err := initServices(); err != nil {
		return err
	}
	defer closeServices()
	return rootCmd.Execute()
}

// initServices builds the adapter stack from persisted settings.
func initServices() error {
	if servicesReady {
		return nil
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("opening config store: %w", err)
	}
	settingsService = services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	ctx := context.Background()
	result, err := ai.InitServices(ctx, *settings)
	if err != nil {
		return err
	}
	closers = append(closers, result.Close)
	for _, warning := range result.Warnings {
		logger.Warn("%s", warning)
	}

	ch := chunker.New(
		chunker.WithChunkSize(settings.Chunking.ChunkSize),
		chunker.WithOverlap(settings.Chunking.Overlap),
	)

	ingest := services.NewIngestService(ch, result.EmbeddingService, result.VectorStore)
	ingest.SetConcurrency(settings.IngestConcurrency)

	// The ledger is optional: without it source listing and
	// dimension-drift detection are disabled, ingestion still works.
	ledger, err := sqlite.NewLedgerStore(dataDir)
	if err != nil {
		logger.Warn("ingest ledger unavailable: %v", err)
	} else {
		ingest.SetLedger(ledger)
		closers = append(closers, func() { ledger.Close() })
	}
	ingestService = ingest

	retrieval := services.NewRetrievalService(result.EmbeddingService, result.VectorStore)
	retrievalService = retrieval

	generate := services.NewGenerateService(result.LLMService, settings.LLM.Defaults())
	generate.SetRetriever(retrieval, settings.Retrieval.TopK)
	generateService = generate

	servicesReady = true
	return nil
}

// closeServices releases adapter resources in reverse wiring order.
func closeServices() {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	closers = nil
	servicesReady = false
}
