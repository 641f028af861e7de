package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

var (
	settingsModel      string
	settingsAPIKey     string
	settingsBaseURL    string
	settingsCollection string
	settingsChunkSize  int
	settingsOverlap    int
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure providers, chunking and retrieval options.

Use subcommands to configure specific settings.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding [provider]",
	Short: "Configure embedding provider",
	Long: `Configure the embedding provider used during ingestion and retrieval.

Available providers:
  ollama - local Ollama instance (no API key)
  openai - OpenAI cloud API (requires API key)

Cloud providers prompt for the API key when --api-key is not given, so
the key stays out of shell history.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm [provider]",
	Short: "Configure generation provider",
	Long: `Configure the language model provider used to answer questions.

Available providers:
  ollama    - local Ollama instance (no API key)
  openai    - OpenAI cloud API (requires API key)
  anthropic - Anthropic cloud API (requires API key)`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsLLM,
}

var settingsChunkingCmd = &cobra.Command{
	Use:   "chunking",
	Short: "Configure chunk size and overlap",
	RunE:  runSettingsChunking,
}

var settingsTopKCmd = &cobra.Command{
	Use:   "topk [n]",
	Short: "Set how many chunks are retrieved as context",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsTopK,
}

var settingsStoreCmd = &cobra.Command{
	Use:   "store [provider]",
	Short: "Configure the vector store backend",
	Long: `Configure where vectors are persisted.

Available providers:
  qdrant - Qdrant instance reached over HTTP
  memory - in-process store, lost on exit (testing only)`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsStore,
}

func init() {
	settingsEmbeddingCmd.Flags().StringVar(&settingsModel, "model", "", "embedding model (provider default when empty)")
	settingsEmbeddingCmd.Flags().StringVar(&settingsAPIKey, "api-key", "", "API key for cloud providers")
	settingsLLMCmd.Flags().StringVar(&settingsModel, "model", "", "generation model (provider default when empty)")
	settingsLLMCmd.Flags().StringVar(&settingsAPIKey, "api-key", "", "API key for cloud providers")
	settingsChunkingCmd.Flags().IntVar(&settingsChunkSize, "size", 200, "chunk size in words")
	settingsChunkingCmd.Flags().IntVar(&settingsOverlap, "overlap", 40, "words shared between consecutive chunks")
	settingsStoreCmd.Flags().StringVar(&settingsBaseURL, "url", "", "store endpoint (for qdrant)")
	settingsStoreCmd.Flags().StringVar(&settingsCollection, "collection", "", "collection name")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsChunkingCmd)
	settingsCmd.AddCommand(settingsTopKCmd)
	settingsCmd.AddCommand(settingsStoreCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	printStatus(cmd, settings.Embedding.IsConfigured())
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	if settings.LLM.Provider.RequiresAPIKey() {
		if settings.LLM.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.LLM.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	cmd.Printf("  Temperature: %.2f\n", settings.LLM.Temperature)
	cmd.Printf("  Max Tokens: %d\n", settings.LLM.MaxTokens)
	printStatus(cmd, settings.LLM.IsConfigured())
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Chunk Size: %d words\n", settings.Chunking.ChunkSize)
	cmd.Printf("  Overlap: %d words\n", settings.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Println()

	cmd.Println("[Vector Store]")
	cmd.Printf("  Provider: %s\n", settings.VectorStore.Provider)
	if settings.VectorStore.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.VectorStore.BaseURL)
	}
	cmd.Printf("  Collection: %s\n", settings.VectorStore.Collection)
	cmd.Println()

	if err := settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printStatus(cmd *cobra.Command, configured bool) {
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runSettingsEmbedding(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	provider := domain.AIProvider(args[0])
	apiKey := settingsAPIKey
	if provider.RequiresAPIKey() && apiKey == "" {
		cmd.Print("Enter API key: ")
		apiKey = readPassword()
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetEmbeddingProvider(provider, settingsModel, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s\n", provider.Description())
	return nil
}

func runSettingsLLM(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	provider := domain.AIProvider(args[0])
	apiKey := settingsAPIKey
	if provider.RequiresAPIKey() && apiKey == "" {
		cmd.Print("Enter API key: ")
		apiKey = readPassword()
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetLLMProvider(provider, settingsModel, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s\n", provider.Description())
	return nil
}

func runSettingsChunking(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.SetChunking(settingsChunkSize, settingsOverlap); err != nil {
		return fmt.Errorf("failed to configure chunking: %w", err)
	}

	cmd.Printf("Chunking configured: size=%d overlap=%d\n", settingsChunkSize, settingsOverlap)
	return nil
}

func runSettingsTopK(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	topK, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid top-k value %q: %w", args[0], err)
	}

	if err := settingsService.SetTopK(topK); err != nil {
		return fmt.Errorf("failed to set top-k: %w", err)
	}

	cmd.Printf("Retrieval top-k set to %d.\n", topK)
	return nil
}

func runSettingsStore(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	provider := domain.VectorStoreProvider(args[0])
	if err := settingsService.SetVectorStore(provider, settingsBaseURL, settingsCollection); err != nil {
		return fmt.Errorf("failed to configure vector store: %w", err)
	}

	cmd.Printf("Vector store configured: %s\n", provider)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
