package domain

import "fmt"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// VectorStoreProvider identifies a vector store backend.
type VectorStoreProvider string

// Available vector store providers.
const (
	// VectorStoreQdrant is a Qdrant instance reached over HTTP.
	VectorStoreQdrant VectorStoreProvider = "qdrant"

	// VectorStoreMemory is the in-process brute-force store.
	// Vectors are lost on exit; intended for testing and small corpora.
	VectorStoreMemory VectorStoreProvider = "memory"
)

// IsValid returns true if the vector store provider is recognised.
func (p VectorStoreProvider) IsValid() bool {
	switch p {
	case VectorStoreQdrant, VectorStoreMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p VectorStoreProvider) String() string {
	return string(p)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the model's default vector size, where the
	// provider supports it.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds generation provider configuration, including the
// default generation parameters merged into every request.
type LLMSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider

	// Model is the default generation model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Temperature is the default sampling temperature.
	Temperature float64

	// MaxTokens is the default generation length cap.
	MaxTokens int

	// TopP is the default nucleus sampling cutoff.
	TopP float64

	// Stop are the default stop sequences.
	Stop []string

	// Format is the default output format (empty for plain text).
	Format string
}

// IsConfigured returns true if the generation provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// Defaults returns the default generation options derived from settings.
func (l LLMSettings) Defaults() GenerateOptions {
	return GenerateOptions{
		Model:       l.Model,
		Temperature: l.Temperature,
		MaxTokens:   l.MaxTokens,
		TopP:        l.TopP,
		Stop:        l.Stop,
		Format:      l.Format,
	}
}

// ChunkingSettings holds chunker configuration.
type ChunkingSettings struct {
	// ChunkSize is the window length in words.
	ChunkSize int

	// Overlap is the number of words shared between consecutive chunks.
	// Must be strictly smaller than ChunkSize.
	Overlap int
}

// Validate checks the chunking parameters.
func (c ChunkingSettings) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrConfiguration, c.ChunkSize)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap must be non-negative, got %d", ErrConfiguration, c.Overlap)
	}
	if c.Overlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			ErrConfiguration, c.Overlap, c.ChunkSize)
	}
	return nil
}

// RetrievalSettings holds retrieval configuration.
type RetrievalSettings struct {
	// TopK is the number of similarity hits injected as context.
	TopK int
}

// VectorStoreSettings holds vector store configuration.
type VectorStoreSettings struct {
	// Provider is the vector store backend.
	Provider VectorStoreProvider

	// BaseURL is the store endpoint (for Qdrant).
	BaseURL string

	// Collection is the collection identifier.
	Collection string
}

// IsConfigured returns true if the vector store is set up.
func (v VectorStoreSettings) IsConfigured() bool {
	return v.Provider.IsValid()
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds generation provider settings.
	LLM LLMSettings

	// Chunking holds chunker settings.
	Chunking ChunkingSettings

	// Retrieval holds retrieval settings.
	Retrieval RetrievalSettings

	// VectorStore holds vector store settings.
	VectorStore VectorStoreSettings

	// IngestConcurrency bounds parallel embed+upsert work per document.
	// Zero or one means sequential ingestion.
	IngestConcurrency int
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured; users must set them up
// explicitly via the settings commands.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{},
		LLM: LLMSettings{
			Temperature: 0.2,
			MaxTokens:   1024,
		},
		Chunking: ChunkingSettings{
			ChunkSize: 200,
			Overlap:   40,
		},
		Retrieval: RetrievalSettings{
			TopK: 5,
		},
		VectorStore: VectorStoreSettings{
			Provider:   VectorStoreMemory,
			Collection: "ragline",
		},
	}
}

// Validate checks cross-field consistency of the settings.
func (s AppSettings) Validate() error {
	if err := s.Chunking.Validate(); err != nil {
		return err
	}
	if s.Retrieval.TopK < 0 {
		return fmt.Errorf("%w: top-k must be non-negative, got %d", ErrConfiguration, s.Retrieval.TopK)
	}
	if s.IngestConcurrency < 0 {
		return fmt.Errorf("%w: ingest concurrency must be non-negative, got %d",
			ErrConfiguration, s.IngestConcurrency)
	}
	if s.LLM.Model != "" && !IsSupportedModel(s.LLM.Model) {
		return fmt.Errorf("%w: unsupported generation model %q", ErrConfiguration, s.LLM.Model)
	}
	return nil
}
