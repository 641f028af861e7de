package driving

import "github.com/custodia-labs/ragline/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider configures the generation provider.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// SetChunking configures the chunking parameters.
	SetChunking(chunkSize, overlap int) error

	// SetTopK configures the retrieval depth.
	SetTopK(topK int) error

	// SetVectorStore configures the vector store backend.
	SetVectorStore(provider domain.VectorStoreProvider, baseURL, collection string) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig validates the current embedding
	// configuration by reaching out to the provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig validates the current LLM configuration by
	// reaching out to the provider.
	ValidateLLMConfig() error
}
