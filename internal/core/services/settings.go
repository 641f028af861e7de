package services

import (
	"fmt"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
	"github.com/custodia-labs/ragline/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyEmbedDims     = "embedding.dimensions"
	keyLLMProvider   = "llm.provider"
	keyLLMModel      = "llm.model"
	keyLLMBaseURL    = "llm.base_url"
	keyLLMAPIKey     = "llm.api_key"
	keyLLMTemp       = "llm.temperature"
	keyLLMMaxTokens  = "llm.max_tokens"
	keyLLMTopP       = "llm.top_p"
	keyLLMStop       = "llm.stop"
	keyLLMFormat     = "llm.format"
	keyChunkSize     = "chunking.chunk_size"
	keyChunkOverlap  = "chunking.overlap"
	keyRetrievalTopK = "retrieval.top_k"
	keyStoreProvider = "vector_store.provider"
	keyStoreBaseURL  = "vector_store.base_url"
	keyStoreColl     = "vector_store.collection"
	keyIngestWorkers = "ingest.concurrency"
)

// Default local endpoint for Ollama providers.
const defaultOllamaURL = "http://localhost:11434"

// Default models per provider.
var defaultEmbeddingModels = map[domain.AIProvider]string{
	domain.AIProviderOllama: "nomic-embed-text",
	domain.AIProviderOpenAI: "text-embedding-3-small",
}

var defaultLLMModels = map[domain.AIProvider]string{
	domain.AIProviderOllama:    "llama3.1",
	domain.AIProviderOpenAI:    "gpt-4o-mini",
	domain.AIProviderAnthropic: "claude-3-5-sonnet-latest",
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.configStore.GetInt(keyEmbedDims),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:       s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:      s.configStore.GetString(keyLLMAPIKey),
			Temperature: s.getFloat(keyLLMTemp, defaults.LLM.Temperature),
			MaxTokens:   s.getInt(keyLLMMaxTokens, defaults.LLM.MaxTokens),
			TopP:        s.getFloat(keyLLMTopP, defaults.LLM.TopP),
			Stop:        s.configStore.GetStringSlice(keyLLMStop),
			Format:      s.configStore.GetString(keyLLMFormat),
		},
		Chunking: domain.ChunkingSettings{
			ChunkSize: s.getInt(keyChunkSize, defaults.Chunking.ChunkSize),
			Overlap:   s.getOverlap(defaults.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK: s.getInt(keyRetrievalTopK, defaults.Retrieval.TopK),
		},
		VectorStore: domain.VectorStoreSettings{
			Provider:   s.getStoreProvider(defaults.VectorStore.Provider),
			BaseURL:    s.configStore.GetString(keyStoreBaseURL),
			Collection: s.getString(keyStoreColl, defaults.VectorStore.Collection),
		},
		IngestConcurrency: s.configStore.GetInt(keyIngestWorkers),
	}

	return settings, nil
}

// Save persists application settings. Settings are validated before
// anything is written so a bad save never leaves partial state.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	// Save embedding settings
	if err := s.configStore.Set(keyEmbedProvider, settings.Embedding.Provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModel, settings.Embedding.Model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	if err := s.configStore.Set(keyEmbedBaseURL, settings.Embedding.BaseURL); err != nil {
		return fmt.Errorf("save embedding base_url: %w", err)
	}
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if settings.Embedding.Dimensions > 0 {
		if err := s.configStore.Set(keyEmbedDims, settings.Embedding.Dimensions); err != nil {
			return fmt.Errorf("save embedding dimensions: %w", err)
		}
	}

	// Save LLM settings
	if err := s.configStore.Set(keyLLMProvider, settings.LLM.Provider.String()); err != nil {
		return fmt.Errorf("save llm provider: %w", err)
	}
	if err := s.configStore.Set(keyLLMModel, settings.LLM.Model); err != nil {
		return fmt.Errorf("save llm model: %w", err)
	}
	if err := s.configStore.Set(keyLLMBaseURL, settings.LLM.BaseURL); err != nil {
		return fmt.Errorf("save llm base_url: %w", err)
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}
	if err := s.configStore.Set(keyLLMTemp, settings.LLM.Temperature); err != nil {
		return fmt.Errorf("save llm temperature: %w", err)
	}
	if err := s.configStore.Set(keyLLMMaxTokens, settings.LLM.MaxTokens); err != nil {
		return fmt.Errorf("save llm max_tokens: %w", err)
	}
	if err := s.configStore.Set(keyLLMTopP, settings.LLM.TopP); err != nil {
		return fmt.Errorf("save llm top_p: %w", err)
	}
	if len(settings.LLM.Stop) > 0 {
		if err := s.configStore.Set(keyLLMStop, settings.LLM.Stop); err != nil {
			return fmt.Errorf("save llm stop: %w", err)
		}
	}
	if settings.LLM.Format != "" {
		if err := s.configStore.Set(keyLLMFormat, settings.LLM.Format); err != nil {
			return fmt.Errorf("save llm format: %w", err)
		}
	}

	// Save chunking settings
	if err := s.configStore.Set(keyChunkSize, settings.Chunking.ChunkSize); err != nil {
		return fmt.Errorf("save chunk size: %w", err)
	}
	if err := s.configStore.Set(keyChunkOverlap, settings.Chunking.Overlap); err != nil {
		return fmt.Errorf("save chunk overlap: %w", err)
	}

	// Save retrieval settings
	if err := s.configStore.Set(keyRetrievalTopK, settings.Retrieval.TopK); err != nil {
		return fmt.Errorf("save retrieval top_k: %w", err)
	}

	// Save vector store settings
	if err := s.configStore.Set(keyStoreProvider, settings.VectorStore.Provider.String()); err != nil {
		return fmt.Errorf("save vector store provider: %w", err)
	}
	if err := s.configStore.Set(keyStoreBaseURL, settings.VectorStore.BaseURL); err != nil {
		return fmt.Errorf("save vector store base_url: %w", err)
	}
	if err := s.configStore.Set(keyStoreColl, settings.VectorStore.Collection); err != nil {
		return fmt.Errorf("save vector store collection: %w", err)
	}

	if err := s.configStore.Set(keyIngestWorkers, settings.IngestConcurrency); err != nil {
		return fmt.Errorf("save ingest concurrency: %w", err)
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrConfiguration, provider)
	}
	if provider == domain.AIProviderAnthropic {
		return fmt.Errorf("%w: anthropic does not support embeddings", domain.ErrConfiguration)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrConfiguration, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := defaultEmbeddingModels[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	// Set base URL based on provider type
	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaURL
		}
	} else {
		// Cloud providers don't need a custom base URL
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	// Derive dimensions from the model where known
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the generation provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrConfiguration, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrConfiguration, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := defaultLLMModels[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	// Set base URL based on provider type
	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = defaultOllamaURL
		}
	} else {
		// Cloud providers don't need a custom base URL
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetChunking configures the chunking parameters.
func (s *SettingsService) SetChunking(chunkSize, overlap int) error {
	chunking := domain.ChunkingSettings{ChunkSize: chunkSize, Overlap: overlap}
	if err := chunking.Validate(); err != nil {
		return err
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Chunking = chunking
	return s.Save(settings)
}

// SetTopK configures the retrieval depth.
func (s *SettingsService) SetTopK(topK int) error {
	if topK <= 0 {
		return fmt.Errorf("%w: top-k must be positive, got %d", domain.ErrConfiguration, topK)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Retrieval.TopK = topK
	return s.Save(settings)
}

// SetVectorStore configures the vector store backend.
func (s *SettingsService) SetVectorStore(provider domain.VectorStoreProvider, baseURL, collection string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid vector store provider: %s", domain.ErrConfiguration, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.VectorStore.Provider = provider
	if baseURL != "" {
		settings.VectorStore.BaseURL = baseURL
	}
	if collection != "" {
		settings.VectorStore.Collection = collection
	}
	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

// getOverlap treats zero as a stored value: overlap 0 is a legal
// chunking configuration, unlike the other numeric settings.
func (s *SettingsService) getOverlap(defaultVal int) int {
	if _, exists := s.configStore.Get(keyChunkOverlap); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(keyChunkOverlap)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getStoreProvider(defaultVal domain.VectorStoreProvider) domain.VectorStoreProvider {
	val := s.configStore.GetString(keyStoreProvider)
	if val == "" {
		return defaultVal
	}
	provider := domain.VectorStoreProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
