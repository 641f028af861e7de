package driven

import "github.com/custodia-labs/ragline/internal/core/domain"

// AIConfigValidator validates AI provider configurations by reaching
// out to the provider. Used when settings change so bad credentials
// are caught at configuration time, not at first use.
type AIConfigValidator interface {
	// ValidateEmbedding validates an embedding configuration.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM validates an LLM configuration.
	ValidateLLM(config *domain.LLMSettings) error
}
