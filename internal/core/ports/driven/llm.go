package driven

import (
	"context"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// LLMService provides text generation operations.
// This is an optional service - when nil, generation commands are
// disabled but ingestion and retrieval keep working.
//
// Implementations may include:
//   - OpenAI (GPT-4o family)
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMService interface {
	// Complete produces a full text completion for the prompt.
	Complete(ctx context.Context, prompt string, opts domain.GenerateOptions) (domain.GenerationResult, error)

	// Stream produces a completion incrementally, invoking onDelta once
	// per chunk of generated text in arrival order. No buffering of the
	// full response is performed. When onDelta returns an error the
	// stream is abandoned: the adapter aborts the in-flight request and
	// returns without emitting further deltas.
	Stream(ctx context.Context, prompt string, opts domain.GenerateOptions, onDelta func(delta string) error) (domain.GenerationResult, error)

	// BaseURL returns the endpoint requests are sent to, for error
	// reporting. Credential values are never exposed.
	BaseURL() string

	// APIKeySet reports whether a credential is configured.
	APIKeySet() bool

	// ModelName returns the default model for this service.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
