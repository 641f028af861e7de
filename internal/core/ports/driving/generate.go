package driving

import (
	"context"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// GenerateService orchestrates retrieval-augmented generation.
type GenerateService interface {
	// Generate runs retrieval (when configured), assembles the prompt
	// and requests a completion. Options are merged over the configured
	// defaults with caller values winning; the resolved model must be
	// in the supported set or the call fails before any network I/O.
	Generate(ctx context.Context, prompt string, opts domain.GenerateOptions) (domain.GenerationResult, error)

	// GenerateStream behaves like Generate but delivers the completion
	// incrementally through onDelta, one chunk of text per call in
	// arrival order. A non-nil error from onDelta abandons the stream.
	GenerateStream(ctx context.Context, prompt string, opts domain.GenerateOptions, onDelta func(delta string) error) (domain.GenerationResult, error)

	// AddListener registers a lifecycle observer. Listeners fire
	// synchronously at each lifecycle point and cannot alter the
	// orchestrator's outcome.
	AddListener(l domain.GenerationListener)
}
