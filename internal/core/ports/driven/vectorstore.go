package driven

import (
	"context"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// VectorStore persists embeddings and answers similarity queries.
//
// Upsert is idempotent per key: writing the same key twice leaves the
// last write. Query scores are monotonic with the store's own distance
// metric; the core does not reinterpret them. Tie order among equal
// scores is stable but store-defined.
type VectorStore interface {
	// Upsert inserts or overwrites a vector record by its key.
	Upsert(ctx context.Context, record domain.VectorRecord) error

	// Query finds the topK records most similar to the vector,
	// ordered by descending score.
	Query(ctx context.Context, vector []float32, topK int) ([]VectorHit, error)

	// DeleteBySource removes all records whose metadata source matches
	// sourceID. Deleting a source that was never ingested is a no-op.
	DeleteBySource(ctx context.Context, sourceID string) error

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Key is the matched record's composite chunk key.
	Key string

	// Score is the store-defined similarity score, higher is better.
	Score float64

	// Metadata is the stored payload for the record.
	Metadata domain.VectorMetadata
}
