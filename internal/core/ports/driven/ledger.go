package driven

import (
	"context"
	"time"
)

// LedgerStore records ingestion bookkeeping per source.
// It is optional; without it source listing and dimension-drift
// detection are disabled.
type LedgerStore interface {
	// Record inserts or replaces the ledger entry for a source.
	Record(ctx context.Context, entry LedgerEntry) error

	// Get returns the entry for a source, or domain.ErrNotFound.
	Get(ctx context.Context, sourceID string) (LedgerEntry, error)

	// List returns all entries ordered by most recent ingestion first.
	List(ctx context.Context) ([]LedgerEntry, error)

	// Delete removes the entry for a source. Unknown sources are a no-op.
	Delete(ctx context.Context, sourceID string) error

	// Close releases resources.
	Close() error
}

// LedgerEntry describes one ingested source.
type LedgerEntry struct {
	// SourceID is the caller-supplied document identifier.
	SourceID string

	// RunID identifies the most recent ingestion run.
	RunID string

	// ChunkCount is the number of chunks stored by the last full run.
	ChunkCount int

	// EmbeddingModel is the model that produced the vectors.
	EmbeddingModel string

	// Dimensions is the vector size the collection was written with.
	Dimensions int

	// IngestedAt is when the last run completed.
	IngestedAt time.Time
}
