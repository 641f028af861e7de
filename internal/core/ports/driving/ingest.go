package driving

import (
	"context"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// IngestService drives documents through the chunk → embed → store
// pipeline.
type IngestService interface {
	// Ingest chunks the document, embeds each chunk in index order and
	// upserts it under the key "{sourceId}_{index}". It returns the
	// number of chunks stored. On failure partway it returns a
	// *domain.PartialIngestionError reporting the committed count and
	// the failing chunk; re-running ingestion is safe because upserts
	// overwrite the already-stored keys.
	//
	// Re-ingesting a document that shrank leaves stale trailing records
	// behind unless DeleteDocument is called first; reconciliation is
	// the caller's responsibility.
	Ingest(ctx context.Context, doc domain.Document) (int, error)

	// DeleteDocument removes all vector records for a source.
	// Deleting a source that was never ingested is a no-op.
	DeleteDocument(ctx context.Context, sourceID string) error

	// ListSources returns ledger entries for ingested documents,
	// most recent first. Requires a configured ledger store.
	ListSources(ctx context.Context) ([]SourceInfo, error)
}

// SourceInfo summarises one ingested document for listings.
type SourceInfo struct {
	// SourceID is the caller-supplied document identifier.
	SourceID string

	// ChunkCount is the number of chunks stored by the last run.
	ChunkCount int

	// EmbeddingModel is the model that produced the vectors.
	EmbeddingModel string

	// IngestedAt is when the last run completed, RFC 3339.
	IngestedAt string
}
