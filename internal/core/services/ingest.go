package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragline/internal/chunker"
	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
	"github.com/custodia-labs/ragline/internal/core/ports/driving"
	"github.com/custodia-labs/ragline/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService drives the chunk → embed → upsert pipeline.
type IngestService struct {
	chunker     *chunker.Chunker
	embedder    driven.EmbeddingService
	store       driven.VectorStore
	ledger      driven.LedgerStore
	concurrency int
}

// NewIngestService creates a new ingestion service.
func NewIngestService(ch *chunker.Chunker, embedder driven.EmbeddingService, store driven.VectorStore) *IngestService {
	return &IngestService{
		chunker:  ch,
		embedder: embedder,
		store:    store,
	}
}

// SetLedger sets the optional ingestion ledger store.
func (s *IngestService) SetLedger(ledger driven.LedgerStore) {
	s.ledger = ledger
}

// SetConcurrency bounds parallel embed+upsert work per document.
// Values below two mean sequential ingestion.
func (s *IngestService) SetConcurrency(n int) {
	s.concurrency = n
}

// Ingest chunks the document, embeds each chunk and upserts it under
// the key "{sourceId}_{index}". Returns the number of chunks stored.
func (s *IngestService) Ingest(ctx context.Context, doc domain.Document) (int, error) {
	if doc.SourceID == "" {
		return 0, fmt.Errorf("%w: document source ID is required", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return 0, domain.ErrEmbeddingUnavailable
	}
	if s.store == nil {
		return 0, domain.ErrVectorStoreUnavailable
	}

	logger.Section("Ingestion")
	logger.Debug("Source: %q", doc.SourceID)

	chunks, err := s.chunker.ChunkDocument(doc)
	if err != nil {
		return 0, err
	}
	logger.Debug("Chunks: %d", len(chunks))
	if len(chunks) == 0 {
		return 0, nil
	}

	if err := s.checkDimensionDrift(ctx, doc.SourceID); err != nil {
		return 0, err
	}

	if s.concurrency > 1 {
		err = s.ingestConcurrent(ctx, chunks)
	} else {
		err = s.ingestSequential(ctx, chunks)
	}
	if err != nil {
		return committedCount(err), err
	}

	if s.ledger != nil {
		entry := driven.LedgerEntry{
			SourceID:       doc.SourceID,
			RunID:          uuid.New().String(),
			ChunkCount:     len(chunks),
			EmbeddingModel: s.embedder.ModelName(),
			Dimensions:     s.embedder.Dimensions(),
			IngestedAt:     time.Now().UTC(),
		}
		if err := s.ledger.Record(ctx, entry); err != nil {
			return len(chunks), fmt.Errorf("recording ingest ledger: %w", err)
		}
	}

	logger.Info("Ingested %d chunks for %q", len(chunks), doc.SourceID)
	return len(chunks), nil
}

// checkDimensionDrift rejects re-ingestion with an embedding model
// whose vector size differs from what the collection was written with.
func (s *IngestService) checkDimensionDrift(ctx context.Context, sourceID string) error {
	if s.ledger == nil {
		return nil
	}
	prior, err := s.ledger.Get(ctx, sourceID)
	if err != nil {
		return nil // no prior run recorded
	}
	if prior.Dimensions > 0 && s.embedder.Dimensions() > 0 && prior.Dimensions != s.embedder.Dimensions() {
		return fmt.Errorf("%w: source %q was ingested with %d dimensions, embedder now produces %d",
			domain.ErrDimensionMismatch, sourceID, prior.Dimensions, s.embedder.Dimensions())
	}
	return nil
}

func (s *IngestService) ingestSequential(ctx context.Context, chunks []domain.Chunk) error {
	for i, chunk := range chunks {
		if err := s.embedAndStore(ctx, chunk); err != nil {
			return &domain.PartialIngestionError{
				SourceID:    chunk.SourceID,
				Committed:   i,
				Total:       len(chunks),
				FailedIndex: chunk.Index,
				Err:         err,
			}
		}
	}
	return nil
}

// ingestConcurrent runs embed+upsert across chunks with bounded
// parallelism. The failure report still needs a committed count, so
// it tracks which indexes completed and reports the length of the
// contiguous committed prefix.
func (s *IngestService) ingestConcurrent(ctx context.Context, chunks []domain.Chunk) error {
	var (
		mu        sync.Mutex
		committed = make(map[int]bool, len(chunks))
		failedIdx = -1
		cause     error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, chunk := range chunks {
		g.Go(func() error {
			if err := s.embedAndStore(gctx, chunk); err != nil {
				mu.Lock()
				if failedIdx == -1 || chunk.Index < failedIdx {
					failedIdx = chunk.Index
					cause = err
				}
				mu.Unlock()
				return err
			}
			mu.Lock()
			committed[chunk.Index] = true
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		prefix := 0
		for committed[prefix] {
			prefix++
		}
		if cause == nil {
			cause = err
		}
		return &domain.PartialIngestionError{
			SourceID:    chunks[0].SourceID,
			Committed:   prefix,
			Total:       len(chunks),
			FailedIndex: failedIdx,
			Err:         cause,
		}
	}
	return nil
}

func (s *IngestService) embedAndStore(ctx context.Context, chunk domain.Chunk) error {
	vector, err := s.embedder.Embed(ctx, chunk.Text)
	if err != nil {
		return fmt.Errorf("embedding chunk: %w", err)
	}
	if want := s.embedder.Dimensions(); want > 0 && len(vector) != want {
		return fmt.Errorf("%w: embedder returned %d dimensions, expected %d",
			domain.ErrDimensionMismatch, len(vector), want)
	}

	record := domain.VectorRecord{
		Key:    chunk.Key(),
		Vector: vector,
		Metadata: domain.VectorMetadata{
			Text:   chunk.Text,
			Source: chunk.SourceID,
			Page:   chunk.Page,
			BBox:   chunk.BBox,
		},
	}
	if err := s.store.Upsert(ctx, record); err != nil {
		return fmt.Errorf("upserting chunk: %w", err)
	}
	return nil
}

// DeleteDocument removes all vector records for a source along with
// its ledger entry. Sources that were never ingested are a no-op.
func (s *IngestService) DeleteDocument(ctx context.Context, sourceID string) error {
	if sourceID == "" {
		return fmt.Errorf("%w: source ID is required", domain.ErrInvalidInput)
	}
	if s.store == nil {
		return domain.ErrVectorStoreUnavailable
	}

	if err := s.store.DeleteBySource(ctx, sourceID); err != nil {
		return fmt.Errorf("deleting vectors for %q: %w", sourceID, err)
	}
	if s.ledger != nil {
		if err := s.ledger.Delete(ctx, sourceID); err != nil {
			return fmt.Errorf("deleting ledger entry for %q: %w", sourceID, err)
		}
	}
	logger.Debug("Deleted source %q", sourceID)
	return nil
}

// ListSources returns ledger entries for ingested documents.
func (s *IngestService) ListSources(ctx context.Context) ([]driving.SourceInfo, error) {
	if s.ledger == nil {
		return nil, fmt.Errorf("%w: ledger store not configured", domain.ErrConfiguration)
	}

	entries, err := s.ledger.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing ledger: %w", err)
	}

	infos := make([]driving.SourceInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, driving.SourceInfo{
			SourceID:       e.SourceID,
			ChunkCount:     e.ChunkCount,
			EmbeddingModel: e.EmbeddingModel,
			IngestedAt:     e.IngestedAt.Format(time.RFC3339),
		})
	}
	return infos, nil
}

// committedCount extracts the committed chunk count from a partial
// ingestion error, zero otherwise.
func committedCount(err error) int {
	var partial *domain.PartialIngestionError
	if errors.As(err, &partial) {
		return partial.Committed
	}
	return 0
}
