package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
	"github.com/custodia-labs/ragline/internal/core/ports/driving"
	"github.com/custodia-labs/ragline/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService answers similarity queries over ingested content.
type RetrievalService struct {
	embedder driven.EmbeddingService
	store    driven.VectorStore
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(embedder driven.EmbeddingService, store driven.VectorStore) *RetrievalService {
	return &RetrievalService{
		embedder: embedder,
		store:    store,
	}
}

// Retrieve embeds the query and returns the topK most similar chunks,
// ordered by descending score. An empty store returns an empty slice.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievalResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top-k must be positive, got %d", domain.ErrInvalidInput, topK)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.store == nil {
		return nil, domain.ErrVectorStoreUnavailable
	}

	logger.Section("Retrieval")
	logger.Debug("Query: %q, top-k: %d", query, topK)

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := s.store.Query(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("querying vector store: %w", err)
	}
	logger.Debug("Hits: %d", len(hits))

	if len(hits) > topK {
		hits = hits[:topK]
	}

	results := make([]domain.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, domain.RetrievalResult{
			Text:     hit.Metadata.Text,
			Score:    hit.Score,
			Metadata: hit.Metadata,
		})
	}
	return results, nil
}

// BuildPrompt assembles the generation prompt from ranked retrieval
// results and the original query.
//
// The exact framing is load-bearing: downstream prompt behaviour
// depends on it, so any change here is a compatibility break. The
// produced layout is
//
//	Context:
//	<result text, one per line, ranked order>
//
//	Question:
//	<query>
func BuildPrompt(results []domain.RetrievalResult, query string) string {
	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Text)
	}
	return "Context:\n" + strings.Join(texts, "\n") + "\n\nQuestion:\n" + query
}
