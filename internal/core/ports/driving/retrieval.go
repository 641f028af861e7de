package driving

import (
	"context"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// RetrievalService answers similarity queries over ingested content.
type RetrievalService interface {
	// Retrieve embeds the query, asks the vector store for the topK
	// most similar records and returns them ordered by descending
	// score. topK must be positive. An empty store or no matches
	// returns an empty slice, never an error.
	Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievalResult, error)
}
