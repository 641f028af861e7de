// Package memory provides an in-process vector store using
// brute-force cosine similarity. Vectors are lost on exit; it is
// intended for testing and small corpora.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
// The first upserted record fixes the collection dimensionality;
// records with a different vector size are rejected.
type VectorStore struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]domain.VectorRecord
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		records: make(map[string]domain.VectorRecord),
	}
}

// Upsert inserts or overwrites a record by key, last write wins.
func (s *VectorStore) Upsert(_ context.Context, record domain.VectorRecord) error {
	if record.Key == "" {
		return fmt.Errorf("%w: record key is required", domain.ErrInvalidInput)
	}
	if len(record.Vector) == 0 {
		return fmt.Errorf("%w: record vector is empty", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dimension == 0 {
		s.dimension = len(record.Vector)
	} else if len(record.Vector) != s.dimension {
		return fmt.Errorf("%w: got %d dimensions, collection has %d",
			domain.ErrDimensionMismatch, len(record.Vector), s.dimension)
	}

	s.records[record.Key] = record
	return nil
}

// Query returns the topK records by cosine similarity, descending.
// Ties break by key order so results are stable across calls.
func (s *VectorStore) Query(_ context.Context, vector []float32, topK int) ([]driven.VectorHit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top-k must be positive, got %d", domain.ErrInvalidInput, topK)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		return nil, nil
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection has %d",
			domain.ErrDimensionMismatch, len(vector), s.dimension)
	}

	hits := make([]driven.VectorHit, 0, len(s.records))
	for key, rec := range s.records {
		hits = append(hits, driven.VectorHit{
			Key:      key,
			Score:    cosine(vector, rec.Vector),
			Metadata: rec.Metadata,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Key < hits[j].Key
	})

	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

// DeleteBySource removes all records whose metadata source matches.
// Unknown sources are a no-op.
func (s *VectorStore) DeleteBySource(_ context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, rec := range s.records {
		if rec.Metadata.Source == sourceID {
			delete(s.records, key)
		}
	}
	return nil
}

// Close releases resources.
func (s *VectorStore) Close() error {
	return nil
}

// Len returns the number of stored records.
func (s *VectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns the record for a key, for tests and diagnostics.
func (s *VectorStore) Get(key string) (domain.VectorRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	return rec, ok
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
