// Package memory provides in-memory implementations of the metadata
// store ports, used for testing and ephemeral runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// Ensure LedgerStore implements the interface.
var _ driven.LedgerStore = (*LedgerStore)(nil)

// LedgerStore is an in-memory implementation of driven.LedgerStore.
type LedgerStore struct {
	mu      sync.RWMutex
	entries map[string]driven.LedgerEntry
}

// NewLedgerStore creates a new in-memory ledger store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		entries: make(map[string]driven.LedgerEntry),
	}
}

// Record inserts or replaces the entry for a source.
func (s *LedgerStore) Record(_ context.Context, entry driven.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.SourceID] = entry
	return nil
}

// Get returns the entry for a source.
func (s *LedgerStore) Get(_ context.Context, sourceID string) (driven.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[sourceID]
	if !ok {
		return driven.LedgerEntry{}, domain.ErrNotFound
	}
	return entry, nil
}

// List returns all entries, most recent ingestion first.
func (s *LedgerStore) List(_ context.Context) ([]driven.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]driven.LedgerEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].IngestedAt.After(entries[j].IngestedAt)
	})
	return entries, nil
}

// Delete removes the entry for a source. Unknown sources are a no-op.
func (s *LedgerStore) Delete(_ context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sourceID)
	return nil
}

// Close releases resources.
func (s *LedgerStore) Close() error {
	return nil
}
