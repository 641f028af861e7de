package domain

import "fmt"

// Document represents caller-owned text submitted for ingestion.
// The core never persists documents; it only derives chunks from them.
type Document struct {
	// SourceID is the caller-supplied identifier, stable across updates.
	// All vector records derived from this document carry it.
	SourceID string

	// Content is the full text to chunk and embed.
	// Ignored when Blocks is non-empty.
	Content string

	// Blocks optionally carries pre-segmented text regions with
	// structural metadata (e.g. per-page extraction output).
	// When set, chunking operates per block and chunk boundaries
	// never span blocks.
	Blocks []Block
}

// Block is a text region with optional structural metadata.
type Block struct {
	// Text is the block content.
	Text string

	// Page is the 1-based page number, zero when unknown.
	Page int

	// BBox is the bounding box of the region on the page, if known.
	BBox *BBox
}

// BBox is a rectangular region in page coordinates.
type BBox struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// Chunk represents a bounded word-window derived from a document.
// It is the unit of embedding and storage.
type Chunk struct {
	// SourceID back-references the owning document.
	SourceID string

	// Index is the 0-based position within the document's chunk sequence.
	Index int

	// Text is the chunk content.
	Text string

	// Page is the page number inherited from the source block, zero when unknown.
	Page int

	// BBox is the bounding box inherited from the source block, if any.
	BBox *BBox
}

// Key returns the composite storage key for the chunk.
// Chunk identity is the deterministic pair (SourceID, Index), so
// re-ingesting the same document overwrites the same keys.
func (c Chunk) Key() string {
	return ChunkKey(c.SourceID, c.Index)
}

// ChunkKey renders the composite key for a source and chunk index.
func ChunkKey(sourceID string, index int) string {
	return fmt.Sprintf("%s_%d", sourceID, index)
}

// VectorMetadata is the payload stored alongside an embedding.
type VectorMetadata struct {
	// Text is the chunk content, returned verbatim at query time.
	Text string

	// Source is the owning document's SourceID.
	Source string

	// Page is the page number, zero when unknown.
	Page int

	// BBox is the bounding box, nil when unknown.
	BBox *BBox
}

// VectorRecord is an embedding persisted in the vector store.
type VectorRecord struct {
	// Key is the composite chunk key "{sourceId}_{index}".
	Key string

	// Vector is the embedding. Dimensionality must be uniform across
	// one collection; a mismatch is a hard error.
	Vector []float32

	// Metadata is the stored payload.
	Metadata VectorMetadata
}

// RetrievalResult represents a single similarity hit, ranked by
// descending score. Tie order is stable but store-defined.
type RetrievalResult struct {
	// Text is the stored chunk content.
	Text string

	// Score is the store's similarity score, higher is better.
	// The core does not reinterpret scores across backends.
	Score float64

	// Metadata is the stored payload for the hit.
	Metadata VectorMetadata
}
