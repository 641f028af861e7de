// Package chunker splits document text into overlapping word-windows.
// Chunking is pure and deterministic: identical input and parameters
// always yield an identical chunk sequence, which re-ingestion relies
// on for stable chunk keys.
package chunker

import (
	"strings"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// DefaultChunkSize is the default window length in words.
const DefaultChunkSize = 200

// DefaultOverlap is the default number of words shared between
// consecutive chunks.
const DefaultOverlap = 40

// Chunker splits document content into word-window chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the window length in words.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		c.chunkSize = size
	}
}

// WithOverlap sets the overlap between consecutive chunks in words.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// New creates a chunker with the given options.
// Parameters are validated at chunk time, not here: an overlap equal
// to or larger than the chunk size would otherwise never advance the
// window, so it fails fast instead of looping forever.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChunkSize returns the configured window length in words.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the configured overlap in words.
func (c *Chunker) Overlap() int {
	return c.overlap
}

func (c *Chunker) validate() error {
	return domain.ChunkingSettings{ChunkSize: c.chunkSize, Overlap: c.overlap}.Validate()
}

// ChunkDocument splits a document into chunks. When the document
// carries blocks, chunking operates per block and boundaries never
// span blocks; otherwise the flat content is chunked.
func (c *Chunker) ChunkDocument(doc domain.Document) ([]domain.Chunk, error) {
	if len(doc.Blocks) > 0 {
		return c.ChunkBlocks(doc.SourceID, doc.Blocks)
	}
	return c.Chunk(doc.SourceID, doc.Content)
}

// Chunk splits text into overlapping word-windows. Empty or
// whitespace-only input produces an empty sequence, not an error.
// Text shorter than the chunk size produces exactly one chunk.
func (c *Chunker) Chunk(sourceID, text string) ([]domain.Chunk, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	next := 0
	return c.chunkWords(sourceID, text, domain.Block{}, &next)
}

// ChunkBlocks splits pre-segmented blocks into overlapping
// word-windows, tagging each chunk with its block's page and bounding
// box. Chunk indexes run across the whole document in block order.
func (c *Chunker) ChunkBlocks(sourceID string, blocks []domain.Block) ([]domain.Chunk, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	var chunks []domain.Chunk
	next := 0
	for _, block := range blocks {
		blockChunks, err := c.chunkWords(sourceID, block.Text, block, &next)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, blockChunks...)
	}
	return chunks, nil
}

// chunkWords does the actual windowing. The window advances by
// (chunkSize - overlap) words each step; validate() has already
// guaranteed that stride is positive.
func (c *Chunker) chunkWords(sourceID, text string, block domain.Block, next *int) ([]domain.Chunk, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	stride := c.chunkSize - c.overlap
	estimated := (len(words) / stride) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	for start := 0; start < len(words); start += stride {
		end := start + c.chunkSize
		if end > len(words) {
			end = len(words)
		}

		chunks = append(chunks, domain.Chunk{
			SourceID: sourceID,
			Index:    *next,
			Text:     strings.Join(words[start:end], " "),
			Page:     block.Page,
			BBox:     block.BBox,
		})
		*next++

		// A window that consumed the final word would otherwise be
		// followed by a redundant tail chunk made of pure overlap.
		if end == len(words) {
			break
		}
	}

	return chunks, nil
}
