package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

func TestChunk_Example(t *testing.T) {
	c := New(WithChunkSize(3), WithOverlap(1))

	chunks, err := c.Chunk("doc1", "a b c d e")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"a b c", "c d e"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i, w := range want {
		if chunks[i].Text != w {
			t.Errorf("chunk %d: expected %q, got %q", i, w, chunks[i].Text)
		}
		if chunks[i].Index != i {
			t.Errorf("chunk %d: expected index %d, got %d", i, i, chunks[i].Index)
		}
		if chunks[i].SourceID != "doc1" {
			t.Errorf("chunk %d: expected source doc1, got %q", i, chunks[i].SourceID)
		}
	}
}

func TestChunk_EmptyInput(t *testing.T) {
	c := New(WithChunkSize(10), WithOverlap(2))

	for _, input := range []string{"", "   ", "\n\t  \n"} {
		chunks, err := c.Chunk("doc1", input)
		if err != nil {
			t.Fatalf("input %q: unexpected error: %v", input, err)
		}
		if len(chunks) != 0 {
			t.Errorf("input %q: expected 0 chunks, got %d", input, len(chunks))
		}
	}
}

func TestChunk_ShorterThanWindow(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(10))

	chunks, err := c.Chunk("doc1", "just a few words")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected exactly one chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "just a few words" {
		t.Errorf("expected full text, got %q", chunks[0].Text)
	}
}

func TestChunk_InvalidParameters(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{"zero chunk size", 0, 0},
		{"negative chunk size", -1, 0},
		{"overlap equals chunk size", 5, 5},
		{"overlap exceeds chunk size", 5, 8},
		{"negative overlap", 5, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(WithChunkSize(tt.chunkSize), WithOverlap(tt.overlap))
			_, err := c.Chunk("doc1", "some words here")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestChunk_Deterministic(t *testing.T) {
	c := New(WithChunkSize(4), WithOverlap(2))
	text := "the quick brown fox jumps over the lazy dog again and again"

	first, err := c.Chunk("doc1", text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.Chunk("doc1", text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestChunk_NoOverlapIsExhaustive(t *testing.T) {
	const wordCount = 23
	const chunkSize = 5

	words := make([]string, wordCount)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}

	c := New(WithChunkSize(chunkSize), WithOverlap(0))
	chunks, err := c.Chunk("doc1", strings.Join(words, " "))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// ceil(23/5) = 5
	wantChunks := (wordCount + chunkSize - 1) / chunkSize
	if len(chunks) != wantChunks {
		t.Fatalf("expected %d chunks, got %d", wantChunks, len(chunks))
	}

	// Every word appears in exactly one chunk, in order.
	var rejoined []string
	for _, ch := range chunks {
		rejoined = append(rejoined, strings.Fields(ch.Text)...)
	}
	if len(rejoined) != wordCount {
		t.Fatalf("expected %d words total, got %d", wordCount, len(rejoined))
	}
	for i, w := range rejoined {
		if w != words[i] {
			t.Errorf("word %d: expected %q, got %q", i, words[i], w)
		}
	}
}

func TestChunk_ConsecutiveChunksShareOverlap(t *testing.T) {
	const overlap = 3

	words := make([]string, 20)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}

	c := New(WithChunkSize(7), WithOverlap(overlap))
	chunks, err := c.Chunk("doc1", strings.Join(words, " "))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1].Text)
		curr := strings.Fields(chunks[i].Text)

		shared := overlap
		if len(curr) < shared {
			shared = len(curr)
		}
		tail := prev[len(prev)-shared:]
		head := curr[:shared]
		for j := range tail {
			if tail[j] != head[j] {
				t.Errorf("chunks %d/%d: overlap word %d differs: %q vs %q",
					i-1, i, j, tail[j], head[j])
			}
		}
	}
}

func TestChunkBlocks(t *testing.T) {
	bbox := &domain.BBox{X1: 10, Y1: 20, X2: 200, Y2: 80}
	blocks := []domain.Block{
		{Text: "alpha beta gamma delta", Page: 1, BBox: bbox},
		{Text: "epsilon zeta", Page: 2},
	}

	c := New(WithChunkSize(3), WithOverlap(1))
	chunks, err := c.ChunkBlocks("doc1", blocks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Block 1 yields two chunks, block 2 one; boundaries never span blocks.
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "alpha beta gamma" || chunks[1].Text != "gamma delta" {
		t.Errorf("unexpected block 1 chunks: %q, %q", chunks[0].Text, chunks[1].Text)
	}
	if chunks[2].Text != "epsilon zeta" {
		t.Errorf("unexpected block 2 chunk: %q", chunks[2].Text)
	}

	// Indexes run across the whole document.
	for i, ch := range chunks {
		if ch.Index != i {
			t.Errorf("chunk %d: expected index %d, got %d", i, i, ch.Index)
		}
	}

	// Structural tags are inherited from the source block.
	if chunks[0].Page != 1 || chunks[0].BBox != bbox {
		t.Errorf("chunk 0 missing block tags: page=%d bbox=%v", chunks[0].Page, chunks[0].BBox)
	}
	if chunks[2].Page != 2 || chunks[2].BBox != nil {
		t.Errorf("chunk 2 has wrong block tags: page=%d bbox=%v", chunks[2].Page, chunks[2].BBox)
	}
}

func TestChunkDocument_PrefersBlocks(t *testing.T) {
	c := New(WithChunkSize(5), WithOverlap(0))
	doc := domain.Document{
		SourceID: "doc1",
		Content:  "flat content that should be ignored",
		Blocks:   []domain.Block{{Text: "block content wins", Page: 1}},
	}

	chunks, err := c.ChunkDocument(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text != "block content wins" {
		t.Fatalf("expected block content, got %+v", chunks)
	}
}
