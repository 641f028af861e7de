// Package qdrant provides a vector store adapter backed by the Qdrant
// REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:6333"
	DefaultCollection = "ragline"
	DefaultTimeout    = 30 * time.Second
)

// pointNamespace seeds deterministic point IDs. Qdrant only accepts
// UUIDs or unsigned integers as point IDs, so the composite chunk key
// is hashed into a stable UUID and kept verbatim in the payload.
var pointNamespace = uuid.MustParse("8a9c1f60-5dd3-4a2e-9b36-6f4be37cc104")

// Config holds configuration for the Qdrant vector store.
type Config struct {
	// BaseURL is the Qdrant endpoint (default: http://localhost:6333).
	BaseURL string

	// APIKey is the Qdrant API key (optional).
	APIKey string

	// Collection is the collection name (default: ragline).
	Collection string

	// Dimensions is the vector size the collection is created with (required).
	Dimensions int

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// VectorStore stores embeddings in Qdrant over HTTP.
type VectorStore struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	collection string
	dimensions int
}

// NewVectorStore creates a Qdrant vector store and ensures the
// collection exists with the configured dimensionality. Qdrant rejects
// vectors whose size differs from the collection schema, so dimension
// mismatches surface as hard errors at upsert time.
func NewVectorStore(ctx context.Context, cfg Config) (*VectorStore, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: qdrant: collection dimensions are required", domain.ErrConfiguration)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	s := &VectorStore{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
	}

	// Create the collection if missing; Qdrant answers 200 when it
	// already exists with the same schema.
	body := map[string]any{
		"vectors": map[string]any{
			"size":     cfg.Dimensions,
			"distance": "Cosine",
		},
	}
	if err := s.do(ctx, http.MethodPut, "/collections/"+s.collection, body, nil); err != nil {
		return nil, fmt.Errorf("qdrant: creating collection %q: %w", s.collection, err)
	}
	return s, nil
}

// PointID returns the deterministic Qdrant point ID for a chunk key.
func PointID(key string) string {
	return uuid.NewSHA1(pointNamespace, []byte(key)).String()
}

// Upsert inserts or overwrites a record. The same key always maps to
// the same point ID, so re-ingestion is last-write-wins.
func (s *VectorStore) Upsert(ctx context.Context, record domain.VectorRecord) error {
	if len(record.Vector) != s.dimensions {
		return fmt.Errorf("%w: qdrant: got %d dimensions, collection %q has %d",
			domain.ErrDimensionMismatch, len(record.Vector), s.collection, s.dimensions)
	}

	payload := map[string]any{
		"key":    record.Key,
		"text":   record.Metadata.Text,
		"source": record.Metadata.Source,
	}
	if record.Metadata.Page > 0 {
		payload["page"] = record.Metadata.Page
	}
	if record.Metadata.BBox != nil {
		payload["bbox"] = []float64{
			record.Metadata.BBox.X1, record.Metadata.BBox.Y1,
			record.Metadata.BBox.X2, record.Metadata.BBox.Y2,
		}
	}

	body := map[string]any{
		"points": []map[string]any{{
			"id":      PointID(record.Key),
			"vector":  record.Vector,
			"payload": payload,
		}},
	}
	return s.do(ctx, http.MethodPut, "/collections/"+s.collection+"/points?wait=true", body, nil)
}

// Query returns the topK nearest points by the collection's distance
// metric, descending.
func (s *VectorStore) Query(ctx context.Context, vector []float32, topK int) ([]driven.VectorHit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: qdrant: top-k must be positive, got %d", domain.ErrInvalidInput, topK)
	}

	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, "/collections/"+s.collection+"/points/search", body, &resp); err != nil {
		return nil, err
	}

	hits := make([]driven.VectorHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hit := driven.VectorHit{Score: r.Score}
		if v, ok := r.Payload["key"].(string); ok {
			hit.Key = v
		}
		if v, ok := r.Payload["text"].(string); ok {
			hit.Metadata.Text = v
		}
		if v, ok := r.Payload["source"].(string); ok {
			hit.Metadata.Source = v
		}
		if v, ok := r.Payload["page"].(float64); ok {
			hit.Metadata.Page = int(v)
		}
		if v, ok := r.Payload["bbox"].([]any); ok && len(v) == 4 {
			coords := make([]float64, 0, 4)
			for _, c := range v {
				if f, ok := c.(float64); ok {
					coords = append(coords, f)
				}
			}
			if len(coords) == 4 {
				hit.Metadata.BBox = &domain.BBox{X1: coords[0], Y1: coords[1], X2: coords[2], Y2: coords[3]}
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// DeleteBySource removes every point whose payload source matches.
// Unknown sources delete zero points, which Qdrant reports as success.
func (s *VectorStore) DeleteBySource(ctx context.Context, sourceID string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{{
				"key":   "source",
				"match": map[string]any{"value": sourceID},
			}},
		},
	}
	return s.do(ctx, http.MethodPost, "/collections/"+s.collection+"/points/delete?wait=true", body, nil)
}

// Close releases resources.
func (s *VectorStore) Close() error {
	return nil
}

func (s *VectorStore) do(ctx context.Context, method, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: qdrant %s %s: %v", domain.ErrTransient, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: qdrant %s %s returned %d: %s",
			domain.ErrorCategoryForStatus(resp.StatusCode), method, path, resp.StatusCode, string(detail))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: qdrant: decode response: %v", domain.ErrPermanent, err)
		}
	}
	return nil
}
