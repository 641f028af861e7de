package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := NewEmbeddingService(Config{
		APIKey:            "sk-test",
		BaseURL:           srv.URL,
		RequestsPerSecond: 1000, // keep tests fast
	})
	require.NoError(t, err)
	return svc
}

func TestNewEmbeddingService_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNewEmbeddingService_UnknownModel(t *testing.T) {
	_, err := NewEmbeddingService(Config{APIKey: "sk-test", Model: "not-a-model"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNewEmbeddingService_UnknownModelWithExplicitDimensions(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "sk-test", Model: "custom-proxy-model", Dimensions: 512})

	require.NoError(t, err)
	assert.Equal(t, 512, svc.Dimensions())
	assert.Equal(t, "custom-proxy-model", svc.ModelName())
}

func TestNewEmbeddingService_DefaultDimensions(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"text-embedding-3-small", 1536},
		{"text-embedding-3-large", 3072},
		{"text-embedding-ada-002", 1536},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			svc, err := NewEmbeddingService(Config{APIKey: "sk-test", Model: tt.model})
			require.NoError(t, err)
			assert.Equal(t, tt.want, svc.Dimensions())
		})
	}
}

func TestEmbedBatch_SendsAuthAndModel(t *testing.T) {
	var gotAuth string
	var gotReq embeddingRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`{"data":[{"embedding":[0.1,0.2],"index":0},{"embedding":[0.3,0.4],"index":1}]}`))
	})

	embeddings, err := svc.EmbedBatch(context.Background(), []string{"first", "second"})

	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "text-embedding-3-small", gotReq.Model)
	assert.Equal(t, []string{"first", "second"}, gotReq.Input)
	assert.Equal(t, 1536, gotReq.Dimensions)

	require.Len(t, embeddings, 2)
	assert.Equal(t, []float32{0.1, 0.2}, embeddings[0])
	assert.Equal(t, []float32{0.3, 0.4}, embeddings[1])
}

func TestEmbedBatch_OrdersByIndex(t *testing.T) {
	// The API may return data out of order; results must follow input order.
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"embedding":[0.3],"index":1},{"embedding":[0.1],"index":0}]}`))
	})

	embeddings, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	assert.Equal(t, []float32{0.1}, embeddings[0])
	assert.Equal(t, []float32{0.3}, embeddings[1])
}

func TestEmbedBatch_IndexOutOfRange(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"embedding":[0.1],"index":5}]}`))
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"a"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPermanent)
}

func TestEmbedBatch_EmptyInput(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty input")
	})

	embeddings, err := svc.EmbedBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, embeddings)
}

func TestEmbedBatch_APIError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"invalid input","type":"invalid_request_error"}}`))
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"a"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPermanent)
	assert.Contains(t, err.Error(), "invalid input")
}

func TestEmbedBatch_ClassifiesStatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		category error
	}{
		{"rate limited is transient", http.StatusTooManyRequests, domain.ErrTransient},
		{"server error is transient", http.StatusBadGateway, domain.ErrTransient},
		{"unauthorized is permanent", http.StatusUnauthorized, domain.ErrPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := svc.EmbedBatch(context.Background(), []string{"a"})

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.category)
		})
	}
}

func TestEmbedBatch_CancelledContext(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"embedding":[0.1],"index":0}]}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.EmbedBatch(ctx, []string{"a"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCancelled)
}

func TestEmbed_ReturnsSingleVector(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"embedding":[0.5,0.6],"index":0}]}`))
	})

	embedding, err := svc.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.6}, embedding)
}

func TestPing_OK(t *testing.T) {
	var gotPath string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"data":[]}`))
	})

	err := svc.Ping(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "/models", gotPath)
}

func TestPing_BadKey(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := svc.Ping(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPermanent)
}
