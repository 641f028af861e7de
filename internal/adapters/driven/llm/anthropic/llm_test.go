package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := NewLLMService(Config{APIKey: "sk-ant-test", BaseURL: srv.URL})
	require.NoError(t, err)
	return svc
}

func TestNewLLMService_RequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(Config{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNewLLMService_Defaults(t *testing.T) {
	svc, err := NewLLMService(Config{APIKey: "sk-ant-test"})

	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.True(t, svc.APIKeySet())
}

func TestComplete_SendsHeadersAndParsesResponse(t *testing.T) {
	var gotKey, gotVersion, gotPath string
	var gotReq messagesRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`{
			"content":[{"type":"text","text":"The answer is 42."}],
			"usage":{"input_tokens":12,"output_tokens":6}
		}`))
	})

	result, err := svc.Complete(context.Background(), "What is the answer?", domain.GenerateOptions{})

	require.NoError(t, err)
	assert.Equal(t, "sk-ant-test", gotKey)
	assert.Equal(t, anthropicVersion, gotVersion)
	assert.Equal(t, "/v1/messages", gotPath)
	assert.Equal(t, "claude-3-5-sonnet-latest", gotReq.Model)
	// Anthropic requires max_tokens; unset caps fall back to the default.
	assert.Equal(t, defaultMaxTokens, gotReq.MaxTokens)

	assert.Equal(t, "The answer is 42.", result.Text)
	assert.Equal(t, 12, result.Usage.PromptTokens)
	assert.Equal(t, 6, result.Usage.CompletionTokens)
	assert.Equal(t, 18, result.Usage.TotalTokens)
}

func TestComplete_ConcatenatesTextBlocks(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[
			{"type":"text","text":"first "},
			{"type":"tool_use","text":"ignored"},
			{"type":"text","text":"second"}
		]}`))
	})

	result, err := svc.Complete(context.Background(), "hi", domain.GenerateOptions{})

	require.NoError(t, err)
	assert.Equal(t, "first second", result.Text)
}

func TestComplete_StopSequences(t *testing.T) {
	var gotReq messagesRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`{"content":[{"type":"text","text":"ok"}]}`))
	})

	_, err := svc.Complete(context.Background(), "hi", domain.GenerateOptions{Stop: []string{"END"}})

	require.NoError(t, err)
	assert.Equal(t, []string{"END"}, gotReq.StopSeqs)
}

func TestComplete_ClassifiesStatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		category error
	}{
		{"overloaded is transient", http.StatusServiceUnavailable, domain.ErrTransient},
		{"rate limited is transient", http.StatusTooManyRequests, domain.ErrTransient},
		{"unauthorized is permanent", http.StatusUnauthorized, domain.ErrPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := svc.Complete(context.Background(), "hi", domain.GenerateOptions{})

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.category)
		})
	}
}

func TestStream_AssemblesEventSequence(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("event: message_start\n"))
		w.Write([]byte("data: {\"type\":\"message_start\",\"message\":{\"usage\":{\"input_tokens\":9}}}\n\n"))
		w.Write([]byte("event: content_block_delta\n"))
		w.Write([]byte("data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"Hello\"}}\n\n"))
		w.Write([]byte("event: content_block_delta\n"))
		w.Write([]byte("data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\", world\"}}\n\n"))
		w.Write([]byte("event: message_delta\n"))
		w.Write([]byte("data: {\"type\":\"message_delta\",\"usage\":{\"output_tokens\":4}}\n\n"))
		w.Write([]byte("event: message_stop\n"))
		w.Write([]byte("data: {\"type\":\"message_stop\"}\n\n"))
	})

	var deltas []string
	result, err := svc.Stream(context.Background(), "greet", domain.GenerateOptions{}, func(delta string) error {
		deltas = append(deltas, delta)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", ", world"}, deltas)
	assert.Equal(t, "Hello, world", result.Text)
	assert.Equal(t, 9, result.Usage.PromptTokens)
	assert.Equal(t, 4, result.Usage.CompletionTokens)
	assert.Equal(t, 13, result.Usage.TotalTokens)
}

func TestStream_SinkErrorAbortsStream(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"one\"}}\n\n"))
		w.Write([]byte("data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"two\"}}\n\n"))
		w.Write([]byte("data: {\"type\":\"message_stop\"}\n\n"))
	})

	sinkErr := errors.New("consumer gone")
	calls := 0
	_, err := svc.Stream(context.Background(), "hi", domain.GenerateOptions{}, func(string) error {
		calls++
		return sinkErr
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCancelled)
	assert.ErrorIs(t, err, sinkErr)
	assert.Equal(t, 1, calls)
}

func TestStream_IgnoresNonTextDeltas(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"input_json_delta\",\"text\":\"{}\"}}\n\n"))
		w.Write([]byte("data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"ok\"}}\n\n"))
		w.Write([]byte("data: {\"type\":\"message_stop\"}\n\n"))
	})

	result, err := svc.Stream(context.Background(), "hi", domain.GenerateOptions{}, func(string) error { return nil })

	require.NoError(t, err)
	assert.Equal(t, "ok", result.Text)
}

func TestStream_MalformedEvent(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {bad json}\n\n"))
	})

	_, err := svc.Stream(context.Background(), "hi", domain.GenerateOptions{}, func(string) error { return nil })

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPermanent)
}

func TestPing_SendsMinimalRequest(t *testing.T) {
	var gotReq messagesRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`{"content":[{"type":"text","text":"pong"}]}`))
	})

	err := svc.Ping(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, gotReq.MaxTokens)
}

func TestPing_BadKey(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := svc.Ping(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPermanent)
}
