// Package ollama provides a generation service adapter using Ollama.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.1"
	DefaultTimeout = 300 * time.Second
)

// Config holds configuration for the Ollama LLM service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the default model to use (default: llama3.1).
	Model string

	// Timeout is the request timeout (default: 300s, local inference is slow).
	Timeout time.Duration
}

// LLMService provides generation using Ollama.
type LLMService struct {
	client  *http.Client
	baseURL string
	model   string
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// generateResponse is one NDJSON line from /api/generate.
type generateResponse struct {
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg Config) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &LLMService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

func (s *LLMService) buildRequest(prompt string, opts domain.GenerateOptions, stream bool) generateRequest {
	model := opts.Model
	if model == "" {
		model = s.model
	}

	options := make(map[string]any)
	if opts.Temperature > 0 {
		options["temperature"] = opts.Temperature
	}
	if opts.TopP > 0 {
		options["top_p"] = opts.TopP
	}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}
	if len(opts.Stop) > 0 {
		options["stop"] = opts.Stop
	}
	if len(options) == 0 {
		options = nil
	}

	req := generateRequest{
		Model:   model,
		Prompt:  prompt,
		Stream:  stream,
		Options: options,
	}
	if opts.Format == "json" {
		req.Format = "json"
	}
	return req
}

func (s *LLMService) send(ctx context.Context, reqBody generateRequest) (*http.Response, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: ollama: send request: %v", domain.ErrTransient, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: ollama returned status %d: %s",
			domain.ErrorCategoryForStatus(resp.StatusCode), resp.StatusCode, string(body))
	}
	return resp, nil
}

// Complete produces a full text completion for the prompt.
func (s *LLMService) Complete(ctx context.Context, prompt string, opts domain.GenerateOptions) (domain.GenerationResult, error) {
	resp, err := s.send(ctx, s.buildRequest(prompt, opts, false))
	if err != nil {
		return domain.GenerationResult{}, err
	}
	defer resp.Body.Close()

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return domain.GenerationResult{}, fmt.Errorf("%w: ollama: decode response: %v", domain.ErrPermanent, err)
	}

	return domain.GenerationResult{
		Text:  genResp.Response,
		Model: s.resolveModel(opts),
		Usage: domain.TokenUsage{
			PromptTokens:     genResp.PromptEvalCount,
			CompletionTokens: genResp.EvalCount,
			TotalTokens:      genResp.PromptEvalCount + genResp.EvalCount,
		},
	}, nil
}

// Stream produces a completion incrementally. Ollama streams NDJSON,
// one object per generated fragment. A non-nil error from onDelta
// abandons the stream.
func (s *LLMService) Stream(ctx context.Context, prompt string, opts domain.GenerateOptions, onDelta func(string) error) (domain.GenerationResult, error) {
	resp, err := s.send(ctx, s.buildRequest(prompt, opts, true))
	if err != nil {
		return domain.GenerationResult{}, err
	}
	defer resp.Body.Close()

	result := domain.GenerationResult{Model: s.resolveModel(opts)}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var chunk generateResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return result, fmt.Errorf("%w: ollama: decode stream line: %v", domain.ErrPermanent, err)
		}

		if chunk.Response != "" {
			if err := onDelta(chunk.Response); err != nil {
				return result, fmt.Errorf("%w: stream consumer: %w", domain.ErrCancelled, err)
			}
			result.Text += chunk.Response
		}
		if chunk.Done {
			result.Usage = domain.TokenUsage{
				PromptTokens:     chunk.PromptEvalCount,
				CompletionTokens: chunk.EvalCount,
				TotalTokens:      chunk.PromptEvalCount + chunk.EvalCount,
			}
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("%w: ollama: reading stream: %v", domain.ErrTransient, err)
	}
	return result, nil
}

func (s *LLMService) resolveModel(opts domain.GenerateOptions) string {
	if opts.Model != "" {
		return opts.Model
	}
	return s.model
}

// BaseURL returns the endpoint requests are sent to.
func (s *LLMService) BaseURL() string {
	return s.baseURL
}

// APIKeySet reports whether a credential is configured.
// Ollama is local and unauthenticated.
func (s *LLMService) APIKeySet() bool {
	return false
}

// ModelName returns the default model for this service.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: ollama: ping failed: %v", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: ollama: ping returned status %d",
			domain.ErrorCategoryForStatus(resp.StatusCode), resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
