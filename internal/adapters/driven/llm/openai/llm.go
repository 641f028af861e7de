// Package openai provides a generation service adapter using the
// OpenAI chat completions API.
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the OpenAI LLM service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the default model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService provides generation using the OpenAI API.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// chatRequest is the OpenAI /chat/completions request format.
type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	Temperature    float64       `json:"temperature,omitempty"`
	TopP           float64       `json:"top_p,omitempty"`
	Stop           []string      `json:"stop,omitempty"`
	Stream         bool          `json:"stream,omitempty"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

// chatResponse is the OpenAI /chat/completions response format.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// streamChunk is one SSE payload from a streaming completion.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
}

// NewLLMService creates a new OpenAI LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai: API key is required", domain.ErrConfiguration)
	}
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
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

func (s *LLMService) buildRequest(prompt string, opts domain.GenerateOptions, stream bool) chatRequest {
	model := opts.Model
	if model == "" {
		model = s.model
	}

	req := chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		Stop:        opts.Stop,
		Stream:      stream,
	}
	if opts.Format == "json" {
		req.ResponseFormat = &respFormat{Type: "json_object"}
	}
	return req
}

func (s *LLMService) send(ctx context.Context, reqBody chatRequest) (*http.Response, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: openai: send request: %v", domain.ErrTransient, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: openai returned status %d: %s",
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

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return domain.GenerationResult{}, fmt.Errorf("%w: openai: decode response: %v", domain.ErrPermanent, err)
	}
	if chatResp.Error != nil {
		return domain.GenerationResult{}, fmt.Errorf("%w: openai error: %s", domain.ErrPermanent, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return domain.GenerationResult{}, fmt.Errorf("%w: openai: no choices returned", domain.ErrPermanent)
	}

	return domain.GenerationResult{
		Text:  chatResp.Choices[0].Message.Content,
		Model: s.resolveModel(opts),
		Usage: domain.TokenUsage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
		},
	}, nil
}

// Stream produces a completion incrementally via server-sent events.
// A non-nil error from onDelta abandons the stream: the response body
// is closed, which aborts the in-flight request.
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
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return result, fmt.Errorf("%w: openai: decode stream chunk: %v", domain.ErrPermanent, err)
		}
		if chunk.Usage != nil {
			result.Usage = domain.TokenUsage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			}
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := onDelta(delta); err != nil {
			return result, fmt.Errorf("%w: stream consumer: %w", domain.ErrCancelled, err)
		}
		result.Text += delta
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("%w: openai: reading stream: %v", domain.ErrTransient, err)
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
func (s *LLMService) APIKeySet() bool {
	return s.apiKey != ""
}

// ModelName returns the default model for this service.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /models endpoint.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: failed to create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: openai: ping failed: %v", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: openai: ping returned status %d",
			domain.ErrorCategoryForStatus(resp.StatusCode), resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
