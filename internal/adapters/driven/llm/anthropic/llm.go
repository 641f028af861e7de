// Package anthropic provides a generation service adapter using the
// Anthropic messages API.
package anthropic

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
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-sonnet-latest"
	DefaultTimeout = 120 * time.Second

	// anthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"

	// defaultMaxTokens is used when the caller sets no cap;
	// Anthropic requires max_tokens on every request.
	defaultMaxTokens = 1024
)

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the default model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService provides generation using the Anthropic API.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// messagesRequest is the Anthropic /v1/messages request format.
type messagesRequest struct {
	Model       string            `json:"model"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	Temperature float64           `json:"temperature,omitempty"`
	TopP        float64           `json:"top_p,omitempty"`
	StopSeqs    []string          `json:"stop_sequences,omitempty"`
	Stream      bool              `json:"stream,omitempty"`
}

// messagesMessage is the Anthropic message format.
type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the Anthropic /v1/messages response format.
type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// streamEvent is one SSE payload from a streaming response.
type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Message struct {
		Usage struct {
			InputTokens int `json:"input_tokens"`
		} `json:"usage"`
	} `json:"message"`
	Usage struct {
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic: API key is required", domain.ErrConfiguration)
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

func (s *LLMService) buildRequest(prompt string, opts domain.GenerateOptions, stream bool) messagesRequest {
	model := opts.Model
	if model == "" {
		model = s.model
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	return messagesRequest{
		Model:       model,
		Messages:    []messagesMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		StopSeqs:    opts.Stop,
		Stream:      stream,
	}
}

func (s *LLMService) send(ctx context.Context, reqBody messagesRequest) (*http.Response, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/v1/messages",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: anthropic: send request: %v", domain.ErrTransient, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: anthropic returned status %d: %s",
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

	var msgResp messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&msgResp); err != nil {
		return domain.GenerationResult{}, fmt.Errorf("%w: anthropic: decode response: %v", domain.ErrPermanent, err)
	}
	if msgResp.Error != nil {
		return domain.GenerationResult{}, fmt.Errorf("%w: anthropic error: %s", domain.ErrPermanent, msgResp.Error.Message)
	}

	var text strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return domain.GenerationResult{
		Text:  text.String(),
		Model: s.resolveModel(opts),
		Usage: domain.TokenUsage{
			PromptTokens:     msgResp.Usage.InputTokens,
			CompletionTokens: msgResp.Usage.OutputTokens,
			TotalTokens:      msgResp.Usage.InputTokens + msgResp.Usage.OutputTokens,
		},
	}, nil
}

// Stream produces a completion incrementally via server-sent events.
// A non-nil error from onDelta abandons the stream.
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

		var event streamEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			return result, fmt.Errorf("%w: anthropic: decode stream event: %v", domain.ErrPermanent, err)
		}

		switch event.Type {
		case "message_start":
			result.Usage.PromptTokens = event.Message.Usage.InputTokens
		case "content_block_delta":
			if event.Delta.Type != "text_delta" || event.Delta.Text == "" {
				continue
			}
			if err := onDelta(event.Delta.Text); err != nil {
				return result, fmt.Errorf("%w: stream consumer: %w", domain.ErrCancelled, err)
			}
			result.Text += event.Delta.Text
		case "message_delta":
			result.Usage.CompletionTokens = event.Usage.OutputTokens
			result.Usage.TotalTokens = result.Usage.PromptTokens + result.Usage.CompletionTokens
		case "message_stop":
			return result, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("%w: anthropic: reading stream: %v", domain.ErrTransient, err)
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

// Ping validates the service is reachable. Anthropic has no cheap
// status endpoint, so this sends a minimal one-token request.
func (s *LLMService) Ping(ctx context.Context) error {
	reqBody := messagesRequest{
		Model:     s.model,
		Messages:  []messagesMessage{{Role: "user", Content: "ping"}},
		MaxTokens: 1,
	}
	resp, err := s.send(ctx, reqBody)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
