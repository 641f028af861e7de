package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
	"github.com/custodia-labs/ragline/internal/core/ports/driving"
	"github.com/custodia-labs/ragline/internal/logger"
)

// Ensure GenerateService implements the interface.
var _ driving.GenerateService = (*GenerateService)(nil)

// GenerateService orchestrates retrieval-augmented generation.
// Each request moves Idle → ContextAssembled → Requesting and ends in
// Completed or Failed; lifecycle listeners observe each transition.
type GenerateService struct {
	llm       driven.LLMService
	retriever driving.RetrievalService
	defaults  domain.GenerateOptions
	topK      int

	mu        sync.RWMutex
	listeners []domain.GenerationListener
}

// NewGenerateService creates a new generation orchestrator.
// The retriever is optional; without one prompts pass through unmodified.
func NewGenerateService(llm driven.LLMService, defaults domain.GenerateOptions) *GenerateService {
	return &GenerateService{
		llm:      llm,
		defaults: defaults,
		topK:     5,
	}
}

// SetRetriever configures context retrieval ahead of generation.
func (s *GenerateService) SetRetriever(r driving.RetrievalService, topK int) {
	s.retriever = r
	if topK > 0 {
		s.topK = topK
	}
}

// AddListener registers a lifecycle observer.
func (s *GenerateService) AddListener(l domain.GenerationListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Generate runs retrieval, assembles the prompt and requests a full
// completion.
func (s *GenerateService) Generate(ctx context.Context, prompt string, opts domain.GenerateOptions) (domain.GenerationResult, error) {
	return s.run(ctx, prompt, opts, nil)
}

// GenerateStream behaves like Generate but delivers the completion
// incrementally through onDelta in arrival order.
func (s *GenerateService) GenerateStream(ctx context.Context, prompt string, opts domain.GenerateOptions, onDelta func(delta string) error) (domain.GenerationResult, error) {
	if onDelta == nil {
		return domain.GenerationResult{}, fmt.Errorf("%w: streaming requires a delta sink", domain.ErrInvalidInput)
	}
	return s.run(ctx, prompt, opts, onDelta)
}

func (s *GenerateService) run(ctx context.Context, prompt string, opts domain.GenerateOptions, onDelta func(string) error) (domain.GenerationResult, error) {
	resolved := opts.Merged(s.defaults)

	// Idle: observers audit intent even if the request never completes.
	s.notifyBefore(prompt, resolved)

	if s.llm == nil {
		err := domain.ErrLLMUnavailable
		s.notifyFailed(prompt, resolved, err)
		return domain.GenerationResult{}, err
	}
	if resolved.Model == "" {
		resolved.Model = s.llm.ModelName()
	}

	// Idle → ContextAssembled.
	finalPrompt, err := s.assembleContext(ctx, prompt)
	if err != nil {
		s.notifyFailed(prompt, resolved, err)
		return domain.GenerationResult{}, err
	}

	// ContextAssembled → Requesting: validate before any network call.
	if !domain.IsSupportedModel(resolved.Model) {
		err := fmt.Errorf("%w: unsupported generation model %q", domain.ErrConfiguration, resolved.Model)
		s.notifyFailed(prompt, resolved, err)
		return domain.GenerationResult{}, err
	}

	logger.Section("Generation")
	logger.Debug("Model: %s, streaming: %t", resolved.Model, onDelta != nil)

	var result domain.GenerationResult
	if onDelta != nil {
		result, err = s.llm.Stream(ctx, finalPrompt, resolved, onDelta)
	} else {
		result, err = s.llm.Complete(ctx, finalPrompt, resolved)
	}

	// Requesting → Failed.
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, domain.ErrCancelled) {
			err = fmt.Errorf("%w: %w", domain.ErrCancelled, err)
		}
		genErr := &domain.GenerationError{
			URL:       s.llm.BaseURL(),
			Model:     resolved.Model,
			Prompt:    finalPrompt,
			Options:   resolved,
			APIKeySet: s.llm.APIKeySet(),
			Err:       err,
		}
		s.notifyFailed(prompt, resolved, genErr)
		return domain.GenerationResult{}, genErr
	}

	// Requesting → Completed.
	logger.Debug("Tokens: prompt=%d completion=%d", result.Usage.PromptTokens, result.Usage.CompletionTokens)
	s.notifyAfter(prompt, resolved, result)
	return result, nil
}

// assembleContext prepends retrieved context to the prompt. When no
// retriever is configured or retrieval yields nothing, the prompt
// passes through unmodified - an empty "Context:" section is never
// injected.
func (s *GenerateService) assembleContext(ctx context.Context, prompt string) (string, error) {
	if s.retriever == nil {
		return prompt, nil
	}

	results, err := s.retriever.Retrieve(ctx, prompt, s.topK)
	if err != nil {
		return "", fmt.Errorf("retrieving context: %w", err)
	}
	if len(results) == 0 {
		logger.Debug("No context retrieved, sending prompt unmodified")
		return prompt, nil
	}

	logger.Debug("Injecting %d context chunks", len(results))
	return BuildPrompt(results, prompt), nil
}

func (s *GenerateService) snapshotListeners() []domain.GenerationListener {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.GenerationListener, len(s.listeners))
	copy(out, s.listeners)
	return out
}

// notify invokes a listener callback with panic isolation: a failing
// observer must not alter the orchestrator's outcome.
func notify(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("generation listener panicked in %s: %v", name, r)
		}
	}()
	fn()
}

func (s *GenerateService) notifyBefore(prompt string, opts domain.GenerateOptions) {
	for _, l := range s.snapshotListeners() {
		notify("BeforeGeneration", func() { l.BeforeGeneration(prompt, opts) })
	}
}

func (s *GenerateService) notifyAfter(prompt string, opts domain.GenerateOptions, result domain.GenerationResult) {
	for _, l := range s.snapshotListeners() {
		notify("AfterGeneration", func() { l.AfterGeneration(prompt, opts, result) })
	}
}

func (s *GenerateService) notifyFailed(prompt string, opts domain.GenerateOptions, err error) {
	for _, l := range s.snapshotListeners() {
		notify("GenerationFailed", func() { l.GenerationFailed(prompt, opts, err) })
	}
}
