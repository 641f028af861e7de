package cli

import (
	"context"
	"errors"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driving"
)

// mockIngestService records calls and returns canned results.
type mockIngestService struct {
	ingested  []domain.Document
	deleted   []string
	sources   []driving.SourceInfo
	ingestErr error
	deleteErr error
	listErr   error
}

func (m *mockIngestService) Ingest(_ context.Context, doc domain.Document) (int, error) {
	if m.ingestErr != nil {
		return 0, m.ingestErr
	}
	m.ingested = append(m.ingested, doc)
	return 4, nil
}

func (m *mockIngestService) DeleteDocument(_ context.Context, sourceID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, sourceID)
	return nil
}

func (m *mockIngestService) ListSources(_ context.Context) ([]driving.SourceInfo, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.sources, nil
}

// mockRetrievalService returns canned retrieval results.
type mockRetrievalService struct {
	results []domain.RetrievalResult
	err     error
	lastK   int
}

func (m *mockRetrievalService) Retrieve(_ context.Context, _ string, topK int) ([]domain.RetrievalResult, error) {
	m.lastK = topK
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

// mockGenerateService returns a canned answer, optionally streamed.
type mockGenerateService struct {
	answer  string
	err     error
	prompts []string
}

func (m *mockGenerateService) Generate(_ context.Context, prompt string, _ domain.GenerateOptions) (domain.GenerationResult, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return domain.GenerationResult{}, m.err
	}
	return domain.GenerationResult{Text: m.answer, Model: "test-model"}, nil
}

func (m *mockGenerateService) GenerateStream(_ context.Context, prompt string, _ domain.GenerateOptions, onDelta func(string) error) (domain.GenerationResult, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return domain.GenerationResult{}, m.err
	}
	for _, r := range m.answer {
		if err := onDelta(string(r)); err != nil {
			return domain.GenerationResult{}, err
		}
	}
	return domain.GenerationResult{Text: m.answer, Model: "test-model"}, nil
}

func (m *mockGenerateService) AddListener(domain.GenerationListener) {}

// mockSettingsService wraps defaults with recorded mutations.
type mockSettingsService struct {
	settings domain.AppSettings
	getErr   error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return errors.New("invalid provider")
	}
	m.settings.Embedding.Provider = provider
	m.settings.Embedding.Model = model
	m.settings.Embedding.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return errors.New("invalid provider")
	}
	m.settings.LLM.Provider = provider
	m.settings.LLM.Model = model
	m.settings.LLM.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetChunking(chunkSize, overlap int) error {
	chunking := domain.ChunkingSettings{ChunkSize: chunkSize, Overlap: overlap}
	if err := chunking.Validate(); err != nil {
		return err
	}
	m.settings.Chunking = chunking
	return nil
}

func (m *mockSettingsService) SetTopK(topK int) error {
	if topK <= 0 {
		return errors.New("top-k must be positive")
	}
	m.settings.Retrieval.TopK = topK
	return nil
}

func (m *mockSettingsService) SetVectorStore(provider domain.VectorStoreProvider, baseURL, collection string) error {
	if !provider.IsValid() {
		return errors.New("invalid provider")
	}
	m.settings.VectorStore.Provider = provider
	return nil
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return nil }
func (m *mockSettingsService) ValidateLLMConfig() error       { return nil }

// setupTestServices wires mock services and returns a cleanup func
// restoring the previous wiring.
func setupTestServices() func() {
	oldIngest := ingestService
	oldRetrieval := retrievalService
	oldGenerate := generateService
	oldSettings := settingsService

	ingestService = &mockIngestService{
		sources: []driving.SourceInfo{
			{SourceID: "doc-1", ChunkCount: 4, EmbeddingModel: "nomic-embed-text", IngestedAt: "2026-08-01T10:00:00Z"},
		},
	}
	retrievalService = &mockRetrievalService{
		results: []domain.RetrievalResult{
			{
				Text:  "X is Y",
				Score: 0.95,
				Metadata: domain.VectorMetadata{
					Text:   "X is Y",
					Source: "doc-1",
					Page:   2,
				},
			},
		},
	}
	generateService = &mockGenerateService{answer: "X is Y."}
	settingsService = newMockSettingsService()

	return func() {
		ingestService = oldIngest
		retrievalService = oldRetrieval
		generateService = oldGenerate
		settingsService = oldSettings
	}
}
