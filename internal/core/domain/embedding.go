package domain

// embeddingDimensions maps known embedding models to their vector size.
// Used to derive vector store dimensions when settings do not override.
var embeddingDimensions = map[string]int{
	// OpenAI
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,

	// Ollama
	"nomic-embed-text":  768,
	"mxbai-embed-large": 1024,
	"all-minilm":        384,
}

// EmbeddingDimensions returns the known model-to-dimension mapping.
func EmbeddingDimensions() map[string]int {
	return embeddingDimensions
}
