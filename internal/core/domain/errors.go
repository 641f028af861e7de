package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// Remote adapters classify their failures into the three categories
// below so callers can decide whether a retry is worthwhile; the core
// itself never retries.
var (
	// ErrConfiguration indicates bad or missing configuration
	// (unsupported model, invalid chunk parameters, missing endpoint).
	// Never retryable; surfaced before any network call where possible.
	ErrConfiguration = errors.New("configuration error")

	// ErrTransient indicates a failure that may succeed on retry
	// (network failure, timeout, 5xx, rate limiting).
	ErrTransient = errors.New("transient error")

	// ErrPermanent indicates a failure that will not succeed on retry
	// (4xx validation failure, malformed response).
	ErrPermanent = errors.New("permanent error")

	// ErrInvalidInput indicates malformed or invalid caller input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCancelled indicates the caller abandoned an in-flight operation.
	ErrCancelled = errors.New("cancelled")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store is not configured.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrDimensionMismatch indicates an embedding whose dimensionality
	// does not match the vector store collection. This is always a
	// configuration fault (wrong model for the collection), never
	// silently tolerated.
	ErrDimensionMismatch = fmt.Errorf("%w: embedding dimension mismatch", ErrConfiguration)
)

// ErrorCategoryForStatus maps an HTTP status code to the retry
// category sentinel. Remote adapters use it so every provider
// classifies failures the same way: 408, 429 and 5xx are transient,
// all other non-success codes are permanent.
func ErrorCategoryForStatus(status int) error {
	switch {
	case status == 408 || status == 429 || status >= 500:
		return ErrTransient
	default:
		return ErrPermanent
	}
}

// PartialIngestionError reports an ingestion run that stopped partway.
// Committed chunks remain in the vector store; callers may re-run
// ingestion and rely on upsert idempotence to overwrite them safely.
type PartialIngestionError struct {
	// SourceID identifies the document being ingested.
	SourceID string

	// Committed is the number of chunks durably stored before the
	// failure. With concurrent ingestion this is the length of the
	// contiguous committed prefix.
	Committed int

	// Total is the number of chunks the document produced.
	Total int

	// FailedIndex is the index of the chunk whose embed or upsert failed.
	FailedIndex int

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *PartialIngestionError) Error() string {
	return fmt.Sprintf("ingestion of %q stopped at chunk %d after committing %d of %d: %v",
		e.SourceID, e.FailedIndex, e.Committed, e.Total, e.Err)
}

// Unwrap returns the underlying cause.
func (e *PartialIngestionError) Unwrap() error {
	return e.Err
}

// GenerationError reports a failed generation request with enough
// context to debug it. It never carries credential values, only
// whether one was configured.
type GenerationError struct {
	// URL is the endpoint the request targeted.
	URL string

	// Model is the resolved generation model.
	Model string

	// Prompt is the full prompt that was (or would have been) sent.
	Prompt string

	// Options are the resolved generation options.
	Options GenerateOptions

	// APIKeySet records whether a credential was configured.
	// The key value itself is never included.
	APIKeySet bool

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (url=%s model=%s api_key_set=%t): %v",
		e.URL, e.Model, e.APIKeySet, e.Err)
}

// Unwrap returns the underlying cause.
func (e *GenerationError) Unwrap() error {
	return e.Err
}
