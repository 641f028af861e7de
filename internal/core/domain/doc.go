// Package domain defines the core business entities for Ragline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Caller-owned text to be chunked and embedded
//   - Chunk: A bounded word-window derived from a document
//   - VectorRecord: A chunk embedding persisted in the vector store
//   - RetrievalResult: A ranked similarity hit returned to callers
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
