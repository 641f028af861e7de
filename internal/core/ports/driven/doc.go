// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the pipeline to function:
//
//   - EmbeddingService: Turns text into vectors
//   - VectorStore: Persists and queries vectors by similarity
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Text generation. Without it, `ask` is disabled but
//     ingestion and retrieval still work.
//   - LedgerStore: Ingestion bookkeeping. Without it, `sources` listing
//     and dimension-drift guards are disabled.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
