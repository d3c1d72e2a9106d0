// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ArticleStore: Article persistence
//   - ChunkStore: Chunk, full-text index and vector persistence
//   - RunLogStore: Generation run audit log
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vectors. Unconfigured providers fall back
//     to the local hashing embedder, so hybrid retrieval keeps working.
//   - LLMService: Language model operations. Without it, indexing and search
//     still work; generation reports the LLM as unavailable.
//   - PromptStore: User-customisable prompt templates. Agents fall back to
//     built-in defaults.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
