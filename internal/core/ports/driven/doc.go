// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - TableNormaliser: Reads the customer table and derives its documents
//   - PageLoader: Reads unstructured documents page by page
//   - Splitter: Chunks long documents
//   - EmbeddingService: Turns text into vectors
//   - LLMService: Turns prompts into text
//   - VectorStore: Versioned collections of embedded documents
//   - ConfigStore: Application configuration
//   - PromptStore: Editable prompt templates
//
// # Optional Interfaces
//
//   - ResultWriter: Persists evaluation records. Suites still return
//     their records when none is given.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
