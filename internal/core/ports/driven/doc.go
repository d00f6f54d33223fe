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
//   - CorpusLoader: Supplies raw source records for index builds
//   - DocumentStore: Document and chunk persistence (the metadata table)
//   - EmbeddingService: Generates unit-length vector embeddings
//   - VectorIndex: Inner-product similarity search with blob persistence
//   - PostProcessorPipeline: Splits documents into chunks
//   - ConfigStore: Application configuration
//
// The index blob and the document store are two halves of one artifact:
// they are written together by a rebuild and must agree when loaded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
