// Package domain defines the core business entities for iepgen.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A corpus document from one of three source categories
//   - Chunk: An embeddable window of a document
//   - SourceRecord: Raw loader input before documents are materialised
//   - ContextBundle: Category-grouped retrieval output
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
