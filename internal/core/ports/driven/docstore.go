package driven

import (
	"context"

	"github.com/samtett/IEP-Goal-Generator/internal/core/domain"
)

// DocumentStore persists documents and chunks.
// It is the metadata half of the persisted index: retrieval hydrates
// hits from it, and on load its chunk-id set must match the vector
// index contents exactly.
type DocumentStore interface {
	// ReplaceAll atomically replaces the entire store contents.
	// Rebuilds are wholesale: either the new corpus lands completely
	// or the old contents survive untouched.
	ReplaceAll(ctx context.Context, docs []domain.Document, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetChunks retrieves all chunks for a document, ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// ListDocuments returns documents for a category in load order.
	// An empty category returns all documents.
	ListDocuments(ctx context.Context, source domain.SourceCategory) ([]domain.Document, error)

	// ListChunkIDs returns every chunk ID in insertion order.
	// Used to verify agreement with the vector index.
	ListChunkIDs(ctx context.Context) ([]string, error)

	// Stats returns per-category document and chunk counts.
	Stats(ctx context.Context) (domain.CorpusStats, error)

	// Close releases resources.
	Close() error
}
