package driven

import "context"

// VectorIndex provides exact inner-product similarity search.
// Vectors are expected to be unit length (the embedding service
// normalises), so inner product equals cosine similarity.
type VectorIndex interface {
	// Build replaces the index contents with the given vectors.
	// ids[i] labels vectors[i]; insertion order is preserved and
	// breaks score ties at search time.
	// Returns domain.ErrDimensionMismatch if any vector's length does
	// not match the index dimensionality, or if ids and vectors have
	// different lengths.
	Build(ctx context.Context, ids []string, vectors [][]float32) error

	// Search finds the k highest inner-product matches to the query,
	// best first. Returns domain.ErrIndexNotBuilt when the index is
	// empty and domain.ErrDimensionMismatch on a wrong-sized query.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Save writes the index to a binary blob at path.
	// A Save/Load round trip preserves search rankings exactly.
	Save(path string) error

	// Load reads an index blob from path, replacing current contents.
	Load(path string) error

	// IDs returns the indexed chunk IDs in insertion order.
	// Used to verify agreement with the document store.
	IDs() []string

	// Size returns the number of indexed vectors.
	Size() int

	// Dimensions returns the vector dimensionality.
	Dimensions() int

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the inner-product similarity (cosine on unit vectors).
	Score float64
}
