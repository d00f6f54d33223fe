package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations normalise every vector to unit L2 length before
// returning it, so downstream inner-product scores are cosine
// similarities. Embedding empty or whitespace-only text is an error
// (domain.ErrEmbedding): silently dropping items would desynchronise
// chunk and embedding counts.
//
// Implementations may include:
//   - Ollama (all-minilm, nomic-embed-text)
//   - OpenAI or compatible APIs (text-embedding-3-small)
type EmbeddingService interface {
	// Embed generates a unit-length embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. The result
	// slice is aligned with texts; an item that could not be embedded
	// leaves a nil entry so callers can skip it. The error is non-nil
	// only when no item succeeded.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536).
	// This is determined by the model and must match the vector index.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request. Used at startup before committing to a rebuild.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
