package domain

const unknownDescription = "Unknown"

// EmbeddingProvider identifies an embedding service provider.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderOllama is a local Ollama instance.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"

	// EmbeddingProviderOpenAI is the OpenAI cloud API (or a
	// compatible endpoint).
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"
)

// IsValid returns true if the embedding provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderOllama, EmbeddingProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == EmbeddingProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p EmbeddingProvider) IsLocal() bool {
	return p == EmbeddingProviderOllama
}

// String returns the string representation.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProvider) Description() string {
	switch p {
	case EmbeddingProviderOllama:
		return "Ollama (local)"
	case EmbeddingProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider EmbeddingProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible APIs).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the embedding vector size. Must match the model.
	Dimensions int

	// RequestsPerSecond throttles embedding calls during index builds.
	// Zero means unlimited.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ChunkerSettings holds document chunking configuration.
type ChunkerSettings struct {
	// ChunkSize is the maximum chunk length in bytes.
	ChunkSize int

	// Overlap is the number of bytes shared between adjacent chunks.
	Overlap int

	// BoundaryWindow is how far back from a cut point the chunker
	// looks for a sentence or paragraph boundary.
	BoundaryWindow int
}

// StorageSettings holds data directory configuration.
type StorageSettings struct {
	// DataDir is where the document store and index blob live.
	DataDir string
}

// CorpusSettings holds corpus input configuration.
type CorpusSettings struct {
	// Dir is the directory of corpus JSON files.
	Dir string
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Storage holds data directory settings.
	Storage StorageSettings

	// Corpus holds corpus input settings.
	Corpus CorpusSettings

	// Chunker holds chunking settings.
	Chunker ChunkerSettings

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings
}

// Chunking defaults. A 512-byte window with 50 bytes of overlap keeps
// single facts intact in the reference corpus while staying well under
// embedding model context limits.
const (
	DefaultChunkSize      = 512
	DefaultChunkOverlap   = 50
	DefaultBoundaryWindow = 64
)

// DefaultEmbeddingDimensions is the vector size of the default model
// (all-minilm class).
const DefaultEmbeddingDimensions = 384

// DefaultAppSettings returns settings with sensible defaults.
// The local Ollama provider works out of the box; OpenAI requires an
// API key via config.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Storage: StorageSettings{},
		Corpus: CorpusSettings{
			Dir: "corpus",
		},
		Chunker: ChunkerSettings{
			ChunkSize:      DefaultChunkSize,
			Overlap:        DefaultChunkOverlap,
			BoundaryWindow: DefaultBoundaryWindow,
		},
		Embedding: EmbeddingSettings{
			Provider:   EmbeddingProviderOllama,
			Model:      "all-minilm",
			Dimensions: DefaultEmbeddingDimensions,
		},
	}
}

// AllEmbeddingProviders returns the supported embedding providers.
func AllEmbeddingProviders() []EmbeddingProvider {
	return []EmbeddingProvider{
		EmbeddingProviderOllama,
		EmbeddingProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each provider.
func DefaultEmbeddingModels() map[EmbeddingProvider]string {
	return map[EmbeddingProvider]string{
		EmbeddingProviderOllama: "all-minilm",
		EmbeddingProviderOpenAI: "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"all-minilm":        384,
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
	}
}
