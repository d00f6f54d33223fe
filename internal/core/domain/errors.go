package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbedding indicates the embedding backend failed or was asked
	// to embed empty text. Callers batching embeds may skip the failing
	// item; a failure affecting every item should abort.
	ErrEmbedding = errors.New("embedding failed")

	// ErrDimensionMismatch indicates a vector's length does not match
	// the index dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrIndexNotBuilt indicates a search was attempted before the
	// vector index was built or loaded, or the index is empty.
	// Callers are expected to trigger a rebuild.
	ErrIndexNotBuilt = errors.New("vector index not built")

	// ErrIndexMetadataMismatch indicates the persisted vector index and
	// the document store disagree about which chunks exist. The pair is
	// unusable until rebuilt.
	ErrIndexMetadataMismatch = errors.New("index and metadata table disagree")

	// ErrCorpusEmpty indicates a rebuild found no usable corpus records.
	ErrCorpusEmpty = errors.New("corpus is empty")

	// ErrRebuildInProgress indicates a rebuild is already running.
	ErrRebuildInProgress = errors.New("rebuild in progress")
)
