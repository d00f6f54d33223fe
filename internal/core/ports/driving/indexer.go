package driving

import (
	"context"
	"time"

	"github.com/samtett/IEP-Goal-Generator/internal/core/domain"
)

// Indexer coordinates corpus ingestion and index builds.
type Indexer interface {
	// Rebuild loads the corpus, chunks and embeds it, replaces the
	// document store contents and writes a fresh index blob.
	// Returns domain.ErrCorpusEmpty when no usable records exist and
	// domain.ErrRebuildInProgress when a rebuild is already running.
	Rebuild(ctx context.Context) (*RebuildReport, error)

	// Open loads the persisted index blob and verifies it against the
	// document store. Returns domain.ErrIndexMetadataMismatch when the
	// two disagree and domain.ErrIndexNotBuilt when no blob exists.
	Open(ctx context.Context) error

	// Status reports store contents, index size and blob agreement.
	Status(ctx context.Context) (*domain.IndexStatus, error)
}

// RebuildReport summarises one completed rebuild.
type RebuildReport struct {
	// Documents is the number of documents materialised.
	Documents int

	// Chunks is the number of chunks indexed.
	Chunks int

	// SkippedChunks is the number of chunks dropped because their
	// embedding failed.
	SkippedChunks int

	// Elapsed is the wall-clock build duration.
	Elapsed time.Duration
}
