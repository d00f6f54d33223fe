package driven

import (
	"context"

	"github.com/samtett/IEP-Goal-Generator/internal/core/domain"
)

// CorpusLoader supplies the raw records an index build starts from.
// Loading is a full read: incremental ingestion is out of scope, a
// rebuild always consumes the whole corpus.
type CorpusLoader interface {
	// Load returns all corpus records in a stable order.
	// Records with empty text have already been discarded.
	Load(ctx context.Context) ([]domain.SourceRecord, error)

	// Watch calls onChange whenever the underlying corpus changes,
	// until ctx is cancelled. Bursts of filesystem events are
	// coalesced; onChange is never called concurrently with itself.
	Watch(ctx context.Context, onChange func()) error
}
