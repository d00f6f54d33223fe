package driving

import (
	"context"

	"github.com/samtett/IEP-Goal-Generator/internal/core/domain"
)

// RetrievalService provides grounded context for a career interest.
type RetrievalService interface {
	// Retrieve runs the three category queries for the interest and
	// returns the deduplicated, category-grouped context bundle.
	// Returns domain.ErrInvalidInput for a blank interest and
	// domain.ErrIndexNotBuilt when no index is loaded.
	Retrieve(ctx context.Context, interest string) (*domain.ContextBundle, error)
}
