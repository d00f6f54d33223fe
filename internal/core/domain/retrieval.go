package domain

// RetrievedChunk is a single ranked retrieval hit.
type RetrievedChunk struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID links to the chunk's parent document.
	DocumentID string

	// Score is the inner-product similarity against the query vector.
	// Vectors are unit length, so this equals cosine similarity.
	Score float64

	// Source is the chunk's category.
	Source SourceCategory

	// Provenance records where the chunk's text came from.
	Provenance Provenance

	// Content is the chunk text.
	Content string
}

// ContextBundle is the category-grouped output of one retrieval.
// Groups appear in canonical order (occupation, standard, example),
// each capped at MaxPerCategory, so a bundle holds at most
// 3*MaxPerCategory chunks.
type ContextBundle struct {
	// Interest is the career interest the bundle was retrieved for.
	Interest string

	// Occupations holds occupational outlook hits, best first.
	Occupations []RetrievedChunk

	// Standards holds educational standards hits, best first.
	Standards []RetrievedChunk

	// Examples holds exemplar goal hits, best first.
	Examples []RetrievedChunk
}

// MaxPerCategory is the per-category result cap.
const MaxPerCategory = 5

// Add appends a chunk to the group matching its source category.
// Chunks with an unknown category are dropped.
func (b *ContextBundle) Add(chunk RetrievedChunk) {
	switch chunk.Source {
	case SourceOccupation:
		b.Occupations = append(b.Occupations, chunk)
	case SourceStandard:
		b.Standards = append(b.Standards, chunk)
	case SourceExample:
		b.Examples = append(b.Examples, chunk)
	}
}

// Group returns the bundle's slice for a category, nil for unknown.
func (b *ContextBundle) Group(c SourceCategory) []RetrievedChunk {
	switch c {
	case SourceOccupation:
		return b.Occupations
	case SourceStandard:
		return b.Standards
	case SourceExample:
		return b.Examples
	default:
		return nil
	}
}

// All returns every chunk in canonical group order.
func (b *ContextBundle) All() []RetrievedChunk {
	out := make([]RetrievedChunk, 0, b.Total())
	out = append(out, b.Occupations...)
	out = append(out, b.Standards...)
	out = append(out, b.Examples...)
	return out
}

// Total returns the number of chunks across all groups.
func (b *ContextBundle) Total() int {
	return len(b.Occupations) + len(b.Standards) + len(b.Examples)
}

// Empty returns true when no category produced any hits.
func (b *ContextBundle) Empty() bool {
	return b.Total() == 0
}
