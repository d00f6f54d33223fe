package domain

// SourceRecord is one raw corpus entry as produced by a corpus loader,
// before documents are materialised. Records arrive in a stable order;
// that order is preserved into Document.Position.
type SourceRecord struct {
	// Category is the source category the record belongs to.
	Category SourceCategory

	// Provenance records the upstream collection, title and section.
	Provenance Provenance

	// Text is the cleaned record text. Loader discards empty records,
	// so Text is never empty here.
	Text string
}

// CategoryCounts holds one integer per source category.
type CategoryCounts struct {
	// Occupations is the count for SourceOccupation.
	Occupations int

	// Standards is the count for SourceStandard.
	Standards int

	// Examples is the count for SourceExample.
	Examples int
}

// Add increments the count for a category. Unknown categories are ignored.
func (c *CategoryCounts) Add(cat SourceCategory, n int) {
	switch cat {
	case SourceOccupation:
		c.Occupations += n
	case SourceStandard:
		c.Standards += n
	case SourceExample:
		c.Examples += n
	}
}

// Total returns the sum across categories.
func (c CategoryCounts) Total() int {
	return c.Occupations + c.Standards + c.Examples
}

// CorpusStats summarises document store contents.
type CorpusStats struct {
	// Documents counts stored documents per category.
	Documents CategoryCounts

	// Chunks counts stored chunks per category.
	Chunks CategoryCounts
}

// IndexStatus reports the state of the persisted index and its
// agreement with the document store.
type IndexStatus struct {
	// Stats summarises the document store.
	Stats CorpusStats

	// IndexSize is the number of vectors in the index.
	IndexSize int

	// Dimensions is the index vector dimensionality.
	Dimensions int

	// Model is the embedding model the index was built with.
	Model string

	// Consistent is true when the store's chunk-id set matches the
	// index contents exactly.
	Consistent bool
}
