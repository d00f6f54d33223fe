package domain

import "time"

// SourceCategory classifies where a corpus document came from.
// The category set is closed: retrieval filters, result grouping and
// per-category caps are all defined over these three values.
type SourceCategory string

// Available source categories.
const (
	// SourceOccupation is occupational outlook data (duties, training, pay).
	SourceOccupation SourceCategory = "occupation"

	// SourceStandard is educational standards text (employability skills,
	// transition planning requirements).
	SourceStandard SourceCategory = "standard"

	// SourceExample is exemplar IEP transition goals and objectives.
	SourceExample SourceCategory = "example"
)

// IsValid returns true if the source category is recognised.
func (c SourceCategory) IsValid() bool {
	switch c {
	case SourceOccupation, SourceStandard, SourceExample:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (c SourceCategory) String() string {
	return string(c)
}

// Description returns a human-readable description of the category.
func (c SourceCategory) Description() string {
	switch c {
	case SourceOccupation:
		return "Occupational outlook data"
	case SourceStandard:
		return "Educational standards"
	case SourceExample:
		return "Exemplar IEP goals"
	default:
		return unknownDescription
	}
}

// AllSourceCategories returns the categories in their canonical order.
// The order is load-bearing: retrieval output groups follow it.
func AllSourceCategories() []SourceCategory {
	return []SourceCategory{
		SourceOccupation,
		SourceStandard,
		SourceExample,
	}
}

// Provenance identifies where a document's text originated.
// The category set is closed, so provenance is a fixed struct rather
// than an open key/value map.
type Provenance struct {
	// Tag is the provenance label of the upstream collection,
	// e.g. "BLS OOH" or "IDEA 2004". Each tag maps to exactly one
	// SourceCategory.
	Tag string

	// Title is the document title: an occupation name, a standards
	// framework, or an exemplar goal type.
	Title string

	// Section is the sub-section label within the upstream collection,
	// e.g. "duties" or "training". May be empty.
	Section string
}

// Document represents a corpus document ready for chunking.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Source is the category this document belongs to.
	Source SourceCategory

	// Provenance records where the text came from.
	Provenance Provenance

	// Content is the full cleaned text. Never empty.
	Content string

	// Position is the document's ordinal in corpus load order.
	// Chunk insertion order (and therefore index tie-breaking)
	// follows it.
	Position int

	// CreatedAt is when the document was materialised from the corpus.
	CreatedAt time.Time
}

// Chunk represents an embeddable window of a document.
// Documents are split into chunks for granular retrieval.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Source is inherited from the parent document.
	Source SourceCategory

	// Provenance is inherited from the parent document.
	Provenance Provenance

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Offset is the byte offset of the chunk's start in the parent
	// document's content.
	Offset int

	// Embedding is the unit-length vector representation.
	// Empty until the embedding step has run.
	Embedding []float32
}
