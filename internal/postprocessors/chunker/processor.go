// Package chunker provides a boundary-aware sliding-window chunking processor.
package chunker

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/samtett/IEP-Goal-Generator/internal/core/domain"
)

// Defaults are shared with domain settings so config and processor agree.
const (
	// DefaultChunkSize is the default maximum chunk length in bytes.
	DefaultChunkSize = domain.DefaultChunkSize

	// DefaultChunkOverlap is the default overlap between adjacent chunks.
	DefaultChunkOverlap = domain.DefaultChunkOverlap

	// DefaultBoundaryWindow is how far back from a cut the processor
	// looks for a paragraph, sentence or word boundary.
	DefaultBoundaryWindow = domain.DefaultBoundaryWindow
)

// Processor splits document content into overlapping windows, preferring
// to cut at paragraph, newline, sentence or word boundaries found within
// the boundary window, and falling back to a hard cut otherwise.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize      int
	overlap        int
	boundaryWindow int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk size in bytes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in bytes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithBoundaryWindow sets the boundary lookback distance in bytes.
// Zero disables boundary preference entirely (hard cuts only).
func WithBoundaryWindow(window int) Option {
	return func(p *Processor) {
		if window >= 0 {
			p.boundaryWindow = window
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize:      DefaultChunkSize,
		overlap:        DefaultChunkOverlap,
		boundaryWindow: DefaultBoundaryWindow,
	}

	for _, opt := range opts {
		opt(p)
	}

	// A chunk must hold at least one whole rune, and the overlap must
	// sit far enough under the chunk size that a rune-aligned cut still
	// lands past it.
	if p.chunkSize < utf8.UTFMax {
		p.chunkSize = utf8.UTFMax
	}
	if p.overlap > p.chunkSize-utf8.UTFMax {
		p.overlap = p.chunkSize - utf8.UTFMax
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
// Every produced chunk is between 1 and chunkSize bytes, windows advance by
// at least one byte, and concatenating chunk contents with the overlaps
// trimmed reconstructs the document exactly.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc.Content == "" {
		return nil, fmt.Errorf("chunking document %q: %w", doc.ID, domain.ErrInvalidInput)
	}

	content := doc.Content
	contentLen := len(content)

	// Estimate number of chunks
	estimatedChunks := (contentLen / (p.chunkSize - p.overlap)) + 1
	chunks := make([]domain.Chunk, 0, estimatedChunks)

	position := 0
	start := 0

	for start < contentLen {
		end := start + p.chunkSize
		if end >= contentLen {
			end = contentLen
		} else {
			// Never split a multi-byte rune on a hard cut. The floor
			// keeps the window advancing even on malformed input.
			for end > start+p.overlap+1 && !utf8.RuneStart(content[end]) {
				end--
			}
			end = p.cutPoint(content, start, end)
		}

		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Source:     doc.Source,
			Provenance: doc.Provenance,
			Content:    content[start:end],
			Position:   position,
			Offset:     start,
		})
		position++

		if end == contentLen {
			break
		}

		// Move start forward; the cut point guard keeps this positive.
		start = end - p.overlap
		for start < contentLen && !utf8.RuneStart(content[start]) {
			start++
		}
	}

	return chunks, nil
}

// cutPoint picks where to end the chunk starting at start, given the
// rune-aligned hard limit. It scans backward through the boundary window
// for, in order of preference: a paragraph break, a newline, a sentence
// end, a word break. The window never reaches back past start+overlap+1,
// which guarantees the next window starts after this one.
func (p *Processor) cutPoint(content string, start, limit int) int {
	windowStart := limit - p.boundaryWindow
	if floor := start + p.overlap + 1; windowStart < floor {
		windowStart = floor
	}
	if windowStart >= limit {
		return limit
	}

	window := content[windowStart:limit]

	if i := strings.LastIndex(window, "\n\n"); i >= 0 {
		return windowStart + i + 2
	}
	if i := strings.LastIndexByte(window, '\n'); i >= 0 {
		return windowStart + i + 1
	}
	for i := limit - 1; i >= windowStart; i-- {
		switch content[i] {
		case '.', '!', '?':
			// Only a real sentence end: the follower must be whitespace,
			// otherwise this is an abbreviation or a decimal point.
			if isSpace(content[i+1]) {
				return i + 1
			}
		}
	}
	if i := strings.LastIndexByte(window, ' '); i >= 0 {
		return windowStart + i + 1
	}

	return limit
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}
