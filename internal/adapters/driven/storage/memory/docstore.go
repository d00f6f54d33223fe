// Package memory provides in-memory storage implementations, used for
// tests and ephemeral runs where persistence is not needed.
package memory

import (
	"context"
	"sync"

	"github.com/samtett/IEP-Goal-Generator/internal/core/domain"
	"github.com/samtett/IEP-Goal-Generator/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Documents and chunks keep their insertion order.
type DocumentStore struct {
	mu       sync.RWMutex
	docs     []domain.Document
	chunks   []domain.Chunk
	docIdx   map[string]int
	chunkIdx map[string]int
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docIdx:   make(map[string]int),
		chunkIdx: make(map[string]int),
	}
}

// ReplaceAll atomically replaces the entire store contents.
func (s *DocumentStore) ReplaceAll(_ context.Context, docs []domain.Document, chunks []domain.Chunk) error {
	newDocs := make([]domain.Document, len(docs))
	newDocIdx := make(map[string]int, len(docs))
	for i, doc := range docs {
		if doc.ID == "" {
			return domain.ErrInvalidInput
		}
		newDocs[i] = doc
		newDocIdx[doc.ID] = i
	}

	newChunks := make([]domain.Chunk, len(chunks))
	newChunkIdx := make(map[string]int, len(chunks))
	for i, chunk := range chunks {
		if chunk.ID == "" || chunk.DocumentID == "" {
			return domain.ErrInvalidInput
		}
		newChunks[i] = chunk
		newChunkIdx[chunk.ID] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = newDocs
	s.chunks = newChunks
	s.docIdx = newDocIdx
	s.chunkIdx = newChunkIdx
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.docIdx[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc := s.docs[i]
	return &doc, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *DocumentStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.chunkIdx[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	chunk := s.chunks[i]
	return &chunk, nil
}

// GetChunks retrieves all chunks for a document in position order.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Chunk
	for _, chunk := range s.chunks {
		if chunk.DocumentID == documentID {
			result = append(result, chunk)
		}
	}
	return result, nil
}

// ListDocuments returns documents for a category in load order.
// An empty category returns all documents.
func (s *DocumentStore) ListDocuments(_ context.Context, source domain.SourceCategory) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Document
	for _, doc := range s.docs {
		if source == "" || doc.Source == source {
			result = append(result, doc)
		}
	}
	return result, nil
}

// ListChunkIDs returns every chunk ID in insertion order.
func (s *DocumentStore) ListChunkIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.chunks))
	for i, chunk := range s.chunks {
		ids[i] = chunk.ID
	}
	return ids, nil
}

// Stats returns per-category document and chunk counts.
func (s *DocumentStore) Stats(_ context.Context) (domain.CorpusStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats domain.CorpusStats
	for _, doc := range s.docs {
		stats.Documents.Add(doc.Source, 1)
	}
	for _, chunk := range s.chunks {
		stats.Chunks.Add(chunk.Source, 1)
	}
	return stats, nil
}

// Close releases resources. No-op for the in-memory store.
func (s *DocumentStore) Close() error {
	return nil
}
