package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samtett/IEP-Goal-Generator/internal/adapters/driven/storage/memory"
	"github.com/samtett/IEP-Goal-Generator/internal/core/domain"
	"github.com/samtett/IEP-Goal-Generator/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockVectorIndex implements driven.VectorIndex for testing.
// Search returns the scripted hits regardless of the query vector.
type mockVectorIndex struct {
	hits      []driven.VectorHit
	searchErr error
	buildErr  error
	saveErr   error
	loadErr   error

	// size overrides Size() when positive; otherwise Size derives from
	// the built or scripted contents.
	size int

	builtIDs     []string
	builtVectors [][]float32
	savedPath    string
}

func (m *mockVectorIndex) Build(_ context.Context, ids []string, vectors [][]float32) error {
	if m.buildErr != nil {
		return m.buildErr
	}
	m.builtIDs = ids
	m.builtVectors = vectors
	return nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:k], nil
}

func (m *mockVectorIndex) Save(path string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.savedPath = path
	return nil
}

func (m *mockVectorIndex) Load(_ string) error {
	return m.loadErr
}

func (m *mockVectorIndex) IDs() []string {
	if m.builtIDs != nil {
		return m.builtIDs
	}
	ids := make([]string, 0, len(m.hits))
	for _, h := range m.hits {
		ids = append(ids, h.ChunkID)
	}
	return ids
}

func (m *mockVectorIndex) Size() int {
	if m.size > 0 {
		return m.size
	}
	return len(m.IDs())
}

func (m *mockVectorIndex) Dimensions() int {
	return 384
}

func (m *mockVectorIndex) Close() error {
	return nil
}

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	embedding []float32
	embedErr  error

	// failContains makes embedding fail for texts containing the
	// substring; EmbedBatch leaves nil entries for them.
	failContains string

	// batchAllNil simulates a misbehaving adapter that reports success
	// with no usable embeddings.
	batchAllNil bool

	mu       sync.Mutex
	embedded []string
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.failContains != "" && strings.Contains(text, m.failContains) {
		return nil, fmt.Errorf("embed %q: %w", text, domain.ErrEmbedding)
	}
	m.mu.Lock()
	m.embedded = append(m.embedded, text)
	m.mu.Unlock()
	return m.vector(), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	if m.batchAllNil {
		return result, nil
	}
	succeeded := 0
	for i, text := range texts {
		if m.failContains != "" && strings.Contains(text, m.failContains) {
			continue
		}
		result[i] = m.vector()
		succeeded++
	}
	if succeeded == 0 {
		return nil, fmt.Errorf("no text could be embedded: %w", domain.ErrEmbedding)
	}
	return result, nil
}

func (m *mockEmbeddingService) vector() []float32 {
	if m.embedding != nil {
		return m.embedding
	}
	v := make([]float32, 384)
	v[0] = 1
	return v
}

func (m *mockEmbeddingService) embeddedTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.embedded...)
}

func (m *mockEmbeddingService) Dimensions() int {
	return 384
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// failingDocStore wraps the memory store to fail selected operations.
type failingDocStore struct {
	*memory.DocumentStore
	replaceErr  error
	getChunkErr error
}

func (f *failingDocStore) ReplaceAll(ctx context.Context, docs []domain.Document, chunks []domain.Chunk) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	return f.DocumentStore.ReplaceAll(ctx, docs, chunks)
}

func (f *failingDocStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	if f.getChunkErr != nil {
		return nil, f.getChunkErr
	}
	return f.DocumentStore.GetChunk(ctx, id)
}

// --- Test helpers ---

// setupRetrievalStore seeds a store with six occupation chunks, two
// standard chunks and one example chunk.
func setupRetrievalStore(t *testing.T) *memory.DocumentStore {
	t.Helper()
	store := memory.NewDocumentStore()

	docs := []domain.Document{
		{ID: "doc-occ", Source: domain.SourceOccupation, Provenance: domain.Provenance{Tag: "BLS OOH", Title: "Retail Sales Workers"}, Content: "occupation text", Position: 0},
		{ID: "doc-std", Source: domain.SourceStandard, Provenance: domain.Provenance{Tag: "Iowa Core", Title: "Employability Skills"}, Content: "standard text", Position: 1},
		{ID: "doc-ex", Source: domain.SourceExample, Provenance: domain.Provenance{Tag: "Transition Goals", Title: "Employment Goal"}, Content: "example text", Position: 2},
	}

	var chunks []domain.Chunk
	for i := 1; i <= 6; i++ {
		chunks = append(chunks, domain.Chunk{
			ID:         fmt.Sprintf("occ-%d", i),
			DocumentID: "doc-occ",
			Source:     domain.SourceOccupation,
			Provenance: docs[0].Provenance,
			Content:    fmt.Sprintf("occupation chunk %d", i),
			Position:   i - 1,
		})
	}
	for i := 1; i <= 2; i++ {
		chunks = append(chunks, domain.Chunk{
			ID:         fmt.Sprintf("std-%d", i),
			DocumentID: "doc-std",
			Source:     domain.SourceStandard,
			Provenance: docs[1].Provenance,
			Content:    fmt.Sprintf("standard chunk %d", i),
			Position:   i - 1,
		})
	}
	chunks = append(chunks, domain.Chunk{
		ID:         "ex-1",
		DocumentID: "doc-ex",
		Source:     domain.SourceExample,
		Provenance: docs[2].Provenance,
		Content:    "example chunk 1",
		Position:   0,
	})

	require.NoError(t, store.ReplaceAll(context.Background(), docs, chunks))
	return store
}

// createRetrievalHits returns a ranked hit list that spans all three
// categories, exceeds the occupation cap and includes a chunk missing
// from the store.
func createRetrievalHits() []driven.VectorHit {
	return []driven.VectorHit{
		{ChunkID: "occ-1", Score: 0.95},
		{ChunkID: "std-1", Score: 0.93},
		{ChunkID: "occ-2", Score: 0.91},
		{ChunkID: "ex-1", Score: 0.90},
		{ChunkID: "occ-3", Score: 0.89},
		{ChunkID: "occ-4", Score: 0.88},
		{ChunkID: "occ-5", Score: 0.87},
		{ChunkID: "occ-6", Score: 0.86},
		{ChunkID: "std-2", Score: 0.85},
		{ChunkID: "ghost", Score: 0.84},
	}
}

func chunkIDs(chunks []domain.RetrievedChunk) []string {
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ChunkID
	}
	return ids
}

// --- Tests ---

func TestNewRetrievalService(t *testing.T) {
	docStore := memory.NewDocumentStore()
	service := NewRetrievalService(docStore, &mockVectorIndex{}, &mockEmbeddingService{})

	require.NotNil(t, service)
	assert.NotNil(t, service.docStore)
}

func TestRetrievalService_Retrieve_EmptyInterest(t *testing.T) {
	docStore := setupRetrievalStore(t)
	vectorIndex := &mockVectorIndex{hits: createRetrievalHits()}
	service := NewRetrievalService(docStore, vectorIndex, &mockEmbeddingService{})
	ctx := context.Background()

	_, err := service.Retrieve(ctx, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrievalService_Retrieve_WhitespaceInterest(t *testing.T) {
	docStore := setupRetrievalStore(t)
	vectorIndex := &mockVectorIndex{hits: createRetrievalHits()}
	service := NewRetrievalService(docStore, vectorIndex, &mockEmbeddingService{})
	ctx := context.Background()

	_, err := service.Retrieve(ctx, "   \t\n  ")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrievalService_Retrieve_NilIndex(t *testing.T) {
	docStore := setupRetrievalStore(t)
	service := NewRetrievalService(docStore, nil, &mockEmbeddingService{})
	ctx := context.Background()

	_, err := service.Retrieve(ctx, "retail sales")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexNotBuilt)
}

func TestRetrievalService_Retrieve_EmptyIndex(t *testing.T) {
	docStore := setupRetrievalStore(t)
	service := NewRetrievalService(docStore, &mockVectorIndex{}, &mockEmbeddingService{})
	ctx := context.Background()

	_, err := service.Retrieve(ctx, "retail sales")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexNotBuilt)
}

func TestRetrievalService_Retrieve_GroupsByCategory(t *testing.T) {
	docStore := setupRetrievalStore(t)
	vectorIndex := &mockVectorIndex{hits: createRetrievalHits()}
	service := NewRetrievalService(docStore, vectorIndex, &mockEmbeddingService{})
	ctx := context.Background()

	bundle, err := service.Retrieve(ctx, "retail sales")

	require.NoError(t, err)
	require.NotNil(t, bundle)
	assert.Equal(t, "retail sales", bundle.Interest)

	assert.Len(t, bundle.Occupations, 5)
	assert.Len(t, bundle.Standards, 2)
	assert.Len(t, bundle.Examples, 1)
	assert.LessOrEqual(t, bundle.Total(), 3*domain.MaxPerCategory)

	// Every group holds only its own category.
	for _, c := range bundle.Occupations {
		assert.Equal(t, domain.SourceOccupation, c.Source)
	}
	for _, c := range bundle.Standards {
		assert.Equal(t, domain.SourceStandard, c.Source)
	}
	for _, c := range bundle.Examples {
		assert.Equal(t, domain.SourceExample, c.Source)
	}
}

func TestRetrievalService_Retrieve_CapsPerCategory(t *testing.T) {
	docStore := setupRetrievalStore(t)
	vectorIndex := &mockVectorIndex{hits: createRetrievalHits()}
	service := NewRetrievalService(docStore, vectorIndex, &mockEmbeddingService{})
	ctx := context.Background()

	bundle, err := service.Retrieve(ctx, "retail sales")

	require.NoError(t, err)
	// Six occupation chunks are in range; only the five best survive.
	assert.Equal(t, []string{"occ-1", "occ-2", "occ-3", "occ-4", "occ-5"}, chunkIDs(bundle.Occupations))
	assert.NotContains(t, chunkIDs(bundle.Occupations), "occ-6")
}

func TestRetrievalService_Retrieve_OrderedByScore(t *testing.T) {
	docStore := setupRetrievalStore(t)
	vectorIndex := &mockVectorIndex{hits: createRetrievalHits()}
	service := NewRetrievalService(docStore, vectorIndex, &mockEmbeddingService{})
	ctx := context.Background()

	bundle, err := service.Retrieve(ctx, "retail sales")

	require.NoError(t, err)
	for _, group := range [][]domain.RetrievedChunk{bundle.Occupations, bundle.Standards, bundle.Examples} {
		for i := 1; i < len(group); i++ {
			assert.GreaterOrEqual(t, group[i-1].Score, group[i].Score)
		}
	}
}

func TestRetrievalService_Retrieve_SkipsMissingChunks(t *testing.T) {
	docStore := setupRetrievalStore(t)
	vectorIndex := &mockVectorIndex{hits: createRetrievalHits()}
	service := NewRetrievalService(docStore, vectorIndex, &mockEmbeddingService{})
	ctx := context.Background()

	bundle, err := service.Retrieve(ctx, "retail sales")

	require.NoError(t, err)
	// "ghost" is in the index but not the store; it must not surface.
	for _, c := range bundle.All() {
		assert.NotEqual(t, "ghost", c.ChunkID)
	}
	assert.Equal(t, []string{"std-1", "std-2"}, chunkIDs(bundle.Standards))
}

func TestRetrievalService_Retrieve_DeduplicatesRepeatedHits(t *testing.T) {
	docStore := setupRetrievalStore(t)
	hits := []driven.VectorHit{
		{ChunkID: "occ-1", Score: 0.95},
		{ChunkID: "occ-1", Score: 0.94},
		{ChunkID: "occ-2", Score: 0.90},
	}
	vectorIndex := &mockVectorIndex{hits: hits}
	service := NewRetrievalService(docStore, vectorIndex, &mockEmbeddingService{})
	ctx := context.Background()

	bundle, err := service.Retrieve(ctx, "retail sales")

	require.NoError(t, err)
	// The first occurrence wins; the repeat is dropped.
	assert.Equal(t, []string{"occ-1", "occ-2"}, chunkIDs(bundle.Occupations))
	assert.InDelta(t, 0.95, bundle.Occupations[0].Score, 0.0001)
}

func TestRetrievalService_Retrieve_UsesFixedProbes(t *testing.T) {
	docStore := setupRetrievalStore(t)
	vectorIndex := &mockVectorIndex{hits: createRetrievalHits()}
	embedService := &mockEmbeddingService{}
	service := NewRetrievalService(docStore, vectorIndex, embedService)
	ctx := context.Background()

	_, err := service.Retrieve(ctx, "retail sales")

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"occupation duties requirements training for retail sales",
		"employability skills communication workplace for retail sales",
		"IEP transition goal employment training for retail sales",
	}, embedService.embeddedTexts())
}

func TestRetrievalService_Retrieve_TrimsInterest(t *testing.T) {
	docStore := setupRetrievalStore(t)
	vectorIndex := &mockVectorIndex{hits: createRetrievalHits()}
	embedService := &mockEmbeddingService{}
	service := NewRetrievalService(docStore, vectorIndex, embedService)
	ctx := context.Background()

	bundle, err := service.Retrieve(ctx, "  retail sales \n")

	require.NoError(t, err)
	assert.Equal(t, "retail sales", bundle.Interest)
	for _, text := range embedService.embeddedTexts() {
		assert.True(t, strings.HasSuffix(text, "for retail sales"), "probe %q should use the trimmed interest", text)
	}
}

func TestRetrievalService_Retrieve_ProbeFailureDegrades(t *testing.T) {
	docStore := setupRetrievalStore(t)
	vectorIndex := &mockVectorIndex{hits: createRetrievalHits()}
	// Only the occupation probe's embedding fails.
	embedService := &mockEmbeddingService{failContains: "occupation duties"}
	service := NewRetrievalService(docStore, vectorIndex, embedService)
	ctx := context.Background()

	bundle, err := service.Retrieve(ctx, "retail sales")

	require.NoError(t, err)
	assert.Empty(t, bundle.Occupations)
	assert.Len(t, bundle.Standards, 2)
	assert.Len(t, bundle.Examples, 1)
}

func TestRetrievalService_Retrieve_AllProbesFail(t *testing.T) {
	docStore := setupRetrievalStore(t)
	vectorIndex := &mockVectorIndex{hits: createRetrievalHits()}
	embedService := &mockEmbeddingService{embedErr: errors.New("backend down")}
	service := NewRetrievalService(docStore, vectorIndex, embedService)
	ctx := context.Background()

	_, err := service.Retrieve(ctx, "retail sales")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "every probe failed")
	assert.Contains(t, err.Error(), "backend down")
}

func TestRetrievalService_Retrieve_SearchErrors(t *testing.T) {
	docStore := setupRetrievalStore(t)
	vectorIndex := &mockVectorIndex{size: 9, searchErr: errors.New("index corrupt")}
	service := NewRetrievalService(docStore, vectorIndex, &mockEmbeddingService{})
	ctx := context.Background()

	_, err := service.Retrieve(ctx, "retail sales")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "every probe failed")
	assert.Contains(t, err.Error(), "index corrupt")
}

func TestRetrievalService_Retrieve_StoreErrorFailsProbes(t *testing.T) {
	docStore := &failingDocStore{
		DocumentStore: setupRetrievalStore(t),
		getChunkErr:   errors.New("db locked"),
	}
	vectorIndex := &mockVectorIndex{hits: createRetrievalHits()}
	service := NewRetrievalService(docStore, vectorIndex, &mockEmbeddingService{})
	ctx := context.Background()

	_, err := service.Retrieve(ctx, "retail sales")

	// A store failure is not a missing chunk; it fails the probe.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db locked")
}

func TestRetrievalService_Retrieve_Deterministic(t *testing.T) {
	docStore := setupRetrievalStore(t)
	vectorIndex := &mockVectorIndex{hits: createRetrievalHits()}
	service := NewRetrievalService(docStore, vectorIndex, &mockEmbeddingService{})
	ctx := context.Background()

	first, err := service.Retrieve(ctx, "retail sales")
	require.NoError(t, err)
	second, err := service.Retrieve(ctx, "retail sales")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
