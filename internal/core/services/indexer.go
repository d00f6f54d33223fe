package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samtett/IEP-Goal-Generator/internal/core/domain"
	"github.com/samtett/IEP-Goal-Generator/internal/core/ports/driven"
	"github.com/samtett/IEP-Goal-Generator/internal/core/ports/driving"
	"github.com/samtett/IEP-Goal-Generator/internal/logger"
)

// Ensure IndexerService implements the interface.
var _ driving.Indexer = (*IndexerService)(nil)

// embedBatchSize bounds how many chunk texts are sent to the embedding
// service per batch call.
const embedBatchSize = 64

// IndexerService coordinates corpus ingestion: load, chunk, embed, store,
// index and persist. Rebuilds are wholesale; there is no incremental path.
type IndexerService struct {
	loader           driven.CorpusLoader
	docStore         driven.DocumentStore
	pipeline         driven.PostProcessorPipeline
	embeddingService driven.EmbeddingService
	vectorIndex      driven.VectorIndex
	indexPath        string

	mu         sync.Mutex
	rebuilding bool
}

// NewIndexerService creates a new indexer. indexPath is where the index
// blob is persisted and loaded from.
func NewIndexerService(
	loader driven.CorpusLoader,
	docStore driven.DocumentStore,
	pipeline driven.PostProcessorPipeline,
	embeddingService driven.EmbeddingService,
	vectorIndex driven.VectorIndex,
	indexPath string,
) *IndexerService {
	return &IndexerService{
		loader:           loader,
		docStore:         docStore,
		pipeline:         pipeline,
		embeddingService: embeddingService,
		vectorIndex:      vectorIndex,
		indexPath:        indexPath,
	}
}

// Rebuild replaces the whole knowledge base from the corpus. Chunks whose
// embedding fails are dropped from both the store and the index so the
// two never disagree.
func (s *IndexerService) Rebuild(ctx context.Context) (*driving.RebuildReport, error) {
	if !s.tryBeginRebuild() {
		return nil, fmt.Errorf("rebuild: %w", domain.ErrRebuildInProgress)
	}
	defer s.endRebuild()

	started := time.Now()
	logger.Section("Index Rebuild")

	// 1. Load the corpus
	records, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("rebuild: %w", domain.ErrCorpusEmpty)
	}
	logger.Info("Loaded %d corpus records", len(records))

	// 2. Materialise documents in corpus order
	now := time.Now().UTC()
	docs := make([]domain.Document, len(records))
	for i, rec := range records {
		docs[i] = domain.Document{
			ID:         uuid.New().String(),
			Source:     rec.Category,
			Provenance: rec.Provenance,
			Content:    rec.Text,
			Position:   i,
			CreatedAt:  now,
		}
	}

	// 3. Chunk every document through the post-processor pipeline
	var chunks []domain.Chunk
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		docChunks, err := s.pipeline.Process(ctx, &docs[i])
		if err != nil {
			return nil, fmt.Errorf("chunk document %d (%s): %w", docs[i].Position, docs[i].Provenance.Title, err)
		}
		chunks = append(chunks, docChunks...)
	}
	logger.Info("Chunked %d documents into %d chunks", len(docs), len(chunks))

	// 4. Embed the chunks in batches, dropping any whose embedding failed
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	embeddings := make([][]float32, len(chunks))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		batch, err := s.embeddingService.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
		}
		copy(embeddings[start:end], batch)
	}

	kept := make([]domain.Chunk, 0, len(chunks))
	skipped := 0
	for i := range chunks {
		if embeddings[i] == nil {
			skipped++
			logger.Warn("Skipping chunk %s of %q: embedding failed", chunks[i].ID, chunks[i].Provenance.Title)
			continue
		}
		chunks[i].Embedding = embeddings[i]
		kept = append(kept, chunks[i])
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("rebuild: no chunk could be embedded: %w", domain.ErrEmbedding)
	}
	if skipped > 0 {
		logger.Warn("Skipped %d of %d chunks", skipped, len(chunks))
	}

	// 5. Replace the document store contents
	if err := s.docStore.ReplaceAll(ctx, docs, kept); err != nil {
		return nil, fmt.Errorf("replace store contents: %w", err)
	}

	// 6. Build the vector index from the kept chunks, in store order
	ids := make([]string, len(kept))
	vectors := make([][]float32, len(kept))
	for i := range kept {
		ids[i] = kept[i].ID
		vectors[i] = kept[i].Embedding
	}
	if err := s.vectorIndex.Build(ctx, ids, vectors); err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	// 7. Persist the index blob
	if err := s.vectorIndex.Save(s.indexPath); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}

	report := &driving.RebuildReport{
		Documents:     len(docs),
		Chunks:        len(kept),
		SkippedChunks: skipped,
		Elapsed:       time.Since(started),
	}
	logger.Info("Rebuild complete: %d documents, %d chunks (%d skipped) in %s",
		report.Documents, report.Chunks, report.SkippedChunks, report.Elapsed.Round(time.Millisecond))

	return report, nil
}

// Open loads the persisted index blob and verifies that its chunk-id set
// matches the document store exactly.
func (s *IndexerService) Open(ctx context.Context) error {
	if err := s.vectorIndex.Load(s.indexPath); err != nil {
		return fmt.Errorf("load index: %w", err)
	}

	storeIDs, err := s.docStore.ListChunkIDs(ctx)
	if err != nil {
		return fmt.Errorf("list chunk ids: %w", err)
	}
	indexIDs := s.vectorIndex.IDs()

	if !sameIDSet(storeIDs, indexIDs) {
		return fmt.Errorf("store has %d chunks, index has %d vectors: %w",
			len(storeIDs), len(indexIDs), domain.ErrIndexMetadataMismatch)
	}

	logger.Debug("Index opened: %d vectors, %d dimensions", s.vectorIndex.Size(), s.vectorIndex.Dimensions())
	return nil
}

// Status reports store contents, index size and store/index agreement.
func (s *IndexerService) Status(ctx context.Context) (*domain.IndexStatus, error) {
	stats, err := s.docStore.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("store stats: %w", err)
	}

	storeIDs, err := s.docStore.ListChunkIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chunk ids: %w", err)
	}

	return &domain.IndexStatus{
		Stats:      stats,
		IndexSize:  s.vectorIndex.Size(),
		Dimensions: s.vectorIndex.Dimensions(),
		Model:      s.embeddingService.ModelName(),
		Consistent: sameIDSet(storeIDs, s.vectorIndex.IDs()),
	}, nil
}

// tryBeginRebuild marks a rebuild as running. It reports false when one
// is already in flight.
func (s *IndexerService) tryBeginRebuild() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rebuilding {
		return false
	}
	s.rebuilding = true
	return true
}

// endRebuild clears the running marker.
func (s *IndexerService) endRebuild() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuilding = false
}

// sameIDSet reports whether two id slices contain the same set of ids.
// IDs are unique within each slice, so length plus membership suffices.
func sameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
