package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/samtett/IEP-Goal-Generator/internal/core/domain"
	"github.com/samtett/IEP-Goal-Generator/internal/core/ports/driven"
	"github.com/samtett/IEP-Goal-Generator/internal/core/ports/driving"
	"github.com/samtett/IEP-Goal-Generator/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// searchK is how many hits each category probe requests from the index.
// Wider than the per-category cap so off-category hits can be filtered
// out without starving the category.
const searchK = 10

// queryTemplates holds the fixed probe phrasing per source category.
// The student's interest text is substituted for the %s verb.
var queryTemplates = map[domain.SourceCategory]string{
	domain.SourceOccupation: "occupation duties requirements training for %s",
	domain.SourceStandard:   "employability skills communication workplace for %s",
	domain.SourceExample:    "IEP transition goal employment training for %s",
}

// RetrievalService assembles grounding context for a career interest.
// It fans one probe per source category out against the vector index,
// filters each probe's hits to its category, and merges the survivors
// into a deduplicated, category-grouped bundle.
type RetrievalService struct {
	docStore         driven.DocumentStore
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(
	docStore driven.DocumentStore,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
) *RetrievalService {
	return &RetrievalService{
		docStore:         docStore,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
	}
}

// Retrieve runs the three category probes for the given interest text and
// returns their grouped results. A failed probe degrades to an empty
// group rather than failing the whole retrieval; the call errors only
// when every probe failed or the index has not been built.
func (s *RetrievalService) Retrieve(ctx context.Context, interest string) (*domain.ContextBundle, error) {
	logger.Section("Context Retrieval")
	logger.Debug("Interest: %q", interest)

	interest = strings.TrimSpace(interest)
	if interest == "" {
		return nil, fmt.Errorf("retrieve: interest text is empty: %w", domain.ErrInvalidInput)
	}

	if s.vectorIndex == nil || s.vectorIndex.Size() == 0 {
		return nil, fmt.Errorf("retrieve: %w", domain.ErrIndexNotBuilt)
	}

	// Probe the categories in parallel. Each search is read-only against
	// the same immutable index, so no coordination beyond the join.
	categories := domain.AllSourceCategories()
	perCategory := make([][]domain.RetrievedChunk, len(categories))
	probeErrs := make([]error, len(categories))

	var wg sync.WaitGroup
	wg.Add(len(categories))
	for i, category := range categories {
		go func(i int, category domain.SourceCategory) {
			defer wg.Done()
			perCategory[i], probeErrs[i] = s.retrieveCategory(ctx, category, interest)
		}(i, category)
	}
	wg.Wait()

	// Degrade per category: a failed probe leaves its group empty.
	failures := 0
	for i, err := range probeErrs {
		if err != nil {
			failures++
			logger.Warn("%s probe failed: %v", categories[i], err)
		}
	}
	if failures == len(categories) {
		return nil, fmt.Errorf("retrieve: every probe failed: %w", errors.Join(probeErrs...))
	}

	// Concatenate in fixed category order and deduplicate by chunk ID,
	// keeping the first occurrence. Grouping falls out of the chunks'
	// own categories.
	seen := make(map[string]struct{})
	bundle := &domain.ContextBundle{Interest: interest}
	for i := range categories {
		for _, chunk := range perCategory[i] {
			if _, dup := seen[chunk.ChunkID]; dup {
				continue
			}
			seen[chunk.ChunkID] = struct{}{}
			bundle.Add(chunk)
		}
	}

	logger.Info("Retrieved %d context chunks (occupation=%d, standard=%d, example=%d)",
		bundle.Total(), len(bundle.Occupations), len(bundle.Standards), len(bundle.Examples))

	return bundle, nil
}

// retrieveCategory embeds one category's probe, searches the index, and
// returns up to MaxPerCategory hits belonging to that category, best
// first. Hits whose chunk has vanished from the store are skipped.
func (s *RetrievalService) retrieveCategory(
	ctx context.Context, category domain.SourceCategory, interest string,
) ([]domain.RetrievedChunk, error) {
	query := fmt.Sprintf(queryTemplates[category], interest)
	logger.Debug("%s probe: %q", category, query)

	embedding, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed %s probe: %w", category, err)
	}

	hits, err := s.vectorIndex.Search(ctx, embedding, searchK)
	if err != nil {
		return nil, fmt.Errorf("search %s probe: %w", category, err)
	}
	logger.Debug("%s probe: %d raw hits", category, len(hits))

	// Hits arrive ranked descending, so the first MaxPerCategory chunks
	// that match the category are its top hits.
	results := make([]domain.RetrievedChunk, 0, domain.MaxPerCategory)
	for _, hit := range hits {
		if len(results) == domain.MaxPerCategory {
			break
		}

		chunk, err := s.docStore.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Warn("%s probe: chunk %s missing from store, skipped", category, hit.ChunkID)
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", hit.ChunkID, err)
		}

		if chunk.Source != category {
			continue
		}

		results = append(results, domain.RetrievedChunk{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Score:      hit.Score,
			Source:     chunk.Source,
			Provenance: chunk.Provenance,
			Content:    chunk.Content,
		})
	}

	logger.Debug("%s probe: kept %d after category filter", category, len(results))
	return results, nil
}
