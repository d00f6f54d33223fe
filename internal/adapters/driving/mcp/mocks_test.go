package mcp

import (
	"context"

	"github.com/samtett/IEP-Goal-Generator/internal/core/domain"
	"github.com/samtett/IEP-Goal-Generator/internal/core/ports/driving"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	bundle *domain.ContextBundle
	err    error
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context,
	interest string,
) (*domain.ContextBundle, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.bundle != nil {
		return m.bundle, nil
	}
	return &domain.ContextBundle{Interest: interest}, nil
}

// mockIndexerService is a mock implementation of driving.Indexer.
type mockIndexerService struct {
	report    *driving.RebuildReport
	status    *domain.IndexStatus
	openErr   error
	statusErr error
}

func (m *mockIndexerService) Rebuild(_ context.Context) (*driving.RebuildReport, error) {
	if m.report != nil {
		return m.report, nil
	}
	return &driving.RebuildReport{}, nil
}

func (m *mockIndexerService) Open(_ context.Context) error {
	return m.openErr
}

func (m *mockIndexerService) Status(_ context.Context) (*domain.IndexStatus, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	if m.status != nil {
		return m.status, nil
	}
	return &domain.IndexStatus{
		Stats: domain.CorpusStats{
			Documents: domain.CategoryCounts{Occupations: 2, Standards: 1, Examples: 1},
			Chunks:    domain.CategoryCounts{Occupations: 4, Standards: 2, Examples: 2},
		},
		IndexSize:  8,
		Dimensions: 384,
		Model:      "all-minilm",
		Consistent: true,
	}, nil
}
