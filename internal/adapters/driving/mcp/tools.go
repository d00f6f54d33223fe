package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/samtett/IEP-Goal-Generator/internal/core/domain"
)

// RetrieveInput is the input schema for the retrieve_context tool.
type RetrieveInput struct {
	Interest string `json:"interest" jsonschema:"the student's career interest, e.g. 'working with animals'"`
}

// RetrieveOutput is the output schema for the retrieve_context tool.
type RetrieveOutput struct {
	Interest    string        `json:"interest"`
	Occupations []ChunkOutput `json:"occupations"`
	Standards   []ChunkOutput `json:"standards"`
	Examples    []ChunkOutput `json:"examples"`
	Count       int           `json:"count"`
}

// ChunkOutput represents a single retrieved chunk.
type ChunkOutput struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"score"`
	Source     string  `json:"source"`
	Tag        string  `json:"tag,omitempty"`
	Title      string  `json:"title,omitempty"`
	Section    string  `json:"section,omitempty"`
	Content    string  `json:"content"`
}

// StatusInput is the input schema for the index_status tool. It has no
// parameters.
type StatusInput struct{}

// StatusOutput is the output schema for the index_status tool.
type StatusOutput struct {
	Documents  CategoryCountsOutput `json:"documents"`
	Chunks     CategoryCountsOutput `json:"chunks"`
	Vectors    int                  `json:"vectors"`
	Dimensions int                  `json:"dimensions"`
	Model      string               `json:"model"`
	Consistent bool                 `json:"consistent"`
}

// CategoryCountsOutput holds per-category counts.
type CategoryCountsOutput struct {
	Occupations int `json:"occupations"`
	Standards   int `json:"standards"`
	Examples    int `json:"examples"`
	Total       int `json:"total"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve_context",
		Description: "Retrieve occupational data, employability standards and example goals for a career interest",
	}, s.handleRetrieveContext)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_status",
		Description: "Report knowledge base document, chunk and vector counts",
	}, s.handleIndexStatus)
}

// handleRetrieveContext handles the retrieve_context tool invocation.
func (s *Server) handleRetrieveContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	bundle, err := s.ports.Retrieval.Retrieve(ctx, input.Interest)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Interest:    bundle.Interest,
		Occupations: chunkOutputs(bundle.Occupations),
		Standards:   chunkOutputs(bundle.Standards),
		Examples:    chunkOutputs(bundle.Examples),
		Count:       bundle.Total(),
	}

	return nil, output, nil
}

// handleIndexStatus handles the index_status tool invocation.
func (s *Server) handleIndexStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	if s.ports.Indexer == nil {
		return nil, StatusOutput{}, errors.New("indexer not configured")
	}

	status, err := s.ports.Indexer.Status(ctx)
	if err != nil {
		return nil, StatusOutput{}, err
	}

	output := StatusOutput{
		Documents:  countsOutput(status.Stats.Documents),
		Chunks:     countsOutput(status.Stats.Chunks),
		Vectors:    status.IndexSize,
		Dimensions: status.Dimensions,
		Model:      status.Model,
		Consistent: status.Consistent,
	}

	return nil, output, nil
}

func chunkOutputs(chunks []domain.RetrievedChunk) []ChunkOutput {
	out := make([]ChunkOutput, len(chunks))
	for i := range chunks {
		out[i] = ChunkOutput{
			ChunkID:    chunks[i].ChunkID,
			DocumentID: chunks[i].DocumentID,
			Score:      chunks[i].Score,
			Source:     chunks[i].Source.String(),
			Tag:        chunks[i].Provenance.Tag,
			Title:      chunks[i].Provenance.Title,
			Section:    chunks[i].Provenance.Section,
			Content:    chunks[i].Content,
		}
	}
	return out
}

func countsOutput(c domain.CategoryCounts) CategoryCountsOutput {
	return CategoryCountsOutput{
		Occupations: c.Occupations,
		Standards:   c.Standards,
		Examples:    c.Examples,
		Total:       c.Total(),
	}
}
