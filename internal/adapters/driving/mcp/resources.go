package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/samtett/IEP-Goal-Generator/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for iepgen resources.
	uriScheme = "iepgen://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the knowledge base status report.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "status",
		Name:        "status",
		Description: "Knowledge base document, chunk and vector counts",
		MIMEType:    "application/json",
	}, s.handleStatusResource)

	// Static resource for the source categories.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "categories",
		Name:        "categories",
		Description: "Source categories grouped in every context bundle",
		MIMEType:    "application/json",
	}, s.handleCategoriesResource)
}

// handleStatusResource returns the knowledge base status as JSON.
func (s *Server) handleStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Indexer == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	status, err := s.ports.Indexer.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting status: %w", err)
	}

	output := StatusOutput{
		Documents:  countsOutput(status.Stats.Documents),
		Chunks:     countsOutput(status.Stats.Chunks),
		Vectors:    status.IndexSize,
		Dimensions: status.Dimensions,
		Model:      status.Model,
		Consistent: status.Consistent,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling status: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleCategoriesResource returns the source categories as JSON.
func (s *Server) handleCategoriesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type categoryInfo struct {
		ID          string `json:"id"`
		Description string `json:"description"`
	}

	categories := domain.AllSourceCategories()
	infos := make([]categoryInfo, len(categories))
	for i, cat := range categories {
		infos[i] = categoryInfo{
			ID:          cat.String(),
			Description: cat.Description(),
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling categories: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
