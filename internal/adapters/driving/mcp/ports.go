package mcp

import (
	"github.com/samtett/IEP-Goal-Generator/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval answers career-interest context queries.
	Retrieval driving.RetrievalService

	// Indexer reports knowledge base status.
	Indexer driving.Indexer
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	// Indexer is optional: without it the status tool and resource
	// report not-found.
	return nil
}
