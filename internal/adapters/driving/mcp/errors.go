// Package mcp provides an MCP (Model Context Protocol) server adapter for
// iepgen. It lets AI assistants retrieve grounded IEP transition-goal context
// from the local knowledge base.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
