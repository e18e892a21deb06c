package mcp

import (
	"github.com/custodia-labs/ragbank/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// RAG answers questions and exposes the retrieved context.
	RAG driving.RAGService

	// Customers serves per-customer lookups. Optional.
	Customers driving.CustomerService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.RAG == nil {
		return ErrMissingRAGService
	}
	return nil
}
