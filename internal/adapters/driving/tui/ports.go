// Package tui provides an interactive terminal user interface for ragbank.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/ragbank/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
type Ports struct {
	// RAG answers questions and manages the index.
	RAG driving.RAGService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(rag driving.RAGService) *Ports {
	return &Ports{RAG: rag}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.RAG == nil {
		return ErrMissingRAGService
	}
	return nil
}
