// Package mcp provides an MCP (Model Context Protocol) server adapter for ragbank.
// It lets AI assistants ask questions about the bank data, inspect the
// retrieved context and look up individual customers.
package mcp

import "errors"

// ErrMissingRAGService is returned when the RAG service is not provided.
var ErrMissingRAGService = errors.New("mcp: rag service is required")
