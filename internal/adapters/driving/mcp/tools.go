package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rotisserie/eris"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question about the bank customers or regulations"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string           `json:"answer"`
	Citations []DocumentOutput `json:"citations"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the query to retrieve context for"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput represents a single context document.
type DocumentOutput struct {
	ID       string         `json:"id"`
	Kind     string         `json:"kind"`
	Source   string         `json:"source"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// CustomerInput is the input schema for the customer_stats tool.
type CustomerInput struct {
	CustomerID int64 `json:"customer_id" jsonschema:"the numeric customer identifier"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the bank customer data and regulatory documents",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Show the context documents retrieved for a query, summary first",
	}, s.handleRetrieve)

	if s.ports.Customers != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "customer_stats",
			Description: "Look up a customer's credit score, balance, products and risk level",
		}, s.handleCustomerStats)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.RAG.Ask(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{
		Answer:    answer.Text,
		Citations: toDocumentOutputs(answer.Citations),
	}, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	docs, err := s.ports.RAG.Retrieve(ctx, input.Query)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}
	return nil, RetrieveOutput{
		Documents: toDocumentOutputs(docs),
		Count:     len(docs),
	}, nil
}

// handleCustomerStats handles the customer_stats tool invocation.
func (s *Server) handleCustomerStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CustomerInput,
) (*mcp.CallToolResult, domain.CustomerStats, error) {
	if s.ports.Customers == nil {
		return nil, domain.CustomerStats{}, eris.New("customer directory not configured")
	}
	stats, err := s.ports.Customers.Stats(ctx, input.CustomerID)
	if err != nil {
		return nil, domain.CustomerStats{}, err
	}
	return nil, *stats, nil
}

func toDocumentOutputs(docs []domain.Document) []DocumentOutput {
	out := make([]DocumentOutput, len(docs))
	for i, doc := range docs {
		out[i] = DocumentOutput{
			ID:       doc.ID(),
			Kind:     string(doc.Kind()),
			Source:   doc.Source(),
			Content:  doc.Text(),
			Metadata: doc.Metadata(),
		}
	}
	return out
}
