package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rotisserie/eris"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for ragbank resources.
	uriScheme = "ragbank://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource describing the active index.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "index",
		Name:        "index",
		Description: "Status of the active vector index",
		MIMEType:    "application/json",
	}, s.handleIndexResource)

	// Template for raw customer rows.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "customers/{customerId}",
		Name:        "customer",
		Description: "Raw table row of a specific customer",
		MIMEType:    "application/json",
	}, s.handleCustomerResource)
}

// indexInfo is the JSON form of domain.IndexStatus.
type indexInfo struct {
	Name        string `json:"name"`
	Collection  string `json:"collection,omitempty"`
	Documents   int    `json:"documents"`
	Fingerprint string `json:"fingerprint,omitempty"`
	BuiltAt     string `json:"built_at,omitempty"`
	Ready       bool   `json:"ready"`
}

// handleIndexResource returns the status of the active index.
func (s *Server) handleIndexResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	status, err := s.ports.RAG.Status(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "index status")
	}

	info := indexInfo{
		Name:        status.Name,
		Collection:  status.Collection,
		Documents:   status.Documents,
		Fingerprint: status.Fingerprint,
		Ready:       status.Ready(),
	}
	if !status.BuiltAt.IsZero() {
		info.BuiltAt = status.BuiltAt.UTC().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "marshalling index status")
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleCustomerResource returns the raw row of a customer.
func (s *Server) handleCustomerResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Customers == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract customerId from URI: ragbank://customers/{customerId}
	id, ok := extractCustomerID(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	row, err := s.ports.Customers.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, eris.Wrap(err, "getting customer")
	}

	data, err := json.MarshalIndent(row, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "marshalling customer")
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractCustomerID extracts the customer ID from a URI like ragbank://customers/{customerId}.
func extractCustomerID(uri string) (int64, bool) {
	const prefix = uriScheme + "customers/"

	if !strings.HasPrefix(uri, prefix) {
		return 0, false
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(uri, prefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
