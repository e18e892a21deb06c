package cli

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbank/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ask
questions about the bank data.

Tools: ask, retrieve, customer_stats.
Resources: ragbank://index, ragbank://customers/{customerId}.

By default the server communicates over stdio using JSON-RPC. Use --port to
serve streamable HTTP instead, for example to test with MCP Inspector.

Examples:
  # Stdio mode (default)
  ragbank mcp serve

  # HTTP mode
  ragbank mcp serve --port 8080

Client configuration:
  {
    "mcpServers": {
      "ragbank": {
        "command": "/path/to/ragbank",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ctx := cmd.Context()
	if err := ensureRAG(ctx); err != nil {
		return err
	}
	if _, err := ragService.EnsureIndex(ctx); err != nil {
		return eris.Wrap(err, "prepare index")
	}

	server, err := mcp.NewServer(&mcp.Ports{
		RAG:       ragService,
		Customers: customerService,
	})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		cmd.PrintErrf("MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
