package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/custodia-labs/ragbank/internal/adapters/driving/httpapi"
)

var (
	servePort    int
	serveOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start a JSON HTTP API over the question answering system.

Endpoints:
  GET  /health
  POST /ask              {"question": "..."}
  POST /retrieve         {"query": "..."}
  GET  /customers/{id}
  POST /index/rebuild`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "HTTP port")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "cors-origin", nil, "allowed CORS origins (default any)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ensureRAG(ctx); err != nil {
		return err
	}
	if _, err := ragService.EnsureIndex(ctx); err != nil {
		return eris.Wrap(err, "prepare index")
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		RAG:       ragService,
		Customers: customerService,
	}, httpapi.Options{AllowedOrigins: serveOrigins})
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", servePort)
	zap.L().Info("http api starting", zap.String("addr", addr))
	cmd.Printf("HTTP API listening on http://localhost%s\n", addr)
	return server.Run(ctx, addr)
}
