package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

var ingestIfChanged bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build the vector index from the CSV and PDF sources",
	Long: `Loads the customer CSV and every PDF in the data directory, builds the
summary, record and page documents, embeds them into a new collection and
swaps it in. The previous collection keeps serving until the swap.

With --if-changed the build is skipped when an index built with the current
settings already exists.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestIfChanged, "if-changed", false, "only rebuild when settings changed")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := ensureRAG(ctx); err != nil {
		return err
	}

	start := time.Now()
	var (
		status domain.IndexStatus
		err    error
	)
	if ingestIfChanged {
		status, err = ragService.EnsureIndex(ctx)
	} else {
		status, err = ragService.Rebuild(ctx)
	}
	if err != nil {
		return err
	}

	printIndexStatus(cmd, status)
	cmd.Printf("Done in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func printIndexStatus(cmd *cobra.Command, status domain.IndexStatus) {
	if !status.Ready() {
		cmd.Println("No index has been built yet.")
		return
	}
	cmd.Printf("Collection:  %s\n", status.Collection)
	cmd.Printf("Documents:   %d\n", status.Documents)
	if status.Fingerprint != "" {
		cmd.Printf("Fingerprint: %s\n", status.Fingerprint)
	}
	if !status.BuiltAt.IsZero() {
		cmd.Printf("Built:       %s\n", status.BuiltAt.Local().Format(time.DateTime))
	}
}
