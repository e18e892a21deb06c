package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

var (
	askJSON      bool
	retrieveJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question about the bank data",
	Long: `Retrieves the CSV summary, customer records and regulation pages most
relevant to the question and asks the configured LLM for an answer.

The index is built first if it is missing or the settings changed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Show the context retrieved for a query",
	Long:  `Runs the tiered retriever without calling the LLM and prints the selected documents.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRetrieve,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output documents as JSON")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(retrieveCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := ensureRAG(ctx); err != nil {
		return err
	}
	if _, err := ragService.EnsureIndex(ctx); err != nil {
		return eris.Wrap(err, "prepare index")
	}

	answer, err := ragService.Ask(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	if askJSON {
		return printJSON(cmd, answerJSON{
			Question:  answer.Question,
			Answer:    answer.Text,
			Citations: toDocumentJSON(answer.Citations),
		})
	}

	cmd.Println(answer.Text)
	if len(answer.Citations) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, doc := range answer.Citations {
			cmd.Printf("  [%d] %s\n", i+1, describeDocument(doc))
		}
	}
	return nil
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := ensureRAG(ctx); err != nil {
		return err
	}
	if _, err := ragService.EnsureIndex(ctx); err != nil {
		return eris.Wrap(err, "prepare index")
	}

	docs, err := ragService.Retrieve(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	if retrieveJSON {
		return printJSON(cmd, toDocumentJSON(docs))
	}

	if len(docs) == 0 {
		cmd.Println("No context found.")
		return nil
	}
	for i, doc := range docs {
		cmd.Printf("[%d] %s\n", i+1, describeDocument(doc))
		cmd.Printf("    %s\n\n", preview(doc.Text(), 160))
	}
	return nil
}

type documentJSON struct {
	ID       string         `json:"id"`
	Kind     string         `json:"kind"`
	Source   string         `json:"source"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type answerJSON struct {
	Question  string         `json:"question"`
	Answer    string         `json:"answer"`
	Citations []documentJSON `json:"citations"`
}

func toDocumentJSON(docs []domain.Document) []documentJSON {
	out := make([]documentJSON, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentJSON{
			ID:       d.ID(),
			Kind:     string(d.Kind()),
			Source:   d.Source(),
			Content:  d.Text(),
			Metadata: d.Metadata(),
		})
	}
	return out
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// describeDocument names a context document for display.
func describeDocument(doc domain.Document) string {
	switch d := doc.(type) {
	case domain.SummaryDoc:
		return "CSV summary"
	case domain.RecordDoc:
		return fmt.Sprintf("customer %d", d.CustomerID())
	case domain.PageDoc:
		if d.Chunk() >= 0 {
			return fmt.Sprintf("%s, page %d, chunk %d", d.File(), d.Page(), d.Chunk())
		}
		return fmt.Sprintf("%s, page %d", d.File(), d.Page())
	default:
		return doc.Source()
	}
}

// preview collapses whitespace and truncates to limit runes.
func preview(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	return string(r[:limit]) + "..."
}
