package cli

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbank/internal/adapters/driven/results/csv"
	"github.com/custodia-labs/ragbank/internal/adapters/driven/results/xlsx"
	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
	"github.com/custodia-labs/ragbank/internal/core/services"
)

var (
	evalQuestions string
	evalOut       string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run the evaluation suite",
	Long: `Asks every question of a YAML question set, scores each answer against
its reference (BLEU, ROUGE-1/2/L, source relevance) and writes one row per
question to a CSV or XLSX file, chosen by the --out extension.

Question file format:
  questions:
    - question: ¿Cuántos clientes hay en total?
      reference: Hay 10000 clientes.`,
	Args: cobra.NoArgs,
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVarP(&evalQuestions, "questions", "q", "", "YAML question set")
	evaluateCmd.Flags().StringVarP(&evalOut, "out", "o", "results.csv", "result file (.csv or .xlsx)")
	_ = evaluateCmd.MarkFlagRequired("questions")
	rootCmd.AddCommand(evaluateCmd)
}

// resultWriterFor picks the writer matching the file extension.
func resultWriterFor(path string) (driven.ResultWriter, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return csv.NewWriter(), nil
	case ".xlsx":
		return xlsx.NewWriter(), nil
	default:
		return nil, eris.Wrapf(domain.ErrConfiguration, "unsupported result file %q, use .csv or .xlsx", path)
	}
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	writer, err := resultWriterFor(evalOut)
	if err != nil {
		return err
	}
	cases, err := services.LoadQuestionFile(evalQuestions)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := ensureRAG(ctx); err != nil {
		return err
	}
	if _, err := ragService.EnsureIndex(ctx); err != nil {
		return eris.Wrap(err, "prepare index")
	}

	evaluator := newEvaluationService(writer)
	records, err := evaluator.RunSuite(ctx, ragService, cases)
	// Failed questions are skipped, so records may be empty; the table
	// is written anyway and then holds only the header.
	if saveErr := evaluator.Save(evalOut, records); saveErr != nil {
		return saveErr
	}
	if err != nil {
		return err
	}

	cmd.Printf("Evaluated %d of %d questions, results written to %s\n", len(records), len(cases), evalOut)
	if len(records) > 0 {
		mean := meanScores(records)
		cmd.Printf("  BLEU:             %.4f\n", mean.BLEU)
		cmd.Printf("  ROUGE-1:          %.4f\n", mean.Rouge1)
		cmd.Printf("  ROUGE-2:          %.4f\n", mean.Rouge2)
		cmd.Printf("  ROUGE-L:          %.4f\n", mean.RougeL)
		cmd.Printf("  Source relevance: %.4f\n", mean.SourceRelevance)
	}
	return nil
}

func meanScores(records []domain.EvaluationRecord) domain.Scores {
	var sum domain.Scores
	for _, r := range records {
		sum.BLEU += r.BLEU
		sum.Rouge1 += r.Rouge1
		sum.Rouge2 += r.Rouge2
		sum.RougeL += r.RougeL
		sum.SourceRelevance += r.SourceRelevance
	}
	n := float64(len(records))
	return domain.Scores{
		BLEU:            sum.BLEU / n,
		Rouge1:          sum.Rouge1 / n,
		Rouge2:          sum.Rouge2 / n,
		RougeL:          sum.RougeL / n,
		SourceRelevance: sum.SourceRelevance / n,
	}
}
