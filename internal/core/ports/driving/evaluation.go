package driving

import (
	"context"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

// EvaluationService scores answers against reference answers.
type EvaluationService interface {
	// Evaluate computes every metric for one answer. Metric failures yield zeros.
	Evaluate(question, answer, reference, sourceText string) domain.Scores

	// RunSuite asks every question in order and scores the answers.
	// A failing question is logged and skipped; the rest still run.
	RunSuite(ctx context.Context, asker Asker, cases []domain.QuestionCase) ([]domain.EvaluationRecord, error)

	// Save writes records to path through the configured result writer.
	Save(path string, records []domain.EvaluationRecord) error
}
