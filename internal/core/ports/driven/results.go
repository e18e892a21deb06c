package driven

import "github.com/custodia-labs/ragbank/internal/core/domain"

// ResultWriter persists evaluation records as a table with a header row
// followed by one row per record, in the order given.
type ResultWriter interface {
	Write(path string, records []domain.EvaluationRecord) error
}
