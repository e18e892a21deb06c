package driven

import (
	"context"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

// TableNormaliser reads the structured customer table and turns it into
// documents.
type TableNormaliser interface {
	// LoadTable reads the table at path.
	// Returns domain.ErrDataFormat if the file is absent, has no data rows
	// or lacks a required column.
	LoadTable(ctx context.Context, path string) (*domain.Table, error)

	// Summarise computes the single summary document over the whole table.
	Summarise(table *domain.Table) (domain.SummaryDoc, error)

	// Records returns one document per row, or per sampled row when
	// 0 < sampleSize < rows. Sampling is reproducible.
	Records(table *domain.Table, sampleSize int) ([]domain.RecordDoc, error)
}

// PageLoader reads every supported file in a directory into page documents.
// Files of other types are skipped without error.
type PageLoader interface {
	LoadDirectory(ctx context.Context, dir string) ([]domain.PageDoc, error)
}
