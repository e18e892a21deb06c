// Package csv writes evaluation results as UTF-8 CSV files.
package csv

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
)

// Ensure Writer implements the interface.
var _ driven.ResultWriter = (*Writer)(nil)

// Writer persists evaluation records with a header row.
type Writer struct{}

// NewWriter creates a CSV result writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write replaces path with the header followed by one row per record.
func (w *Writer) Write(path string, records []domain.EvaluationRecord) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return eris.Wrapf(err, "create results directory %s", dir)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(domain.EvaluationColumns); err != nil {
		_ = f.Close()
		return eris.Wrap(err, "write header")
	}
	for i, rec := range records {
		if err := cw.Write(rec.Values()); err != nil {
			_ = f.Close()
			return eris.Wrapf(err, "write record %d", i)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		_ = f.Close()
		return eris.Wrap(err, "flush results")
	}
	return f.Close()
}
