// Package xlsx writes evaluation results as an Excel workbook.
package xlsx

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
)

// SheetName is the worksheet that holds the results.
const SheetName = "results"

// Ensure Writer implements the interface.
var _ driven.ResultWriter = (*Writer)(nil)

// Writer persists evaluation records to a single worksheet.
type Writer struct{}

// NewWriter creates an XLSX result writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write replaces path with a workbook whose first row is the header.
func (w *Writer) Write(path string, records []domain.EvaluationRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return eris.Wrap(err, "xlsx: create results directory")
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	addRow(sheet, domain.EvaluationColumns)
	for _, rec := range records {
		addRow(sheet, rec.Values())
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
