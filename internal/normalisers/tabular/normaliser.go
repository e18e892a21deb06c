// Package tabular loads the customer CSV and derives its documents: one
// authoritative summary over the whole table and one record per row.
package tabular

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.TableNormaliser = (*Normaliser)(nil)

// Option configures a Normaliser.
type Option func(*Normaliser)

// WithRequiredColumns overrides the columns LoadTable insists on.
func WithRequiredColumns(cols ...string) Option {
	return func(n *Normaliser) {
		n.required = cols
	}
}

// WithSeed overrides the sampling seed.
func WithSeed(seed int64) Option {
	return func(n *Normaliser) {
		n.seed = seed
	}
}

// Normaliser reads delimited customer files.
type Normaliser struct {
	required []string
	seed     int64
}

// New creates a tabular normaliser requiring domain.RequiredColumns.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{
		required: domain.RequiredColumns,
		seed:     DefaultSeed,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// LoadTable reads a CSV with a header row. Rows are not validated
// individually; short and long rows are padded or truncated.
func (n *Normaliser) LoadTable(ctx context.Context, path string) (*domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(domain.ErrDataFormat, "tabular: file %s not found", path)
		}
		return nil, eris.Wrapf(err, "tabular: open %s", path)
	}
	defer f.Close()

	table, err := read(f)
	if err != nil {
		return nil, eris.Wrapf(err, "tabular: read %s", path)
	}
	table.Name = filepath.Base(path)

	if missing := table.MissingColumns(n.required); len(missing) > 0 {
		return nil, eris.Wrapf(domain.ErrDataFormat, "tabular: %s missing columns %s",
			path, strings.Join(missing, ", "))
	}
	return table, nil
}

// Summarise builds the summary document.
func (n *Normaliser) Summarise(table *domain.Table) (domain.SummaryDoc, error) {
	return CreateTableSummary(table)
}

// Records builds the record documents.
func (n *Normaliser) Records(table *domain.Table, sampleSize int) ([]domain.RecordDoc, error) {
	return createRecordDocs(table, sampleSize, n.seed)
}

func read(r io.Reader) (*domain.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, eris.Wrap(domain.ErrDataFormat, "file is empty")
	}
	if err != nil {
		return nil, eris.Wrap(errors.Join(domain.ErrDataFormat, err), "parse header")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(errors.Join(domain.ErrDataFormat, err), "parse rows")
	}
	if len(rows) == 0 {
		return nil, eris.Wrap(domain.ErrDataFormat, "file has no data rows")
	}
	return domain.NewTable(header, rows), nil
}
