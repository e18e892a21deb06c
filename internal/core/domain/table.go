package domain

import (
	"math"
	"strconv"
	"strings"
)

// RequiredColumns lists the columns a customer table must provide.
var RequiredColumns = []string{
	"customer_id", "age", "balance", "country", "credit_card",
	"churn", "products_number", "active_member", "credit_score",
}

// ColumnKind classifies a table column by the values it holds.
type ColumnKind int

// Column kinds.
const (
	ColumnCategorical ColumnKind = iota
	ColumnInteger
	ColumnFloat
)

// IsNumeric reports whether statistics apply to the column.
func (k ColumnKind) IsNumeric() bool {
	return k == ColumnInteger || k == ColumnFloat
}

// Table holds raw tabular data. Cells are kept as text; typed access goes
// through Kind and Floats.
type Table struct {
	// Name is the file name the table was read from, if any.
	Name string

	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewTable builds a table, padding short rows and truncating long ones so
// every row has one cell per column.
func NewTable(columns []string, rows [][]string) *Table {
	t := &Table{
		Columns: append([]string(nil), columns...),
		Rows:    make([][]string, 0, len(rows)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range t.Columns {
		t.Columns[i] = strings.TrimSpace(c)
		t.index[t.Columns[i]] = i
	}
	for _, r := range rows {
		row := make([]string, len(columns))
		copy(row, r)
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// MissingColumns returns the entries of names the table lacks.
func (t *Table) MissingColumns(names []string) []string {
	var missing []string
	for _, n := range names {
		if !t.HasColumn(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// Column returns every cell of the named column.
func (t *Table) Column(name string) ([]string, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, true
}

// Value returns a single cell, or "" if the column is unknown.
func (t *Table) Value(row int, column string) string {
	i, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][i]
}

// Row returns a row keyed by column name.
func (t *Table) Row(row int) map[string]string {
	out := make(map[string]string, len(t.Columns))
	for i, c := range t.Columns {
		out[c] = t.Rows[row][i]
	}
	return out
}

// Kind classifies a column. A column whose non-empty cells all parse as
// integers is integral; all parsing as floats makes it float; anything
// else, including a fully empty column, is categorical.
func (t *Table) Kind(column string) ColumnKind {
	cells, ok := t.Column(column)
	if !ok {
		return ColumnCategorical
	}
	kind := ColumnInteger
	seen := false
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		seen = true
		if kind == ColumnInteger {
			if _, err := strconv.ParseInt(c, 10, 64); err == nil {
				continue
			}
			kind = ColumnFloat
		}
		if _, err := strconv.ParseFloat(c, 64); err != nil {
			return ColumnCategorical
		}
	}
	if !seen {
		return ColumnCategorical
	}
	return kind
}

// Floats returns the parsed non-empty values of a numeric column.
func (t *Table) Floats(column string) []float64 {
	cells, _ := t.Column(column)
	out := make([]float64, 0, len(cells))
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if v, err := strconv.ParseFloat(c, 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// GeneralInfo describes the table as a whole.
type GeneralInfo struct {
	Rows            int
	UniqueCustomers int
	Columns         []string
}

// NumericStats are the per-column aggregates of a numeric column.
type NumericStats struct {
	Min      float64
	Max      float64
	Mean     float64
	Median   float64
	Integral bool
}

// TableStats is the structured side channel of the summary document.
// It is always computed over the whole table.
type TableStats struct {
	General      GeneralInfo
	NumericOrder []string
	Numerical    map[string]NumericStats
	Categorical  map[string]map[string]int
	Correlations map[string]map[string]float64
}

// Portable converts the statistics into plain values suitable for JSON:
// int64 for counts and for min/max of integral columns, float64 for every
// other number, nil in place of NaN or infinities.
func (s *TableStats) Portable() map[string]any {
	numerical := make(map[string]any, len(s.Numerical))
	for col, ns := range s.Numerical {
		numerical[col] = map[string]any{
			"min":    portableNumber(ns.Min, ns.Integral),
			"max":    portableNumber(ns.Max, ns.Integral),
			"mean":   portableNumber(ns.Mean, false),
			"median": portableNumber(ns.Median, false),
		}
	}

	categorical := make(map[string]any, len(s.Categorical))
	for col, counts := range s.Categorical {
		m := make(map[string]any, len(counts))
		for v, n := range counts {
			m[v] = int64(n)
		}
		categorical[col] = m
	}

	correlations := make(map[string]any, len(s.Correlations))
	for a, row := range s.Correlations {
		m := make(map[string]any, len(row))
		for b, v := range row {
			m[b] = portableNumber(v, false)
		}
		correlations[a] = m
	}

	return map[string]any{
		"general_info": map[string]any{
			"total_rows":       int64(s.General.Rows),
			"unique_customers": int64(s.General.UniqueCustomers),
			"columns":          append([]string(nil), s.General.Columns...),
		},
		"numerical_stats":   numerical,
		"categorical_stats": categorical,
		"correlations":      correlations,
	}
}

func portableNumber(v float64, integral bool) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	if integral {
		return int64(v)
	}
	return v
}
