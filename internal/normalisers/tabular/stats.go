package tabular

import (
	"math"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

// ComputeStats aggregates the entire table. Numeric columns get
// min/max/mean/median, the rest get value counts, and every pair of
// numeric columns gets a Pearson correlation over rows where both are set.
func ComputeStats(table *domain.Table) (*domain.TableStats, error) {
	if table == nil || table.Len() == 0 {
		return nil, eris.Wrap(domain.ErrDataFormat, "tabular: no rows to summarise")
	}

	stats := &domain.TableStats{
		General: domain.GeneralInfo{
			Rows:            table.Len(),
			UniqueCustomers: uniqueCount(table, "customer_id"),
			Columns:         append([]string(nil), table.Columns...),
		},
		Numerical:    make(map[string]domain.NumericStats),
		Categorical:  make(map[string]map[string]int),
		Correlations: make(map[string]map[string]float64),
	}

	for _, col := range table.Columns {
		kind := table.Kind(col)
		if !kind.IsNumeric() {
			stats.Categorical[col] = valueCounts(table, col)
			continue
		}
		values := table.Floats(col)
		if len(values) == 0 {
			continue
		}
		stats.NumericOrder = append(stats.NumericOrder, col)
		stats.Numerical[col] = domain.NumericStats{
			Min:      floats.Min(values),
			Max:      floats.Max(values),
			Mean:     stat.Mean(values, nil),
			Median:   median(values),
			Integral: kind == domain.ColumnInteger,
		}
	}

	for _, a := range stats.NumericOrder {
		row := make(map[string]float64, len(stats.NumericOrder))
		for _, b := range stats.NumericOrder {
			row[b] = correlation(table, a, b)
		}
		stats.Correlations[a] = row
	}
	return stats, nil
}

// median is the middle value, or the mean of the two middle values.
func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func correlation(table *domain.Table, a, b string) float64 {
	var xs, ys []float64
	for i := range table.Len() {
		x, okX := parseFloat(table.Value(i, a))
		y, okY := parseFloat(table.Value(i, b))
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	if stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

func valueCounts(table *domain.Table, col string) map[string]int {
	cells, _ := table.Column(col)
	counts := make(map[string]int)
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		counts[c]++
	}
	return counts
}

func uniqueCount(table *domain.Table, col string) int {
	cells, ok := table.Column(col)
	if !ok {
		return 0
	}
	seen := make(map[string]struct{}, len(cells))
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if c != "" {
			seen[c] = struct{}{}
		}
	}
	return len(seen)
}

// uniqueInOrder returns distinct non-empty values in first-seen order.
func uniqueInOrder(table *domain.Table, col string) []string {
	cells, _ := table.Column(col)
	seen := make(map[string]struct{})
	var out []string
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
