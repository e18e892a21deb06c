package tabular

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

// SummaryHeading opens every summary document.
const SummaryHeading = "RESUMEN DETALLADO DEL CSV"

// maxCategories caps the value counts listed per categorical column.
const maxCategories = 10

// CreateTableSummary computes the single summary document for table.
// Lines about specific columns are omitted when the column is absent.
func CreateTableSummary(table *domain.Table) (domain.SummaryDoc, error) {
	stats, err := ComputeStats(table)
	if err != nil {
		return domain.SummaryDoc{}, err
	}

	doc, err := domain.NewSummaryDoc(summaryText(table, stats), stats)
	if err != nil {
		return domain.SummaryDoc{}, eris.Wrap(err, "tabular: build summary document")
	}
	return doc, nil
}

func summaryText(table *domain.Table, stats *domain.TableStats) string {
	var b strings.Builder

	b.WriteString(SummaryHeading)
	if table.Name != "" {
		fmt.Fprintf(&b, " '%s'", table.Name)
	}
	b.WriteString(":\n")

	rows := stats.General.Rows
	fmt.Fprintf(&b, "- Total de filas: %d\n", rows)
	fmt.Fprintf(&b, "- Clientes únicos: %d\n", stats.General.UniqueCustomers)
	fmt.Fprintf(&b, "- Columnas: %s\n", strings.Join(stats.General.Columns, ", "))

	if age, ok := stats.Numerical["age"]; ok {
		fmt.Fprintf(&b, "- Rango de edades: %s - %s años\n",
			formatNumber(age.Min, age.Integral), formatNumber(age.Max, age.Integral))
	}
	if table.HasColumn("country") {
		fmt.Fprintf(&b, "- Países representados: %s\n", strings.Join(uniqueInOrder(table, "country"), ", "))
	}
	if balance, ok := stats.Numerical["balance"]; ok {
		fmt.Fprintf(&b, "- Saldo promedio: %.2f\n", balance.Mean)
	}
	if pct, ok := percentOfRows(table, "credit_card"); ok {
		fmt.Fprintf(&b, "- Porcentaje de clientes con tarjeta de crédito: %.2f%%\n", pct)
	}
	if pct, ok := percentOfRows(table, "active_member"); ok {
		fmt.Fprintf(&b, "- Porcentaje de miembros activos: %.2f%%\n", pct)
	}
	if pct, ok := percentOfRows(table, "churn"); ok {
		fmt.Fprintf(&b, "- Tasa de abandono (churn): %.2f%%\n", pct)
	}

	if len(stats.NumericOrder) > 0 {
		b.WriteString("\nEstadísticas numéricas:\n")
		for _, col := range stats.NumericOrder {
			ns := stats.Numerical[col]
			fmt.Fprintf(&b, "- %s: mínimo %s, máximo %s, media %.2f, mediana %.2f\n",
				col, formatNumber(ns.Min, ns.Integral), formatNumber(ns.Max, ns.Integral), ns.Mean, ns.Median)
		}
	}

	if len(stats.Categorical) > 0 {
		b.WriteString("\nDistribución de valores categóricos:\n")
		for _, col := range table.Columns {
			counts, ok := stats.Categorical[col]
			if !ok || len(counts) == 0 {
				continue
			}
			fmt.Fprintf(&b, "- %s: %s\n", col, formatCounts(counts))
		}
	}

	b.WriteString("\nEsta información es un resumen preciso basado en el análisis del archivo CSV completo.\n")
	b.WriteString("Para preguntas sobre estadísticas generales o totales, utiliza siempre esta información.")
	return b.String()
}

// percentOfRows returns sum(column) / rows * 100 for a 0/1 column.
func percentOfRows(table *domain.Table, col string) (float64, bool) {
	if !table.HasColumn(col) || !table.Kind(col).IsNumeric() {
		return 0, false
	}
	sum := 0.0
	for _, v := range table.Floats(col) {
		sum += v
	}
	return sum / float64(table.Len()) * 100, true
}

func formatNumber(v float64, integral bool) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/d"
	}
	if integral {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatCounts lists the most frequent values first, ties by value.
func formatCounts(counts map[string]int) string {
	type kv struct {
		value string
		count int
	}
	entries := make([]kv, 0, len(counts))
	for v, c := range counts {
		entries = append(entries, kv{v, c})
	}
	slices.SortFunc(entries, func(a, b kv) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.value, b.value)
	})

	parts := make([]string, 0, min(len(entries), maxCategories))
	for i, e := range entries {
		if i == maxCategories {
			parts = append(parts, fmt.Sprintf("otros %d valores", len(entries)-maxCategories))
			break
		}
		parts = append(parts, fmt.Sprintf("%s=%d", e.value, e.count))
	}
	return strings.Join(parts, ", ")
}
