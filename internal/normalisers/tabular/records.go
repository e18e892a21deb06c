package tabular

import (
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

// DefaultSeed makes record sampling reproducible.
const DefaultSeed = 42

// CreateRecordDocs returns one document per row, or per sampled row when
// 0 < sampleSize < rows. Rows whose customer_id is missing or repeats an
// earlier row are skipped so ids stay unique within the batch.
func CreateRecordDocs(table *domain.Table, sampleSize int) ([]domain.RecordDoc, error) {
	return createRecordDocs(table, sampleSize, DefaultSeed)
}

func createRecordDocs(table *domain.Table, sampleSize int, seed int64) ([]domain.RecordDoc, error) {
	if table == nil || !table.HasColumn("customer_id") {
		return nil, eris.Wrap(domain.ErrDataFormat, "tabular: table has no customer_id column")
	}

	rows := sampleRows(table.Len(), sampleSize, seed)
	docs := make([]domain.RecordDoc, 0, len(rows))
	seen := make(map[int64]struct{}, len(rows))
	log := zap.L().With(zap.String("table", table.Name))

	for _, i := range rows {
		id, ok := parseID(table.Value(i, "customer_id"))
		if !ok {
			log.Warn("skipping row without customer_id", zap.Int("row", i))
			continue
		}
		if _, dup := seen[id]; dup {
			log.Warn("skipping duplicate customer_id", zap.Int64("customer_id", id), zap.Int("row", i))
			continue
		}
		seen[id] = struct{}{}
		docs = append(docs, domain.NewRecordDoc(recordText(table, i), id))
	}
	return docs, nil
}

// FindCustomer returns the row of the given customer.
func FindCustomer(table *domain.Table, id int64) (map[string]string, bool) {
	for i := range table.Len() {
		if rowID, ok := parseID(table.Value(i, "customer_id")); ok && rowID == id {
			return table.Row(i), true
		}
	}
	return nil, false
}

// sampleRows returns row indices, sampled without replacement when
// 0 < size < n.
func sampleRows(n, size int, seed int64) []int {
	if size <= 0 || size >= n {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible sampling, not security
	return rng.Perm(n)[:size]
}

// recordText serialises a row as "column: value" lines in column order.
func recordText(table *domain.Table, row int) string {
	var b strings.Builder
	for i, col := range table.Columns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(col)
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(table.Rows[row][i]))
	}
	return b.String()
}

func parseID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, true
	}
	f, ok := parseFloat(s)
	if !ok || math.Trunc(f) != f {
		return 0, false
	}
	return int64(f), true
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
