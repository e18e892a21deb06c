package csv

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.csv")
	ts := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	records := []domain.EvaluationRecord{
		{
			Timestamp:       ts,
			Question:        "¿Cuántos clientes hay?",
			Answer:          "Hay 10000 clientes, según el resumen.",
			ReferenceAnswer: "10000",
			Source:          domain.SourceSummary,
			SourceContent:   "RESUMEN DETALLADO DEL CSV",
			Scores:          domain.Scores{BLEU: 0.5, Rouge1: 0.25, SourceRelevance: 1},
			ResponseTime:    1500 * time.Millisecond,
		},
		{Timestamp: ts, Question: "q2", Answer: "a2", Source: domain.DefaultSource},
	}

	require.NoError(t, NewWriter().Write(path, records))

	rows := readAll(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.EvaluationColumns, rows[0])
	assert.Equal(t, "2024-03-01 10:30:00", rows[1][0])
	assert.Equal(t, "¿Cuántos clientes hay?", rows[1][1])
	assert.Equal(t, "Hay 10000 clientes, según el resumen.", rows[1][2])
	assert.Equal(t, "0.5000", rows[1][6])
	assert.Equal(t, "1.500", rows[1][11])
	assert.Equal(t, "q2", rows[2][1])
	assert.Equal(t, domain.DefaultSource, rows[2][4])
}

func TestWriter_ExactHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, NewWriter().Write(path, nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"timestamp,question,answer,reference_answer,source,source_content,bleu_score,rouge-1,rouge-2,rouge-l,source_relevance,response_time\n",
		string(raw))
}

func TestWriter_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	w := NewWriter()
	require.NoError(t, w.Write(path, []domain.EvaluationRecord{{Question: "a"}, {Question: "b"}}))
	require.NoError(t, w.Write(path, []domain.EvaluationRecord{{Question: "c"}}))

	rows := readAll(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, "c", rows[1][1])
}

func TestWriter_InvalidPath(t *testing.T) {
	dir := t.TempDir()
	// A directory cannot be opened for writing.
	err := NewWriter().Write(dir, nil)
	assert.Error(t, err)
}
