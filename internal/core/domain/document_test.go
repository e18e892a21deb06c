package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryDoc_Metadata(t *testing.T) {
	stats := &TableStats{General: GeneralInfo{Rows: 2, UniqueCustomers: 2, Columns: []string{"customer_id"}}}
	doc, err := NewSummaryDoc("RESUMEN", stats)
	require.NoError(t, err)

	assert.Equal(t, KindSummary, doc.Kind())
	assert.Equal(t, SourceSummary, doc.Source())
	imp, ok := doc.Importance()
	assert.True(t, ok)
	assert.Equal(t, 10, imp)

	md := doc.Metadata()
	assert.Equal(t, SourceSummary, md[MetaSource])
	assert.Equal(t, 10, md[MetaImportance])
	require.Contains(t, md, MetaFullSummary)

	var full map[string]any
	require.NoError(t, json.Unmarshal([]byte(md[MetaFullSummary].(string)), &full))
	assert.Contains(t, full, "general_info")
	assert.Contains(t, full, "numerical_stats")
	assert.Contains(t, full, "categorical_stats")
	assert.Contains(t, full, "correlations")
	assert.Same(t, stats, doc.Stats())
}

func TestRecordDoc_Metadata(t *testing.T) {
	doc := NewRecordDoc("customer_id: 7", 7)

	md := doc.Metadata()
	assert.Equal(t, SourceRecord, md[MetaSource])
	assert.Equal(t, 1, md[MetaImportance])
	assert.Equal(t, int64(7), md[MetaCustomerID])
	assert.Equal(t, int64(7), doc.CustomerID())
}

func TestPageDoc_NoPriorityFields(t *testing.T) {
	page := NewPageDoc("Artículo 1", "reglamento.pdf", 3)
	chunk := page.WithChunk("Artí", 0)

	for _, d := range []Document{page, chunk} {
		md := d.Metadata()
		assert.NotContains(t, md, MetaImportance)
		assert.NotContains(t, md, MetaCustomerID)
		assert.Equal(t, "reglamento.pdf", md[MetaSource])
		assert.Equal(t, 3, md[MetaPage])
		_, ok := d.Importance()
		assert.False(t, ok)
	}
	assert.NotContains(t, page.Metadata(), MetaChunk)
	assert.Equal(t, 0, chunk.Metadata()[MetaChunk])
	assert.NotEqual(t, page.ID(), chunk.ID())
}

func TestDocumentID_Deterministic(t *testing.T) {
	a := NewRecordDoc("x", 1)
	b := NewRecordDoc("x", 1)
	c := NewRecordDoc("x", 2)

	assert.Equal(t, a.ID(), b.ID())
	assert.True(t, SameDocument(a, b))
	assert.False(t, SameDocument(a, c))
}

func TestDocumentFromMetadata(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
	}{
		{"summary", mustSummary(t, "resumen")},
		{"record", NewRecordDoc("customer_id: 15634602", 15634602)},
		{"page", NewPageDoc("texto", "a.pdf", 2)},
		{"chunk", NewPageDoc("texto", "a.pdf", 2).WithChunk("tex", 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Round trip through JSON the way stores persist metadata.
			raw, err := json.Marshal(tt.doc.Metadata())
			require.NoError(t, err)
			var md map[string]any
			require.NoError(t, json.Unmarshal(raw, &md))

			got, err := DocumentFromMetadata(tt.doc.Text(), md)
			require.NoError(t, err)
			assert.Equal(t, tt.doc.Kind(), got.Kind())
			assert.Equal(t, tt.doc.ID(), got.ID())
		})
	}
}

func TestDocumentFromMetadata_Invalid(t *testing.T) {
	_, err := DocumentFromMetadata("x", map[string]any{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = DocumentFromMetadata("x", map[string]any{MetaSource: SourceRecord})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func mustSummary(t *testing.T, text string) SummaryDoc {
	t.Helper()
	doc, err := NewSummaryDoc(text, &TableStats{})
	require.NoError(t, err)
	return doc
}
