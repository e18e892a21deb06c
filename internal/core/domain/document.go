package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// DocumentKind identifies which variant of Document a value is.
type DocumentKind string

// Document kinds.
const (
	// KindSummary is the single aggregate-statistics document of an index build.
	KindSummary DocumentKind = "summary"

	// KindRecord is one customer row from the tabular source.
	KindRecord DocumentKind = "record"

	// KindPage is a PDF page, or a chunk of one.
	KindPage DocumentKind = "page"
)

// Recognised metadata keys.
const (
	MetaSource      = "source"
	MetaImportance  = "importance"
	MetaCustomerID  = "customer_id"
	MetaFullSummary = "full_summary"
	MetaPage        = "page"
	MetaChunk       = "chunk"
)

// Fixed source tags and priorities for tabular documents.
const (
	SourceSummary = "CSV_summary"
	SourceRecord  = "CSV_record"

	SummaryImportance = 10
	RecordImportance  = 1
)

// Document is a normalised unit of retrievable text plus metadata.
// The set of implementations is closed: SummaryDoc, RecordDoc and PageDoc.
// Documents are immutable once constructed.
type Document interface {
	// ID is a deterministic content hash. Equal IDs mean equal documents.
	ID() string

	// Kind reports the variant.
	Kind() DocumentKind

	// Text is the content that gets embedded and shown to the LLM.
	Text() string

	// Source is the value of the "source" metadata key.
	Source() string

	// Importance returns the priority and whether the variant carries one.
	Importance() (int, bool)

	// Metadata returns a fresh flat copy of the recognised keys.
	Metadata() map[string]any

	sealed()
}

// SummaryDoc is the authoritative aggregate digest of the tabular source.
type SummaryDoc struct {
	text        string
	fullSummary string
	stats       *TableStats
}

// NewSummaryDoc builds the summary document. The portable form of stats is
// serialised into the full_summary metadata key.
func NewSummaryDoc(text string, stats *TableStats) (SummaryDoc, error) {
	doc := SummaryDoc{text: text, stats: stats}
	if stats != nil {
		raw, err := json.Marshal(stats.Portable())
		if err != nil {
			return SummaryDoc{}, fmt.Errorf("marshal summary stats: %w", err)
		}
		doc.fullSummary = string(raw)
	}
	return doc, nil
}

func (d SummaryDoc) ID() string { return hashID(KindSummary, d.text) }
func (d SummaryDoc) Kind() DocumentKind { return KindSummary }
func (d SummaryDoc) Text() string { return d.text }
func (d SummaryDoc) Source() string { return SourceSummary }
func (d SummaryDoc) Importance() (int, bool) { return SummaryImportance, true }
func (SummaryDoc) sealed() {}

// Stats returns the structured side channel. It is nil when the document
// was rebuilt from storage. Callers must not modify it.
func (d SummaryDoc) Stats() *TableStats { return d.stats }

// FullSummary returns the JSON form of the portable statistics.
func (d SummaryDoc) FullSummary() string { return d.fullSummary }

func (d SummaryDoc) Metadata() map[string]any {
	md := map[string]any{
		MetaSource:     SourceSummary,
		MetaImportance: SummaryImportance,
	}
	if d.fullSummary != "" {
		md[MetaFullSummary] = d.fullSummary
	}
	return md
}

// RecordDoc is a single customer row serialised as a key-value block.
type RecordDoc struct {
	text       string
	customerID int64
}

// NewRecordDoc builds a record document.
func NewRecordDoc(text string, customerID int64) RecordDoc {
	return RecordDoc{text: text, customerID: customerID}
}

func (d RecordDoc) ID() string {
	return hashID(KindRecord, strconv.FormatInt(d.customerID, 10), d.text)
}
func (d RecordDoc) Kind() DocumentKind { return KindRecord }
func (d RecordDoc) Text() string { return d.text }
func (d RecordDoc) Source() string { return SourceRecord }
func (d RecordDoc) Importance() (int, bool) { return RecordImportance, true }
func (RecordDoc) sealed() {}

// CustomerID returns the customer_id copied from the row.
func (d RecordDoc) CustomerID() int64 { return d.customerID }

func (d RecordDoc) Metadata() map[string]any {
	return map[string]any{
		MetaSource:     SourceRecord,
		MetaImportance: RecordImportance,
		MetaCustomerID: d.customerID,
	}
}

// PageDoc is a page of an unstructured document, or a chunk of one.
// It never carries importance or customer_id.
type PageDoc struct {
	text  string
	file  string
	page  int
	chunk int
}

// NewPageDoc builds an unsplit page document. Pages are numbered from 1.
func NewPageDoc(text, file string, page int) PageDoc {
	return PageDoc{text: text, file: file, page: page, chunk: -1}
}

// WithChunk returns a chunk of d holding text, numbered from 0.
func (d PageDoc) WithChunk(text string, index int) PageDoc {
	return PageDoc{text: text, file: d.file, page: d.page, chunk: index}
}

func (d PageDoc) ID() string {
	return hashID(KindPage, d.file, strconv.Itoa(d.page), strconv.Itoa(d.chunk), d.text)
}
func (d PageDoc) Kind() DocumentKind { return KindPage }
func (d PageDoc) Text() string { return d.text }
func (d PageDoc) Source() string { return d.file }
func (d PageDoc) Importance() (int, bool) { return 0, false }
func (PageDoc) sealed() {}

// File returns the originating file name.
func (d PageDoc) File() string { return d.file }

// Page returns the 1-based page number.
func (d PageDoc) Page() int { return d.page }

// Chunk returns the chunk index, or -1 for an unsplit page.
func (d PageDoc) Chunk() int { return d.chunk }

func (d PageDoc) Metadata() map[string]any {
	md := map[string]any{
		MetaSource: d.file,
		MetaPage:   d.page,
	}
	if d.chunk >= 0 {
		md[MetaChunk] = d.chunk
	}
	return md
}

// DocumentFromMetadata rebuilds a Document from stored text and metadata.
// The variant is chosen by the source key.
func DocumentFromMetadata(text string, md map[string]any) (Document, error) {
	source, _ := md[MetaSource].(string)
	switch source {
	case "":
		return nil, fmt.Errorf("%w: metadata has no source", ErrInvalidInput)
	case SourceSummary:
		full, _ := md[MetaFullSummary].(string)
		return SummaryDoc{text: text, fullSummary: full}, nil
	case SourceRecord:
		id, ok := toInt64(md[MetaCustomerID])
		if !ok {
			return nil, fmt.Errorf("%w: record without customer_id", ErrInvalidInput)
		}
		return NewRecordDoc(text, id), nil
	default:
		page, _ := toInt64(md[MetaPage])
		chunk := int64(-1)
		if v, ok := toInt64(md[MetaChunk]); ok {
			chunk = v
		}
		return PageDoc{text: text, file: source, page: int(page), chunk: int(chunk)}, nil
	}
}

// SameDocument reports whether a and b are the same document.
func SameDocument(a, b Document) bool {
	return a.ID() == b.ID()
}

func hashID(kind DocumentKind, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(kind))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if math.Trunc(n) != n {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}
