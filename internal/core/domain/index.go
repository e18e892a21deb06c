package domain

import (
	"encoding/json"
	"math"
	"reflect"
	"time"
)

// Filter restricts a search to documents whose metadata holds every
// key with an equal value.
type Filter map[string]any

// SummaryFilter selects the summary document.
func SummaryFilter() Filter {
	return Filter{MetaSource: SourceSummary}
}

// Matches reports whether md satisfies the filter. Numbers compare by value
// across Go numeric types and json.Number, so 10, int64(10) and float64(10)
// are equal. Everything else compares strictly: "10" never matches 10.
func (f Filter) Matches(md map[string]any) bool {
	for k, want := range f {
		got, ok := md[k]
		if !ok || !sameValue(got, want) {
			return false
		}
	}
	return true
}

func sameValue(a, b any) bool {
	na, aNum := number(a)
	nb, bNum := number(b)
	if aNum || bNum {
		return aNum && bNum && na == nb
	}
	return reflect.DeepEqual(a, b)
}

// number normalises a numeric value to int64 when it is integral and fits,
// and to float64 otherwise.
func number(v any) (any, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return unsigned(uint64(x)), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return unsigned(x), true
	case float32:
		return float(float64(x)), true
	case float64:
		return float(x), true
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, true
		}
		if f, err := x.Float64(); err == nil {
			return float(f), true
		}
		return nil, false
	}
	return nil, false
}

func unsigned(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}

func float(f float64) any {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f)
	}
	return f
}

// VectorEntry is one embedded document inside a collection.
type VectorEntry struct {
	// Position is the insertion order within the collection.
	Position int

	// Embedding is the vector produced for Document.Text().
	Embedding []float32

	// Document is the embedded document.
	Document Document
}

// ScoredDocument is a search hit.
type ScoredDocument struct {
	Document   Document
	Similarity float64
	Position   int
}

// IndexStatus describes the collection currently served to readers.
type IndexStatus struct {
	// Name is the logical collection name.
	Name string

	// Collection is the physical versioned collection, empty before the first build.
	Collection string

	// Documents is the number of entries in the active collection.
	Documents int

	// Fingerprint is the settings fingerprint the index was built with.
	Fingerprint string

	// BuiltAt is when the active collection was swapped in.
	BuiltAt time.Time
}

// Ready reports whether a collection is active.
func (s IndexStatus) Ready() bool {
	return s.Collection != ""
}
