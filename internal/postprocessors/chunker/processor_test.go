package chunker

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.overlap)
		}
		if !reflect.DeepEqual(p.separators, DefaultSeparators) {
			t.Errorf("expected default separators, got %q", p.separators)
		}
	})

	t.Run("custom options", func(t *testing.T) {
		p := New(WithChunkSize(500), WithOverlap(100), WithSeparators("|"))
		if p.chunkSize != 500 || p.overlap != 100 {
			t.Errorf("expected 500/100, got %d/%d", p.chunkSize, p.overlap)
		}
		if !reflect.DeepEqual(p.separators, []string{"|"}) {
			t.Errorf("expected custom separators, got %q", p.separators)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	if New().Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", New().Name())
	}
}

func TestProcessor_Split_RejectsBadSizes(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative overlap", 100, -1},
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := New(WithChunkSize(tc.size), WithOverlap(tc.overlap))
			docs := []domain.Document{domain.NewPageDoc("text", "a.pdf", 1)}
			out, err := p.Split(context.Background(), docs)
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
			if out != nil {
				t.Errorf("expected no output, got %d docs", len(out))
			}
		})
	}
}

func TestProcessor_SplitText_WordOverlap(t *testing.T) {
	p := New(WithChunkSize(10), WithOverlap(5))
	got := p.SplitText("aaaa bbbb cccc dddd")
	want := []string{"aaaa bbbb", "bbbb cccc", "cccc dddd"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestProcessor_SplitText_NoOverlap(t *testing.T) {
	p := New(WithChunkSize(10), WithOverlap(0))
	got := p.SplitText("aaaa bbbb cccc dddd")
	want := []string{"aaaa bbbb", "cccc dddd"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestProcessor_SplitText_FallsBackToCharacters(t *testing.T) {
	p := New(WithChunkSize(4), WithOverlap(1))
	got := p.SplitText("abcdefghij")
	want := []string{"abcd", "defg", "ghij"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestProcessor_SplitText_PrefersParagraphs(t *testing.T) {
	p := New(WithChunkSize(20), WithOverlap(0))
	got := p.SplitText("first paragraph\n\nsecond paragraph")
	want := []string{"first paragraph", "second paragraph"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestProcessor_SplitText_RespectsSize(t *testing.T) {
	p := New(WithChunkSize(50), WithOverlap(10))
	text := strings.Repeat("El banco publica la norma. ", 40)
	for _, c := range p.SplitText(text) {
		if n := utf8.RuneCountInString(c); n > 50 {
			t.Errorf("chunk of %d characters exceeds size: %q", n, c)
		}
	}
}

func TestProcessor_SplitText_ShortTextSingleChunk(t *testing.T) {
	p := New()
	got := p.SplitText("  short page  ")
	if !reflect.DeepEqual(got, []string{"short page"}) {
		t.Errorf("expected single trimmed chunk, got %q", got)
	}
}

func TestProcessor_Split_OnlyPages(t *testing.T) {
	summary, err := domain.NewSummaryDoc(strings.Repeat("x ", 100), nil)
	if err != nil {
		t.Fatal(err)
	}
	record := domain.NewRecordDoc(strings.Repeat("y ", 100), 7)
	page := domain.NewPageDoc("aaaa bbbb cccc dddd", "reg.pdf", 3)

	p := New(WithChunkSize(10), WithOverlap(0))
	out, err := p.Split(context.Background(), []domain.Document{summary, page, record})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("expected 4 documents, got %d", len(out))
	}
	if out[0].ID() != summary.ID() || out[3].ID() != record.ID() {
		t.Error("summary and record documents should pass through unchanged and in place")
	}

	for i, d := range out[1:3] {
		chunk, ok := d.(domain.PageDoc)
		if !ok {
			t.Fatalf("expected PageDoc, got %T", d)
		}
		if chunk.Chunk() != i {
			t.Errorf("expected chunk index %d, got %d", i, chunk.Chunk())
		}
		if chunk.Source() != "reg.pdf" || chunk.Page() != 3 {
			t.Errorf("chunk lost page metadata: %v", chunk.Metadata())
		}
		if _, has := chunk.Importance(); has {
			t.Error("chunk should not carry importance")
		}
	}
}

func TestProcessor_Split_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Split(ctx, []domain.Document{domain.NewPageDoc("x", "a.pdf", 1)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
