package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

// mockSplitter is a test splitter that returns predefined documents.
type mockSplitter struct {
	name string
	docs []domain.Document
	err  error
	seen int
}

func (m *mockSplitter) Name() string {
	return m.name
}

func (m *mockSplitter) Split(_ context.Context, docs []domain.Document) ([]domain.Document, error) {
	m.seen = len(docs)
	if m.err != nil {
		return nil, m.err
	}
	if m.docs != nil {
		return m.docs, nil
	}
	return docs, nil
}

func pages(n int) []domain.Document {
	out := make([]domain.Document, n)
	for i := range out {
		out[i] = domain.NewPageDoc("text", "a.pdf", i+1)
	}
	return out
}

func TestNewPipeline(t *testing.T) {
	p := NewPipeline()
	if p == nil {
		t.Fatal("expected non-nil pipeline")
	}
	if p.Len() != 0 {
		t.Errorf("expected 0 splitters, got %d", p.Len())
	}
	if p.Name() != "pipeline" {
		t.Errorf("expected name 'pipeline', got %q", p.Name())
	}
}

func TestPipeline_Add(t *testing.T) {
	p := NewPipeline()
	p.Add(&mockSplitter{name: "test"})

	if p.Len() != 1 {
		t.Errorf("expected 1 splitter, got %d", p.Len())
	}
}

func TestPipeline_Split_EmptyPipeline(t *testing.T) {
	in := pages(2)
	out, err := NewPipeline().Split(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("expected documents unchanged, got %d", len(out))
	}
}

func TestPipeline_Split_MultipleSplitters(t *testing.T) {
	first := &mockSplitter{name: "first", docs: pages(3)}
	second := &mockSplitter{name: "second", docs: pages(5)}

	out, err := NewPipeline(first, second).Split(context.Background(), pages(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.seen != 3 {
		t.Errorf("second splitter should receive first output, got %d docs", second.seen)
	}
	if len(out) != 5 {
		t.Errorf("expected 5 documents, got %d", len(out))
	}
}

func TestPipeline_Split_SplitterError(t *testing.T) {
	expectedErr := errors.New("splitter failed")
	after := &mockSplitter{name: "after"}

	p := NewPipeline(&mockSplitter{name: "failing", err: expectedErr}, after)

	_, err := p.Split(context.Background(), pages(1))
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected wrapped error, got: %v", err)
	}
	if after.seen != 0 {
		t.Error("splitters after a failure should not run")
	}
}
