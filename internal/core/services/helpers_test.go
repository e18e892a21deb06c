package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbank/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/ragbank/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
	"github.com/custodia-labs/ragbank/internal/core/ports/driving"
	"github.com/custodia-labs/ragbank/internal/normalisers/pdf"
	"github.com/custodia-labs/ragbank/internal/normalisers/tabular"
	"github.com/custodia-labs/ragbank/internal/postprocessors/chunker"
)

// --- Fixtures ---

const bankCSV = `customer_id,credit_score,country,gender,age,tenure,balance,products_number,credit_card,active_member,estimated_salary,churn
15634602,619,France,Female,42,2,0,1,1,1,101348.88,1
15647311,608,Spain,Female,41,1,83807.86,1,0,1,112542.58,0
15619304,502,France,Female,42,8,159660.8,3,1,0,113931.57,1
15701354,699,France,Female,39,1,0,2,0,0,93826.63,0
15737888,850,Spain,Female,43,2,125510.82,1,1,1,79084.1,0
`

const regulationText = "Artículo 1. Las entidades de crédito deben evaluar la solvencia del cliente.\n\n" +
	"Artículo 2. El riesgo de crédito se mide con la puntuación crediticia y el saldo." +
	"\fArtículo 3. Los clientes inactivos se revisan cada año."

// writeSources creates a CSV file and a PDF directory with one document.
func writeSources(t *testing.T) domain.DataSettings {
	t.Helper()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "customers.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(bankCSV), 0o600))

	pdfDir := filepath.Join(dir, "pdfs")
	require.NoError(t, os.Mkdir(pdfDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(pdfDir, "normativa.pdf"), []byte("%PDF"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(pdfDir, "notes.txt"), []byte("ignored"), 0o600))

	return domain.DataSettings{CSVPath: csvPath, PDFDir: pdfDir}
}

// fakeRunner stands in for pdftotext and returns canned text per file name.
type fakeRunner struct {
	pages map[string]string
}

func (r fakeRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	// pdftotext ... <file> -
	file := filepath.Base(args[len(args)-2])
	text, ok := r.pages[file]
	if !ok {
		return nil, errors.New("no such pdf")
	}
	return []byte(text), nil
}

func newTestIngest() *IngestService {
	loader := pdf.NewWithRunner(fakeRunner{pages: map[string]string{"normativa.pdf": regulationText}})
	return NewIngestService(tabular.New(), loader, chunker.New(chunker.WithChunkSize(80), chunker.WithOverlap(10)))
}

func summaryDoc(t *testing.T, text string) domain.SummaryDoc {
	t.Helper()
	doc, err := domain.NewSummaryDoc(text, nil)
	require.NoError(t, err)
	return doc
}

// --- Mocks ---

// llmMock is a testify mock of driven.LLMService.
type llmMock struct {
	mock.Mock
}

func (m *llmMock) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	args := m.Called(ctx, prompt, opts)
	return args.String(0), args.Error(1)
}

func (m *llmMock) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	args := m.Called(ctx, messages, opts)
	return args.String(0), args.Error(1)
}

func (m *llmMock) ModelName() string { return "mock-llm" }

func (m *llmMock) Ping(_ context.Context) error { return nil }

func (m *llmMock) Close() error { return nil }

// countingEmbedder wraps the local embedder, recording batch sizes and
// failing on a chosen batch.
type countingEmbedder struct {
	*local.EmbeddingService
	mu        sync.Mutex
	batches   []int
	failBatch int // 1-based; 0 never fails
}

func newCountingEmbedder() *countingEmbedder {
	return &countingEmbedder{EmbeddingService: local.NewEmbeddingService(64)}
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batches = append(e.batches, len(texts))
	n := len(e.batches)
	e.mu.Unlock()
	if e.failBatch > 0 && n == e.failBatch {
		return nil, domain.ErrEmbeddingUnavailable
	}
	return e.EmbeddingService.EmbedBatch(ctx, texts)
}

// failingInsertStore is a memory store whose Insert always fails.
type failingInsertStore struct {
	*memory.VectorStore
}

func (s failingInsertStore) Insert(context.Context, string, []domain.VectorEntry) error {
	return errors.New("disk full")
}

// stubIndex is a driving.IndexService returning canned search results.
type stubIndex struct {
	summary   []domain.Document
	general   []domain.Document
	err       error
	calls     []domain.Filter
	snapshots int
	released  int
}

func (s *stubIndex) Build(context.Context, []domain.Document) (domain.IndexStatus, error) {
	return domain.IndexStatus{}, nil
}

func (s *stubIndex) Search(_ context.Context, _ string, k int, filter domain.Filter) ([]domain.Document, error) {
	s.calls = append(s.calls, filter)
	if s.err != nil {
		return nil, s.err
	}
	docs := s.general
	if filter != nil {
		docs = s.summary
	}
	if len(docs) > k {
		docs = docs[:k]
	}
	return docs, nil
}

func (s *stubIndex) Status(context.Context) (domain.IndexStatus, error) {
	return domain.IndexStatus{}, nil
}

func (s *stubIndex) Snapshot(context.Context) (driving.IndexSnapshot, error) {
	s.snapshots++
	return stubSnapshot{s}, nil
}

// stubSnapshot delegates to its stubIndex and counts releases.
type stubSnapshot struct{ idx *stubIndex }

func (p stubSnapshot) Collection() string { return "stub" }

func (p stubSnapshot) Search(ctx context.Context, query string, k int, filter domain.Filter) ([]domain.Document, error) {
	return p.idx.Search(ctx, query, k, filter)
}

func (p stubSnapshot) Release() { p.idx.released++ }

// stubPrompts is a driven.PromptStore backed by a map.
type stubPrompts map[string]string

func (p stubPrompts) Load(name string) (string, error) {
	v, ok := p[name]
	if !ok {
		return "", errors.New("missing prompt " + name)
	}
	return v, nil
}

func (p stubPrompts) Reload() {}

// askerFunc adapts a function to driving.Asker.
type askerFunc func(ctx context.Context, question string) (*domain.Answer, error)

func (f askerFunc) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	return f(ctx, question)
}

// recordingWriter is a driven.ResultWriter that keeps what it was given.
type recordingWriter struct {
	path    string
	records []domain.EvaluationRecord
	err     error
}

func (w *recordingWriter) Write(path string, records []domain.EvaluationRecord) error {
	w.path = path
	w.records = records
	return w.err
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
