package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driving"
)

// Ensure RAGService implements the interfaces.
var (
	_ driving.RAGService = (*RAGService)(nil)
	_ driving.Asker      = (*RAGService)(nil)
)

// IndexStateStore records which settings the current index was built with.
// driving.SettingsService satisfies it.
type IndexStateStore interface {
	IndexState() (fingerprint string, builtAt time.Time)
	RecordIndexBuild(fingerprint string, builtAt time.Time) error
}

// RAGService wires ingestion, indexing, retrieval and answering into the
// question answering system.
type RAGService struct {
	settings  domain.AppSettings
	state     IndexStateStore
	ingest    *IngestService
	index     driving.IndexService
	retriever driving.Retriever
	answers   driving.AnswerService
	customers *CustomerService

	// buildMu serialises rebuilds; readers are never blocked by it.
	buildMu sync.Mutex
}

// RAGDeps are the collaborators of a RAGService.
type RAGDeps struct {
	State     IndexStateStore
	Ingest    *IngestService
	Index     driving.IndexService
	Retriever driving.Retriever
	Answers   driving.AnswerService
	Customers *CustomerService
}

// NewRAGService creates the orchestrator for settings. State and Customers
// may be nil.
func NewRAGService(settings domain.AppSettings, deps RAGDeps) *RAGService {
	return &RAGService{
		settings:  settings,
		state:     deps.State,
		ingest:    deps.Ingest,
		index:     deps.Index,
		retriever: deps.Retriever,
		answers:   deps.Answers,
		customers: deps.Customers,
	}
}

// Initialize ingests every source and builds the index from scratch.
func (s *RAGService) Initialize(ctx context.Context) (domain.IndexStatus, error) {
	return s.Rebuild(ctx)
}

// Ask retrieves context for question and generates an answer.
// Asking before the first build returns domain.ErrIndexUnavailable.
func (s *RAGService) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, &domain.AnswerGenerationError{
			Question: question,
			Err:      eris.Wrap(domain.ErrInvalidInput, "empty question"),
		}
	}

	docs, err := s.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	return s.answers.Answer(ctx, question, docs)
}

// Retrieve returns the context documents the tiered retriever selects for query.
func (s *RAGService) Retrieve(ctx context.Context, query string) ([]domain.Document, error) {
	if strings.TrimSpace(query) == "" {
		return nil, eris.Wrap(domain.ErrInvalidInput, "empty query")
	}
	return s.retriever.Retrieve(ctx, query)
}

// Rebuild re-ingests every source and atomically replaces the index.
func (s *RAGService) Rebuild(ctx context.Context) (domain.IndexStatus, error) {
	if err := s.settings.Validate(); err != nil {
		return domain.IndexStatus{}, eris.Wrap(err, "rebuild")
	}

	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	result, err := s.ingest.Ingest(ctx, s.settings.Data, s.settings.Pipeline.SampleSize)
	if err != nil {
		return domain.IndexStatus{}, err
	}

	status, err := s.index.Build(ctx, result.Documents)
	if err != nil {
		return domain.IndexStatus{}, eris.Wrap(err, "build index")
	}

	status.Fingerprint = s.settings.Fingerprint()
	if s.state != nil {
		if err := s.state.RecordIndexBuild(status.Fingerprint, status.BuiltAt); err != nil {
			zap.L().Warn("record index build", zap.Error(err))
		}
	}
	if s.customers != nil {
		s.customers.Use(result.Table)
	}

	zap.L().Info("index rebuilt",
		zap.String("collection", status.Collection),
		zap.Int("documents", status.Documents),
		zap.Int("records", result.Records),
		zap.Int("pages", result.Pages),
		zap.String("fingerprint", status.Fingerprint))
	return status, nil
}

// EnsureIndex rebuilds only when no index is active or the settings
// fingerprint differs from the one recorded at the last build.
func (s *RAGService) EnsureIndex(ctx context.Context) (domain.IndexStatus, error) {
	status, err := s.Status(ctx)
	if err != nil {
		return domain.IndexStatus{}, err
	}
	want := s.settings.Fingerprint()
	if status.Ready() && status.Fingerprint == want {
		return status, nil
	}

	reason := "no active index"
	if status.Ready() {
		reason = "settings changed"
	}
	zap.L().Info("rebuilding index", zap.String("reason", reason),
		zap.String("recorded", status.Fingerprint), zap.String("current", want))
	return s.Rebuild(ctx)
}

// Status describes the active index.
func (s *RAGService) Status(ctx context.Context) (domain.IndexStatus, error) {
	status, err := s.index.Status(ctx)
	if err != nil {
		return domain.IndexStatus{}, eris.Wrap(err, "index status")
	}
	if s.state != nil && status.Ready() {
		status.Fingerprint, status.BuiltAt = s.state.IndexState()
	}
	return status, nil
}

// Settings returns the settings the service was built with.
func (s *RAGService) Settings() domain.AppSettings {
	return s.settings
}
