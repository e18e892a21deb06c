package cli

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/custodia-labs/ragbank/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragbank/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragbank/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragbank/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/ragbank/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
	"github.com/custodia-labs/ragbank/internal/core/ports/driving"
	"github.com/custodia-labs/ragbank/internal/core/services"
	"github.com/custodia-labs/ragbank/internal/normalisers/pdf"
	"github.com/custodia-labs/ragbank/internal/normalisers/tabular"
	"github.com/custodia-labs/ragbank/internal/postprocessors"
)

// Services used by the commands. Tests replace them with mocks.
var (
	settingsService driving.SettingsService
	ragService      driving.RAGService
	customerService driving.CustomerService
)

// closers release wired resources in reverse order.
var closers []func()

// wireSettings and wireRAG build the real services. Tests swap them out.
var (
	wireSettings = defaultWireSettings
	wireRAG      = defaultWireRAG
)

// newEvaluationService builds the evaluation harness around a result writer.
var newEvaluationService = func(w driven.ResultWriter) driving.EvaluationService {
	return services.NewEvaluationService(w)
}

func ensureSettings() error {
	if settingsService != nil {
		return nil
	}
	if err := wireSettings(); err != nil {
		return err
	}
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return nil
}

func ensureRAG(ctx context.Context) error {
	if ragService != nil {
		return nil
	}
	if err := wireRAG(ctx); err != nil {
		return err
	}
	if ragService == nil {
		return errors.New("rag service not configured")
	}
	return nil
}

func defaultWireSettings() error {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return eris.Wrap(err, "open config")
	}
	settingsService = services.NewSettingsService(store, ai.NewProviderChecker())
	return nil
}

func defaultWireRAG(ctx context.Context) error {
	if err := ensureSettings(); err != nil {
		return err
	}
	settings, err := settingsService.Get()
	if err != nil {
		return eris.Wrap(err, "load settings")
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	dir, err := resolveConfigDir()
	if err != nil {
		return err
	}

	store, err := openVectorStore(ctx, settings.Store, dir)
	if err != nil {
		return err
	}
	closers = append(closers, func() {
		if err := store.Close(); err != nil {
			zap.L().Warn("close vector store", zap.Error(err))
		}
	})

	aiServices, err := ai.NewServices(settings)
	if err != nil {
		return err
	}
	closers = append(closers, aiServices.Close)

	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		return eris.Wrap(err, "open prompts")
	}

	splitter, err := postprocessors.DefaultRegistry().
		BuildPipeline(postprocessors.ConfigFromSettings(settings.Pipeline), "chunker")
	if err != nil {
		return eris.Wrap(err, "build splitter pipeline")
	}

	tables := tabular.New()
	index := services.NewIndexService(store, aiServices.Embedding, settings.Store.Collection)
	customers := services.NewCustomerService(tables, settings.Data.CSVPath)

	ragService = services.NewRAGService(*settings, services.RAGDeps{
		State:     settingsService,
		Ingest:    services.NewIngestService(tables, pdf.New(), splitter),
		Index:     index,
		Retriever: services.NewRetrieverService(index),
		Answers:   services.NewAnswerService(aiServices.LLM, prompts, settings.Pipeline.Temperature),
		Customers: customers,
	})
	customerService = customers

	zap.L().Debug("services wired",
		zap.String("store", string(settings.Store.Backend)),
		zap.String("embedding", settings.Embedding.Provider.String()),
		zap.String("llm", settings.LLM.Provider.String()))
	return nil
}

func openVectorStore(ctx context.Context, cfg domain.StoreSettings, dir string) (driven.VectorStore, error) {
	switch cfg.Backend {
	case domain.StoreMemory:
		return memory.NewVectorStore(), nil
	case domain.StorePostgres:
		if cfg.DSN == "" {
			return nil, eris.Wrap(domain.ErrConfiguration, "store.dsn is required for the postgres backend")
		}
		s, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case domain.StoreSQLite:
		s, err := sqlite.NewStore(filepath.Join(dir, "data"))
		if err != nil {
			return nil, eris.Wrap(err, "open sqlite store")
		}
		return s, nil
	default:
		return nil, eris.Wrapf(domain.ErrConfiguration, "unknown store backend %q", cfg.Backend)
	}
}

func resolveConfigDir() (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	return file.DefaultDir()
}

// closeServices releases everything wireRAG opened.
func closeServices() {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	closers = nil
}
