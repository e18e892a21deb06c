package services

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
	"github.com/custodia-labs/ragbank/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyTemperature       = "pipeline.temperature"
	keyChunkSize         = "pipeline.chunk_size"
	keyChunkOverlap      = "pipeline.chunk_overlap"
	keySampleSize        = "pipeline.sample_size"
	keyCSVPath           = "data.csv_path"
	keyPDFDir            = "data.pdf_dir"
	keyStoreBackend      = "store.backend"
	keyStoreDSN          = "store.dsn"
	keyStoreCollection   = "store.collection"
	keyIndexFingerprint  = "index.fingerprint"
	keyIndexBuiltAt      = "index.built_at"
	defaultOllamaBaseURL = "http://localhost:11434"
)

// Environment variables that override stored secrets.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	EnvOpenAIKey    = "RAGBANK_OPENAI_API_KEY"
	EnvAnthropicKey = "RAGBANK_ANTHROPIC_API_KEY"
	EnvPostgresDSN  = "RAGBANK_POSTGRES_DSN"
)

// SettableKeys lists the keys accepted by Set, in display order.
var SettableKeys = []string{
	keyEmbedProvider, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey,
	keyLLMProvider, keyLLMModel, keyLLMBaseURL, keyLLMAPIKey,
	keyTemperature, keyChunkSize, keyChunkOverlap, keySampleSize,
	keyCSVPath, keyPDFDir,
	keyStoreBackend, keyStoreDSN, keyStoreCollection,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// Get retrieves current application settings. Stored values override the
// defaults and RAGBANK_* environment variables override stored secrets.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Pipeline: domain.PipelineSettings{
			Temperature:  s.getFloat(keyTemperature, defaults.Pipeline.Temperature),
			ChunkSize:    s.getInt(keyChunkSize, defaults.Pipeline.ChunkSize),
			ChunkOverlap: s.getInt(keyChunkOverlap, defaults.Pipeline.ChunkOverlap),
			SampleSize:   s.getInt(keySampleSize, defaults.Pipeline.SampleSize),
		},
		Data: domain.DataSettings{
			CSVPath: s.getString(keyCSVPath, defaults.Data.CSVPath),
			PDFDir:  s.getString(keyPDFDir, defaults.Data.PDFDir),
		},
		Store: domain.StoreSettings{
			Backend:    s.getBackend(defaults.Store.Backend),
			DSN:        s.configStore.GetString(keyStoreDSN),
			Collection: s.getString(keyStoreCollection, defaults.Store.Collection),
		},
	}

	// Ollama always needs an endpoint; cloud providers use their SDK default.
	if settings.LLM.Provider == domain.AIProviderOllama && settings.LLM.BaseURL == "" {
		settings.LLM.BaseURL = defaultOllamaBaseURL
	}

	s.applyEnv(settings)
	return settings, nil
}

func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	keys := map[domain.AIProvider]string{
		domain.AIProviderOpenAI:    EnvOpenAIKey,
		domain.AIProviderAnthropic: EnvAnthropicKey,
	}
	if env, ok := keys[settings.Embedding.Provider]; ok {
		if v, set := s.lookupEnv(env); set && v != "" {
			settings.Embedding.APIKey = v
		}
	}
	if env, ok := keys[settings.LLM.Provider]; ok {
		if v, set := s.lookupEnv(env); set && v != "" {
			settings.LLM.APIKey = v
		}
	}
	if v, set := s.lookupEnv(EnvPostgresDSN); set && v != "" {
		settings.Store.DSN = v
	}
}

// Save validates and persists application settings. Invalid settings are
// rejected before anything is written.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return eris.Wrap(err, "validate settings")
	}

	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyTemperature, settings.Pipeline.Temperature},
		{keyChunkSize, settings.Pipeline.ChunkSize},
		{keyChunkOverlap, settings.Pipeline.ChunkOverlap},
		{keySampleSize, settings.Pipeline.SampleSize},
		{keyCSVPath, settings.Data.CSVPath},
		{keyPDFDir, settings.Data.PDFDir},
		{keyStoreBackend, string(settings.Store.Backend)},
		{keyStoreCollection, settings.Store.Collection},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return eris.Wrapf(err, "save %s", v.key)
		}
	}

	// Secrets are only written when present so an env-provided key is not persisted empty.
	secrets := map[string]string{
		keyEmbedAPIKey: settings.Embedding.APIKey,
		keyLLMAPIKey:   settings.LLM.APIKey,
		keyStoreDSN:    settings.Store.DSN,
	}
	for key, value := range secrets {
		if value == "" {
			continue
		}
		if err := s.configStore.Set(key, value); err != nil {
			return eris.Wrapf(err, "save %s", key)
		}
	}
	return nil
}

// Set updates a single setting from its textual value.
func (s *SettingsService) Set(key, value string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	value = strings.TrimSpace(value)

	switch key {
	case keyEmbedProvider:
		settings.Embedding.Provider = domain.AIProvider(value)
		if !settings.Embedding.Provider.IsValid() {
			return eris.Wrapf(domain.ErrConfiguration, "unknown embedding provider %q", value)
		}
	case keyEmbedModel:
		settings.Embedding.Model = value
	case keyEmbedBaseURL:
		settings.Embedding.BaseURL = value
	case keyEmbedAPIKey:
		settings.Embedding.APIKey = value
	case keyLLMProvider:
		settings.LLM.Provider = domain.AIProvider(value)
		if !settings.LLM.Provider.IsValid() {
			return eris.Wrapf(domain.ErrConfiguration, "unknown LLM provider %q", value)
		}
	case keyLLMModel:
		settings.LLM.Model = value
	case keyLLMBaseURL:
		settings.LLM.BaseURL = value
	case keyLLMAPIKey:
		settings.LLM.APIKey = value
	case keyTemperature:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return eris.Wrapf(domain.ErrConfiguration, "%s: %q is not a number", key, value)
		}
		settings.Pipeline.Temperature = f
	case keyChunkSize, keyChunkOverlap, keySampleSize:
		n, err := strconv.Atoi(value)
		if err != nil {
			return eris.Wrapf(domain.ErrConfiguration, "%s: %q is not an integer", key, value)
		}
		switch key {
		case keyChunkSize:
			settings.Pipeline.ChunkSize = n
		case keyChunkOverlap:
			settings.Pipeline.ChunkOverlap = n
		default:
			settings.Pipeline.SampleSize = n
		}
	case keyCSVPath:
		settings.Data.CSVPath = value
	case keyPDFDir:
		settings.Data.PDFDir = value
	case keyStoreBackend:
		settings.Store.Backend = domain.StoreBackend(value)
	case keyStoreDSN:
		settings.Store.DSN = value
	case keyStoreCollection:
		settings.Store.Collection = value
	default:
		return eris.Wrapf(domain.ErrInvalidInput, "unknown setting %q", key)
	}

	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return eris.Wrapf(domain.ErrConfiguration, "invalid embedding provider: %s", provider)
	}

	valid := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return eris.Wrapf(domain.ErrConfiguration, "provider %s does not support embeddings", provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return eris.Wrapf(domain.ErrConfiguration, "API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])

	switch {
	case provider == domain.AIProviderOllama:
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaBaseURL
		}
	default:
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() || provider == domain.AIProviderLocal {
		return eris.Wrapf(domain.ErrConfiguration, "invalid LLM provider: %s", provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return eris.Wrapf(domain.ErrConfiguration, "API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = defaultOllamaBaseURL
		}
	} else {
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// IndexState returns the fingerprint and time of the last successful build.
func (s *SettingsService) IndexState() (string, time.Time) {
	fingerprint := s.configStore.GetString(keyIndexFingerprint)
	builtAt, err := time.Parse(time.RFC3339, s.configStore.GetString(keyIndexBuiltAt))
	if err != nil {
		builtAt = time.Time{}
	}
	return fingerprint, builtAt
}

// RecordIndexBuild stores the fingerprint of a successful build.
func (s *SettingsService) RecordIndexBuild(fingerprint string, builtAt time.Time) error {
	if err := s.configStore.Set(keyIndexFingerprint, fingerprint); err != nil {
		return eris.Wrap(err, "save index fingerprint")
	}
	if err := s.configStore.Set(keyIndexBuiltAt, builtAt.UTC().Format(time.RFC3339)); err != nil {
		return eris.Wrap(err, "save index build time")
	}
	return nil
}

// Helper methods for reading config with defaults.

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt honours a stored zero, which is meaningful for overlap and sample size.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StoreBackend) domain.StoreBackend {
	backend := domain.StoreBackend(s.configStore.GetString(keyStoreBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
