package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderLocal is the in-process hashing embedder. Embeddings only.
	AIProviderLocal AIProvider = "local"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderLocal:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs on the user's machine.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderLocal
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderLocal:
		return "Local hashing embedder (offline)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderLocal {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// Permitted ranges for the pipeline settings.
const (
	MinTemperature  = 0.0
	MaxTemperature  = 1.0
	MinChunkSize    = 500
	MaxChunkSize    = 5000
	MinChunkOverlap = 0
	MaxChunkOverlap = 1000
)

// PipelineSettings controls generation and ingestion. Changing any field
// invalidates the vector index.
type PipelineSettings struct {
	// Temperature is passed to the text-generation capability.
	Temperature float64

	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int

	// ChunkOverlap is the repeated context between consecutive chunks.
	ChunkOverlap int

	// SampleSize limits the number of record documents. 0 means all rows.
	SampleSize int
}

// Validate checks every field against its permitted range.
func (p PipelineSettings) Validate() error {
	if p.Temperature < MinTemperature || p.Temperature > MaxTemperature {
		return fmt.Errorf("%w: temperature %.2f outside [%.0f, %.0f]",
			ErrConfiguration, p.Temperature, MinTemperature, MaxTemperature)
	}
	if p.ChunkSize < MinChunkSize || p.ChunkSize > MaxChunkSize {
		return fmt.Errorf("%w: chunk_size %d outside [%d, %d]",
			ErrConfiguration, p.ChunkSize, MinChunkSize, MaxChunkSize)
	}
	if p.ChunkOverlap < MinChunkOverlap || p.ChunkOverlap > MaxChunkOverlap {
		return fmt.Errorf("%w: chunk_overlap %d outside [%d, %d]",
			ErrConfiguration, p.ChunkOverlap, MinChunkOverlap, MaxChunkOverlap)
	}
	if p.ChunkOverlap >= p.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap %d must be smaller than chunk_size %d",
			ErrConfiguration, p.ChunkOverlap, p.ChunkSize)
	}
	if p.SampleSize < 0 {
		return fmt.Errorf("%w: sample_size %d is negative", ErrConfiguration, p.SampleSize)
	}
	return nil
}

// DataSettings locates the raw sources.
type DataSettings struct {
	// CSVPath is the customer table.
	CSVPath string

	// PDFDir holds the regulatory documents.
	PDFDir string
}

// StoreBackend selects the vector store implementation.
type StoreBackend string

// Available store backends.
const (
	StoreSQLite   StoreBackend = "sqlite"
	StorePostgres StoreBackend = "postgres"
	StoreMemory   StoreBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreSQLite, StorePostgres, StoreMemory:
		return true
	default:
		return false
	}
}

// StoreSettings configures the vector store.
type StoreSettings struct {
	// Backend is the store implementation.
	Backend StoreBackend

	// DSN is the Postgres connection string. Ignored by other backends.
	DSN string

	// Collection is the logical collection name served to readers.
	Collection string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Pipeline  PipelineSettings
	Data      DataSettings
	Store     StoreSettings
}

// Validate checks the settings that the pipeline depends on.
func (s AppSettings) Validate() error {
	if err := s.Pipeline.Validate(); err != nil {
		return err
	}
	if !s.Store.Backend.IsValid() {
		return fmt.Errorf("%w: unknown store backend %q", ErrConfiguration, s.Store.Backend)
	}
	if s.Store.Collection == "" {
		return fmt.Errorf("%w: collection name is empty", ErrConfiguration)
	}
	return nil
}

// Fingerprint identifies the settings that shape the index contents.
// A different fingerprint requires a full re-ingest and reindex.
func (s AppSettings) Fingerprint() string {
	h := sha256.New()
	for _, part := range []string{
		s.Embedding.Provider.String(),
		s.Embedding.Model,
		s.LLM.Model,
		strconv.FormatFloat(s.Pipeline.Temperature, 'f', -1, 64),
		strconv.Itoa(s.Pipeline.ChunkSize),
		strconv.Itoa(s.Pipeline.ChunkOverlap),
		strconv.Itoa(s.Pipeline.SampleSize),
		s.Data.CSVPath,
		s.Data.PDFDir,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:12])
}

// Default pipeline values.
const (
	DefaultTemperature  = 0.1
	DefaultChunkSize    = 2000
	DefaultChunkOverlap = 500
	DefaultSampleSize   = 1000
	DefaultCollection   = "bank_regulations_and_data"
)

// DefaultAppSettings returns settings that run fully offline against a
// local Ollama for generation.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderLocal,
			Model:    DefaultEmbeddingModels()[AIProviderLocal],
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    DefaultLLMModels()[AIProviderOllama],
			BaseURL:  "http://localhost:11434",
		},
		Pipeline: PipelineSettings{
			Temperature:  DefaultTemperature,
			ChunkSize:    DefaultChunkSize,
			ChunkOverlap: DefaultChunkOverlap,
			SampleSize:   DefaultSampleSize,
		},
		Data: DataSettings{
			CSVPath: "data/Bank Customer Churn Prediction.csv",
			PDFDir:  "data/pdfs",
		},
		Store: StoreSettings{
			Backend:    StoreSQLite,
			Collection: DefaultCollection,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderLocal,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderLocal:  "hashing-384",
		AIProviderOllama: "all-minilm",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"hashing-384":            384,
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
