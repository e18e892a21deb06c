// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"github.com/rotisserie/eris"

	localembed "github.com/custodia-labs/ragbank/internal/adapters/driven/embedding/local"
	ollamaembed "github.com/custodia-labs/ragbank/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ragbank/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/ragbank/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/ragbank/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/ragbank/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
)

// settingsHint is appended to provider errors.
const settingsHint = "Run 'ragbank settings show' to check the configuration"

// Services holds the AI adapters used by the pipeline.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
}

// Close releases all resources held by Services.
func (s *Services) Close() {
	if s.Embedding != nil {
		_ = s.Embedding.Close()
	}
	if s.LLM != nil {
		_ = s.LLM.Close()
	}
}

// NewServices creates both adapters from settings without contacting the
// providers. Unreachable providers surface on first use.
func NewServices(settings *domain.AppSettings) (*Services, error) {
	embedding, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, eris.Wrapf(domain.ErrEmbeddingUnavailable, "%v. %s", err, settingsHint)
	}
	if embedding == nil {
		return nil, eris.Wrapf(domain.ErrEmbeddingUnavailable, "embedding provider %q not configured. %s",
			settings.Embedding.Provider, settingsHint)
	}

	llm, err := CreateLLMService(&settings.LLM)
	if err != nil {
		_ = embedding.Close()
		return nil, eris.Wrapf(domain.ErrLLMUnavailable, "%v. %s", err, settingsHint)
	}
	if llm == nil {
		_ = embedding.Close()
		return nil, eris.Wrapf(domain.ErrLLMUnavailable, "LLM provider %q not configured. %s",
			settings.LLM.Provider, settingsHint)
	}

	return &Services{Embedding: embedding, LLM: llm}, nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, eris.Wrap(domain.ErrUnsupportedType, "anthropic does not support embeddings, use local, ollama or openai")
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderLocal:
		return localembed.NewEmbeddingService(domain.EmbeddingDimensions()[settings.Model]), nil

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: domain.EmbeddingDimensions()[settings.Model],
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: domain.EmbeddingDimensions()[settings.Model],
		})

	default:
		return nil, eris.Wrapf(domain.ErrUnsupportedType, "embedding provider %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, eris.Wrapf(domain.ErrUnsupportedType, "LLM provider %s", settings.Provider)
	}
}
