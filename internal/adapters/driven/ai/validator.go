package ai

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ProviderChecker)(nil)

// DefaultCheckTimeout bounds one provider round trip.
const DefaultCheckTimeout = 5 * time.Second

// checkPhrase is embedded to confirm the model answers with vectors of
// the width the index is built with.
const checkPhrase = "saldo medio de los clientes activos"

// ProviderChecker verifies settings against the live provider before they
// are saved. Settings that are not complete yet, such as a missing API key,
// pass without a request.
type ProviderChecker struct {
	timeout       time.Duration
	newEmbeddings func(*domain.EmbeddingSettings) (driven.EmbeddingService, error)
	newLLM        func(*domain.LLMSettings) (driven.LLMService, error)
}

// CheckerOption configures a ProviderChecker.
type CheckerOption func(*ProviderChecker)

// WithCheckTimeout overrides DefaultCheckTimeout.
func WithCheckTimeout(d time.Duration) CheckerOption {
	return func(c *ProviderChecker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewProviderChecker builds adapters through the package factories.
func NewProviderChecker(opts ...CheckerOption) *ProviderChecker {
	c := &ProviderChecker{
		timeout:       DefaultCheckTimeout,
		newEmbeddings: CreateEmbeddingService,
		newLLM:        CreateLLMService,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ValidateEmbedding embeds a short phrase and checks the vector width
// against the model's known dimensions.
func (c *ProviderChecker) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	if settings == nil {
		return nil
	}
	svc, err := c.newEmbeddings(settings)
	if err != nil {
		return eris.Wrapf(err, "embedding provider %s", settings.Provider)
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	vec, err := svc.Embed(ctx, checkPhrase)
	if err != nil {
		return eris.Wrapf(domain.ErrEmbeddingUnavailable, "%s/%s: %v. %s",
			settings.Provider, settings.Model, err, settingsHint)
	}
	if want := svc.Dimensions(); want > 0 && len(vec) != want {
		return eris.Wrapf(domain.ErrConfiguration, "%s returned %d-dimensional vectors, expected %d",
			svc.ModelName(), len(vec), want)
	}

	zap.L().Debug("embedding provider reachable",
		zap.String("provider", string(settings.Provider)),
		zap.String("model", svc.ModelName()),
		zap.Int("dimensions", len(vec)))
	return nil
}

// ValidateLLM pings the generation provider.
func (c *ProviderChecker) ValidateLLM(settings *domain.LLMSettings) error {
	if settings == nil {
		return nil
	}
	svc, err := c.newLLM(settings)
	if err != nil {
		return eris.Wrapf(err, "LLM provider %s", settings.Provider)
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return eris.Wrapf(domain.ErrLLMUnavailable, "%s/%s: %v. %s",
			settings.Provider, settings.Model, err, settingsHint)
	}

	zap.L().Debug("LLM provider reachable",
		zap.String("provider", string(settings.Provider)),
		zap.String("model", svc.ModelName()))
	return nil
}
