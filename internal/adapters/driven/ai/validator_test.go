package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
)

// fakeEmbedder returns vectors of a fixed width regardless of what it claims.
type fakeEmbedder struct {
	claimed  int
	returned int
	err      error
	texts    []string
	closed   bool
	deadline bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.texts = append(f.texts, text)
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	return make([]float32, f.returned), nil
}

func (f *fakeEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) { return nil, nil }
func (f *fakeEmbedder) Dimensions() int                                           { return f.claimed }
func (f *fakeEmbedder) ModelName() string                                         { return "fake-embed" }
func (f *fakeEmbedder) Ping(context.Context) error                                { return nil }
func (f *fakeEmbedder) Close() error                                              { f.closed = true; return nil }

type fakeLLM struct {
	pingErr error
	closed  bool
}

func (f *fakeLLM) Generate(context.Context, string, driven.GenerateOptions) (string, error) {
	return "", nil
}
func (f *fakeLLM) Chat(context.Context, []driven.ChatMessage, driven.ChatOptions) (string, error) {
	return "", nil
}
func (f *fakeLLM) ModelName() string          { return "fake-llm" }
func (f *fakeLLM) Ping(context.Context) error { return f.pingErr }
func (f *fakeLLM) Close() error               { f.closed = true; return nil }

func checkerWith(emb driven.EmbeddingService, llm driven.LLMService) *ProviderChecker {
	c := NewProviderChecker()
	c.newEmbeddings = func(*domain.EmbeddingSettings) (driven.EmbeddingService, error) { return emb, nil }
	c.newLLM = func(*domain.LLMSettings) (driven.LLMService, error) { return llm, nil }
	return c
}

var ollamaEmbedding = &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text"}

func TestProviderChecker_EmbeddingWidth(t *testing.T) {
	emb := &fakeEmbedder{claimed: 768, returned: 768}
	require.NoError(t, checkerWith(emb, nil).ValidateEmbedding(ollamaEmbedding))
	assert.Equal(t, []string{checkPhrase}, emb.texts)
	assert.True(t, emb.deadline, "request is bounded")
	assert.True(t, emb.closed)

	wrong := &fakeEmbedder{claimed: 768, returned: 384}
	err := checkerWith(wrong, nil).ValidateEmbedding(ollamaEmbedding)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "384-dimensional vectors, expected 768")

	unknown := &fakeEmbedder{returned: 99}
	assert.NoError(t, checkerWith(unknown, nil).ValidateEmbedding(ollamaEmbedding), "unknown width is accepted")
}

func TestProviderChecker_EmbeddingUnreachable(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("connection refused")}

	err := checkerWith(emb, nil).ValidateEmbedding(ollamaEmbedding)

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, err.Error(), settingsHint)
	assert.True(t, emb.closed)
}

func TestProviderChecker_IncompleteSettingsSkipRequest(t *testing.T) {
	c := NewProviderChecker()

	assert.NoError(t, c.ValidateEmbedding(nil))
	assert.NoError(t, c.ValidateEmbedding(&domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI}))
	assert.NoError(t, c.ValidateLLM(nil))
	assert.NoError(t, c.ValidateLLM(&domain.LLMSettings{Provider: domain.AIProviderAnthropic}))
}

func TestProviderChecker_RejectsAnthropicEmbeddings(t *testing.T) {
	err := NewProviderChecker().ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderAnthropic,
		APIKey:   "sk-ant",
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestProviderChecker_LocalEmbedderMatchesItsModel(t *testing.T) {
	err := NewProviderChecker().ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderLocal,
		Model:    "hashing-384",
	})
	assert.NoError(t, err)
}

func TestProviderChecker_LLM(t *testing.T) {
	settings := &domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3"}

	ok := &fakeLLM{}
	require.NoError(t, checkerWith(nil, ok).ValidateLLM(settings))
	assert.True(t, ok.closed)

	down := &fakeLLM{pingErr: errors.New("503")}
	err := checkerWith(nil, down).ValidateLLM(settings)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, err.Error(), "ollama/llama3")
	assert.True(t, down.closed)
}

func TestWithCheckTimeout(t *testing.T) {
	assert.Equal(t, DefaultCheckTimeout, NewProviderChecker(WithCheckTimeout(0)).timeout)
	assert.Equal(t, time.Second, NewProviderChecker(WithCheckTimeout(time.Second)).timeout)
}
