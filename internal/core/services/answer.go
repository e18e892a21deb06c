package services

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
	"github.com/custodia-labs/ragbank/internal/core/ports/driving"
)

// Ensure AnswerService implements the interfaces.
var (
	_ driving.AnswerService   = (*AnswerService)(nil)
	_ driven.PromptStoreAware = (*AnswerService)(nil)
)

// Fallback templates used when no prompt store is set.
const (
	fallbackQAPrompt = "Contexto:\n{context}\n\nPregunta: {question}\n\n" +
		"Responde solo con la información del contexto, en el idioma de la pregunta. " +
		"Si no lo sabes, di \"No lo sé\".\nRespuesta útil:"
	fallbackSummaryLabel = "[RESUMEN DEL CSV]"
)

// AnswerService synthesises an answer from retrieved documents with a
// single call to the text-generation capability.
type AnswerService struct {
	llm         driven.LLMService
	prompts     driven.PromptStore
	temperature float64
}

// NewAnswerService creates an answer service. prompts may be nil.
func NewAnswerService(llm driven.LLMService, prompts driven.PromptStore, temperature float64) *AnswerService {
	return &AnswerService{
		llm:         llm,
		prompts:     prompts,
		temperature: temperature,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *AnswerService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Answer generates the answer to question grounded on docs. Citations are
// docs in the order given.
func (s *AnswerService) Answer(ctx context.Context, question string, docs []domain.Document) (*domain.Answer, error) {
	fail := func(err error) (*domain.Answer, error) {
		return nil, &domain.AnswerGenerationError{Question: question, Err: err}
	}

	if strings.TrimSpace(question) == "" {
		return fail(eris.Wrap(domain.ErrInvalidInput, "empty question"))
	}
	if s.llm == nil {
		return fail(eris.Wrap(domain.ErrLLMUnavailable, "no LLM configured"))
	}

	prompt, err := s.BuildPrompt(question, docs)
	if err != nil {
		return fail(err)
	}

	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: s.temperature})
	if err != nil {
		return fail(eris.Wrapf(err, "generate with %s", s.llm.ModelName()))
	}

	zap.L().Debug("answer generated",
		zap.String("model", s.llm.ModelName()),
		zap.Int("context_docs", len(docs)),
		zap.Int("prompt_chars", len(prompt)))

	return &domain.Answer{
		Question:  question,
		Text:      strings.TrimSpace(text),
		Citations: append([]domain.Document(nil), docs...),
	}, nil
}

// BuildPrompt renders the qa template. Summary documents are placed first
// in the context block under the summary label; the rest keep their order.
func (s *AnswerService) BuildPrompt(question string, docs []domain.Document) (string, error) {
	template, err := s.load(driven.PromptQA, fallbackQAPrompt)
	if err != nil {
		return "", err
	}
	label, err := s.load(driven.PromptSummaryContext, fallbackSummaryLabel)
	if err != nil {
		return "", err
	}

	var summaries, others []string
	for _, d := range docs {
		if d.Kind() == domain.KindSummary {
			summaries = append(summaries, label+"\n"+d.Text())
			continue
		}
		others = append(others, d.Text())
	}
	block := strings.Join(append(summaries, others...), "\n\n")

	return strings.NewReplacer("{context}", block, "{question}", question).Replace(template), nil
}

func (s *AnswerService) load(name, fallback string) (string, error) {
	if s.prompts == nil {
		return fallback, nil
	}
	p, err := s.prompts.Load(name)
	if err != nil {
		return "", eris.Wrapf(err, "load prompt %s", name)
	}
	return p, nil
}
