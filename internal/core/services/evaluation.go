package services

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
	"github.com/custodia-labs/ragbank/internal/core/ports/driving"
	"github.com/custodia-labs/ragbank/internal/metrics"
)

// Ensure EvaluationService implements the interface.
var _ driving.EvaluationService = (*EvaluationService)(nil)

// EvaluationService scores answers and runs question suites.
type EvaluationService struct {
	writer driven.ResultWriter
	now    func() time.Time
}

// NewEvaluationService creates an evaluation service. writer may be nil
// when results are not persisted.
func NewEvaluationService(writer driven.ResultWriter) *EvaluationService {
	return &EvaluationService{
		writer: writer,
		now:    time.Now,
	}
}

// Evaluate computes every metric for one answer.
func (s *EvaluationService) Evaluate(question, answer, reference, sourceText string) domain.Scores {
	rouge := metrics.Rouge(answer, reference)
	return domain.Scores{
		BLEU:            metrics.BLEU(answer, reference),
		Rouge1:          rouge.Rouge1,
		Rouge2:          rouge.Rouge2,
		RougeL:          rouge.RougeL,
		SourceRelevance: metrics.SourceRelevance(question, sourceText),
	}
}

// RunSuite asks each question in order. A failing question is logged and
// skipped. Only a cancelled context stops the run early; the records
// gathered so far are returned with the context error.
func (s *EvaluationService) RunSuite(
	ctx context.Context, asker driving.Asker, cases []domain.QuestionCase,
) ([]domain.EvaluationRecord, error) {
	records := make([]domain.EvaluationRecord, 0, len(cases))
	for i, c := range cases {
		if err := ctx.Err(); err != nil {
			return records, eris.Wrapf(err, "evaluation stopped before question %d", i+1)
		}

		log := zap.L().With(zap.Int("question", i+1), zap.String("text", c.Question))
		start := s.now()

		answer, err := asker.Ask(ctx, c.Question)
		if err != nil {
			log.Warn("question failed", zap.Error(err))
			continue
		}

		source, content := domain.DefaultSource, ""
		if doc, ok := answer.PrimarySource(); ok {
			source = doc.Source()
			content = domain.Excerpt(doc.Text())
		}
		scores := s.Evaluate(c.Question, answer.Text, c.Reference, content)

		rec := domain.EvaluationRecord{
			Timestamp:       start,
			Question:        c.Question,
			Answer:          answer.Text,
			ReferenceAnswer: c.Reference,
			Source:          source,
			SourceContent:   content,
			Scores:          scores,
			ResponseTime:    s.now().Sub(start),
		}
		records = append(records, rec)

		log.Info("question evaluated",
			zap.Float64("bleu", scores.BLEU),
			zap.Float64("rouge_l", scores.RougeL),
			zap.Float64("source_relevance", scores.SourceRelevance),
			zap.Duration("response_time", rec.ResponseTime))
	}
	return records, nil
}

// Save writes records to path through the configured result writer.
func (s *EvaluationService) Save(path string, records []domain.EvaluationRecord) error {
	if s.writer == nil {
		return eris.Wrap(domain.ErrConfiguration, "no result writer configured")
	}
	if err := s.writer.Write(path, records); err != nil {
		return eris.Wrapf(err, "write results to %s", path)
	}
	return nil
}

// questionFile is the on-disk layout of a question set.
type questionFile struct {
	Questions []domain.QuestionCase `yaml:"questions"`
}

// LoadQuestionCases parses a YAML question set of the form
//
//	questions:
//	  - question: ¿Cuántos clientes hay?
//	    reference: 10000
func LoadQuestionCases(r io.Reader) ([]domain.QuestionCase, error) {
	var f questionFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if eris.Is(err, io.EOF) {
			return nil, eris.Wrap(domain.ErrDataFormat, "question file is empty")
		}
		return nil, eris.Wrapf(domain.ErrDataFormat, "parse question file: %v", err)
	}
	if len(f.Questions) == 0 {
		return nil, eris.Wrap(domain.ErrDataFormat, "question file has no questions")
	}
	for i := range f.Questions {
		f.Questions[i].Question = strings.TrimSpace(f.Questions[i].Question)
		f.Questions[i].Reference = strings.TrimSpace(f.Questions[i].Reference)
		if f.Questions[i].Question == "" {
			return nil, eris.Wrapf(domain.ErrDataFormat, "question %d is empty", i+1)
		}
	}
	return f.Questions, nil
}

// LoadQuestionFile reads a YAML question set from path.
func LoadQuestionFile(path string) ([]domain.QuestionCase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(domain.ErrDataFormat, "open question file: %v", err)
	}
	defer f.Close()
	return LoadQuestionCases(f)
}
