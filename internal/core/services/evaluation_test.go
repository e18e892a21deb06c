package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

func TestEvaluationService_Evaluate(t *testing.T) {
	svc := NewEvaluationService(nil)

	scores := svc.Evaluate("¿Cuántos clientes hay?", "Hay 10000 clientes", "Hay 10000 clientes", "clientes hay muchos")
	assert.InDelta(t, 1.0, scores.BLEU, 1e-9)
	assert.InDelta(t, 1.0, scores.Rouge1, 1e-9)
	assert.InDelta(t, 1.0, scores.Rouge2, 1e-9)
	assert.InDelta(t, 1.0, scores.RougeL, 1e-9)
	assert.Greater(t, scores.SourceRelevance, 0.0)

	empty := svc.Evaluate("", "", "reference", "")
	assert.Zero(t, empty.BLEU)
	assert.Zero(t, empty.Rouge1)
	assert.Zero(t, empty.SourceRelevance)
}

func TestEvaluationService_RunSuite_ContinuesPastFailures(t *testing.T) {
	summary := summaryDoc(t, "RESUMEN DETALLADO DEL CSV "+strings.Repeat("x", 300))
	var asked []string
	asker := askerFunc(func(_ context.Context, q string) (*domain.Answer, error) {
		asked = append(asked, q)
		switch q {
		case "q2":
			return nil, &domain.AnswerGenerationError{Question: q, Err: errors.New("timeout")}
		case "q1":
			return &domain.Answer{Question: q, Text: "uno", Citations: []domain.Document{summary}}, nil
		default:
			return &domain.Answer{Question: q, Text: "tres"}, nil
		}
	})

	svc := NewEvaluationService(nil)
	tick := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		tick = tick.Add(500 * time.Millisecond)
		return tick
	}

	cases := []domain.QuestionCase{
		{Question: "q1", Reference: "uno"},
		{Question: "q2", Reference: "dos"},
		{Question: "q3", Reference: "tres"},
	}
	recs, err := svc.RunSuite(context.Background(), asker, cases)
	require.NoError(t, err)

	assert.Equal(t, []string{"q1", "q2", "q3"}, asked, "question 3 still runs")
	require.Len(t, recs, 2)

	assert.Equal(t, "q1", recs[0].Question)
	assert.Equal(t, domain.SourceSummary, recs[0].Source)
	assert.Len(t, []rune(recs[0].SourceContent), domain.SourceContentLimit)
	assert.Equal(t, "uno", recs[0].ReferenceAnswer)
	assert.InDelta(t, 1.0, recs[0].BLEU, 1e-9)
	assert.Equal(t, 500*time.Millisecond, recs[0].ResponseTime)

	assert.Equal(t, "q3", recs[1].Question)
	assert.Equal(t, domain.DefaultSource, recs[1].Source)
	assert.Empty(t, recs[1].SourceContent)
}

func TestEvaluationService_RunSuite_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	asker := askerFunc(func(context.Context, string) (*domain.Answer, error) {
		t.Fatal("asker must not be called")
		return nil, nil
	})

	recs, err := NewEvaluationService(nil).RunSuite(ctx, asker, []domain.QuestionCase{{Question: "q"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, recs)
}

func TestEvaluationService_Save(t *testing.T) {
	recs := []domain.EvaluationRecord{{Question: "q1"}}

	assert.ErrorIs(t, NewEvaluationService(nil).Save("out.csv", recs), domain.ErrConfiguration)

	w := &recordingWriter{}
	require.NoError(t, NewEvaluationService(w).Save("out.csv", recs))
	assert.Equal(t, "out.csv", w.path)
	assert.Equal(t, recs, w.records)

	w.err = errors.New("read-only")
	assert.Error(t, NewEvaluationService(w).Save("out.csv", recs))
}

func TestLoadQuestionCases(t *testing.T) {
	input := `
questions:
  - question: ¿Cuántos clientes únicos hay?
    reference: 10000
  - question: "  What is the churn rate?  "
    reference: "20.37%"
  - question: ¿Saldo medio?
`
	cases, err := LoadQuestionCases(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, cases, 3)
	assert.Equal(t, domain.QuestionCase{Question: "¿Cuántos clientes únicos hay?", Reference: "10000"}, cases[0])
	assert.Equal(t, "What is the churn rate?", cases[1].Question)
	assert.Empty(t, cases[2].Reference)
}

func TestLoadQuestionCases_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"no questions":   "questions: []\n",
		"blank question": "questions:\n  - question: ''\n    reference: x\n",
		"not yaml":       "questions: [unterminated\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadQuestionCases(strings.NewReader(input))
			assert.ErrorIs(t, err, domain.ErrDataFormat)
		})
	}
}

func TestLoadQuestionFile_Missing(t *testing.T) {
	_, err := LoadQuestionFile(t.TempDir() + "/missing.yaml")
	assert.ErrorIs(t, err, domain.ErrDataFormat)
}
