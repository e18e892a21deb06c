package cli

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

func TestAskCmd_PrintsAnswerAndSources(t *testing.T) {
	rag, _, _ := setupTestServices(t)
	page := domain.NewPageDoc("Artículo 5. Requisitos de capital.", "norma.pdf", 3)
	rag.On("EnsureIndex", mock.Anything).Return(readyStatus(), nil)
	rag.On("Ask", mock.Anything, "¿Qué exige el artículo 5?").Return(&domain.Answer{
		Question:  "¿Qué exige el artículo 5?",
		Text:      "Requisitos de capital.",
		Citations: []domain.Document{domain.NewRecordDoc("cliente", 15634602), page},
	}, nil)

	out, err := executeCommand(t, "ask", "¿Qué", "exige", "el", "artículo", "5?")

	require.NoError(t, err)
	assert.Contains(t, out, "Requisitos de capital.")
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "[1] customer 15634602")
	assert.Contains(t, out, "[2] norma.pdf, page 3")
	rag.AssertExpectations(t)
}

func TestAskCmd_JSON(t *testing.T) {
	rag, _, _ := setupTestServices(t)
	rag.On("EnsureIndex", mock.Anything).Return(readyStatus(), nil)
	rag.On("Ask", mock.Anything, "hola").Return(&domain.Answer{
		Question:  "hola",
		Text:      "No lo sé",
		Citations: []domain.Document{domain.NewRecordDoc("cliente", 7)},
	}, nil)

	out, err := executeCommand(t, "ask", "--json", "hola")
	require.NoError(t, err)

	var got answerJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "hola", got.Question)
	assert.Equal(t, "No lo sé", got.Answer)
	require.Len(t, got.Citations, 1)
	assert.Equal(t, string(domain.KindRecord), got.Citations[0].Kind)
}

func TestAskCmd_IndexFailure(t *testing.T) {
	rag, _, _ := setupTestServices(t)
	rag.On("EnsureIndex", mock.Anything).Return(domain.IndexStatus{}, domain.ErrEmbeddingUnavailable)

	_, err := executeCommand(t, "ask", "hola")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	rag.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)
}

func TestAskCmd_RequiresQuestion(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "ask")

	assert.Error(t, err)
}

func TestAskCmd_WiringError(t *testing.T) {
	setupTestServices(t)
	ragService = nil
	wireRAG = func(_ context.Context) error { return errors.New("no store") }

	_, err := executeCommand(t, "ask", "hola")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no store")
}

func TestRetrieveCmd_ListsDocuments(t *testing.T) {
	rag, _, _ := setupTestServices(t)
	rag.On("EnsureIndex", mock.Anything).Return(readyStatus(), nil)
	rag.On("Retrieve", mock.Anything, "capital minimo").Return([]domain.Document{
		domain.NewPageDoc("El capital   mínimo\nes de 10 millones.", "norma.pdf", 1),
	}, nil)

	out, err := executeCommand(t, "retrieve", "capital", "minimo")

	require.NoError(t, err)
	assert.Contains(t, out, "[1] norma.pdf, page 1")
	assert.Contains(t, out, "El capital mínimo es de 10 millones.")
	rag.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)
}

func TestRetrieveCmd_Empty(t *testing.T) {
	rag, _, _ := setupTestServices(t)
	rag.On("EnsureIndex", mock.Anything).Return(readyStatus(), nil)
	rag.On("Retrieve", mock.Anything, "nada").Return([]domain.Document{}, nil)

	out, err := executeCommand(t, "retrieve", "nada")

	require.NoError(t, err)
	assert.Contains(t, out, "No context found.")
}

func TestDescribeDocument(t *testing.T) {
	page := domain.NewPageDoc("texto", "ley.pdf", 2)
	assert.Equal(t, "customer 9", describeDocument(domain.NewRecordDoc("x", 9)))
	assert.Equal(t, "ley.pdf, page 2", describeDocument(page))
	assert.Equal(t, "ley.pdf, page 2, chunk 1", describeDocument(page.WithChunk("tex", 1)))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b c", preview("a\n  b\tc", 10))
	assert.Equal(t, "abc...", preview("abcdef", 3))
	assert.Equal(t, "ñandú", preview("ñandú", 5))
}
