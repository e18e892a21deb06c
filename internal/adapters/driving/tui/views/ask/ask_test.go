package ask

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbank/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragbank/internal/core/domain"
)

// MockRAGService implements driving.RAGService for testing.
type MockRAGService struct {
	AskFunc      func(ctx context.Context, question string) (*domain.Answer, error)
	RetrieveFunc func(ctx context.Context, query string) ([]domain.Document, error)
}

func (m *MockRAGService) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	if m.AskFunc != nil {
		return m.AskFunc(ctx, question)
	}
	return &domain.Answer{Question: question}, nil
}

func (m *MockRAGService) Retrieve(ctx context.Context, query string) ([]domain.Document, error) {
	if m.RetrieveFunc != nil {
		return m.RetrieveFunc(ctx, query)
	}
	return nil, nil
}

func (m *MockRAGService) Rebuild(_ context.Context) (domain.IndexStatus, error) {
	return domain.IndexStatus{}, nil
}

func (m *MockRAGService) EnsureIndex(_ context.Context) (domain.IndexStatus, error) {
	return domain.IndexStatus{}, nil
}

func (m *MockRAGService) Status(_ context.Context) (domain.IndexStatus, error) {
	return domain.IndexStatus{}, nil
}

func testCitations() []domain.Document {
	return []domain.Document{
		domain.NewRecordDoc("customer_id: 15634602\nbalance: 0.0", 15634602),
		domain.NewPageDoc("Artículo 4. Riesgo de crédito.", "normativa.pdf", 3),
	}
}

func typeQuestion(v *View, q string) {
	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(q)})
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, nil)

	require.NotNil(t, v)
	assert.NotNil(t, v.styles)
	assert.NotNil(t, v.keymap)
	assert.True(t, v.InputFocused())
	assert.False(t, v.Ready())
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_WindowSize(t *testing.T) {
	v := NewView(nil, nil, nil)

	_, cmd := v.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	assert.Nil(t, cmd)
	assert.True(t, v.Ready())
	assert.Equal(t, 100, v.width)
}

func TestView_EscGoesToMenu(t *testing.T) {
	v := NewView(nil, nil, nil)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_EnterBlankDoesNothing(t *testing.T) {
	v := NewView(nil, nil, &MockRAGService{})
	typeQuestion(v, "   ")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Empty(t, v.LastQuery())
}

func TestView_Ask(t *testing.T) {
	var asked string
	rag := &MockRAGService{
		AskFunc: func(_ context.Context, question string) (*domain.Answer, error) {
			asked = question
			return &domain.Answer{Question: question, Text: "Hay 5 clientes.", Citations: testCitations()}, nil
		},
	}
	v := NewView(nil, nil, rag)
	v.SetDimensions(100, 40)
	typeQuestion(v, "¿Cuántos clientes hay?")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, "¿Cuántos clientes hay?", asked)

	v.Update(msg)

	require.NotNil(t, v.Answer())
	assert.Equal(t, "Hay 5 clientes.", v.Answer().Text)
	assert.Len(t, v.Citations(), 2)
	assert.False(t, v.InputFocused())
	out := v.View()
	assert.Contains(t, out, "Hay 5 clientes.")
	assert.Contains(t, out, "Cliente 15634602")
	assert.Contains(t, out, "2 sources")
}

func TestView_AskError(t *testing.T) {
	rag := &MockRAGService{
		AskFunc: func(_ context.Context, _ string) (*domain.Answer, error) {
			return nil, domain.ErrIndexUnavailable
		},
	}
	v := NewView(nil, nil, rag)
	v.SetDimensions(100, 40)
	typeQuestion(v, "hola")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(cmd())

	assert.ErrorIs(t, v.Err(), domain.ErrIndexUnavailable)
	assert.Nil(t, v.Answer())
	assert.True(t, v.InputFocused())
	assert.Contains(t, v.View(), "Error:")
}

func TestView_RetrieveOnly(t *testing.T) {
	rag := &MockRAGService{
		RetrieveFunc: func(_ context.Context, _ string) ([]domain.Document, error) {
			return testCitations(), nil
		},
	}
	v := NewView(nil, nil, rag)
	v.SetDimensions(100, 40)
	typeQuestion(v, "riesgo")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	msg := cmd()
	retrieved, ok := msg.(messages.ContextRetrieved)
	require.True(t, ok)
	assert.Equal(t, "riesgo", retrieved.Query)

	v.Update(msg)

	assert.Nil(t, v.Answer())
	assert.Len(t, v.Citations(), 2)
	assert.Contains(t, v.View(), "context only")
}

func TestView_NoService(t *testing.T) {
	v := NewView(nil, nil, nil)
	typeQuestion(v, "hola")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg := cmd()

	assert.Equal(t, messages.ErrorOccurred{Err: ErrNoRAGService}, msg)
	v.Update(msg)
	assert.ErrorIs(t, v.Err(), ErrNoRAGService)
}

func TestView_NavigateAndNewQuestion(t *testing.T) {
	v := NewView(nil, nil, &MockRAGService{})
	v.SetDimensions(100, 40)
	v.Update(messages.AnswerCompleted{Answer: &domain.Answer{Text: "ok", Citations: testCitations()}})
	require.False(t, v.InputFocused())

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 1, v.list.Selected())
	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 0, v.list.Selected())

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	assert.True(t, v.InputFocused())
	assert.Empty(t, v.input.Value())
}

func TestView_ErrorOccurred(t *testing.T) {
	v := NewView(nil, nil, nil)

	v.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, v.Err(), "boom")
}

func TestView_Reset(t *testing.T) {
	v := NewView(nil, nil, &MockRAGService{})
	v.Update(messages.AnswerCompleted{Answer: &domain.Answer{Text: "ok", Citations: testCitations()}})

	v.Reset()

	assert.Nil(t, v.Answer())
	assert.Empty(t, v.Citations())
	assert.True(t, v.InputFocused())
	assert.NoError(t, v.Err())
}
