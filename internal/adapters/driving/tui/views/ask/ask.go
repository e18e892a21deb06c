// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragbank/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragbank/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/ragbank/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragbank/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragbank/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragbank/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driving"
)

// View represents the ask view with input, answer panel, citations and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	list      *list.CitationList
	statusbar *status.Bar

	rag driving.RAGService
	ctx context.Context

	answer     *domain.Answer
	lastQuery  string
	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true = typing a question, false = browsing citations
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, rag driving.RAGService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		list:       list.NewCitationList(s),
		statusbar:  status.NewBar(s, km),
		rag:        rag,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerCompleted:
		v.handleAnswer(msg)
		return v, nil

	case messages.ContextRetrieved:
		v.handleContext(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		switch {
		case keymap.Matches(msg.String(), v.keymap.Ask):
			return v, v.submit(v.ask)
		case keymap.Matches(msg.String(), v.keymap.Retrieve):
			return v, v.submit(v.retrieve)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case keymap.Matches(msg.String(), v.keymap.Up):
		v.list.MoveUp()
	case keymap.Matches(msg.String(), v.keymap.Down):
		v.list.MoveDown()
	case keymap.Matches(msg.String(), v.keymap.NewQuestion):
		v.focusInput = true
		v.input.Reset()
		v.statusbar.Clear()
		return v, v.input.Focus()
	}
	return v, nil
}

// submit runs fn against the trimmed question unless it is blank.
func (v *View) submit(fn func(string) tea.Cmd) tea.Cmd {
	question := strings.TrimSpace(v.input.Value())
	if question == "" {
		return nil
	}
	v.lastQuery = question
	v.err = nil
	v.statusbar.SetState(status.StateThinking)
	v.statusbar.SetMessage("")
	return fn(question)
}

func (v *View) ask(question string) tea.Cmd {
	rag, ctx := v.rag, v.ctx
	return func() tea.Msg {
		if rag == nil {
			return messages.ErrorOccurred{Err: ErrNoRAGService}
		}
		answer, err := rag.Ask(ctx, question)
		return messages.AnswerCompleted{Answer: answer, Err: err}
	}
}

func (v *View) retrieve(query string) tea.Cmd {
	rag, ctx := v.rag, v.ctx
	return func() tea.Msg {
		if rag == nil {
			return messages.ErrorOccurred{Err: ErrNoRAGService}
		}
		docs, err := rag.Retrieve(ctx, query)
		return messages.ContextRetrieved{Query: query, Documents: docs, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.answer = msg.Answer
	var citations []domain.Document
	if msg.Answer != nil {
		citations = msg.Answer.Citations
	}
	v.showCitations(citations)
}

func (v *View) handleContext(msg messages.ContextRetrieved) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.answer = nil
	v.showCitations(msg.Documents)
	v.statusbar.SetMessage("context only")
}

func (v *View) showCitations(docs []domain.Document) {
	v.list.SetDocuments(docs)
	v.statusbar.SetState(status.StateAnswered)
	v.statusbar.SetMessage("")
	v.statusbar.SetCitationCount(len(docs))
	v.focusInput = false
	v.input.Blur()
}

func (v *View) setError(err error) {
	if err == nil {
		return
	}
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	sections = append(sections, v.styles.Title.Render("ragbank"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.answer != nil {
		width := v.width - 4
		if width < 20 {
			width = 20
		}
		sections = append(sections, v.styles.Answer.Width(width).Render(v.answer.Text), "")
	}

	sections = append(sections, v.list.View(), "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-12)
	v.statusbar.SetWidth(width)
}

// Reset clears the question, answer and citations.
func (v *View) Reset() {
	v.input.Reset()
	v.list.SetDocuments(nil)
	v.statusbar.Clear()
	v.answer = nil
	v.err = nil
	v.lastQuery = ""
	v.focusInput = true
}

// Answer returns the last generated answer.
func (v *View) Answer() *domain.Answer {
	return v.answer
}

// Citations returns the documents currently listed.
func (v *View) Citations() []domain.Document {
	return v.list.Documents()
}

// LastQuery returns the last submitted question.
func (v *View) LastQuery() string {
	return v.lastQuery
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// InputFocused reports whether keystrokes go to the question input.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}
