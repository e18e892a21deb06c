// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/ragbank/internal/core/domain"
)

// AnswerCompleted carries a generated answer back to the model.
type AnswerCompleted struct {
	Answer *domain.Answer
	Err    error
}

// ContextRetrieved carries retrieved context documents back to the model.
type ContextRetrieved struct {
	Query     string
	Documents []domain.Document
	Err       error
}

// IndexStatusLoaded carries the active index description.
type IndexStatusLoaded struct {
	Status domain.IndexStatus
	Err    error
}

// IndexRebuilt is sent when a rebuild finishes.
type IndexRebuilt struct {
	Status domain.IndexStatus
	Err    error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewAsk is the question input and answer view.
	ViewAsk
	// ViewIndex shows the active index and allows a rebuild.
	ViewIndex
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewAsk:
		return "ask"
	case ViewIndex:
		return "index"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals an error that should be displayed.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
