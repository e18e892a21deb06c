// Package index provides the index status view for the TUI.
package index

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragbank/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragbank/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragbank/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driving"
)

// ErrNoRAGService indicates that no question answering service was provided.
var ErrNoRAGService = errors.New("rag service is required")

// View shows the active index and lets the user rebuild it.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	rag    driving.RAGService
	ctx    context.Context

	status     domain.IndexStatus
	loaded     bool
	rebuilding bool
	err        error
	width      int
	height     int
	ready      bool
}

// NewView creates a new index view.
func NewView(s *styles.Styles, km *keymap.KeyMap, rag driving.RAGService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles: s,
		keymap: km,
		rag:    rag,
		ctx:    context.Background(),
		width:  80,
		height: 24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the current index status.
func (v *View) Init() tea.Cmd {
	rag, ctx := v.rag, v.ctx
	return func() tea.Msg {
		if rag == nil {
			return messages.IndexStatusLoaded{Err: ErrNoRAGService}
		}
		st, err := rag.Status(ctx)
		return messages.IndexStatusLoaded{Status: st, Err: err}
	}
}

// Update handles messages for the index view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.IndexStatusLoaded:
		v.loaded = true
		v.err = msg.Err
		if msg.Err == nil {
			v.status = msg.Status
		}

	case messages.IndexRebuilt:
		v.rebuilding = false
		v.err = msg.Err
		if msg.Err == nil {
			v.status = msg.Status
			v.loaded = true
		}

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
		if keymap.Matches(msg.String(), v.keymap.Rebuild) && !v.rebuilding {
			v.rebuilding = true
			v.err = nil
			return v, v.rebuild()
		}
	}
	return v, nil
}

func (v *View) rebuild() tea.Cmd {
	rag, ctx := v.rag, v.ctx
	return func() tea.Msg {
		if rag == nil {
			return messages.IndexRebuilt{Err: ErrNoRAGService}
		}
		st, err := rag.Rebuild(ctx)
		return messages.IndexRebuilt{Status: st, Err: err}
	}
}

// View renders the index status.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Index"))
	b.WriteString("\n\n")

	switch {
	case v.rebuilding:
		b.WriteString(v.styles.Warning.Render("Rebuilding index..."))
		b.WriteString("\n")
	case !v.loaded:
		b.WriteString(v.styles.Muted.Render("Loading..."))
		b.WriteString("\n")
	case !v.status.Ready():
		b.WriteString(v.styles.Warning.Render("No index has been built yet."))
		b.WriteString("\n")
	default:
		v.writeField(&b, "Collection", v.status.Collection)
		v.writeField(&b, "Documents", fmt.Sprintf("%d", v.status.Documents))
		v.writeField(&b, "Fingerprint", v.status.Fingerprint)
		if !v.status.BuiltAt.IsZero() {
			v.writeField(&b, "Built", v.status.BuiltAt.Local().Format(time.DateTime))
		}
	}

	if v.err != nil {
		b.WriteString("\n")
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[r] Rebuild  [esc] Back"))
	return b.String()
}

func (v *View) writeField(b *strings.Builder, label, value string) {
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%-12s", label)))
	b.WriteString(v.styles.Normal.Render(value))
	b.WriteString("\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Status returns the last loaded index status.
func (v *View) Status() domain.IndexStatus {
	return v.status
}

// Rebuilding reports whether a rebuild is in flight.
func (v *View) Rebuilding() bool {
	return v.rebuilding
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
