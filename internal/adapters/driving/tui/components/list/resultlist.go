// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragbank/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragbank/internal/core/domain"
)

// CitationList displays context documents in a navigable list.
type CitationList struct {
	docs     []domain.Document
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewCitationList creates a new citation list component.
func NewCitationList(s *styles.Styles) *CitationList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &CitationList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (c *CitationList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (c *CitationList) Update(msg tea.Msg) (*CitationList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			c.MoveUp()
		case "down", "j":
			c.MoveDown()
		}
	}
	return c, nil
}

// View renders the list.
func (c *CitationList) View() string {
	if len(c.docs) == 0 {
		return c.styles.Muted.Render("No context")
	}

	lines := make([]string, 0, len(c.docs)*2+2)

	header := c.styles.Subtitle.Render(fmt.Sprintf("Context (%d)", len(c.docs)))
	lines = append(lines, header, "")

	// Each document takes two lines plus a spacer
	visibleCount := (c.height - 4) / 3
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if c.selected >= visibleCount {
		start = c.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(c.docs) {
		end = len(c.docs)
	}

	for i := start; i < end; i++ {
		lines = append(lines, c.renderDocument(i, c.docs[i]))
	}

	return strings.Join(lines, "\n")
}

// renderDocument formats a single document with a preview line.
func (c *CitationList) renderDocument(index int, doc domain.Document) string {
	indicator := "  "
	if index == c.selected {
		indicator = "> "
	}

	title := Label(doc)

	var titleLine string
	if index == c.selected {
		titleLine = c.styles.Selected.Render(fmt.Sprintf("%s[%d] %s", indicator, index+1, title))
	} else {
		titleLine = c.styles.Normal.Render(fmt.Sprintf("%s[%d] %s  ", indicator, index+1, title)) +
			c.styles.Kind(doc.Kind()).Render(string(doc.Kind()))
	}

	maxPreviewLen := c.width - 6
	if maxPreviewLen < 20 {
		maxPreviewLen = 20
	}
	preview := truncate(strings.Join(strings.Fields(doc.Text()), " "), maxPreviewLen)

	return titleLine + "\n" + c.styles.Muted.Render("    "+preview)
}

// Label names a document for display.
func Label(doc domain.Document) string {
	switch d := doc.(type) {
	case domain.SummaryDoc:
		return "Resumen del CSV"
	case domain.RecordDoc:
		return fmt.Sprintf("Cliente %d", d.CustomerID())
	case domain.PageDoc:
		if d.Chunk() >= 0 {
			return fmt.Sprintf("%s p.%d #%d", d.File(), d.Page(), d.Chunk())
		}
		return fmt.Sprintf("%s p.%d", d.File(), d.Page())
	default:
		return doc.Source()
	}
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

// SetDocuments updates the list.
func (c *CitationList) SetDocuments(docs []domain.Document) {
	c.docs = docs
	c.selected = 0
}

// Documents returns the current documents.
func (c *CitationList) Documents() []domain.Document {
	return c.docs
}

// Selected returns the index of the selected document.
func (c *CitationList) Selected() int {
	return c.selected
}

// SelectedDocument returns the currently selected document, or nil if none.
func (c *CitationList) SelectedDocument() domain.Document {
	if len(c.docs) == 0 || c.selected < 0 || c.selected >= len(c.docs) {
		return nil
	}
	return c.docs[c.selected]
}

// MoveUp moves selection up.
func (c *CitationList) MoveUp() {
	if c.selected > 0 {
		c.selected--
	}
}

// MoveDown moves selection down.
func (c *CitationList) MoveDown() {
	if c.selected < len(c.docs)-1 {
		c.selected++
	}
}

// SetDimensions sets the component dimensions.
func (c *CitationList) SetDimensions(width, height int) {
	c.width = width
	c.height = height
}

// Count returns the number of documents.
func (c *CitationList) Count() int {
	return len(c.docs)
}

// IsEmpty returns whether the list is empty.
func (c *CitationList) IsEmpty() bool {
	return len(c.docs) == 0
}
