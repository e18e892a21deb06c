package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

func TestBankPalette_KindColoursAreDistinct(t *testing.T) {
	p := BankPalette()

	kinds := map[lipgloss.Color]bool{p.Summary: true, p.Record: true, p.Page: true}
	assert.Len(t, kinds, 3)
	assert.NotEqual(t, p.Caution, p.Fault)
}

func TestPaletteFromEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	assert.Equal(t, BankPalette(), PaletteFromEnv(), "empty NO_COLOR is ignored")

	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, PlainPalette(), PaletteFromEnv())
}

func TestPlainPalette_KeepsLayout(t *testing.T) {
	s := NewStyles(PlainPalette())

	assert.Equal(t, lipgloss.Color(""), s.Palette().Brand)
	assert.True(t, s.Title.GetBold())
	assert.True(t, s.Answer.GetBorderLeft())
	assert.Equal(t, 1, s.InputField.GetPaddingLeft())
}

func TestStyles_Kind(t *testing.T) {
	p := BankPalette()
	s := NewStyles(p)

	assert.Equal(t, lipgloss.TerminalColor(p.Summary), s.Kind(domain.KindSummary).GetForeground())
	assert.True(t, s.Kind(domain.KindSummary).GetBold())
	assert.Equal(t, lipgloss.TerminalColor(p.Record), s.Kind(domain.KindRecord).GetForeground())
	assert.Equal(t, lipgloss.TerminalColor(p.Page), s.Kind(domain.KindPage).GetForeground())
	assert.Equal(t, s.Muted, s.Kind(domain.DocumentKind("other")))
}

func TestStyles_RolesUsePalette(t *testing.T) {
	p := BankPalette()
	s := NewStyles(p)

	assert.Equal(t, lipgloss.TerminalColor(p.Brand), s.Title.GetForeground())
	assert.Equal(t, lipgloss.TerminalColor(p.Brand), s.Selected.GetBackground())
	assert.Equal(t, lipgloss.TerminalColor(p.Fault), s.Error.GetForeground())
	assert.Equal(t, lipgloss.TerminalColor(p.Caution), s.Warning.GetForeground())
	assert.Equal(t, lipgloss.TerminalColor(p.Accent), s.Answer.GetBorderLeftForeground())
	assert.Equal(t, lipgloss.TerminalColor(p.Panel), s.StatusBar.GetBackground())
}

func TestStyles_RenderKeepsText(t *testing.T) {
	s := NewStyles(PlainPalette())

	for name, st := range map[string]lipgloss.Style{
		"title": s.Title, "help": s.Help, "answer": s.Answer, "kind": s.Kind(domain.KindPage),
	} {
		assert.Contains(t, st.Render("saldo medio"), "saldo medio", name)
	}
}
