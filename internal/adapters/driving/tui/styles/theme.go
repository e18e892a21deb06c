// Package styles holds the colours and lipgloss styles of the terminal UI.
package styles

import (
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

// Palette names colours by the role they play on screen.
type Palette struct {
	Brand   lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Dim     lipgloss.Color
	Panel   lipgloss.Color
	Caution lipgloss.Color
	Fault   lipgloss.Color

	// Context documents are tagged by origin.
	Summary lipgloss.Color
	Record  lipgloss.Color
	Page    lipgloss.Color
}

// BankPalette is the default dark palette.
func BankPalette() Palette {
	return Palette{
		Brand:   "#2563EB",
		Accent:  "#14B8A6",
		Text:    "#E2E8F0",
		Dim:     "#64748B",
		Panel:   "#020617",
		Caution: "#EAB308",
		Fault:   "#EF4444",
		Summary: "#A78BFA",
		Record:  "#38BDF8",
		Page:    "#F59E0B",
	}
}

// PlainPalette has no colours; styles keep only weight and layout.
func PlainPalette() Palette {
	return Palette{}
}

// PaletteFromEnv honours NO_COLOR (https://no-color.org).
func PaletteFromEnv() Palette {
	if os.Getenv("NO_COLOR") != "" {
		return PlainPalette()
	}
	return BankPalette()
}

// Styles are the rendered roles shared by every view.
type Styles struct {
	palette Palette

	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
	Warning    lipgloss.Style
	InputField lipgloss.Style
	Answer     lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style

	kinds map[domain.DocumentKind]lipgloss.Style
}

// NewStyles derives every style from p.
func NewStyles(p Palette) *Styles {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

	return &Styles{
		palette:  p,
		Title:    fg(p.Brand).Bold(true),
		Subtitle: fg(p.Accent).Bold(true),
		Normal:   fg(p.Text),
		Muted:    fg(p.Dim),
		Selected: fg(p.Text).Background(p.Brand).Bold(true),
		Error:    fg(p.Fault),
		Warning:  fg(p.Caution),
		Help:     fg(p.Dim).Italic(true),
		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Dim).
			Padding(0, 1),
		Answer: fg(p.Text).
			BorderStyle(lipgloss.ThickBorder()).
			BorderLeft(true).
			BorderForeground(p.Accent).
			PaddingLeft(1),
		StatusBar: fg(p.Dim).Background(p.Panel).Padding(0, 1),
		kinds: map[domain.DocumentKind]lipgloss.Style{
			domain.KindSummary: fg(p.Summary).Bold(true),
			domain.KindRecord:  fg(p.Record),
			domain.KindPage:    fg(p.Page),
		},
	}
}

// DefaultStyles uses PaletteFromEnv.
func DefaultStyles() *Styles {
	return NewStyles(PaletteFromEnv())
}

// Palette returns the colours the styles were built from.
func (s *Styles) Palette() Palette {
	return s.palette
}

// Kind styles the origin tag of a context document. Unknown kinds are muted.
func (s *Styles) Kind(k domain.DocumentKind) lipgloss.Style {
	if st, ok := s.kinds[k]; ok {
		return st
	}
	return s.Muted
}
