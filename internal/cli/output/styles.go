package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles used for text output.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Code    lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
}

// NewStyles builds styles bound to w. Without a terminal every style
// renders plain text.
func NewStyles(w io.Writer, isTTY bool) *Styles {
	r := lipgloss.NewRenderer(w)
	if !isTTY {
		r.SetColorProfile(termenv.Ascii)
	}

	return &Styles{
		Header1: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2: r.NewStyle().Bold(true),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		Success: r.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")),
		Code:    r.NewStyle().Foreground(lipgloss.Color("14")),

		StatusSuccess: r.NewStyle().Foreground(lipgloss.Color("10")).SetString("✓"),
		StatusFailed:  r.NewStyle().Foreground(lipgloss.Color("9")).SetString("✗"),
	}
}
