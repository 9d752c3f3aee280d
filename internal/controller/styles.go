package controller

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	m "gooze.dev/pkg/weevil/internal/model"
)

// IsTTY reports whether f is an interactive terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}

type styles struct {
	color    bool
	statuses map[m.MutantStatus]lipgloss.Style
	score    lipgloss.Style
	faint    lipgloss.Style
}

func newStyles(color bool) styles {
	return styles{
		color: color,
		statuses: map[m.MutantStatus]lipgloss.Style{
			m.Killed:       lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
			m.Timeout:      lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
			m.Survived:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
			m.NoCoverage:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
			m.RuntimeError: lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
			m.CompileError: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
			m.Ignored:      lipgloss.NewStyle().Faint(true),
		},
		score: lipgloss.NewStyle().Bold(true),
		faint: lipgloss.NewStyle().Faint(true),
	}
}

func (s styles) status(status m.MutantStatus) string {
	label := status.String()
	if !s.color {
		return label
	}

	style, ok := s.statuses[status]
	if !ok {
		return label
	}

	return style.Render(label)
}

func (s styles) bold(text string) string {
	if !s.color {
		return text
	}

	return s.score.Render(text)
}

func (s styles) dim(text string) string {
	if !s.color {
		return text
	}

	return s.faint.Render(text)
}
