package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title       lipgloss.Style
	Dim         lipgloss.Style
	Status      lipgloss.Style
	StatusError lipgloss.Style
	StatusWarn  lipgloss.Style
	Help        lipgloss.Style
	Main        lipgloss.Style
	PageHeader  lipgloss.Style
	Highlight   lipgloss.Style
	HighlightBg lipgloss.Style
	Rail        lipgloss.Style
	RailActive  lipgloss.Style
	RailVisible lipgloss.Style
	Changing    lipgloss.Style
	Prompt      lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		Dim: lipgloss.NewStyle().Faint(true),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		StatusError: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		StatusWarn: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),
		Help: lipgloss.NewStyle().Faint(true),
		Main: lipgloss.NewStyle(),
		PageHeader: lipgloss.NewStyle().
			Foreground(lipgloss.Color("63")).
			Bold(true),
		Highlight: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true),
		HighlightBg: lipgloss.NewStyle().
			Background(lipgloss.Color("57")).
			Foreground(lipgloss.Color("231")),
		Rail: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			PaddingRight(1),
		RailActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			PaddingRight(1),
		RailVisible: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			PaddingRight(1),
		Changing: lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")),
		Prompt: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),
	}
}
