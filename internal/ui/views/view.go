package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RailEntry is one row of the page rail
type RailEntry struct {
	Page    int
	Active  bool // most visible page
	Current bool // last navigated page
	Ratio   float64
}

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width         int
	Height        int
	FileName      string
	FileIndex     int
	FileCount     int
	CurrentPage   int
	ActivePage    int
	TotalPages    int
	FileChanging  bool
	StatusMessage string
	StatusIsError bool
	Content       string
	Rail          []RailEntry
	RailOffset    int
	GotoActive    bool
	GotoView      string
	HelpView      string
	ShowStatusBar bool
}

// Renderer handles all view rendering
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a new renderer
func NewRenderer(styles *Styles) *Renderer {
	return &Renderer{styles: styles}
}

// Render produces the full screen for the given state
func (r *Renderer) Render(s ViewState) string {
	var b strings.Builder

	b.WriteString(r.renderHeader(s))
	b.WriteString("\n")

	rail := r.renderRail(s)
	body := lipgloss.JoinHorizontal(lipgloss.Top, rail, s.Content)
	b.WriteString(body)
	b.WriteString("\n")

	// The goto prompt lives on the status line, so it forces the line on
	if s.ShowStatusBar || s.GotoActive {
		b.WriteString(r.renderStatusBar(s))
	}
	if s.HelpView != "" {
		b.WriteString("\n")
		b.WriteString(r.styles.Help.Render(s.HelpView))
	}

	return b.String()
}

func (r *Renderer) renderHeader(s ViewState) string {
	name := s.FileName
	if name == "" {
		name = "(no document)"
	}
	header := r.styles.Title.Render(name)
	if s.FileCount > 1 {
		header += r.styles.Dim.Render(fmt.Sprintf("  [%d/%d]", s.FileIndex+1, s.FileCount))
	}
	if s.TotalPages > 0 {
		header += r.styles.Status.Render(fmt.Sprintf("  page %d/%d", s.CurrentPage, s.TotalPages))
		if s.ActivePage != s.CurrentPage {
			header += r.styles.Dim.Render(fmt.Sprintf(" (viewing %d)", s.ActivePage))
		}
	}
	if s.FileChanging {
		header += r.styles.Changing.Render("  switching…")
	}
	return header
}

// renderRail draws the page list column. Only rows from RailOffset down fit
// on screen; the mirror container keeps RailOffset in step with the main
// viewport.
func (r *Renderer) renderRail(s ViewState) string {
	if len(s.Rail) == 0 {
		return ""
	}
	visible := s.Height - 4
	if visible < 1 {
		visible = 1
	}
	start := s.RailOffset
	if start > len(s.Rail)-1 {
		start = len(s.Rail) - 1
	}
	if start < 0 {
		start = 0
	}
	end := start + visible
	if end > len(s.Rail) {
		end = len(s.Rail)
	}

	var rows []string
	for _, e := range s.Rail[start:end] {
		label := fmt.Sprintf("%3d", e.Page)
		switch {
		case e.Current:
			rows = append(rows, r.styles.RailActive.Render("▶"+label))
		case e.Active:
			rows = append(rows, r.styles.RailActive.Render(" "+label))
		case e.Ratio > 0:
			rows = append(rows, r.styles.RailVisible.Render(" "+label))
		default:
			rows = append(rows, r.styles.Rail.Render(" "+label))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (r *Renderer) renderStatusBar(s ViewState) string {
	if s.GotoActive {
		return r.styles.Prompt.Render("go to page: ") + s.GotoView
	}
	if s.StatusMessage == "" {
		return r.styles.Dim.Render("j/k scroll · n/p page · g goto · tab file · o pager · ? help · q quit")
	}
	if s.StatusIsError {
		return r.styles.StatusError.Render(s.StatusMessage)
	}
	return r.styles.Status.Render(s.StatusMessage)
}
