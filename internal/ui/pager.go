package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/noborus/ov/oviewer"
)

// PagerOps runs the ov pager over document content. The Bubble Tea program
// reference is set after program construction; ov needs the terminal to
// itself, so the program is released for the duration of the session.
type PagerOps struct {
	program *tea.Program
}

// NewPagerOps creates a new pager operations instance
func NewPagerOps() *PagerOps {
	return &PagerOps{}
}

// SetProgram attaches the running Bubble Tea program
func (p *PagerOps) SetProgram(program *tea.Program) {
	p.program = program
}

// ShowInPager displays content using the ov pager
func (p *PagerOps) ShowInPager(content string) error {
	if p.program == nil {
		return fmt.Errorf("program not set")
	}

	if err := p.program.ReleaseTerminal(); err != nil {
		return err
	}

	defer func() {
		// Small delay so ov has fully exited before the terminal is restored
		time.Sleep(100 * time.Millisecond)
		_ = p.program.RestoreTerminal()
	}()

	root, err := oviewer.NewRoot(strings.NewReader(content))
	if err != nil {
		return err
	}

	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	configureVimKeyBindings(&config)
	root.SetConfig(config)

	return root.Run()
}

// configureVimKeyBindings adds vim-style movement on top of ov's defaults
func configureVimKeyBindings(config *oviewer.Config) {
	if config.Keybind == nil {
		config.Keybind = make(map[string][]string)
	}
	config.Keybind["down"] = append(config.Keybind["down"], "j")
	config.Keybind["up"] = append(config.Keybind["up"], "k")
	config.Keybind["top"] = append(config.Keybind["top"], "g")
	config.Keybind["bottom"] = append(config.Keybind["bottom"], "G")
	config.Keybind["exit"] = append(config.Keybind["exit"], "q")
}
