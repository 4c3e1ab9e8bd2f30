package ui

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"folio/internal/config"
	"folio/internal/document"
	"folio/internal/domain"
	"folio/internal/eventbus"
	"folio/internal/logic"
	"folio/internal/ui/views"
	"folio/internal/viewer/coordinator"
	"folio/internal/viewer/scene"
)

const (
	tickInterval   = 50 * time.Millisecond
	rendersPerTick = 2
	railWidth      = 6
)

// keyMap defines the key bindings for the viewer
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	HalfUp   key.Binding
	HalfDown key.Binding
	NextPage key.Binding
	PrevPage key.Binding
	Goto     key.Binding
	NextFile key.Binding
	Pager    key.Binding
	Rebuild  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "scroll up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "scroll down")),
		HalfUp:   key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "half page up")),
		HalfDown: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "half page down")),
		NextPage: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next page")),
		PrevPage: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous page")),
		Goto:     key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "go to page")),
		NextFile: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next file")),
		Pager:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open in pager")),
		Rebuild:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rebuild observers")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.NextPage, k.PrevPage, k.Goto, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Down, k.Up, k.HalfDown, k.HalfUp},
		{k.NextPage, k.PrevPage, k.Goto, k.NextFile},
		{k.Pager, k.Rebuild, k.Help, k.Quit},
	}
}

// Model is the Bubble Tea model for the viewer
type Model struct {
	coord  *coordinator.Coordinator
	store  logic.DocumentStore
	loader *document.Loader
	bus    eventbus.EventBus
	cfg    *config.Config

	scene   *sceneState
	targets map[domain.PageRef]*pageTarget
	pending []domain.PageRef

	viewport  viewport.Model
	gotoInput textinput.Model
	helpModel help.Model
	keys      keyMap
	styles    *views.Styles
	renderer  *views.Renderer
	pager     *PagerOps

	width  int
	height int
	ready  bool

	initialPaths []string
	shownFile    domain.FileKey
	gotoActive   bool
	showHelp     bool
	status       string
	statusError  bool
}

// NewModel creates the viewer model and wires the scene into the coordinator
func NewModel(cfg *config.Config, coord *coordinator.Coordinator, store logic.DocumentStore,
	loader *document.Loader, bus eventbus.EventBus, pager *PagerOps, paths []string) *Model {

	ti := textinput.New()
	ti.Placeholder = "page"
	ti.CharLimit = 6
	ti.Width = 8

	styles := views.NewStyles()
	state := newSceneState()

	m := &Model{
		coord:        coord,
		store:        store,
		loader:       loader,
		bus:          bus,
		cfg:          cfg,
		scene:        state,
		targets:      make(map[domain.PageRef]*pageTarget),
		gotoInput:    ti,
		helpModel:    help.New(),
		keys:         defaultKeyMap(),
		styles:       styles,
		renderer:     views.NewRenderer(styles),
		pager:        pager,
		initialPaths: paths,
	}

	coord.SetScene(newViewerContainer(state), newRailContainer(state, m.blockLines()))
	coord.Locator.SetPositionalFallback(func(ref domain.PageRef) scene.Target {
		if t := m.positionalTarget(ref); t != nil {
			return t
		}
		return nil
	})

	return m
}

// blockLines is the height of one page block: a header row plus the page body
func (m *Model) blockLines() int {
	return m.cfg.Viewer.PageHeight + 1
}

// positionalTarget derives a target from layout math for pages of the file
// currently on screen. It covers pages the renderer has not reported yet.
// It runs on navigation timer goroutines, so the shown file is read from
// the mutex-guarded scene state, never from the model.
func (m *Model) positionalTarget(ref domain.PageRef) *pageTarget {
	if ref.File != m.scene.shownFile() {
		return nil
	}
	doc := m.store.GetDocument(ref.File)
	if doc == nil || ref.Page < 1 || ref.Page > doc.TotalPages {
		return nil
	}
	block := m.blockLines()
	return newPageTarget(ref, m.scene, (ref.Page-1)*block, block)
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tickCmd()}
	for _, path := range m.initialPaths {
		cmds = append(cmds, m.openFileCmd(path))
	}
	return tea.Batch(cmds...)
}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) openFileCmd(path string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.loader.Load(path)
		return fileOpenedMsg{path: path, err: err}
	}
}

func (m *Model) openPagerCmd() tea.Cmd {
	doc := m.store.GetDocument(m.shownFile)
	if doc == nil {
		return nil
	}
	var b strings.Builder
	for i := 1; i <= doc.TotalPages; i++ {
		if page := m.store.GetPage(doc.Key, i); page != nil {
			b.WriteString(strings.Join(page.Lines, "\n"))
			b.WriteString("\n")
		}
	}
	content := b.String()
	return func() tea.Msg {
		return pagerDoneMsg{err: m.pager.ShowInPager(content)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpWidth := msg.Width - railWidth
		if vpWidth < 10 {
			vpWidth = 10
		}
		vpHeight := msg.Height - 3
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(vpWidth, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = vpWidth
			m.viewport.Height = vpHeight
		}
		m.layoutShownFile()
		m.coord.RebuildObservers()
		return m, nil

	case tickMsg:
		m.renderPendingPages()
		offset := m.scene.reconcile()
		if m.ready {
			m.refreshContent()
			m.viewport.SetYOffset(int(offset))
		}
		m.coord.SyncVisibility()
		return m, m.tickCmd()

	case fileOpenedMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("failed to open %s: %v", msg.path, msg.err), true)
		}
		return m, nil

	case pagerDoneMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("pager error: %v", msg.err), true)
		}
		return m, nil

	case EventMsg:
		return m, m.handleEvent(msg.Event)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleEvent(event eventbus.DomainEvent) tea.Cmd {
	switch e := event.(type) {
	case eventbus.FileLoadedEvent:
		m.onFileLoaded(e)
	case eventbus.FileUnloadedEvent:
		m.onFileUnloaded(e.File)
	case eventbus.FileDiscoveredEvent:
		return m.openFileCmd(e.Path)
	case eventbus.ScanCompletedEvent:
		m.setStatus(fmt.Sprintf("scan finished, %d files found", e.FilesFound), false)
	case eventbus.PageChangedEvent:
		m.setStatus(fmt.Sprintf("page %d (%s)", e.Page, e.By), false)
	case eventbus.ScrollFailedEvent:
		m.setStatus(fmt.Sprintf("could not reach page %d: %s", e.Page, e.Reason), true)
	case eventbus.FileChangingEvent:
		if e.Active {
			m.setStatus("switching file…", false)
		} else if strings.HasPrefix(m.status, "switching") {
			m.setStatus("", false)
		}
	case eventbus.ErrorEvent:
		m.setStatus(e.Message, true)
	}
	return nil
}

func (m *Model) onFileLoaded(e eventbus.FileLoadedEvent) {
	for page := 1; page <= e.TotalPages; page++ {
		m.pending = append(m.pending, domain.PageRef{File: e.File, Page: page})
	}
	if m.shownFile == "" {
		m.showFile(e.File)
	}
	m.setStatus(fmt.Sprintf("loaded %s (%d pages)", e.Name, e.TotalPages), false)
}

func (m *Model) onFileUnloaded(file domain.FileKey) {
	for ref := range m.targets {
		if ref.File == file {
			delete(m.targets, ref)
		}
	}
	if m.shownFile == file {
		if keys := m.store.GetOrderedKeys(); len(keys) > 0 {
			m.showFile(keys[0])
		} else {
			m.shownFile = ""
			m.scene.setCurrentFile("")
			if m.ready {
				m.viewport.SetContent("")
			}
		}
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.gotoActive {
		switch msg.String() {
		case "esc":
			m.gotoActive = false
			m.gotoInput.Reset()
			return m, nil
		case "enter":
			value := strings.TrimSpace(m.gotoInput.Value())
			m.gotoActive = false
			m.gotoInput.Reset()
			page, err := strconv.Atoi(value)
			if err != nil {
				m.setStatus(fmt.Sprintf("not a page number: %q", value), true)
				return m, nil
			}
			if !m.coord.NavigateToPage(page, "", domain.DefaultScrollOptions()) {
				m.setStatus("navigation busy, try again", true)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.gotoInput, cmd = m.gotoInput.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		log.Printf("Quit requested")
		return m, tea.Quit

	case key.Matches(msg, m.keys.Down):
		m.nudgeScroll(1)
	case key.Matches(msg, m.keys.Up):
		m.nudgeScroll(-1)
	case key.Matches(msg, m.keys.HalfDown):
		m.nudgeScroll(m.viewport.Height / 2)
	case key.Matches(msg, m.keys.HalfUp):
		m.nudgeScroll(-m.viewport.Height / 2)

	case key.Matches(msg, m.keys.NextPage):
		m.navigateRelative(1)
	case key.Matches(msg, m.keys.PrevPage):
		m.navigateRelative(-1)

	case key.Matches(msg, m.keys.Goto):
		m.gotoActive = true
		m.gotoInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.NextFile):
		m.switchToNextFile()

	case key.Matches(msg, m.keys.Pager):
		return m, m.openPagerCmd()

	case key.Matches(msg, m.keys.Rebuild):
		m.layoutShownFile()
		m.coord.RebuildObservers()
		m.setStatus("observers rebuilt", false)

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.helpModel.ShowAll = m.showHelp
	}

	return m, nil
}

// nudgeScroll moves the viewport manually. Manual movement goes through the
// same scene state the navigation core uses, so visibility tracking sees it
// on the next sync.
func (m *Model) nudgeScroll(lines int) {
	m.scene.requestOffset(m.scene.currentOffset()+float64(lines), false)
}

func (m *Model) navigateRelative(delta int) {
	if m.shownFile == "" {
		return
	}
	page := m.coord.PageState.CurrentPage(m.shownFile) + delta
	if !m.coord.NavigateToPage(page, "", domain.DefaultScrollOptions()) {
		m.setStatus("navigation busy, try again", true)
	}
}

func (m *Model) switchToNextFile() {
	keys := m.store.GetOrderedKeys()
	if len(keys) < 2 {
		return
	}
	idx := 0
	for i, f := range keys {
		if f == m.shownFile {
			idx = i
			break
		}
	}
	next := keys[(idx+1)%len(keys)]
	page := m.coord.PageState.CurrentPage(next)
	if page < 1 {
		page = 1
	}
	if m.coord.NavigateToPage(page, next, domain.DefaultScrollOptions()) {
		m.showFile(next)
	} else {
		m.setStatus("navigation busy, try again", true)
	}
}

func (m *Model) showFile(file domain.FileKey) {
	m.shownFile = file
	m.scene.setCurrentFile(file)
	m.layoutShownFile()
}

// layoutShownFile recomputes page block geometry for the file on screen and
// moves existing render targets to their new positions.
func (m *Model) layoutShownFile() {
	if m.shownFile == "" || !m.ready {
		return
	}
	doc := m.store.GetDocument(m.shownFile)
	if doc == nil {
		return
	}
	block := m.blockLines()
	for page := 1; page <= doc.TotalPages; page++ {
		ref := domain.PageRef{File: m.shownFile, Page: page}
		if t, ok := m.targets[ref]; ok {
			t.setPlacement((page-1)*block, block)
		}
	}
	m.scene.setViewport(m.viewport.Height, doc.TotalPages*block)
	m.refreshContent()
}

// renderPendingPages completes a few queued page renders per tick so large
// documents come up progressively, the way an async renderer would
func (m *Model) renderPendingPages() {
	for i := 0; i < rendersPerTick && len(m.pending) > 0; i++ {
		ref := m.pending[0]
		m.pending = m.pending[1:]
		doc := m.store.GetDocument(ref.File)
		if doc == nil {
			continue
		}
		block := m.blockLines()
		t := newPageTarget(ref, m.scene, (ref.Page-1)*block, block)
		m.targets[ref] = t
		m.coord.Locator.Register(t)
		m.coord.NotifyRenderComplete(ref.File, ref.Page)
	}
}

// refreshContent rebuilds the stacked page view. Highlights flip on timer
// goroutines, so the content is rebuilt every tick rather than on demand.
func (m *Model) refreshContent() {
	if m.shownFile == "" || !m.ready {
		return
	}
	doc := m.store.GetDocument(m.shownFile)
	if doc == nil {
		return
	}

	pageHeight := m.cfg.Viewer.PageHeight
	var b strings.Builder
	for page := 1; page <= doc.TotalPages; page++ {
		ref := domain.PageRef{File: m.shownFile, Page: page}
		header := fmt.Sprintf("── page %d ──", page)
		if m.scene.highlighted(ref) {
			b.WriteString(m.styles.HighlightBg.Render(header))
		} else if _, rendered := m.targets[ref]; rendered {
			b.WriteString(m.styles.PageHeader.Render(header))
		} else {
			b.WriteString(m.styles.Dim.Render(header + " (rendering)"))
		}
		b.WriteString("\n")

		var lines []string
		if p := m.store.GetPage(doc.Key, page); p != nil {
			lines = p.Lines
		}
		for i := 0; i < pageHeight; i++ {
			if i < len(lines) {
				b.WriteString(lines[i])
			}
			b.WriteString("\n")
		}
	}
	m.viewport.SetContent(strings.TrimSuffix(b.String(), "\n"))
}

func (m *Model) setStatus(message string, isError bool) {
	m.status = message
	m.statusError = isError
}

func (m *Model) View() string {
	if !m.ready {
		return "loading…"
	}

	keys := m.store.GetOrderedKeys()
	state := views.ViewState{
		Width:         m.width,
		Height:        m.height,
		FileCount:     len(keys),
		FileChanging:  m.coord.FileChanging(),
		StatusMessage: m.status,
		StatusIsError: m.statusError,
		Content:       m.viewport.View(),
		RailOffset:    m.scene.currentRailOffset(),
		GotoActive:    m.gotoActive,
		GotoView:      m.gotoInput.View(),
		ShowStatusBar: m.cfg.UISettings.ShowStatusBar,
	}
	if m.showHelp {
		state.HelpView = m.helpModel.View(m.keys)
	}

	if m.shownFile != "" {
		for i, f := range keys {
			if f == m.shownFile {
				state.FileIndex = i
				break
			}
		}
		if doc := m.store.GetDocument(m.shownFile); doc != nil {
			state.FileName = doc.Name
			state.TotalPages = doc.TotalPages
		}
		state.CurrentPage = m.coord.PageState.CurrentPage(m.shownFile)
		state.ActivePage = m.coord.PageState.ActivePage(m.shownFile)
		if m.cfg.UISettings.ShowThumbnails {
			for page := 1; page <= state.TotalPages; page++ {
				ref := domain.PageRef{File: m.shownFile, Page: page}
				state.Rail = append(state.Rail, views.RailEntry{
					Page:    page,
					Active:  page == state.ActivePage,
					Current: page == state.CurrentPage,
					Ratio:   m.coord.Visibility.Ratio(ref),
				})
			}
		}
	}

	return m.renderer.Render(state)
}
