package ui

import (
	"sync"

	"folio/internal/domain"
	"folio/internal/viewer/scene"
)

// sceneState is the geometry shared between the Bubble Tea model and the
// navigation core. Navigation runs its delayed steps on timer goroutines,
// so the core never touches the viewport model directly: it writes a
// desired offset here and the model reconciles on its next tick.
type sceneState struct {
	mu sync.Mutex

	offset        float64 // offset the model last applied
	desiredOffset float64 // offset the core asked for
	animate       bool    // step toward desiredOffset instead of jumping
	viewHeight    int
	contentHeight int
	currentFile   domain.FileKey
	railOffset    int
	highlights    map[domain.PageRef]bool
}

func newSceneState() *sceneState {
	return &sceneState{highlights: make(map[domain.PageRef]bool)}
}

func (s *sceneState) setViewport(viewHeight, contentHeight int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewHeight = viewHeight
	s.contentHeight = contentHeight
	s.desiredOffset = s.clampLocked(s.desiredOffset)
	s.offset = s.clampLocked(s.offset)
}

func (s *sceneState) setCurrentFile(file domain.FileKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentFile = file
}

func (s *sceneState) shownFile() domain.FileKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentFile
}

func (s *sceneState) currentOffset() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

func (s *sceneState) requestOffset(offset float64, animate bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.desiredOffset = s.clampLocked(offset)
	s.animate = animate
}

// reconcile advances the applied offset toward the desired one and returns
// it. Animated requests move a fraction of the remaining distance per call
// so the viewport glides; immediate requests jump.
func (s *sceneState) reconcile() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offset == s.desiredOffset {
		return s.offset
	}
	if !s.animate {
		s.offset = s.desiredOffset
		return s.offset
	}
	delta := s.desiredOffset - s.offset
	step := delta / 3
	if step > -1 && step < 1 {
		s.offset = s.desiredOffset
	} else {
		s.offset += step
	}
	return s.offset
}

func (s *sceneState) setHighlight(ref domain.PageRef, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		s.highlights[ref] = true
	} else {
		delete(s.highlights, ref)
	}
}

func (s *sceneState) highlighted(ref domain.PageRef) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highlights[ref]
}

func (s *sceneState) setRailOffset(offset int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.railOffset = offset
}

func (s *sceneState) currentRailOffset() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.railOffset
}

func (s *sceneState) clampLocked(offset float64) float64 {
	max := float64(s.contentHeight - s.viewHeight)
	if max < 0 {
		max = 0
	}
	if offset > max {
		offset = max
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

// pageTarget is one rendered page block inside the stacked document view.
// Geometry is in content-line coordinates shared with the container.
type pageTarget struct {
	ref   domain.PageRef
	state *sceneState
	top   int
	lines int
}

func newPageTarget(ref domain.PageRef, state *sceneState, top, lines int) *pageTarget {
	return &pageTarget{ref: ref, state: state, top: top, lines: lines}
}

func (t *pageTarget) Ref() domain.PageRef { return t.ref }

func (t *pageTarget) Bounds() domain.Rect {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()
	// Pages of a file that is not laid out are parked far off screen so
	// visibility scans never count them.
	if t.state.currentFile != t.ref.File {
		return domain.Rect{Top: -1e9, Height: 1}
	}
	return domain.Rect{Top: float64(t.top), Height: float64(t.lines)}
}

// setPlacement moves the block after a relayout (resize, file reorder)
func (t *pageTarget) setPlacement(top, lines int) {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()
	t.top = top
	t.lines = lines
}

func (t *pageTarget) ScrollIntoView(opts domain.ScrollOptions) {
	t.state.mu.Lock()
	top, lines := t.top, t.lines
	viewHeight := t.state.viewHeight
	t.state.mu.Unlock()

	offset := float64(top)
	if !opts.AlignToTop {
		offset = float64(top) - float64(viewHeight-lines)/2
	}
	t.state.requestOffset(offset, opts.Behavior == domain.ScrollSmooth)
}

func (t *pageTarget) Highlight(on bool) {
	t.state.setHighlight(t.ref, on)
}

// viewerContainer exposes the main document viewport to the navigation core
type viewerContainer struct {
	state *sceneState
}

func newViewerContainer(state *sceneState) *viewerContainer {
	return &viewerContainer{state: state}
}

func (c *viewerContainer) Bounds() domain.Rect {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	return domain.Rect{Top: c.state.offset, Height: float64(c.state.viewHeight)}
}

func (c *viewerContainer) ScrollOffset() float64 {
	return c.state.currentOffset()
}

func (c *viewerContainer) SetScrollOffset(offset float64, animate bool) {
	c.state.requestOffset(offset, animate)
}

// railContainer mirrors the main viewport onto the thumbnail rail, which
// shows one row per page. Offsets arrive in content-line coordinates and
// are mapped to rail rows.
type railContainer struct {
	state      *sceneState
	blockLines int
}

func newRailContainer(state *sceneState, blockLines int) *railContainer {
	if blockLines < 1 {
		blockLines = 1
	}
	return &railContainer{state: state, blockLines: blockLines}
}

func (c *railContainer) Bounds() domain.Rect {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	return domain.Rect{Top: float64(c.state.railOffset), Height: float64(c.state.viewHeight)}
}

func (c *railContainer) ScrollOffset() float64 {
	return float64(c.state.currentRailOffset())
}

func (c *railContainer) SetScrollOffset(offset float64, _ bool) {
	c.state.setRailOffset(int(offset) / c.blockLines)
}

var (
	_ scene.Target    = (*pageTarget)(nil)
	_ scene.Container = (*viewerContainer)(nil)
	_ scene.Container = (*railContainer)(nil)
)
