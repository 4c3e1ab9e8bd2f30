package ui

import (
	"testing"

	"github.com/stretchr/testify/require"

	"folio/internal/domain"
)

func TestSceneReconcileJumpsWhenNotAnimated(t *testing.T) {
	s := newSceneState()
	s.setViewport(10, 100)

	s.requestOffset(40, false)
	require.Equal(t, 40.0, s.reconcile())
}

func TestSceneReconcileGlidesWhenAnimated(t *testing.T) {
	s := newSceneState()
	s.setViewport(10, 100)

	s.requestOffset(30, true)
	first := s.reconcile()
	require.Greater(t, first, 0.0)
	require.Less(t, first, 30.0)

	// Repeated reconciles converge on the requested offset
	for i := 0; i < 50; i++ {
		s.reconcile()
	}
	require.Equal(t, 30.0, s.currentOffset())
}

func TestSceneOffsetClampedToContent(t *testing.T) {
	s := newSceneState()
	s.setViewport(10, 30)

	s.requestOffset(500, false)
	require.Equal(t, 20.0, s.reconcile())

	s.requestOffset(-5, false)
	require.Equal(t, 0.0, s.reconcile())
}

func TestPageTargetBoundsParkedWhenFileNotShown(t *testing.T) {
	s := newSceneState()
	s.setViewport(10, 100)
	s.setCurrentFile("a.txt")

	shown := newPageTarget(domain.PageRef{File: "a.txt", Page: 2}, s, 25, 25)
	hidden := newPageTarget(domain.PageRef{File: "b.txt", Page: 1}, s, 0, 25)

	require.Equal(t, domain.Rect{Top: 25, Height: 25}, shown.Bounds())

	container := newViewerContainer(s)
	require.Equal(t, 0.0, hidden.Bounds().OverlapRatio(container.Bounds()))
}

func TestPageTargetScrollIntoViewAlignsTop(t *testing.T) {
	s := newSceneState()
	s.setViewport(10, 100)
	s.setCurrentFile("a.txt")

	target := newPageTarget(domain.PageRef{File: "a.txt", Page: 3}, s, 50, 25)
	target.ScrollIntoView(domain.ScrollOptions{Behavior: domain.ScrollInstant, AlignToTop: true})

	require.Equal(t, 50.0, s.reconcile())
}

func TestPageTargetScrollIntoViewCenters(t *testing.T) {
	s := newSceneState()
	s.setViewport(20, 100)
	s.setCurrentFile("a.txt")

	target := newPageTarget(domain.PageRef{File: "a.txt", Page: 3}, s, 50, 10)
	target.ScrollIntoView(domain.ScrollOptions{Behavior: domain.ScrollInstant, AlignToTop: false})

	// Centered: top minus half the free space
	require.Equal(t, 45.0, s.reconcile())
}

func TestHighlightToggle(t *testing.T) {
	s := newSceneState()
	ref := domain.PageRef{File: "a.txt", Page: 1}
	target := newPageTarget(ref, s, 0, 25)

	require.False(t, s.highlighted(ref))
	target.Highlight(true)
	require.True(t, s.highlighted(ref))
	target.Highlight(false)
	require.False(t, s.highlighted(ref))
}

func TestRailContainerMapsLinesToRows(t *testing.T) {
	s := newSceneState()
	s.setViewport(10, 100)
	rail := newRailContainer(s, 25)

	rail.SetScrollOffset(75, false)
	require.Equal(t, 3, s.currentRailOffset())
	require.Equal(t, 75.0, rail.ScrollOffset()*25)
}
