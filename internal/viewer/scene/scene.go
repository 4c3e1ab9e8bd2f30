// Package scene defines the minimal contract between the navigation core and
// whatever actually draws pages on screen. The core never touches rendering;
// it only reads geometry and asks for scroll positions.
package scene

import "folio/internal/domain"

// Target is a page's on-screen render container. Targets are created
// asynchronously by the rendering subsystem and may be torn down and
// recreated at any time.
type Target interface {
	// Ref identifies the page this target renders
	Ref() domain.PageRef
	// Bounds returns the target's extent in shared scroll coordinates
	Bounds() domain.Rect
	// ScrollIntoView asks the target to bring itself into the viewport
	ScrollIntoView(opts domain.ScrollOptions)
	// Highlight toggles the transient active marker on the page
	Highlight(on bool)
}

// Container is a scrollable viewport holding render targets
type Container interface {
	// Bounds returns the currently visible region in scroll coordinates
	Bounds() domain.Rect
	// ScrollOffset returns the current scroll position
	ScrollOffset() float64
	// SetScrollOffset moves the viewport; animate requests a smooth scroll
	// where the host supports one
	SetScrollOffset(offset float64, animate bool)
}
