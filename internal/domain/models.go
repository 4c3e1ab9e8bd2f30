package domain

// FileKey is a stable opaque identifier for a loaded document. It is used
// everywhere instead of direct document references so that consumers never
// hold on to a document's in-memory identity.
type FileKey string

// PageRef identifies a single page of a loaded document
type PageRef struct {
	File FileKey
	Page int // 1-based
}

// Document represents a loaded document
type Document struct {
	Key        FileKey
	Name       string
	Path       string
	TotalPages int
}

// Page represents one paginated chunk of a document
type Page struct {
	File   FileKey
	Number int // 1-based
	Lines  []string
}

// Rect is a vertical extent in shared scroll coordinates. The viewer only
// scrolls on one axis, so geometry is one-dimensional.
type Rect struct {
	Top    float64
	Height float64
}

// Bottom returns the lower edge of the rect
func (r Rect) Bottom() float64 {
	return r.Top + r.Height
}

// Intersects reports whether two rects overlap at all
func (r Rect) Intersects(other Rect) bool {
	return r.Top < other.Bottom() && other.Top < r.Bottom()
}

// OverlapRatio returns the fraction of r that lies inside other, in [0, 1]
func (r Rect) OverlapRatio(other Rect) float64 {
	if r.Height <= 0 {
		return 0
	}
	top := r.Top
	if other.Top > top {
		top = other.Top
	}
	bottom := r.Bottom()
	if other.Bottom() < bottom {
		bottom = other.Bottom()
	}
	if bottom <= top {
		return 0
	}
	return (bottom - top) / r.Height
}

// ScrollBehavior selects animated or immediate scrolling
type ScrollBehavior string

const (
	ScrollSmooth  ScrollBehavior = "smooth"
	ScrollInstant ScrollBehavior = "instant"
)

// ScrollOptions control how a navigation request positions the viewport
type ScrollOptions struct {
	Behavior        ScrollBehavior
	AlignToTop      bool
	HighlightTarget bool
}

// DefaultScrollOptions returns the options used when a caller passes none
func DefaultScrollOptions() ScrollOptions {
	return ScrollOptions{
		Behavior:        ScrollSmooth,
		AlignToTop:      true,
		HighlightTarget: true,
	}
}

// VisibilityRecord is the instantaneous overlap between a page's render
// target and the visible viewport region. Records are overwritten in place,
// never historized.
type VisibilityRecord struct {
	File  FileKey
	Page  int
	Ratio float64 // 0..1
}

// FileNavState holds per-file navigation state. CurrentPage is the page
// explicitly navigated to and may not be visually settled yet; ActivePage is
// the page visibility tracking currently judges most visible. They converge
// once a navigation completes and is verified.
type FileNavState struct {
	File             FileKey
	CurrentPage      int
	ActivePage       int
	TotalPages       int
	LastScrollOffset float64
}
