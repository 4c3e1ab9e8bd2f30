package locator

import (
	"folio/internal/domain"
	"folio/internal/viewer/scene"
)

// Strategy is one way of resolving a page to its render target. Strategies
// are tried in order; the first non-nil result wins. A nil result means
// "not ready yet", never a hard error.
type Strategy struct {
	Name string
	Find func(ref domain.PageRef) scene.Target
}
