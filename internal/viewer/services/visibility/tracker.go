package visibility

import (
	"log"
	"math"
	"sync"
	"time"

	"folio/internal/domain"
	"folio/internal/eventbus"
	"folio/internal/viewer/scene"
)

// Tracker maintains the mapping from (file, page) to visibility ratio and
// emits a dominance signal when a page becomes the most visible one. It has
// no notion of scroll events itself: the host calls Sync whenever the
// viewport may have moved.
type Tracker struct {
	mu           sync.Mutex
	bus          eventbus.EventBus
	container    scene.Container
	threshold    float64
	observations map[domain.PageRef]scene.Target
	ratios       map[domain.PageRef]float64
	dominant     domain.PageRef
	suppressFn   func() bool

	degradedLogged bool
}

// NewTracker creates a tracker publishing on the given bus. A threshold of
// zero selects the default.
func NewTracker(bus eventbus.EventBus, threshold float64) *Tracker {
	if threshold <= 0 {
		threshold = DefaultDominanceThreshold
	}
	return &Tracker{
		bus:          bus,
		threshold:    threshold,
		observations: make(map[domain.PageRef]scene.Target),
		ratios:       make(map[domain.PageRef]float64),
	}
}

// SetContainer installs the viewport whose bounds visibility is measured
// against. Without one the tracker is degraded: observation is accepted but
// never produces signals, and navigation has to work on geometry alone.
func (t *Tracker) SetContainer(c scene.Container) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.container = c
}

// SetSuppressFunc installs the hook consulted before emitting dominance
// signals; it returns true while a deliberate navigation or file switch is
// in progress.
func (t *Tracker) SetSuppressFunc(fn func() bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.suppressFn = fn
}

// Degraded reports whether passive page detection is unavailable
func (t *Tracker) Degraded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.container == nil
}

// Observe registers a render target for visibility tracking. Re-observing
// the same (file, page) is a no-op.
func (t *Tracker) Observe(ref domain.PageRef, target scene.Target) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.observations[ref]; ok {
		return
	}
	t.observations[ref] = target
}

// Unobserve stops tracking a single page
func (t *Tracker) Unobserve(ref domain.PageRef) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.observations, ref)
	delete(t.ratios, ref)
	if t.dominant == ref {
		t.dominant = domain.PageRef{}
	}
}

// UnobserveFile stops tracking every page of a file
func (t *Tracker) UnobserveFile(file domain.FileKey) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for ref := range t.observations {
		if ref.File == file {
			delete(t.observations, ref)
			delete(t.ratios, ref)
			if t.dominant == ref {
				t.dominant = domain.PageRef{}
			}
		}
	}
}

// ObservationCount returns the number of tracked pages
func (t *Tracker) ObservationCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.observations)
}

// Ratio returns the last computed visibility ratio for a page
func (t *Tracker) Ratio(ref domain.PageRef) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ratios[ref]
}

// RebuildAll disposes every observation and re-registers from the given
// scan of the current render tree. Used after layout-affecting changes so
// no observation keeps referencing a removed target. Cost is proportional
// to the number of rendered pages.
func (t *Tracker) RebuildAll(scan func() []scene.Target) {
	t.mu.Lock()
	t.observations = make(map[domain.PageRef]scene.Target)
	t.ratios = make(map[domain.PageRef]float64)
	t.dominant = domain.PageRef{}
	t.mu.Unlock()

	if scan == nil {
		return
	}
	for _, target := range scan() {
		t.Observe(target.Ref(), target)
	}
}

// Sync recomputes every tracked page's visibility ratio against the current
// viewport bounds, broadcasts meaningful changes, and promotes a new
// dominant page when one emerges.
func (t *Tracker) Sync() {
	t.mu.Lock()

	if t.container == nil {
		if !t.degradedLogged {
			t.degradedLogged = true
			log.Printf("Visibility: no viewport geometry available, passive page detection disabled")
		}
		t.mu.Unlock()
		return
	}

	view := t.container.Bounds()

	type update struct {
		ref   domain.PageRef
		ratio float64
	}
	var changed []update
	best := domain.PageRef{}
	bestRatio := 0.0

	for ref, target := range t.observations {
		ratio := target.Bounds().OverlapRatio(view)
		if math.Abs(ratio-t.ratios[ref]) >= ratioEpsilon {
			t.ratios[ref] = ratio
			changed = append(changed, update{ref: ref, ratio: ratio})
		}
		if ratio > bestRatio {
			bestRatio = ratio
			best = ref
		}
	}

	var dominant *update
	if best != (domain.PageRef{}) && bestRatio >= t.threshold && best != t.dominant {
		suppressed := t.suppressFn != nil && t.suppressFn()
		if !suppressed {
			t.dominant = best
			dominant = &update{ref: best, ratio: bestRatio}
		}
	}

	t.mu.Unlock()

	now := time.Now()
	for _, u := range changed {
		t.bus.Publish(eventbus.VisibilityChangedEvent{
			File:      u.ref.File,
			Page:      u.ref.Page,
			Ratio:     u.ratio,
			Timestamp: now,
		})
	}
	if dominant != nil {
		t.bus.Publish(eventbus.PageDominantEvent{
			File:      dominant.ref.File,
			Page:      dominant.ref.Page,
			Ratio:     dominant.ratio,
			Timestamp: now,
		})
	}
}
