package navigation

import (
	"log"
	"sync"
	"time"

	"folio/internal/domain"
	"folio/internal/eventbus"
	"folio/internal/viewer/scene"
)

// Service drives the viewport to a requested page. One request is in flight
// at a time: the busy flag is the only lock serializing active navigation
// system-wide, and a staleness timeout force-releases it if a callback chain
// is ever lost. Scroll execution deliberately applies several redundant
// strategies because no single one is reliable across all layout states.
type Service struct {
	mu        sync.Mutex
	bus       eventbus.EventBus
	loc       Locator
	container scene.Container
	mirror    scene.Container

	timing      Timing
	maxAttempts int

	busy      bool
	busySince time.Time
	state     State
	current   *Request
	pending   *time.Timer

	pageCountFn func(domain.FileKey) int
	onAccepted  func(file domain.FileKey, page int)
}

// NewService creates a navigation service. Zero maxAttempts selects the
// default bound.
func NewService(bus eventbus.EventBus, loc Locator, timing Timing, maxAttempts int) *Service {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Service{
		bus:         bus,
		loc:         loc,
		timing:      timing,
		maxAttempts: maxAttempts,
		state:       StateIdle,
	}
}

// SetContainer installs the primary scroll container
func (s *Service) SetContainer(c scene.Container) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.container = c
}

// SetMirror installs a secondary container whose offset is kept in step
// with the primary one during navigation
func (s *Service) SetMirror(c scene.Container) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirror = c
}

// SetPageCountFunc sets the function used to look up a file's page count
func (s *Service) SetPageCountFunc(fn func(domain.FileKey) int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageCountFn = fn
}

// SetAcceptedFunc sets the hook invoked as soon as a request is accepted,
// before the scroll physically completes, so dependent UI reflects intent
func (s *Service) SetAcceptedFunc(fn func(file domain.FileKey, page int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAccepted = fn
}

// Busy reports whether a request is currently in flight
func (s *Service) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// CurrentState returns the state machine's phase
func (s *Service) CurrentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Navigate requests that the viewport move to a page of a file. The page is
// clamped to the file's valid range. Returns false when the request is not
// accepted: unknown page count, or another request is already in flight and
// not yet stale. Rejected requests mutate no state; callers re-issue if
// they still care.
func (s *Service) Navigate(file domain.FileKey, page int, opts domain.ScrollOptions) bool {
	s.mu.Lock()

	total := 0
	if s.pageCountFn != nil {
		total = s.pageCountFn(file)
	}
	if total <= 0 {
		s.mu.Unlock()
		log.Printf("Navigation: rejecting request for %s: page count unknown", file)
		return false
	}
	if page < 1 {
		page = 1
	} else if page > total {
		page = total
	}

	if s.busy {
		held := time.Since(s.busySince)
		if held < s.timing.StuckThreshold {
			s.mu.Unlock()
			log.Printf("Navigation: busy (%v), rejecting request for %s page %d", held, file, page)
			return false
		}
		// Lost callback chain: self-heal rather than stay wedged forever
		log.Printf("Navigation: busy flag held for %v, force-resetting", held)
		if s.pending != nil {
			s.pending.Stop()
			s.pending = nil
		}
		s.busy = false
		s.current = nil
	}

	if opts.Behavior == "" {
		opts.Behavior = domain.ScrollSmooth
	}

	req := &Request{
		File:        file,
		Page:        page,
		Options:     opts,
		Attempt:     1,
		RequestedAt: time.Now(),
	}
	s.busy = true
	s.busySince = req.RequestedAt
	s.state = StateRequested
	s.current = req
	accepted := s.onAccepted
	s.mu.Unlock()

	log.Printf("Navigation: accepted request for %s page %d", file, page)
	if accepted != nil {
		accepted(file, page)
	}
	s.execute(req)
	return true
}

// NotifyRenderComplete tells the service a page's render target just became
// available. If a request for exactly that page is waiting out a retry
// backoff, the wait is cut short and the attempt runs immediately.
func (s *Service) NotifyRenderComplete(file domain.FileKey, page int) {
	s.mu.Lock()
	if !s.busy || s.current == nil || s.state != StateRetrying ||
		s.current.File != file || s.current.Page != page || s.pending == nil {
		s.mu.Unlock()
		return
	}
	s.pending.Stop()
	s.pending = nil
	req := s.current
	s.mu.Unlock()

	log.Printf("Navigation: render complete for pending %s page %d, retrying now", file, page)
	s.execute(req)
}

// execute runs one attempt's scroll strategies and schedules verification
func (s *Service) execute(req *Request) {
	s.mu.Lock()
	if !s.busy || s.current != req {
		s.mu.Unlock()
		return
	}
	s.state = StateExecuting
	container := s.container
	mirror := s.mirror
	s.mu.Unlock()

	if container == nil {
		log.Printf("Navigation: no scroll container (attempt %d)", req.Attempt)
		s.retryOrFail(req, domain.FailureContainerNotFound)
		return
	}

	ref := domain.PageRef{File: req.File, Page: req.Page}
	target := s.loc.Find(ref)
	if target == nil {
		log.Printf("Navigation: target %s page %d not found (attempt %d)", req.File, req.Page, req.Attempt)
		s.retryOrFail(req, domain.FailureTargetNotFound)
		return
	}

	// All strategies run; they are redundant on purpose
	animate := req.Options.Behavior == domain.ScrollSmooth
	target.ScrollIntoView(req.Options)
	offset := computeOffset(target, container, req.Options)
	container.SetScrollOffset(offset, animate)
	if mirror != nil {
		mirror.SetScrollOffset(offset, false)
	}

	// Immediate visual feedback regardless of eventual success
	if req.Options.HighlightTarget {
		target.Highlight(true)
		time.AfterFunc(s.timing.Highlight, func() { target.Highlight(false) })
	}

	settle := s.timing.SettleInstant
	if animate {
		settle = s.timing.SettleSmooth
	}

	s.mu.Lock()
	if s.busy && s.current == req {
		s.state = StateVerifying
		s.pending = time.AfterFunc(settle, func() { s.verify(req, false) })
	}
	s.mu.Unlock()
}

// verify checks whether the scroll actually brought the target into the
// viewport. On the first failure it forces a non-animated offset correction
// and re-verifies once before handing the attempt to the retry path.
func (s *Service) verify(req *Request, corrected bool) {
	s.mu.Lock()
	if !s.busy || s.current != req {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	container := s.container
	mirror := s.mirror
	s.mu.Unlock()

	if container == nil {
		s.retryOrFail(req, domain.FailureContainerNotFound)
		return
	}
	target := s.loc.Find(domain.PageRef{File: req.File, Page: req.Page})
	if target == nil {
		s.retryOrFail(req, domain.FailureTargetNotFound)
		return
	}

	if target.Bounds().Intersects(container.Bounds()) {
		s.complete(req)
		return
	}

	if !corrected {
		log.Printf("Navigation: verification failed for %s page %d, forcing offset correction", req.File, req.Page)
		offset := computeOffset(target, container, req.Options)
		container.SetScrollOffset(offset, false)
		if mirror != nil {
			mirror.SetScrollOffset(offset, false)
		}
		s.mu.Lock()
		if s.busy && s.current == req {
			s.pending = time.AfterFunc(s.timing.CorrectionDelay, func() { s.verify(req, true) })
		}
		s.mu.Unlock()
		return
	}

	s.retryOrFail(req, domain.FailureVerification)
}

// complete finishes a verified request and broadcasts the page change
func (s *Service) complete(req *Request) {
	s.mu.Lock()
	if !s.busy || s.current != req {
		s.mu.Unlock()
		return
	}
	s.busy = false
	s.state = StateIdle
	s.current = nil
	s.pending = nil
	s.mu.Unlock()

	log.Printf("Navigation: completed %s page %d (attempt %d)", req.File, req.Page, req.Attempt)
	s.bus.Publish(eventbus.PageChangedEvent{
		File:      req.File,
		Page:      req.Page,
		By:        "navigation",
		Timestamp: time.Now(),
	})
}

// retryOrFail schedules the next attempt with backoff, or gives up once the
// attempt cap is reached. Terminal failure always releases busy and
// broadcasts scroll-failed exactly once.
func (s *Service) retryOrFail(req *Request, reason domain.FailureReason) {
	s.mu.Lock()
	if !s.busy || s.current != req {
		s.mu.Unlock()
		return
	}

	if req.Attempt >= s.maxAttempts {
		s.busy = false
		s.state = StateIdle
		s.current = nil
		s.pending = nil
		s.mu.Unlock()

		log.Printf("Navigation: giving up on %s page %d after %d attempts (last failure: %s)",
			req.File, req.Page, req.Attempt, reason)
		s.bus.Publish(eventbus.ScrollFailedEvent{
			File:      req.File,
			Page:      req.Page,
			Reason:    reason,
			Attempts:  req.Attempt,
			Timestamp: time.Now(),
		})
		return
	}

	next := *req
	next.Attempt++
	// Animation is the flakiest part of the pipeline; retries go instant
	next.Options.Behavior = domain.ScrollInstant
	s.current = &next
	s.state = StateRetrying
	backoff := s.timing.RetryBackoff * time.Duration(req.Attempt)
	s.pending = time.AfterFunc(backoff, func() { s.execute(&next) })
	s.mu.Unlock()

	log.Printf("Navigation: attempt %d for %s page %d failed (%s), retrying in %v",
		req.Attempt, req.File, req.Page, reason, backoff)
}

// computeOffset derives the scroll offset that positions the target
// according to the requested alignment
func computeOffset(target scene.Target, container scene.Container, opts domain.ScrollOptions) float64 {
	bounds := target.Bounds()
	if opts.AlignToTop {
		return maxFloat(0, bounds.Top)
	}
	view := container.Bounds()
	return maxFloat(0, bounds.Top-(view.Height-bounds.Height)/2)
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
