package navigation

import (
	"time"

	"folio/internal/domain"
	"folio/internal/viewer/scene"
)

// Locator resolves a page to its current render target. A nil result means
// the page has not rendered yet, not a hard error.
type Locator interface {
	Find(ref domain.PageRef) scene.Target
}

// State is the navigation state machine's phase. Requests move
// Idle → Requested → Executing → Verifying and end in Idle again, possibly
// passing through Retrying on the way.
type State string

const (
	StateIdle      State = "idle"
	StateRequested State = "requested"
	StateExecuting State = "executing"
	StateVerifying State = "verifying"
	StateRetrying  State = "retrying"
)

// Request is one navigation attempt. A retry copies the request with a
// bumped attempt counter; the logical request stays the same.
type Request struct {
	File        domain.FileKey
	Page        int
	Options     domain.ScrollOptions
	Attempt     int
	RequestedAt time.Time
}

// DefaultMaxAttempts bounds retries per logical request
const DefaultMaxAttempts = 3

// Timing groups the state machine's delays. They default to values tuned
// for animated terminal scrolling but are adjustable, which also lets tests
// run the whole machine in milliseconds.
type Timing struct {
	// StuckThreshold is how long the busy flag may be held before a new
	// request force-resets it (self-healing against lost callback chains)
	StuckThreshold time.Duration
	// SettleSmooth is the wait before verifying an animated scroll
	SettleSmooth time.Duration
	// SettleInstant is the wait before verifying an instant scroll
	SettleInstant time.Duration
	// CorrectionDelay is the wait after a forced offset correction before
	// the single re-verification
	CorrectionDelay time.Duration
	// RetryBackoff is multiplied by the attempt number between retries
	RetryBackoff time.Duration
	// Highlight is how long the navigated page keeps its active marker
	Highlight time.Duration
}

// DefaultTiming returns the standard delays
func DefaultTiming() Timing {
	return Timing{
		StuckThreshold:  3000 * time.Millisecond,
		SettleSmooth:    500 * time.Millisecond,
		SettleInstant:   100 * time.Millisecond,
		CorrectionDelay: 100 * time.Millisecond,
		RetryBackoff:    200 * time.Millisecond,
		Highlight:       1500 * time.Millisecond,
	}
}
