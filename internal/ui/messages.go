package ui

import (
	"time"

	"folio/internal/eventbus"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// tickMsg is sent on a timer; it drives scroll reconciliation, staggered
// page rendering and visibility syncs
type tickMsg time.Time

// pagerDoneMsg contains the result of an external pager session
type pagerDoneMsg struct {
	err error
}

// fileOpenedMsg contains the result of loading a document from disk
type fileOpenedMsg struct {
	path string
	err  error
}
