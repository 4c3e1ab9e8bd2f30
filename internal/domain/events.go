package domain

import "time"

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventPageChanged       EventType = "PageChanged"
	EventPageDominant      EventType = "PageDominant"
	EventVisibilityChanged EventType = "VisibilityChanged"
	EventRenderComplete    EventType = "RenderComplete"
	EventScrollFailed      EventType = "ScrollFailed"
	EventFileLoaded        EventType = "FileLoaded"
	EventFileUnloaded      EventType = "FileUnloaded"
	EventFileChanging      EventType = "FileChanging"
	EventFileDiscovered    EventType = "FileDiscovered"
	EventScanCompleted     EventType = "ScanCompleted"
	EventError             EventType = "Error"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// SourcedEvent is implemented by events that identify their originating
// source. The bus coalesces near-duplicate events per source and guards
// against a source re-triggering itself while its own event dispatches.
type SourcedEvent interface {
	DomainEvent
	Source() string
}

// PageChangedEvent is emitted when a file's current page changes
type PageChangedEvent struct {
	File      FileKey
	Page      int
	By        string // originating source, e.g. "navigation", "visibility"
	Timestamp time.Time
}

func (e PageChangedEvent) Type() EventType { return EventPageChanged }
func (e PageChangedEvent) Source() string  { return e.By }

// PageDominantEvent is emitted when a page becomes the most visible page
// across all tracked pages
type PageDominantEvent struct {
	File      FileKey
	Page      int
	Ratio     float64
	Timestamp time.Time
}

func (e PageDominantEvent) Type() EventType { return EventPageDominant }

// VisibilityChangedEvent carries a raw visibility ratio update for consumers
// that want undebounced visibility rather than the settled current page
type VisibilityChangedEvent struct {
	File      FileKey
	Page      int
	Ratio     float64
	Timestamp time.Time
}

func (e VisibilityChangedEvent) Type() EventType { return EventVisibilityChanged }

// RenderCompleteEvent is emitted by the rendering subsystem when a page's
// visual target has been inserted into the tree and is paintable
type RenderCompleteEvent struct {
	File FileKey
	Page int
}

func (e RenderCompleteEvent) Type() EventType { return EventRenderComplete }

// FailureReason classifies why a navigation attempt could not complete
type FailureReason string

const (
	FailureTargetNotFound    FailureReason = "target-not-found"
	FailureContainerNotFound FailureReason = "container-not-found"
	FailureVerification      FailureReason = "verification-failure"
)

// ScrollFailedEvent is emitted when a navigation request exhausts its
// retries without the target becoming visible. Reason carries the last
// attempt's concrete failure.
type ScrollFailedEvent struct {
	File      FileKey
	Page      int
	Reason    FailureReason
	Attempts  int
	Timestamp time.Time
}

func (e ScrollFailedEvent) Type() EventType { return EventScrollFailed }

// FileLoadedEvent is emitted when a document is loaded and paginated
type FileLoadedEvent struct {
	File       FileKey
	Name       string
	TotalPages int
}

func (e FileLoadedEvent) Type() EventType { return EventFileLoaded }

// FileUnloadedEvent is emitted when a document is removed from the viewer
type FileUnloadedEvent struct {
	File FileKey
}

func (e FileUnloadedEvent) Type() EventType { return EventFileUnloaded }

// FileChangingEvent is emitted around deliberate programmatic file switches
// so passive visibility reactions can be suppressed for their duration
type FileChangingEvent struct {
	File   FileKey
	Active bool
}

func (e FileChangingEvent) Type() EventType { return EventFileChanging }

// FileDiscoveredEvent is emitted for each viewable file found during a
// directory scan
type FileDiscoveredEvent struct {
	Path string
	Name string
}

func (e FileDiscoveredEvent) Type() EventType { return EventFileDiscovered }

// ScanCompletedEvent is emitted when a directory scan finishes
type ScanCompletedEvent struct {
	FilesFound int
}

func (e ScanCompletedEvent) Type() EventType { return EventScanCompleted }

// ErrorEvent is emitted when an error occurs
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }
