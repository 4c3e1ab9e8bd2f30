// Package coordinator wires the viewer services together and is the single
// entry point collaborators use: the rendering host reports render
// completion and scroll movement, UI consumers issue navigation requests,
// and everything else flows over the event bus.
package coordinator

import (
	"log"
	"sync"
	"time"

	"folio/internal/config"
	"folio/internal/domain"
	"folio/internal/eventbus"
	"folio/internal/viewer/scene"
	"folio/internal/viewer/services/locator"
	"folio/internal/viewer/services/navigation"
	"folio/internal/viewer/services/offsets"
	"folio/internal/viewer/services/pagestate"
	"folio/internal/viewer/services/visibility"
)

// Coordinator manages all viewer services and their interactions
type Coordinator struct {
	// Services
	Locator    *locator.Service
	Visibility *visibility.Tracker
	Offsets    *offsets.Service
	PageState  *pagestate.Service
	Navigation *navigation.Service

	// Dependencies
	bus eventbus.EventBus

	mu              sync.Mutex
	container       scene.Container
	fileChanging    bool
	fileChangeTimer *time.Timer
	fileSwitchClear time.Duration

	unsubscribes []func()
}

// NewCoordinator creates a coordinator with all services built from config
func NewCoordinator(bus eventbus.EventBus, cfg *config.Config) *Coordinator {
	timing := navigation.Timing{
		StuckThreshold:  cfg.Navigation.StuckThreshold(),
		SettleSmooth:    cfg.Navigation.SettleSmooth(),
		SettleInstant:   cfg.Navigation.SettleInstant(),
		CorrectionDelay: cfg.Navigation.CorrectionDelay(),
		RetryBackoff:    cfg.Navigation.RetryBackoff(),
		Highlight:       cfg.Navigation.Highlight(),
	}
	loc := locator.NewService(time.Duration(cfg.Viewer.LocatorCacheSecs) * time.Second)

	c := &Coordinator{
		Locator:         loc,
		Visibility:      visibility.NewTracker(bus, cfg.Viewer.DominanceThreshold),
		Offsets:         offsets.NewService(),
		PageState:       pagestate.NewService(bus),
		Navigation:      navigation.NewService(bus, loc, timing, cfg.Navigation.MaxAttempts),
		bus:             bus,
		fileSwitchClear: cfg.Navigation.FileSwitchClear(),
	}

	c.wireServices()
	c.subscribeToEvents()

	return c
}

// wireServices connects services with their dependencies
func (c *Coordinator) wireServices() {
	// Navigation needs page counts and pushes optimistic state
	c.Navigation.SetPageCountFunc(c.PageState.TotalPages)
	c.Navigation.SetAcceptedFunc(func(file domain.FileKey, page int) {
		if file != c.PageState.CurrentFile() {
			// Deliberate cross-file jump: mute passive reactions until settled
			c.SetFileChanging(true)
			c.PageState.SetCurrentFile(file)
		}
		c.PageState.SetCurrentPage(file, page, pagestate.SourceNavigation)
		c.PageState.SetActivePage(file, page)
	})

	// Passive reactions stay quiet while a deliberate navigation or file
	// switch is in progress
	c.Visibility.SetSuppressFunc(c.suppressed)
	c.PageState.SetSuppressFunc(c.suppressed)

	// File switches preserve and restore scroll positions
	c.PageState.SetOffsetFuncs(c.saveOffset, c.restoreOffset)
}

// subscribeToEvents sets up event handlers
func (c *Coordinator) subscribeToEvents() {
	c.unsubscribes = append(c.unsubscribes,
		c.bus.Subscribe(eventbus.EventPageDominant, func(e eventbus.DomainEvent) {
			if event, ok := e.(eventbus.PageDominantEvent); ok {
				c.PageState.SetActivePage(event.File, event.Page)
			}
		}),
		c.bus.Subscribe(eventbus.EventRenderComplete, func(e eventbus.DomainEvent) {
			if event, ok := e.(eventbus.RenderCompleteEvent); ok {
				c.handleRenderComplete(event.File, event.Page)
			}
		}),
		c.bus.Subscribe(eventbus.EventFileLoaded, func(e eventbus.DomainEvent) {
			if event, ok := e.(eventbus.FileLoadedEvent); ok {
				c.PageState.AddFile(event.File, event.TotalPages)
			}
		}),
		c.bus.Subscribe(eventbus.EventFileUnloaded, func(e eventbus.DomainEvent) {
			if event, ok := e.(eventbus.FileUnloadedEvent); ok {
				c.unloadFile(event.File)
			}
		}),
	)
}

// Dispose releases event subscriptions and pending timers
func (c *Coordinator) Dispose() {
	for _, unsubscribe := range c.unsubscribes {
		unsubscribe()
	}
	c.unsubscribes = nil

	c.mu.Lock()
	if c.fileChangeTimer != nil {
		c.fileChangeTimer.Stop()
		c.fileChangeTimer = nil
	}
	c.mu.Unlock()
}

// SetScene installs the scroll containers the viewer runs against. The
// mirror is optional and kept in step during navigation only.
func (c *Coordinator) SetScene(container, mirror scene.Container) {
	c.mu.Lock()
	c.container = container
	c.mu.Unlock()

	c.Visibility.SetContainer(container)
	c.Navigation.SetContainer(container)
	if mirror != nil {
		c.Navigation.SetMirror(mirror)
	}
}

// NavigateToPage requests navigation to a page. An empty file key means the
// currently active file. Returns whether the request was accepted.
func (c *Coordinator) NavigateToPage(page int, file domain.FileKey, opts domain.ScrollOptions) bool {
	if file == "" {
		file = c.PageState.CurrentFile()
		if file == "" {
			log.Printf("Coordinator: no current file, dropping navigation to page %d", page)
			return false
		}
	}

	// The cross-file switch happens in the accepted hook so a rejected
	// request leaves the current file and its offsets untouched.
	return c.Navigation.Navigate(file, page, opts)
}

// NotifyRenderComplete is the rendering subsystem's signal that a page's
// visual target now exists in the tree and is paintable
func (c *Coordinator) NotifyRenderComplete(file domain.FileKey, page int) {
	c.bus.Publish(eventbus.RenderCompleteEvent{File: file, Page: page})
}

func (c *Coordinator) handleRenderComplete(file domain.FileKey, page int) {
	ref := domain.PageRef{File: file, Page: page}
	c.Locator.Invalidate(ref)
	if target := c.Locator.Find(ref); target != nil {
		c.Visibility.Observe(ref, target)
	}
	c.Navigation.NotifyRenderComplete(file, page)
	c.Visibility.Sync()
}

// SetFileChanging sets or clears the suppression flag around a deliberate
// programmatic file switch. Setting it arms an auto-clear as a safety net
// against a switch that never reports completion.
func (c *Coordinator) SetFileChanging(active bool) {
	c.mu.Lock()
	c.fileChanging = active
	if c.fileChangeTimer != nil {
		c.fileChangeTimer.Stop()
		c.fileChangeTimer = nil
	}
	if active {
		c.fileChangeTimer = time.AfterFunc(c.fileSwitchClear, func() {
			c.mu.Lock()
			c.fileChanging = false
			c.fileChangeTimer = nil
			c.mu.Unlock()
			log.Printf("Coordinator: file-changing flag auto-cleared")
		})
	}
	c.mu.Unlock()

	c.bus.Publish(eventbus.FileChangingEvent{Active: active})
}

// FileChanging reports whether a deliberate file switch is in progress
func (c *Coordinator) FileChanging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fileChanging
}

// SyncVisibility recomputes visibility ratios; the host calls this whenever
// the viewport may have scrolled
func (c *Coordinator) SyncVisibility() {
	c.Visibility.Sync()
}

// RebuildObservers disposes the whole observation set and re-scans the
// currently registered render targets. Used after layout-affecting changes
// such as the file list changing.
func (c *Coordinator) RebuildObservers() {
	c.Visibility.RebuildAll(c.Locator.Targets)
	c.Visibility.Sync()
}

// suppressed reports whether passive visibility reactions should be muted
func (c *Coordinator) suppressed() bool {
	return c.Navigation.Busy() || c.FileChanging()
}

func (c *Coordinator) unloadFile(file domain.FileKey) {
	c.PageState.RemoveFile(file)
	c.Visibility.UnobserveFile(file)
	c.Locator.UnregisterFile(file)
	c.Offsets.Forget(file)
}

func (c *Coordinator) saveOffset(file domain.FileKey) {
	c.mu.Lock()
	container := c.container
	c.mu.Unlock()
	if container == nil {
		return
	}
	c.Offsets.Save(file, container.ScrollOffset())
}

func (c *Coordinator) restoreOffset(file domain.FileKey) {
	c.mu.Lock()
	container := c.container
	c.mu.Unlock()
	if container == nil {
		return
	}
	if offset, ok := c.Offsets.Restore(file); ok {
		container.SetScrollOffset(offset, false)
	}
}
