package pagestate

import (
	"log"
	"sync"
	"time"

	"folio/internal/domain"
	"folio/internal/eventbus"
)

// Service is the single place every consumer reads current/active page state
// for a file. Mutations from the navigation coordinator are authoritative
// for the current page; mutations from visibility tracking are authoritative
// for the active page.
type Service struct {
	mu          sync.Mutex
	bus         eventbus.EventBus
	states      map[domain.FileKey]*domain.FileNavState
	currentFile domain.FileKey

	suppressFn    func() bool
	saveOffset    func(file domain.FileKey)
	restoreOffset func(file domain.FileKey)
}

// NewService creates a new page state store
func NewService(bus eventbus.EventBus) *Service {
	return &Service{
		bus:    bus,
		states: make(map[domain.FileKey]*domain.FileNavState),
	}
}

// SetSuppressFunc installs the hook that reports whether passive
// visibility-driven file switching is currently suppressed
func (s *Service) SetSuppressFunc(fn func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppressFn = fn
}

// SetOffsetFuncs installs the hooks used to preserve and restore a file's
// scroll position around file switches
func (s *Service) SetOffsetFuncs(save, restore func(file domain.FileKey)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveOffset = save
	s.restoreOffset = restore
}

// AddFile creates navigation state for a newly loaded file. The first file
// added becomes current.
func (s *Service) AddFile(file domain.FileKey, totalPages int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.states[file]; ok {
		// Re-load updates the page count but keeps position
		s.states[file].TotalPages = totalPages
		return
	}
	s.states[file] = &domain.FileNavState{
		File:        file,
		CurrentPage: 1,
		ActivePage:  1,
		TotalPages:  totalPages,
	}
	if s.currentFile == "" {
		s.currentFile = file
	}
}

// RemoveFile drops a file's navigation state
func (s *Service) RemoveFile(file domain.FileKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, file)
	if s.currentFile == file {
		s.currentFile = ""
		for key := range s.states {
			s.currentFile = key
			break
		}
	}
}

// CurrentFile returns the file the viewer considers current
func (s *Service) CurrentFile() domain.FileKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentFile
}

// TotalPages returns a file's page count, zero when unknown
func (s *Service) TotalPages(file domain.FileKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[file]; ok {
		return st.TotalPages
	}
	return 0
}

// CurrentPage returns the page last deliberately navigated to
func (s *Service) CurrentPage(file domain.FileKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[file]; ok {
		return st.CurrentPage
	}
	return 0
}

// ActivePage returns the page visibility tracking judges most visible
func (s *Service) ActivePage(file domain.FileKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[file]; ok {
		return st.ActivePage
	}
	return 0
}

// State returns a snapshot of a file's navigation state
func (s *Service) State(file domain.FileKey) (domain.FileNavState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[file]; ok {
		return *st, true
	}
	return domain.FileNavState{}, false
}

// SetCurrentFile performs a deliberate file switch: the old file's scroll
// position is preserved and the new file's restored
func (s *Service) SetCurrentFile(file domain.FileKey) {
	s.mu.Lock()
	if _, ok := s.states[file]; !ok {
		s.mu.Unlock()
		return
	}
	old := s.currentFile
	s.currentFile = file
	save, restore := s.saveOffset, s.restoreOffset
	s.mu.Unlock()

	if old != "" && old != file && save != nil {
		save(old)
	}
	if restore != nil {
		restore(file)
	}
}

// SetCurrentPage records a deliberate page change and broadcasts it. The
// page is clamped to the file's valid range before any mutation.
func (s *Service) SetCurrentPage(file domain.FileKey, page int, source string) {
	s.mu.Lock()
	st, ok := s.states[file]
	if !ok {
		s.mu.Unlock()
		return
	}
	page = clamp(page, st.TotalPages)
	st.CurrentPage = page
	s.mu.Unlock()

	s.bus.Publish(eventbus.PageChangedEvent{
		File:      file,
		Page:      page,
		By:        source,
		Timestamp: time.Now(),
	})
}

// SetActivePage records the passively observed page. When the dominant page
// belongs to a file other than the current one and no suppression is in
// effect, that file is promoted to current; the previous file's scroll
// offset is preserved so switching back does not jump. No offset restore
// happens here because the viewport is already where the user scrolled it.
func (s *Service) SetActivePage(file domain.FileKey, page int) {
	s.mu.Lock()
	st, ok := s.states[file]
	if !ok {
		s.mu.Unlock()
		return
	}
	page = clamp(page, st.TotalPages)
	st.ActivePage = page

	var promoted domain.FileKey
	var save func(domain.FileKey)
	if file != s.currentFile {
		suppressed := s.suppressFn != nil && s.suppressFn()
		if !suppressed {
			promoted = s.currentFile
			s.currentFile = file
			save = s.saveOffset
		}
	}
	s.mu.Unlock()

	if promoted != "" {
		log.Printf("PageState: promoting %s to current file (was %s)", file, promoted)
		if save != nil {
			save(promoted)
		}
	}
}

func clamp(page, total int) int {
	if page < 1 {
		return 1
	}
	if total > 0 && page > total {
		return total
	}
	return page
}
