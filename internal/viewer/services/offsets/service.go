// Package offsets keeps the last-known scroll offset per file so switching
// between documents restores the reader's place. State is in-memory only and
// discarded on exit.
package offsets

import (
	"sync"

	"folio/internal/domain"
)

// Service is the per-file scroll position cache
type Service struct {
	mu      sync.RWMutex
	offsets map[domain.FileKey]float64
}

// NewService creates an empty offset cache
func NewService() *Service {
	return &Service{
		offsets: make(map[domain.FileKey]float64),
	}
}

// Save records a file's current scroll offset, overwriting any previous one
func (s *Service) Save(file domain.FileKey, offset float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offsets[file] = offset
}

// Restore returns the saved offset for a file and whether one exists
func (s *Service) Restore(file domain.FileKey) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	offset, ok := s.offsets[file]
	return offset, ok
}

// Forget drops a file's saved offset, used when the file is unloaded
func (s *Service) Forget(file domain.FileKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.offsets, file)
}
