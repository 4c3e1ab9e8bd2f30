package logic

import (
	"sync"

	"folio/internal/domain"
)

// MemoryDocumentStore is an in-memory implementation of DocumentStore
type MemoryDocumentStore struct {
	mu      sync.RWMutex
	docs    map[domain.FileKey]*domain.Document
	pages   map[domain.PageRef]*domain.Page
	ordered []domain.FileKey // load order, drives tab/rail ordering
}

// NewMemoryDocumentStore creates a new memory-based document store
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		docs:  make(map[domain.FileKey]*domain.Document),
		pages: make(map[domain.PageRef]*domain.Page),
	}
}

func (s *MemoryDocumentStore) GetDocument(key domain.FileKey) *domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[key]
}

func (s *MemoryDocumentStore) GetAllDocuments() map[domain.FileKey]*domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Return a copy to prevent external modification
	result := make(map[domain.FileKey]*domain.Document)
	for k, v := range s.docs {
		result[k] = v
	}
	return result
}

func (s *MemoryDocumentStore) GetOrderedKeys() []domain.FileKey {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.FileKey, len(s.ordered))
	copy(result, s.ordered)
	return result
}

func (s *MemoryDocumentStore) GetPage(key domain.FileKey, page int) *domain.Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pages[domain.PageRef{File: key, Page: page}]
}

func (s *MemoryDocumentStore) AddDocument(doc *domain.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[doc.Key]; !exists {
		s.ordered = append(s.ordered, doc.Key)
	}
	s.docs[doc.Key] = doc
}

func (s *MemoryDocumentStore) AddPage(page *domain.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[domain.PageRef{File: page.File, Page: page.Number}] = page
}

func (s *MemoryDocumentStore) RemoveDocument(key domain.FileKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.docs[key]
	delete(s.docs, key)
	for i, k := range s.ordered {
		if k == key {
			s.ordered = append(s.ordered[:i], s.ordered[i+1:]...)
			break
		}
	}
	if doc != nil {
		for p := 1; p <= doc.TotalPages; p++ {
			delete(s.pages, domain.PageRef{File: key, Page: p})
		}
	}
}
