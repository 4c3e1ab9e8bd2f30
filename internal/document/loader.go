// Package document loads and paginates plain-text documents. It is a
// collaborator of the navigation core, not part of it: its only contract is
// filling the document store and announcing loads over the bus.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"folio/internal/domain"
	"folio/internal/eventbus"
	"folio/internal/logic"
)

// Loader reads documents from disk and splits them into fixed-height pages
type Loader struct {
	bus        eventbus.EventBus
	store      logic.DocumentStore
	pageHeight int
}

// NewLoader creates a loader paginating at the given page height
func NewLoader(bus eventbus.EventBus, store logic.DocumentStore, pageHeight int) *Loader {
	if pageHeight <= 0 {
		pageHeight = 24
	}
	return &Loader{
		bus:        bus,
		store:      store,
		pageHeight: pageHeight,
	}
}

// PageHeight returns the pagination height in lines
func (l *Loader) PageHeight() int {
	return l.pageHeight
}

// Load reads a file, paginates it, stores the result, and announces the
// load. The file's path doubles as its stable key.
func (l *Loader) Load(path string) (*domain.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	key := domain.FileKey(abs)
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	// A trailing newline is not an extra page worth of content
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	total := 0
	for start := 0; start < len(lines); start += l.pageHeight {
		end := start + l.pageHeight
		if end > len(lines) {
			end = len(lines)
		}
		total++
		l.store.AddPage(&domain.Page{
			File:   key,
			Number: total,
			Lines:  lines[start:end],
		})
	}
	if total == 0 {
		// An empty file still has one (blank) page to stand on
		total = 1
		l.store.AddPage(&domain.Page{File: key, Number: 1})
	}

	doc := &domain.Document{
		Key:        key,
		Name:       filepath.Base(abs),
		Path:       abs,
		TotalPages: total,
	}
	l.store.AddDocument(doc)

	l.bus.Publish(eventbus.FileLoadedEvent{
		File:       key,
		Name:       doc.Name,
		TotalPages: total,
	})
	return doc, nil
}

// Unload removes a document from the store and announces the removal
func (l *Loader) Unload(key domain.FileKey) {
	l.store.RemoveDocument(key)
	l.bus.Publish(eventbus.FileUnloadedEvent{File: key})
}
