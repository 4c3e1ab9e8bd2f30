package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"folio/internal/eventbus"
	"folio/internal/logic"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadPaginates(t *testing.T) {
	bus := eventbus.NewWithThrottle(0)
	store := logic.NewMemoryDocumentStore()
	loader := NewLoader(bus, store, 10)

	var loaded []eventbus.FileLoadedEvent
	bus.Subscribe(eventbus.EventFileLoaded, func(e eventbus.DomainEvent) {
		loaded = append(loaded, e.(eventbus.FileLoadedEvent))
	})

	// 25 lines at 10 lines per page -> 3 pages
	content := strings.Repeat("line\n", 25)
	path := writeFile(t, "doc.txt", content)

	doc, err := loader.Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, doc.TotalPages)
	require.Equal(t, "doc.txt", doc.Name)

	require.Len(t, loaded, 1)
	require.Equal(t, 3, loaded[0].TotalPages)

	require.Len(t, store.GetPage(doc.Key, 1).Lines, 10)
	require.Len(t, store.GetPage(doc.Key, 3).Lines, 5)
	require.Nil(t, store.GetPage(doc.Key, 4))
}

func TestLoadEmptyFileHasOnePage(t *testing.T) {
	bus := eventbus.NewWithThrottle(0)
	store := logic.NewMemoryDocumentStore()
	loader := NewLoader(bus, store, 10)

	doc, err := loader.Load(writeFile(t, "empty.txt", ""))
	require.NoError(t, err)
	require.Equal(t, 1, doc.TotalPages)
	require.NotNil(t, store.GetPage(doc.Key, 1))
}

func TestLoadMissingFileFails(t *testing.T) {
	bus := eventbus.NewWithThrottle(0)
	loader := NewLoader(bus, logic.NewMemoryDocumentStore(), 10)

	_, err := loader.Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}

func TestUnloadRemovesAndAnnounces(t *testing.T) {
	bus := eventbus.NewWithThrottle(0)
	store := logic.NewMemoryDocumentStore()
	loader := NewLoader(bus, store, 10)

	var unloaded []eventbus.FileUnloadedEvent
	bus.Subscribe(eventbus.EventFileUnloaded, func(e eventbus.DomainEvent) {
		unloaded = append(unloaded, e.(eventbus.FileUnloadedEvent))
	})

	doc, err := loader.Load(writeFile(t, "doc.txt", "hello\n"))
	require.NoError(t, err)

	loader.Unload(doc.Key)

	require.Nil(t, store.GetDocument(doc.Key))
	require.Nil(t, store.GetPage(doc.Key, 1))
	require.Len(t, unloaded, 1)
	require.Equal(t, doc.Key, unloaded[0].File)
}
