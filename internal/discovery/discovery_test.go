package discovery

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"folio/internal/eventbus"
)

type scanSink struct {
	mu        sync.Mutex
	paths     []string
	completed []eventbus.ScanCompletedEvent
}

func newScanSink(t *testing.T, bus eventbus.EventBus) *scanSink {
	t.Helper()
	s := &scanSink{}
	unsub := bus.Subscribe(eventbus.EventFileDiscovered, func(e eventbus.DomainEvent) {
		ev := e.(eventbus.FileDiscoveredEvent)
		s.mu.Lock()
		s.paths = append(s.paths, ev.Path)
		s.mu.Unlock()
	})
	t.Cleanup(unsub)
	unsub2 := bus.Subscribe(eventbus.EventScanCompleted, func(e eventbus.DomainEvent) {
		ev := e.(eventbus.ScanCompletedEvent)
		s.mu.Lock()
		s.completed = append(s.completed, ev)
		s.mu.Unlock()
	})
	t.Cleanup(unsub2)
	return s
}

func (s *scanSink) snapshot() ([]string, []eventbus.ScanCompletedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...), append([]eventbus.ScanCompletedEvent(nil), s.completed...)
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("content\n"), 0644))
}

func TestScanFindsViewableFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "notes.txt"))
	writeFile(t, filepath.Join(dir, "sub", "readme.md"))
	writeFile(t, filepath.Join(dir, "image.png"))
	writeFile(t, filepath.Join(dir, "node_modules", "dep.txt"))
	writeFile(t, filepath.Join(dir, ".hidden", "secret.txt"))

	bus := eventbus.New()
	sink := newScanSink(t, bus)

	svc := NewDiscoveryService(bus)
	require.NoError(t, svc.StartScan(context.Background(), []string{dir}))

	require.Eventually(t, func() bool {
		_, completed := sink.snapshot()
		return len(completed) == 1
	}, 2*time.Second, 10*time.Millisecond)

	paths, completed := sink.snapshot()
	require.Equal(t, 2, completed[0].FilesFound)
	require.ElementsMatch(t, []string{
		filepath.Join(dir, "notes.txt"),
		filepath.Join(dir, "sub", "readme.md"),
	}, paths)
}

func TestScanCompletesOnEmptyDirectory(t *testing.T) {
	dir := t.TempDir()

	bus := eventbus.New()
	sink := newScanSink(t, bus)

	svc := NewDiscoveryService(bus)
	require.NoError(t, svc.StartScan(context.Background(), []string{dir}))

	require.Eventually(t, func() bool {
		paths, completed := sink.snapshot()
		return len(completed) == 1 && len(paths) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStopScanWaitsForShutdown(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 20; i++ {
		writeFile(t, filepath.Join(dir, "sub", "file"+string(rune('a'+i))+".txt"))
	}

	bus := eventbus.New()
	sink := newScanSink(t, bus)

	svc := NewDiscoveryService(bus)
	require.NoError(t, svc.StartScan(context.Background(), []string{dir}))
	svc.StopScan()

	// After StopScan returns the completion event has been published
	_, completed := sink.snapshot()
	require.Len(t, completed, 1)
}
