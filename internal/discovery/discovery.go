// Package discovery scans directories for viewable documents and announces
// them on the event bus. Loading is left to whoever listens; discovery only
// reports paths.
package discovery

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"folio/internal/eventbus"
)

// maxDepth bounds how deep a scan descends below each root
const maxDepth = 5

// viewableExtensions are the file types folio can paginate
var viewableExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".log":  true,
	".json": true,
	".yaml": true,
	".yml":  true,
	".toml": true,
	".go":   true,
}

// DiscoveryService finds viewable documents in the filesystem
type DiscoveryService interface {
	StartScan(ctx context.Context, roots []string) error
	StopScan()
}

// discoveryService is the concrete implementation
type discoveryService struct {
	bus        eventbus.EventBus
	mu         sync.Mutex
	isScanning bool
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewDiscoveryService creates a new discovery service
func NewDiscoveryService(bus eventbus.EventBus) DiscoveryService {
	return &discoveryService{bus: bus}
}

// StartScan starts scanning the given roots for viewable files
func (ds *discoveryService) StartScan(ctx context.Context, roots []string) error {
	ds.mu.Lock()
	if ds.isScanning {
		ds.mu.Unlock()
		return fmt.Errorf("scan already in progress")
	}
	ds.isScanning = true

	scanCtx, cancel := context.WithCancel(ctx)
	ds.cancelFunc = cancel
	ds.mu.Unlock()

	filesFound := 0

	ds.wg.Add(1)
	go func() {
		defer ds.wg.Done()
		defer func() {
			ds.mu.Lock()
			ds.isScanning = false
			ds.cancelFunc = nil
			ds.mu.Unlock()

			ds.bus.Publish(eventbus.ScanCompletedEvent{FilesFound: filesFound})
		}()

		for _, root := range roots {
			select {
			case <-scanCtx.Done():
				return
			default:
				filesFound += ds.scanDirectory(scanCtx, root)
			}
		}
	}()

	return nil
}

// StopScan stops any ongoing scan and waits for it to wind down
func (ds *discoveryService) StopScan() {
	ds.mu.Lock()
	if ds.cancelFunc != nil {
		ds.cancelFunc()
	}
	ds.mu.Unlock()

	ds.wg.Wait()
}

// scanDirectory walks one root and publishes a discovery event per viewable
// file found
func (ds *discoveryService) scanDirectory(ctx context.Context, root string) int {
	filesFound := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			log.Printf("Error walking path %s: %v", path, err)
			return nil // Continue walking
		}

		if d.IsDir() {
			relPath, _ := filepath.Rel(root, path)
			if strings.Count(relPath, string(filepath.Separator)) > maxDepth {
				return filepath.SkipDir
			}
			name := d.Name()
			if name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			switch name {
			case "node_modules", "vendor", "dist", "build", "target", "__pycache__":
				return filepath.SkipDir
			}
			return nil
		}

		if !viewableExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		ds.bus.Publish(eventbus.FileDiscoveredEvent{
			Path: path,
			Name: d.Name(),
		})
		filesFound++
		return nil
	})

	if err != nil && err != context.Canceled {
		log.Printf("Error scanning directory %s: %v", root, err)
		ds.bus.Publish(eventbus.ErrorEvent{
			Message: fmt.Sprintf("Failed to scan %s", root),
			Err:     err,
		})
	}

	return filesFound
}
