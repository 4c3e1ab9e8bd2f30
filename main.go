package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"folio/internal/config"
	"folio/internal/discovery"
	"folio/internal/document"
	"folio/internal/eventbus"
	"folio/internal/logic"
	"folio/internal/ui"
	"folio/internal/viewer/coordinator"
)

func main() {
	// Parse command line arguments
	var configPath string
	var scanDir string
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&configPath, "c", "", "Path to config file (shorthand)")
	flag.StringVar(&scanDir, "dir", "", "Directory to scan for viewable files")
	flag.StringVar(&scanDir, "d", "", "Directory to scan for viewable files (shorthand)")
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 && scanDir == "" {
		fmt.Println("usage: folio [-config path] [-dir directory] [file...]")
		os.Exit(1)
	}

	// Set up logging
	logFile, err := os.OpenFile("folio.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Could not open log file: %v", err)
	} else {
		defer logFile.Close()
		log.SetOutput(logFile)
	}

	// Load configuration
	configSvc := config.NewConfigService()
	cfg := loadConfig(configSvc, configPath)

	// Create event bus with the configured coalescing window
	bus := eventbus.NewWithThrottle(time.Duration(cfg.Viewer.ThrottleWindowMs) * time.Millisecond)

	// Create stores and services
	docStore := logic.NewMemoryDocumentStore()
	loader := document.NewLoader(bus, docStore, cfg.Viewer.PageHeight)
	coord := coordinator.NewCoordinator(bus, cfg)
	defer coord.Dispose()

	// Create event channel for UI
	eventChan := make(chan eventbus.DomainEvent, 100)
	forwardEvent := func(e eventbus.DomainEvent) {
		select {
		case eventChan <- e:
		default:
			log.Println("Event channel full, dropping event")
		}
	}
	uiEvents := []eventbus.EventType{
		eventbus.EventFileLoaded,
		eventbus.EventFileUnloaded,
		eventbus.EventPageChanged,
		eventbus.EventScrollFailed,
		eventbus.EventFileChanging,
		eventbus.EventFileDiscovered,
		eventbus.EventScanCompleted,
		eventbus.EventError,
	}
	for _, et := range uiEvents {
		bus.Subscribe(et, forwardEvent)
	}

	// Create the UI
	pager := ui.NewPagerOps()
	uiModel := ui.NewModel(cfg, coord, docStore, loader, bus, pager, paths)
	p := tea.NewProgram(uiModel, tea.WithAltScreen())
	pager.SetProgram(p)

	// Handle interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
		p.Quit()
	}()

	// Start directory discovery if requested
	discoverySvc := discovery.NewDiscoveryService(bus)
	if scanDir != "" {
		if err := discoverySvc.StartScan(ctx, []string{scanDir}); err != nil {
			log.Printf("Failed to start scan of %s: %v", scanDir, err)
		}
	}

	// Start forwarding events to UI in background
	go func() {
		for event := range eventChan {
			p.Send(ui.EventMsg{Event: event})
		}
	}()

	// Run the UI
	log.Printf("Starting UI...")
	if _, err := p.Run(); err != nil {
		log.Printf("Error running program: %v", err)
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
	log.Printf("UI exited normally")

	// Cleanup
	discoverySvc.StopScan()
	close(eventChan)
}

// loadConfig loads from an explicit path when given, otherwise from the
// default location, falling back to defaults on any failure
func loadConfig(configSvc config.ConfigService, path string) *config.Config {
	if path != "" {
		cfg, err := configSvc.LoadFromPath(path)
		if err != nil {
			log.Printf("Failed to load config from %s: %v, using defaults", path, err)
			return config.DefaultConfig()
		}
		log.Printf("Loaded config from %s", path)
		return cfg
	}

	cfg, err := configSvc.Load()
	if err != nil {
		log.Printf("Failed to load config: %v, using defaults", err)
		return config.DefaultConfig()
	}
	return cfg
}
