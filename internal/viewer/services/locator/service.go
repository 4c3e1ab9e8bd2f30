package locator

import (
	"sync"
	"time"

	"folio/internal/domain"
	"folio/internal/viewer/scene"
)

// DefaultCacheReset is how long resolved (and unresolved) lookups are kept
// before the cache is wiped wholesale
const DefaultCacheReset = 10 * time.Second

type cacheEntry struct {
	target scene.Target // may be nil: looked up before the page rendered
}

// Service resolves a (file, page) pair to its current render target. Targets
// are registered by the rendering host as pages come up, and may be torn
// down and recreated, so every lookup walks an ordered strategy list.
type Service struct {
	mu         sync.Mutex
	registry   map[domain.PageRef]scene.Target
	strategies []Strategy
	positional func(ref domain.PageRef) scene.Target

	cache      map[domain.PageRef]cacheEntry
	cacheReset time.Duration
	lastReset  time.Time
}

// NewService creates a new locator with the built-in strategy order:
// exact registry match, registered-target scan, then the host-provided
// positional fallback if one is set.
func NewService(cacheReset time.Duration) *Service {
	if cacheReset <= 0 {
		cacheReset = DefaultCacheReset
	}
	s := &Service{
		registry:   make(map[domain.PageRef]scene.Target),
		cache:      make(map[domain.PageRef]cacheEntry),
		cacheReset: cacheReset,
		lastReset:  time.Now(),
	}
	s.strategies = []Strategy{
		{Name: "registry", Find: s.findExact},
		{Name: "scan", Find: s.findByScan},
		{Name: "positional", Find: s.findPositional},
	}
	return s
}

// Register makes a target resolvable. Registering a target for a ref that
// already has one replaces it and drops any stale cached lookup.
func (s *Service) Register(target scene.Target) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := target.Ref()
	s.registry[ref] = target
	delete(s.cache, ref)
}

// Unregister removes a target from resolution
func (s *Service) Unregister(ref domain.PageRef) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.registry, ref)
	delete(s.cache, ref)
}

// UnregisterFile removes every target belonging to a file
func (s *Service) UnregisterFile(file domain.FileKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ref := range s.registry {
		if ref.File == file {
			delete(s.registry, ref)
			delete(s.cache, ref)
		}
	}
}

// SetPositionalFallback installs the host's structural lookup, used when
// neither the registry nor a scan can resolve a page
func (s *Service) SetPositionalFallback(fn func(ref domain.PageRef) scene.Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positional = fn
}

// AddStrategy appends a custom resolution strategy after the built-in ones
func (s *Service) AddStrategy(strategy Strategy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategies = append(s.strategies, strategy)
}

// Find resolves a page to its render target. Returns nil when no strategy
// produces a target; callers treat nil as "not ready yet".
func (s *Service) Find(ref domain.PageRef) scene.Target {
	s.mu.Lock()

	if time.Since(s.lastReset) >= s.cacheReset {
		s.cache = make(map[domain.PageRef]cacheEntry)
		s.lastReset = time.Now()
	}

	if entry, ok := s.cache[ref]; ok {
		s.mu.Unlock()
		return entry.target
	}

	strategies := make([]Strategy, len(s.strategies))
	copy(strategies, s.strategies)
	s.mu.Unlock()

	var target scene.Target
	for _, strategy := range strategies {
		if t := strategy.Find(ref); t != nil {
			target = t
			break
		}
	}

	s.mu.Lock()
	s.cache[ref] = cacheEntry{target: target}
	s.mu.Unlock()
	return target
}

// Invalidate drops any cached lookup for a page, so the next Find resolves
// freshly. Called when a page's render target appears or changes.
func (s *Service) Invalidate(ref domain.PageRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, ref)
}

// Targets returns all currently registered targets
func (s *Service) Targets() []scene.Target {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]scene.Target, 0, len(s.registry))
	for _, t := range s.registry {
		result = append(result, t)
	}
	return result
}

// Clear drops every registration and cached lookup
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registry = make(map[domain.PageRef]scene.Target)
	s.cache = make(map[domain.PageRef]cacheEntry)
	s.lastReset = time.Now()
}

func (s *Service) findExact(ref domain.PageRef) scene.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry[ref]
}

// findByScan asks each registered target for its current identity. Tolerates
// registry keys going stale when the host re-keys a target in place.
func (s *Service) findByScan(ref domain.PageRef) scene.Target {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.registry {
		if t.Ref() == ref {
			return t
		}
	}
	return nil
}

func (s *Service) findPositional(ref domain.PageRef) scene.Target {
	s.mu.Lock()
	fn := s.positional
	s.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(ref)
}
