package shutdown

import (
	"context"
	"sort"
	"sync"
)

// CleanupFunc is the signature for cleanup handlers executed during shutdown.
// Implementations should respect the context deadline and return promptly
// once it expires.
type CleanupFunc func(ctx context.Context) error

// cleanupEntry holds a registered cleanup function with metadata.
type cleanupEntry struct {
	name     string
	fn       CleanupFunc
	priority int // lower = earlier execution
}

// Registry maintains an ordered collection of cleanup functions.
//
// This is a molecule that composes CleanupFunc with priority ordering and
// thread-safe registration to coordinate teardown during graceful shutdown.
//
// Usage:
//
//	registry := NewRegistry()
//
//	// Register handlers (lower priority runs first)
//	registry.Register("http-server", 10, func(ctx context.Context) error {
//	    return server.Shutdown(ctx)
//	})
//	registry.Register("database", 30, func(ctx context.Context) error {
//	    return db.Close()
//	})
//
//	// During shutdown:
//	errs := registry.Run(ctx)
type Registry struct {
	mu      sync.Mutex
	entries []cleanupEntry
	closed  bool
}

// NewRegistry creates a Registry ready to accept registrations.
func NewRegistry() *Registry {
	return &Registry{
		entries: make([]cleanupEntry, 0),
	}
}

// Register adds a cleanup function with a name and priority.
// Lower priority values execute earlier during shutdown.
// Registration after Run has been called is a no-op.
//
// Typical priority ranges:
//   - 0-9: stop accepting work (HTTP server, signal handlers)
//   - 10-19: drain background workers (async writers, pollers)
//   - 20-29: close resources (databases, files)
//   - 30+: final cleanup (flush logs)
func (r *Registry) Register(name string, priority int, fn CleanupFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.entries = append(r.entries, cleanupEntry{
		name:     name,
		fn:       fn,
		priority: priority,
	})
}

// Run executes all registered cleanup functions in priority order.
// Returns a slice of errors from functions that failed (nil entries omitted).
// Each function receives the provided context for cancellation/timeout.
//
// All functions are called even if some fail. After Run completes the
// registry is marked closed.
func (r *Registry) Run(ctx context.Context) []error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true

	sorted := r.sortedLocked()
	r.mu.Unlock()

	var errs []error
	for _, entry := range sorted {
		if err := entry.fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// Names returns the names of all registered cleanup functions in priority order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	sorted := r.sortedLocked()
	names := make([]string, len(sorted))
	for i, entry := range sorted {
		names[i] = entry.name
	}
	return names
}

// Count returns the number of registered cleanup functions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// IsClosed returns true if Run has been called.
func (r *Registry) IsClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// sortedLocked copies the entries sorted by priority. Caller must hold r.mu.
func (r *Registry) sortedLocked() []cleanupEntry {
	sorted := make([]cleanupEntry, len(r.entries))
	copy(sorted, r.entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].priority < sorted[j].priority
	})
	return sorted
}
