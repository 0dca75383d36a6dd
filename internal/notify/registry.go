package notify

import (
	"sync"

	"fragnav/internal/shell"
)

// Registry hands out one Manager per document, keyed by the document key.
type Registry struct {
	opts Options

	mu       sync.Mutex
	managers map[string]*Manager
}

// NewRegistry creates a Registry whose managers share opts.
func NewRegistry(opts Options) *Registry {
	return &Registry{opts: opts, managers: make(map[string]*Manager)}
}

// For returns the manager of doc, creating it on first use.
func (r *Registry) For(doc shell.Document) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.managers[doc.Key()]; ok {
		return m
	}
	m := NewManager(doc, r.opts)
	r.managers[doc.Key()] = m
	return m
}

// Release closes and forgets the manager of doc.
func (r *Registry) Release(doc shell.Document) {
	r.mu.Lock()
	m, ok := r.managers[doc.Key()]
	delete(r.managers, doc.Key())
	r.mu.Unlock()
	if ok {
		m.Close()
	}
}

// Close closes every manager.
func (r *Registry) Close() {
	r.mu.Lock()
	managers := r.managers
	r.managers = make(map[string]*Manager)
	r.mu.Unlock()
	for _, m := range managers {
		m.Close()
	}
}
