package stat

import "sync"

// Handle is the registry's view of a live stat. It hides the stat's value
// type so int64 and float64 stats can share one registry.
type Handle interface {
	Name() string
	// Summary returns the last closed window keyed by aggregation display
	// name. Empty before the first close.
	Summary() map[string]any
}

// Registry is a process-wide directory of live stats. Stats register
// themselves at construction and unregister when closed; both are safe to
// call concurrently for distinct stats.
type Registry struct {
	mu    sync.Mutex
	stats map[Handle]struct{}
}

func NewRegistry() *Registry {
	return &Registry{stats: make(map[Handle]struct{})}
}

func (r *Registry) Register(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats[h] = struct{}{}
}

func (r *Registry) Unregister(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stats, h)
}

// Handles returns a point-in-time snapshot of the live stats. Iterating the
// snapshot never observes a stat mid-registration or after removal from the
// directory.
func (r *Registry) Handles() []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Handle, 0, len(r.stats))
	for h := range r.stats {
		out = append(out, h)
	}
	return out
}

// Len returns the number of live stats.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stats)
}
