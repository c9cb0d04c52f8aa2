package stat

import (
	"sync"
	"time"

	"github.com/statwatch/statwatch/internal/event"
)

// EventType tags every closed-window event a stat emits.
const EventType = "statwatch.Stat"

// Stat computes summary statistics over repeating windows of observations.
// Observations arrive via Add from any number of goroutines; everything is
// serialized through one mutex. When the policy decides a window is over,
// the window rotates to "previous" and, if it held any observations, one
// event is emitted.
//
// There is no background timer: window closure is detected opportunistically
// on Add (and on Close), so emission frequency tracks observation frequency.
type Stat[T Number] struct {
	name     string
	aggs     AggregationSet
	policy   Policy
	registry *Registry
	emit     event.Handler

	mu      sync.Mutex
	current window[T]
	prev    *window[T]
	closed  bool
}

// New creates a stat and registers it with the registry. The returned stat
// must be closed by its owner to flush the final window and drop the
// registry entry.
func New[T Number](name string, kinds []Aggregation, policy Policy, registry *Registry, emit event.Handler) (*Stat[T], error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if len(kinds) == 0 {
		return nil, ErrNoAggregations
	}

	s := &Stat[T]{
		name:     name,
		aggs:     NewAggregationSet(kinds...),
		policy:   policy,
		registry: registry,
		emit:     emit,
	}
	if s.emit == nil {
		s.emit = func(event.Event) {}
	}
	if registry != nil {
		registry.Register(s)
	}
	return s, nil
}

// NewIntervalStat creates a stat whose windows close on wall-clock interval
// boundaries. windowSize should be fairly large (seconds to a minute) to
// keep the event volume sane.
func NewIntervalStat[T Number](name string, kinds []Aggregation, windowSize time.Duration, registry *Registry, emit event.Handler) (*Stat[T], error) {
	if windowSize <= 0 {
		return nil, ErrInvalidWindow
	}
	return New[T](name, kinds, NewIntervalPolicy(windowSize), registry, emit)
}

// NewFixedCountStat creates a stat whose windows close every windowCount
// observations.
func NewFixedCountStat[T Number](name string, kinds []Aggregation, windowCount int64, registry *Registry, emit event.Handler) (*Stat[T], error) {
	if windowCount <= 0 {
		return nil, ErrInvalidWindow
	}
	return New[T](name, kinds, NewFixedCountPolicy(windowCount), registry, emit)
}

// Name returns the stat's stable identity, used as event message and
// metadata key prefix.
func (s *Stat[T]) Name() string { return s.name }

// Add folds one observation into the current window. The policy is consulted
// both before folding (a stale window closes ahead of this observation) and
// after (a count threshold reached by this observation closes immediately).
func (s *Stat[T]) Add(v T) {
	var pending []event.Event

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.policy.ShouldClose(s.current.count) {
		if e, ok := s.closeWindowLocked(); ok {
			pending = append(pending, e)
		}
	}
	s.current.fold(s.aggs, v)
	if s.policy.ShouldClose(s.current.count) {
		if e, ok := s.closeWindowLocked(); ok {
			pending = append(pending, e)
		}
	}
	s.mu.Unlock()

	// Emitted outside the lock so a slow sink cannot stall the add path.
	for _, e := range pending {
		s.emit(e)
	}
}

// Count returns the number of observations in the current open window.
func (s *Stat[T]) Count() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.count
}

// Get returns the aggregates of the most recently closed window. Before any
// window has closed the map is empty; afterwards it only changes at close
// boundaries, making it stable for polling.
func (s *Stat[T]) Get() map[Aggregation]T {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.prev == nil {
		return map[Aggregation]T{}
	}
	return s.prev.snapshot(s.aggs)
}

// Summary implements Handle for registry enumeration.
func (s *Stat[T]) Summary() map[string]any {
	vals := s.Get()
	out := make(map[string]any, len(vals))
	for k, v := range vals {
		out[k.DisplayName()] = v
	}
	return out
}

// Close flushes the current window — a short, out-of-band final window if it
// holds any observations — and unregisters the stat. Safe to call more than
// once; later calls do nothing. Add calls after Close are dropped.
func (s *Stat[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	e, ok := s.closeWindowLocked()
	s.mu.Unlock()

	if ok {
		s.emit(e)
	}
	if s.registry != nil {
		s.registry.Unregister(s)
	}
}

// closeWindowLocked rotates current to previous and reports the event to
// emit, if any. A window with no observations rotates silently so the sink
// never sees empty windows.
func (s *Stat[T]) closeWindowLocked() (event.Event, bool) {
	pv := s.current
	s.prev = &pv
	s.current.reset()
	s.policy.WindowClosed()

	if pv.count == 0 {
		return event.Event{}, false
	}

	vals := pv.snapshot(s.aggs)
	metadata := make(map[string]any, len(vals))
	for k, v := range vals {
		metadata[s.name+"."+k.DisplayName()] = v
	}
	return event.Event{
		Type:      EventType,
		Message:   s.name,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}, true
}
