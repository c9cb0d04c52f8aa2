package event

import "time"

// Event is one closed-window summary emitted by a stat. Metadata values are
// either int64 or float64 depending on the stat's value type.
type Event struct {
	Type      string
	Message   string
	Timestamp time.Time
	Metadata  map[string]any
}

// Handler receives emitted events. Handlers run inline on the emitting
// goroutine and must return quickly; anything slow has to buffer internally.
type Handler func(Event)
