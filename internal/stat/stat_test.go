package stat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statwatch/statwatch/internal/event"
)

// eventCapture collects emitted events; safe for concurrent emits.
type eventCapture struct {
	mu     sync.Mutex
	events []event.Event
}

func (c *eventCapture) handler() event.Handler {
	return func(e event.Event) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.events = append(c.events, e)
	}
}

func (c *eventCapture) all() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event.Event(nil), c.events...)
}

func TestNewValidation(t *testing.T) {
	t.Run("rejects empty name", func(t *testing.T) {
		_, err := New[float64]("", []Aggregation{Sum}, NewFixedCountPolicy(1), nil, nil)
		assert.ErrorIs(t, err, ErrEmptyName)
	})

	t.Run("rejects empty aggregation list", func(t *testing.T) {
		_, err := New[float64]("x", nil, NewFixedCountPolicy(1), nil, nil)
		assert.ErrorIs(t, err, ErrNoAggregations)
	})

	t.Run("rejects non-positive windows", func(t *testing.T) {
		_, err := NewIntervalStat[float64]("x", []Aggregation{Sum}, 0, nil, nil)
		assert.ErrorIs(t, err, ErrInvalidWindow)

		_, err = NewFixedCountStat[float64]("x", []Aggregation{Sum}, 0, nil, nil)
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})
}

func TestStatCount(t *testing.T) {
	s, err := NewFixedCountStat[int64]("c", []Aggregation{Count}, 100, nil, nil)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, int64(0), s.Count())
	for i := 0; i < 17; i++ {
		s.Add(1)
	}
	assert.Equal(t, int64(17), s.Count())
}

func TestStatGet(t *testing.T) {
	t.Run("empty before the first close", func(t *testing.T) {
		s, err := NewFixedCountStat[float64]("g", []Aggregation{Sum, Count}, 10, nil, nil)
		require.NoError(t, err)
		defer s.Close()

		s.Add(1)
		s.Add(2)
		assert.Empty(t, s.Get())
	})

	t.Run("reflects the last closed window, not the open one", func(t *testing.T) {
		s, err := NewFixedCountStat[int64]("g", []Aggregation{Sum}, 2, nil, nil)
		require.NoError(t, err)
		defer s.Close()

		s.Add(3)
		s.Add(4) // closes {sum: 7}
		s.Add(100)

		assert.Equal(t, map[Aggregation]int64{Sum: 7}, s.Get())
	})
}

func TestFixedCountWindowing(t *testing.T) {
	t.Run("the Nth add itself closes the window", func(t *testing.T) {
		var capture eventCapture
		s, err := NewFixedCountStat[float64]("latency", []Aggregation{Sum, Count, Mean}, 3, nil, capture.handler())
		require.NoError(t, err)
		defer s.Close()

		s.Add(10)
		s.Add(20)
		assert.Empty(t, capture.all())

		s.Add(30)

		events := capture.all()
		require.Len(t, events, 1)
		assert.Equal(t, EventType, events[0].Type)
		assert.Equal(t, "latency", events[0].Message)
		assert.False(t, events[0].Timestamp.IsZero())
		assert.Equal(t, map[string]any{
			"latency.sum":   float64(60),
			"latency.count": float64(3),
			"latency.mean":  float64(20),
		}, events[0].Metadata)

		// window reopened
		assert.Equal(t, int64(0), s.Count())
	})

	t.Run("get stays stable until the next close", func(t *testing.T) {
		s, err := NewFixedCountStat[float64]("latency", []Aggregation{Sum, Count, Mean}, 3, nil, nil)
		require.NoError(t, err)
		defer s.Close()

		s.Add(10)
		s.Add(20)
		s.Add(30)

		want := map[Aggregation]float64{Sum: 60, Count: 3, Mean: 20}
		assert.Equal(t, want, s.Get())

		s.Add(5)
		s.Add(5)
		assert.Equal(t, want, s.Get(), "open window must not leak into Get")
	})

	t.Run("threshold of one closes every add", func(t *testing.T) {
		var capture eventCapture
		s, err := NewFixedCountStat[int64]("one", []Aggregation{Value}, 1, nil, capture.handler())
		require.NoError(t, err)
		defer s.Close()

		s.Add(7)
		s.Add(8)
		require.Len(t, capture.all(), 2)
		assert.Equal(t, map[Aggregation]int64{Value: 8}, s.Get())
	})
}

func TestIntervalWindowing(t *testing.T) {
	newStat := func(t *testing.T, capture *eventCapture) (*Stat[int64], *time.Time) {
		now := time.Unix(1000, 0)
		policy := NewIntervalPolicyWithTimeProvider(time.Second, func() time.Time { return now })
		var emit event.Handler
		if capture != nil {
			emit = capture.handler()
		}
		s, err := New[int64]("iv", []Aggregation{Max, Min}, policy, nil, emit)
		require.NoError(t, err)
		return s, &now
	}

	t.Run("adds within one bucket never close", func(t *testing.T) {
		var capture eventCapture
		s, now := newStat(t, &capture)
		defer s.Close()

		s.Add(5)
		*now = now.Add(400 * time.Millisecond)
		s.Add(-2)
		*now = now.Add(400 * time.Millisecond)
		s.Add(9)

		assert.Empty(t, capture.all())
		assert.Empty(t, s.Get())
		assert.Equal(t, int64(3), s.Count())
	})

	t.Run("the next add after rollover closes exactly once", func(t *testing.T) {
		var capture eventCapture
		s, now := newStat(t, &capture)
		defer s.Close()

		s.Add(5)
		s.Add(-2)
		s.Add(9)

		// Skip several buckets; the close is still a single event.
		*now = now.Add(5 * time.Second)
		s.Add(1)

		events := capture.all()
		require.Len(t, events, 1)
		assert.Equal(t, map[string]any{
			"iv.max": int64(9),
			"iv.min": int64(-2),
		}, events[0].Metadata)

		assert.Equal(t, map[Aggregation]int64{Max: 9, Min: -2}, s.Get())
		assert.Equal(t, int64(1), s.Count(), "the triggering add lands in the new window")
	})

	t.Run("rollover with an empty window emits nothing", func(t *testing.T) {
		var capture eventCapture
		s, now := newStat(t, &capture)
		defer s.Close()

		*now = now.Add(3 * time.Second)
		s.Add(4)

		assert.Empty(t, capture.all())
	})
}

func TestStatClose(t *testing.T) {
	t.Run("flushes a non-empty window as a final event", func(t *testing.T) {
		var capture eventCapture
		s, err := NewFixedCountStat[int64]("f", []Aggregation{Sum, Count}, 100, nil, capture.handler())
		require.NoError(t, err)

		s.Add(2)
		s.Add(3)
		s.Close()

		events := capture.all()
		require.Len(t, events, 1)
		assert.Equal(t, map[string]any{
			"f.sum":   int64(5),
			"f.count": int64(2),
		}, events[0].Metadata)
	})

	t.Run("empty window emits nothing", func(t *testing.T) {
		var capture eventCapture
		s, err := NewFixedCountStat[int64]("f", []Aggregation{Sum}, 100, nil, capture.handler())
		require.NoError(t, err)

		s.Close()
		assert.Empty(t, capture.all())
	})

	t.Run("unregisters from the registry exactly once", func(t *testing.T) {
		registry := NewRegistry()
		s, err := NewFixedCountStat[int64]("r", []Aggregation{Sum}, 100, registry, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, registry.Len())

		s.Close()
		assert.Equal(t, 0, registry.Len())

		s.Close() // idempotent
		assert.Equal(t, 0, registry.Len())
	})

	t.Run("adds after close are dropped", func(t *testing.T) {
		var capture eventCapture
		s, err := NewFixedCountStat[int64]("d", []Aggregation{Count}, 1, nil, capture.handler())
		require.NoError(t, err)

		s.Close()
		s.Add(1)

		assert.Empty(t, capture.all())
		assert.Equal(t, int64(0), s.Count())
	})
}

func TestStatSummary(t *testing.T) {
	s, err := NewFixedCountStat[float64]("sm", []Aggregation{Sum, Mean}, 2, nil, nil)
	require.NoError(t, err)
	defer s.Close()

	assert.Empty(t, s.Summary())

	s.Add(1)
	s.Add(3)

	assert.Equal(t, map[string]any{"sum": float64(4), "mean": float64(2)}, s.Summary())
}

func TestStatConcurrentAdds(t *testing.T) {
	const (
		goroutines = 8
		perG       = 1000
		threshold  = 64
	)

	var capture eventCapture
	s, err := NewFixedCountStat[int64]("cc", []Aggregation{Sum, Count}, threshold, nil, capture.handler())
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perG; i++ {
				s.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Close()

	// No observation may be lost or duplicated: the window counts across all
	// emitted events must sum to the total number of adds.
	var total int64
	for _, e := range capture.all() {
		count, ok := e.Metadata["cc.count"].(int64)
		require.True(t, ok)
		assert.Equal(t, e.Metadata["cc.sum"], count, "every observation was 1")
		total += count
	}
	assert.Equal(t, int64(goroutines*perG), total)
}

func TestStatConcurrentReaders(t *testing.T) {
	s, err := NewFixedCountStat[int64]("rw", []Aggregation{Sum, Count}, 10, nil, nil)
	require.NoError(t, err)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				got := s.Get()
				// Readers never observe a torn window: sum always equals
				// count times the constant observation value.
				if len(got) > 0 {
					assert.Equal(t, got[Count]*3, got[Sum])
				}
			}
		}
	}()
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				s.Count()
			}
		}
	}()

	for i := 0; i < 5000; i++ {
		s.Add(3)
	}
	close(done)
	wg.Wait()
	s.Close()
}
