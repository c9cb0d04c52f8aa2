package stat

// Number constrains the value types a stat can aggregate. Ordering, addition
// and a zero value are all the accumulator needs.
type Number interface {
	~int64 | ~float64
}

// window holds the running aggregates for one open (or just-closed) window.
// The zero value is a valid empty window.
type window[T Number] struct {
	value T
	sum   T
	min   T
	max   T
	count int64
}

// fold records one observation. Only the fields backing a selected
// aggregation are touched. The extrema are seeded from the first observation
// of the window (count == 0) rather than compared against leftover state, and
// count is incremented last so that check works.
func (w *window[T]) fold(set AggregationSet, v T) {
	if set.Contains(Value) {
		w.value = v
	}
	if set.Contains(Mean) || set.Contains(Sum) {
		w.sum += v
	}
	if set.Contains(Max) {
		if w.max < v || w.count == 0 {
			w.max = v
		}
	}
	if set.Contains(Min) {
		if w.min > v || w.count == 0 {
			w.min = v
		}
	}
	w.count++
}

// snapshot produces one entry per selected aggregation. An empty window
// yields defined zeroes; Mean in particular is 0 rather than a division by
// zero.
func (w *window[T]) snapshot(set AggregationSet) map[Aggregation]T {
	out := make(map[Aggregation]T, set.Len())

	if set.Contains(Value) {
		out[Value] = w.value
	}
	if set.Contains(Mean) {
		if w.count == 0 {
			out[Mean] = 0
		} else {
			out[Mean] = w.sum / T(w.count)
		}
	}
	if set.Contains(Count) {
		out[Count] = T(w.count)
	}
	if set.Contains(Sum) {
		out[Sum] = w.sum
	}
	if set.Contains(Max) {
		out[Max] = w.max
	}
	if set.Contains(Min) {
		out[Min] = w.min
	}
	return out
}

// reset returns the accumulator to the empty state for a fresh window.
func (w *window[T]) reset() {
	*w = window[T]{}
}
