package stat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowFold(t *testing.T) {
	all := NewAggregationSet(Value, Mean, Count, Sum, Max, Min)

	t.Run("first observation seeds the extrema", func(t *testing.T) {
		var w window[float64]
		w.fold(all, -7.5)

		got := w.snapshot(all)
		assert.Equal(t, -7.5, got[Min])
		assert.Equal(t, -7.5, got[Max])
	})

	t.Run("extrema track later observations", func(t *testing.T) {
		var w window[int64]
		for _, v := range []int64{5, -2, 9} {
			w.fold(all, v)
		}

		got := w.snapshot(all)
		assert.Equal(t, int64(-2), got[Min])
		assert.Equal(t, int64(9), got[Max])
	})

	t.Run("value keeps the last observation", func(t *testing.T) {
		var w window[int64]
		w.fold(all, 1)
		w.fold(all, 2)
		w.fold(all, 3)

		assert.Equal(t, int64(3), w.snapshot(all)[Value])
	})

	t.Run("only selected fields are updated", func(t *testing.T) {
		countOnly := NewAggregationSet(Count)
		var w window[float64]
		w.fold(countOnly, 42)

		assert.Equal(t, float64(0), w.value)
		assert.Equal(t, float64(0), w.sum)
		assert.Equal(t, int64(1), w.count)
	})
}

func TestWindowSnapshot(t *testing.T) {
	t.Run("empty window reports defined zeroes", func(t *testing.T) {
		all := NewAggregationSet(Value, Mean, Count, Sum, Max, Min)
		var w window[float64]

		got := w.snapshot(all)
		assert.Len(t, got, 6)
		for _, k := range []Aggregation{Value, Mean, Count, Sum, Max, Min} {
			assert.Equal(t, float64(0), got[k], k.DisplayName())
		}
	})

	t.Run("mean is sum over count", func(t *testing.T) {
		set := NewAggregationSet(Mean)
		var w window[float64]
		w.fold(set, 10)
		w.fold(set, 20)
		w.fold(set, 30)

		assert.Equal(t, float64(20), w.snapshot(set)[Mean])
	})

	t.Run("integer mean truncates like integer division", func(t *testing.T) {
		set := NewAggregationSet(Mean)
		var w window[int64]
		w.fold(set, 1)
		w.fold(set, 2)

		assert.Equal(t, int64(1), w.snapshot(set)[Mean])
	})

	t.Run("snapshot holds one entry per selected kind", func(t *testing.T) {
		set := NewAggregationSet(Sum, Count)
		var w window[int64]
		w.fold(set, 4)

		got := w.snapshot(set)
		assert.Len(t, got, 2)
		assert.Equal(t, int64(4), got[Sum])
		assert.Equal(t, int64(1), got[Count])
	})
}

func TestWindowReset(t *testing.T) {
	set := NewAggregationSet(Sum, Count, Min, Max)
	var w window[int64]
	w.fold(set, 100)
	w.fold(set, -100)

	w.reset()

	assert.Equal(t, int64(0), w.count)
	assert.Equal(t, int64(0), w.sum)
	assert.Equal(t, int64(0), w.min)
	assert.Equal(t, int64(0), w.max)
}
