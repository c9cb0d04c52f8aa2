package stat

import "fmt"

// Aggregation identifies one summary kind a stat can compute over a window.
type Aggregation int

const (
	// Value exports the most recently observed value.
	Value Aggregation = iota
	// Mean computes the mean of the observations within the window. Zero if
	// the window is empty.
	Mean
	// Count tracks the number of observations within the window.
	Count
	// Sum computes the sum of the observations within the window.
	Sum
	// Max computes the maximum of the observations within the window.
	Max
	// Min computes the minimum of the observations within the window.
	Min

	numAggregations
)

// DisplayName returns the lowercase name used to build event metadata keys.
func (a Aggregation) DisplayName() string {
	switch a {
	case Value:
		return "value"
	case Mean:
		return "mean"
	case Count:
		return "count"
	case Sum:
		return "sum"
	case Max:
		return "max"
	case Min:
		return "min"
	default:
		return "unknown"
	}
}

func (a Aggregation) String() string { return a.DisplayName() }

// ParseAggregation converts a config-file name into an Aggregation.
func ParseAggregation(name string) (Aggregation, error) {
	switch name {
	case "value":
		return Value, nil
	case "mean":
		return Mean, nil
	case "count":
		return Count, nil
	case "sum":
		return Sum, nil
	case "max":
		return Max, nil
	case "min":
		return Min, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAggregation, name)
	}
}

// AggregationSet is an immutable selection of aggregation kinds, stored as a
// bitset so membership tests on the add path stay cheap.
type AggregationSet uint8

// NewAggregationSet collapses the requested kinds into a set. Duplicates are
// deduplicated; order is irrelevant.
func NewAggregationSet(kinds ...Aggregation) AggregationSet {
	var s AggregationSet
	for _, k := range kinds {
		if k >= 0 && k < numAggregations {
			s |= 1 << uint(k)
		}
	}
	return s
}

// Contains reports whether the kind is selected.
func (s AggregationSet) Contains(k Aggregation) bool {
	return s&(1<<uint(k)) != 0
}

// Len returns the number of selected kinds, useful as a capacity hint.
func (s AggregationSet) Len() int {
	n := 0
	for k := Aggregation(0); k < numAggregations; k++ {
		if s.Contains(k) {
			n++
		}
	}
	return n
}
