package stat

import "errors"

var (
	ErrUnknownAggregation = errors.New("unknown aggregation kind")
	ErrEmptyName          = errors.New("stat name cannot be empty")
	ErrNoAggregations     = errors.New("stat needs at least one aggregation")
	ErrInvalidWindow      = errors.New("window size must be positive")
)
