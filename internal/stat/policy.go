package stat

import "time"

// Policy decides when a stat's current window should close. The stat consults
// ShouldClose twice per Add, once before and once after folding the
// observation, always while holding the stat's lock; a policy therefore needs
// no locking of its own. WindowClosed runs as part of each close so the
// policy can roll its own state forward.
type Policy interface {
	ShouldClose(count int64) bool
	WindowClosed()
}

// IntervalPolicy closes a window whenever the wall-clock bucket index
// (elapsed time divided by the window size) has moved on since the last
// close. Closure is detected lazily on the next Add; there is no background
// timer, so a window can outlive its nominal end if no observations arrive.
// Buckets skipped entirely collapse into a single close.
type IntervalPolicy struct {
	window       time.Duration
	now          func() time.Time
	lastWindowID int64
}

// NewIntervalPolicy returns a policy with the given window size.
func NewIntervalPolicy(window time.Duration) *IntervalPolicy {
	return NewIntervalPolicyWithTimeProvider(window, time.Now)
}

// NewIntervalPolicyWithTimeProvider injects the clock, mostly for testing.
func NewIntervalPolicyWithTimeProvider(window time.Duration, now func() time.Time) *IntervalPolicy {
	p := &IntervalPolicy{window: window, now: now}
	p.lastWindowID = p.currentWindowID()
	return p
}

func (p *IntervalPolicy) currentWindowID() int64 {
	return p.now().UnixNano() / int64(p.window)
}

func (p *IntervalPolicy) ShouldClose(int64) bool {
	return p.currentWindowID() != p.lastWindowID
}

func (p *IntervalPolicy) WindowClosed() {
	p.lastWindowID = p.currentWindowID()
}

// FixedCountPolicy closes a window once it holds threshold observations.
// Because the stat re-checks after folding, the N-th Add itself triggers the
// close rather than the call after it.
type FixedCountPolicy struct {
	threshold int64
}

func NewFixedCountPolicy(threshold int64) *FixedCountPolicy {
	return &FixedCountPolicy{threshold: threshold}
}

func (p *FixedCountPolicy) ShouldClose(count int64) bool {
	return count >= p.threshold
}

func (p *FixedCountPolicy) WindowClosed() {}
