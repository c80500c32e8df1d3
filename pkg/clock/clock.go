// Package clock provides a deterministic clock abstraction for the
// auditable item graph.
//
// Core logic packages (pkg/aig, internal/*) must not call time.Now()
// directly — a mutation captures a single "now" for every epoch field
// it writes (vertex.Created/Updated, element Created/Updated/Deleted,
// changeset Created), and tests need to pin that instant to reproduce
// the fixed-epoch scenarios in spec.md §8.
//
// Usage:
//
//	svc := aig.NewService(storage, log, vault, identity, clock.NewReal(), logger, cfg)
//
//	// In tests
//	fixed := clock.NewFixed(time.UnixMilli(1_724_327_716_271))
//	svc := aig.NewService(storage, log, vault, identity, fixed, logger, cfg)
package clock

import "time"

// Clock provides the current time.
// All core logic should depend on this interface, not time.Now().
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual system time.
// Use only at application entry points (cmd/*).
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns a fixed time.
// Use for deterministic testing.
type FixedClock struct {
	T time.Time
}

// Now returns the fixed time.
func (c FixedClock) Now() time.Time {
	return c.T
}

// FuncClock wraps a function as a Clock.
// Useful for incremental time or custom test scenarios.
type FuncClock func() time.Time

// Now calls the wrapped function.
func (f FuncClock) Now() time.Time {
	return f()
}

// NewReal returns a Clock that uses the real system time.
// ONLY use at application entry points (cmd/*).
func NewReal() Clock {
	return RealClock{}
}

// NewFixed returns a Clock that always returns the given time.
// Use for deterministic testing.
func NewFixed(t time.Time) Clock {
	return FixedClock{T: t}
}

// NewFunc returns a Clock backed by a custom function.
// Useful for tests that need incrementing or dynamic time.
func NewFunc(f func() time.Time) Clock {
	return FuncClock(f)
}

// Verify interface compliance at compile time.
var (
	_ Clock = RealClock{}
	_ Clock = FixedClock{}
	_ Clock = FuncClock(nil)
)
