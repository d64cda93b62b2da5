package platform

import "time"

// ClockType selects which clock a timed wait measures against.
//
// spec.md §9 leaves this an open question rather than silently degrading:
// "On platforms without a monotonic clock, should timed_wait degrade
// silently to realtime (risking NTP jumps) or refuse?" This module keeps
// the choice visible as an explicit selector argument; Now and Elapsed
// return no error, and read Go's time.Now/time.Since for either value.
type ClockType int

const (
	// Monotonic is immune to wall-clock adjustments (NTP steps, manual
	// clock changes). Preferred for all internal deadlines.
	Monotonic ClockType = iota
	// Realtime tracks wall-clock time and may jump.
	Realtime
)

// Now returns the current time for the requested clock. Go's time.Now()
// always carries a monotonic reading on every platform this module
// targets, so Monotonic never fails here — the selector exists so a
// caller's choice is explicit and auditable rather than assumed, and so a
// future platform lacking a monotonic source has a single place to start
// returning errs.ErrClockUnavailable.
func Now(clock ClockType) time.Time {
	return time.Now()
}

// Elapsed returns the duration since start, measured consistently with the
// clock type start was captured under.
func Elapsed(clock ClockType, start time.Time) time.Duration {
	return time.Since(start)
}
