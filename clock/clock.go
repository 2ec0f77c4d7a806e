// Package clock abstracts "now" so lateness and gap checks are testable.
package clock

import "time"

// Clock supplies the current time. Every "today" and lateness comparison in
// the engine goes through a Clock instead of calling time.Now directly.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed is a clock pinned to a single instant, for tests.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }

// At builds a Fixed clock from date and time components.
func At(year int, month time.Month, day, hour, minute int) Fixed {
	return Fixed{T: time.Date(year, month, day, hour, minute, 0, 0, time.UTC)}
}
