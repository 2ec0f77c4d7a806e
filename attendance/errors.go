package attendance

import "errors"

// Gate failures. Each names the single rule that rejected the punch.
var (
	ErrAlreadyCheckedIn    = errors.New("already checked in today")
	ErrSpecialHoliday      = errors.New("today is a special holiday")
	ErrCheckInWindowClosed = errors.New("check-in window has closed")
	ErrTooEarly            = errors.New("too early to check in")
	ErrFullDayLeaveActive  = errors.New("approved full-day leave covers today")
	ErrTooEarlyForHalfDay  = errors.New("too early to check in for a half-day")
	ErrNoCheckInFound      = errors.New("no check-in found for today")
	ErrAlreadyCheckedOut   = errors.New("already checked out today")
	ErrTooEarlyToCheckOut  = errors.New("too early to check out")
)
