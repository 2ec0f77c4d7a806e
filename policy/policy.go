/*
Package policy holds the attendance policy aggregate.

PURPOSE:
  The AttendancePolicy is a single-row configuration record owned by HR and
  read by every other component: the daily work window, the lunch break, the
  check-in grace period, the weekly work schedule, the minimum lead time for
  leave requests, and the company's special holidays.

SINGLETON SHAPE:
  There is exactly one active policy. It is modeled as one versionable record
  with explicit read/upsert operations, fetched once per engine operation -
  never as process-wide mutable state.

INVARIANTS (checked by Validate):
  start < breakStart < breakEnd < end
  graceMinutes >= 0, leaveGapDays >= 0
  at least one working weekday
*/
package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/warp/hr-engine/calendar"
)

// ErrPolicyMissing is returned when no attendance policy has been configured.
var ErrPolicyMissing = errors.New("attendance policy not configured")

// AttendancePolicy is the active work-time policy.
type AttendancePolicy struct {
	Start      calendar.TimeOfDay
	End        calendar.TimeOfDay
	BreakStart calendar.TimeOfDay
	BreakEnd   calendar.TimeOfDay

	// GraceMinutes is how long after Start a check-in still counts as on time.
	GraceMinutes int

	// WorkingDays is the weekly schedule.
	WorkingDays calendar.WeekdaySet

	// LeaveGapDays is the minimum number of days between filing a leave
	// request and its start date. Zero disables the check.
	LeaveGapDays int

	// SpecialHolidays are company-declared non-working dates, keyed by date
	// with an optional free-text description.
	SpecialHolidays calendar.HolidaySet

	// Version increments on every upsert.
	Version int
}

// Validate checks the ordering and range invariants.
func (p *AttendancePolicy) Validate() error {
	if !p.Start.Before(p.BreakStart) {
		return fmt.Errorf("invalid policy: break start %s must be after start %s", p.BreakStart, p.Start)
	}
	if !p.BreakStart.Before(p.BreakEnd) {
		return fmt.Errorf("invalid policy: break end %s must be after break start %s", p.BreakEnd, p.BreakStart)
	}
	if !p.BreakEnd.Before(p.End) {
		return fmt.Errorf("invalid policy: end %s must be after break end %s", p.End, p.BreakEnd)
	}
	if p.GraceMinutes < 0 {
		return fmt.Errorf("invalid policy: grace minutes must be >= 0, got %d", p.GraceMinutes)
	}
	if p.LeaveGapDays < 0 {
		return fmt.Errorf("invalid policy: leave gap days must be >= 0, got %d", p.LeaveGapDays)
	}
	if len(p.WorkingDays.Indices()) == 0 {
		return errors.New("invalid policy: at least one working weekday required")
	}
	return nil
}

// IsSpecialHoliday reports whether date is one of the policy's declared
// special holidays.
func (p *AttendancePolicy) IsSpecialHoliday(date calendar.Date) bool {
	return p.SpecialHolidays.Contains(date)
}

// Store is the single-row persistence contract for the policy aggregate.
type Store interface {
	// ActivePolicy returns the configured policy, or ErrPolicyMissing.
	ActivePolicy(ctx context.Context) (*AttendancePolicy, error)

	// SavePolicy validates and upserts the single policy record.
	SavePolicy(ctx context.Context, p *AttendancePolicy) error
}
