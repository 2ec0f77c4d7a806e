/*
errors.go - Error types for the leave engine

ERROR CATEGORIES:
  1. Validation errors  - malformed input, rejected before any storage access
  2. Policy violations  - legal input the policy forbids (gap, overlap,
     schedule, quota); user-facing, not retryable as-is
  3. State errors       - transition attempted from the wrong status

Structured errors wrap a sentinel so callers can branch with errors.Is while
still formatting the detail (available vs requested, the offending date).
*/
package leave

import (
	"errors"
	"fmt"

	"github.com/warp/hr-engine/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDateRange is returned when the end date precedes the start.
	ErrInvalidDateRange = errors.New("end date before start date")

	// ErrInvalidDuration is returned for an unknown duration value.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrLeaveGapViolation is returned when a request starts sooner than the
	// policy's minimum lead time allows.
	ErrLeaveGapViolation = errors.New("leave gap violation")

	// ErrOverlapConflict is returned when the employee already has a pending
	// or approved request intersecting the new range.
	ErrOverlapConflict = errors.New("overlapping leave request")

	// ErrNonWorkingDay is returned when any requested day falls outside the
	// weekly work schedule.
	ErrNonWorkingDay = errors.New("request includes non-working day")

	// ErrZeroDayRequest is returned when the computed total is zero or less.
	ErrZeroDayRequest = errors.New("request consumes zero days")

	// ErrQuotaNotConfigured is returned when a paid leave type has no quota
	// row for the requested year.
	ErrQuotaNotConfigured = errors.New("leave quota not configured")

	// ErrQuotaExceeded is returned when a request exceeds the available balance.
	ErrQuotaExceeded = errors.New("leave quota exceeded")

	// ErrRequestNotFound is returned for an unknown request ID.
	ErrRequestNotFound = errors.New("leave request not found")

	// ErrLeaveTypeNotFound is returned for an unknown leave type ID.
	ErrLeaveTypeNotFound = errors.New("leave type not found")

	// ErrInvalidState is returned for a transition from the wrong status,
	// e.g. approving a cancelled request.
	ErrInvalidState = errors.New("invalid request state for this operation")

	// ErrNotOwner is returned when someone other than the requester attempts
	// a requester-only operation (cancel).
	ErrNotOwner = errors.New("not the request owner")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// GapError details a lead-time violation.
type GapError struct {
	RequiredDays int
	ActualDays   int
	StartDate    calendar.Date
}

func (e *GapError) Error() string {
	return fmt.Sprintf("leave starting %s must be filed at least %d days ahead (got %d)",
		e.StartDate, e.RequiredDays, e.ActualDays)
}

func (e *GapError) Unwrap() error { return ErrLeaveGapViolation }

// OverlapError names the conflicting request.
type OverlapError struct {
	ExistingID string
	Start      calendar.Date
	End        calendar.Date
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("overlaps existing request %s (%s to %s)", e.ExistingID, e.Start, e.End)
}

func (e *OverlapError) Unwrap() error { return ErrOverlapConflict }

// NonWorkingDayError names the first offending date.
type NonWorkingDayError struct {
	Date calendar.Date
}

func (e *NonWorkingDayError) Error() string {
	return fmt.Sprintf("%s (%s) is not a working day", e.Date, e.Date.Weekday())
}

func (e *NonWorkingDayError) Unwrap() error { return ErrNonWorkingDay }

// QuotaExceededError reports the shortfall.
type QuotaExceededError struct {
	Available Days
	Requested Days
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("insufficient quota: available %s, requested %s", e.Available, e.Requested)
}

func (e *QuotaExceededError) Unwrap() error { return ErrQuotaExceeded }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsPolicyViolation reports whether err is a business rule rejection the
// caller should display rather than retry.
func IsPolicyViolation(err error) bool {
	return errors.Is(err, ErrLeaveGapViolation) ||
		errors.Is(err, ErrOverlapConflict) ||
		errors.Is(err, ErrNonWorkingDay) ||
		errors.Is(err, ErrZeroDayRequest) ||
		errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrQuotaNotConfigured)
}

// IsValidation reports whether err is malformed input caught before any
// storage access.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidDateRange) || errors.Is(err, ErrInvalidDuration)
}

// IsStateConflict reports whether err is a lifecycle state mismatch.
func IsStateConflict(err error) bool {
	return errors.Is(err, ErrInvalidState) || errors.Is(err, ErrNotOwner)
}
