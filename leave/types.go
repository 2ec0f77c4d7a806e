/*
Package leave implements the leave request engine: day calculation, the quota
ledger, the request lifecycle, and year-end carry-forward.

PURPOSE:
  An employee requests a date range (with optional half-day boundaries); the
  engine sizes the request in working days, validates it against the policy
  (lead-time gap, overlap, working-day schedule, quota) and walks it through
  Pending -> Approved/Rejected/Cancelled, debiting the per-year quota ledger
  on approval.

KEY CONCEPTS IN THIS FILE (types.go):
  - Days: an exact decimal day count (half days make floats a liability)
  - Duration: how a boundary day is consumed (full, morning half, afternoon half)
  - LeaveType: per-type configuration (paid, default quota, carry rules)
  - Quota: the (employee, type, year) ledger row
  - Request: a leave request with its lifecycle status

DESIGN PRINCIPLES:
  1. Precision: all quota math uses decimal.Decimal rounded to 2 places
  2. Stored totals: a request's day count is computed once at submission and
     never recomputed, even if the policy later changes
  3. The ledger is only ever mutated by the request lifecycle and the
     carry-forward batch

SEE ALSO:
  - daycount.go: range + half-day flags -> Days
  - ledger.go: availability checks and atomic debit/credit
  - service.go: the request state machine
  - carryover.go: year-end batch
*/
package leave

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/hr-engine/calendar"
)

// =============================================================================
// DAYS - Exact decimal day quantities
// =============================================================================

// Days is a day count with 2-decimal precision. The zero value is 0.00.
type Days struct {
	dec decimal.Decimal
}

func DaysFromFloat(f float64) Days  { return Days{dec: decimal.NewFromFloat(f)} }
func DaysFromInt(n int) Days        { return Days{dec: decimal.NewFromInt(int64(n))} }
func ZeroDays() Days                { return Days{} }

// DaysFromString parses a decimal day count (e.g. "4.50").
func DaysFromString(s string) (Days, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Days{}, fmt.Errorf("invalid day count %q: %w", s, err)
	}
	return Days{dec: d}, nil
}

// MustDays parses a decimal day count or returns zero. For constants in
// seeds and tests.
func MustDays(s string) Days {
	d, err := DaysFromString(s)
	if err != nil {
		return Days{}
	}
	return d
}

func (d Days) Add(other Days) Days { return Days{dec: d.dec.Add(other.dec)} }
func (d Days) Sub(other Days) Days { return Days{dec: d.dec.Sub(other.dec)} }

// Round2 rounds to 2 decimal places, the ledger's storage precision.
func (d Days) Round2() Days { return Days{dec: d.dec.Round(2)} }

func (d Days) GreaterThan(other Days) bool { return d.dec.GreaterThan(other.dec) }
func (d Days) LessThan(other Days) bool    { return d.dec.LessThan(other.dec) }
func (d Days) Equal(other Days) bool       { return d.dec.Equal(other.dec) }
func (d Days) IsZero() bool                { return d.dec.IsZero() }
func (d Days) IsNegative() bool            { return d.dec.IsNegative() }
func (d Days) IsPositive() bool            { return d.dec.IsPositive() }

// Clamp limits d to [lo, hi].
func (d Days) Clamp(lo, hi Days) Days {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}

func (d Days) Float64() float64 { return d.dec.InexactFloat64() }
func (d Days) String() string   { return d.dec.StringFixed(2) }

// MarshalJSON encodes the count as a decimal string ("4.50"), matching the
// wire encoding used everywhere else.
func (d Days) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Days) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := DaysFromString(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// DURATION - How a boundary day of a request is consumed
// =============================================================================

type Duration string

const (
	DurationFull          Duration = "full"
	DurationHalfMorning   Duration = "half_morning"
	DurationHalfAfternoon Duration = "half_afternoon"
)

func ParseDuration(s string) (Duration, error) {
	switch Duration(s) {
	case DurationFull, DurationHalfMorning, DurationHalfAfternoon:
		return Duration(s), nil
	}
	return "", fmt.Errorf("invalid duration %q", s)
}

func (d Duration) IsHalf() bool {
	return d == DurationHalfMorning || d == DurationHalfAfternoon
}

func (d Duration) Valid() bool {
	return d == DurationFull || d.IsHalf()
}

// cover is the part of a day a duration occupies.
func (d Duration) cover() DayCover {
	switch d {
	case DurationHalfMorning:
		return DayCover{Morning: true}
	case DurationHalfAfternoon:
		return DayCover{Afternoon: true}
	default:
		return DayCover{Morning: true, Afternoon: true}
	}
}

// =============================================================================
// LEAVE TYPE - Per-type configuration
// =============================================================================

type LeaveType struct {
	ID   string
	Name string

	// IsPaid controls quota enforcement: unpaid types bypass the ledger.
	IsPaid bool

	// DefaultDays seeds the yearly quota for new employees and new years.
	DefaultDays Days

	// CanCarryForward and MaxCarryDays govern the year-end rollover.
	CanCarryForward bool
	MaxCarryDays    Days
}

// =============================================================================
// QUOTA - The (employee, leave type, year) ledger row
// =============================================================================

type Quota struct {
	EmployeeID  string
	LeaveTypeID string
	Year        int

	TotalDays       Days
	CarriedOverDays Days
	UsedDays        Days
}

// Available is total + carried - used, at ledger precision.
func (q Quota) Available() Days {
	return q.TotalDays.Add(q.CarriedOverDays).Sub(q.UsedDays).Round2()
}

// =============================================================================
// REQUEST - A leave request and its lifecycle status
// =============================================================================

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

type Request struct {
	ID          string
	EmployeeID  string
	LeaveTypeID string

	StartDate     calendar.Date
	EndDate       calendar.Date
	StartDuration Duration
	EndDuration   Duration

	// TotalDays is fixed at submission time.
	TotalDays Days

	Status Status
	Reason string

	// AttachmentRef points at a document in the external file store.
	AttachmentRef string

	ApprovedBy   string
	ApprovalDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Covers reports whether date falls inside the request's inclusive range.
func (r *Request) Covers(date calendar.Date) bool {
	return r.StartDate.BeforeOrEqual(date) && date.BeforeOrEqual(r.EndDate)
}

// DayCover is the part of a single day occupied by a request.
type DayCover struct {
	Morning   bool
	Afternoon bool
}

func (c DayCover) FullDay() bool       { return c.Morning && c.Afternoon }
func (c DayCover) MorningOnly() bool   { return c.Morning && !c.Afternoon }
func (c DayCover) AfternoonOnly() bool { return c.Afternoon && !c.Morning }

// CoverOn returns which part of the given day this request occupies. Interior
// days are full; boundary days follow their duration flag; a single-day
// request combines both flags, so HalfMorning+HalfAfternoon spans the day.
func (r *Request) CoverOn(date calendar.Date) DayCover {
	if !r.Covers(date) {
		return DayCover{}
	}
	start := date.Equal(r.StartDate)
	end := date.Equal(r.EndDate)
	switch {
	case start && end:
		sc, ec := r.StartDuration.cover(), r.EndDuration.cover()
		return DayCover{Morning: sc.Morning || ec.Morning, Afternoon: sc.Afternoon || ec.Afternoon}
	case start:
		return r.StartDuration.cover()
	case end:
		return r.EndDuration.cover()
	default:
		return DayCover{Morning: true, Afternoon: true}
	}
}

// Overlaps reports inclusive interval intersection with [start, end].
func (r *Request) Overlaps(start, end calendar.Date) bool {
	return r.StartDate.BeforeOrEqual(end) && start.BeforeOrEqual(r.EndDate)
}
