/*
Package calendar provides the working-day arithmetic used by the leave and
attendance engines.

PURPOSE:
  Answers one question in several forms: "does this calendar day count as a
  working day?" A day works when its weekday is part of the configured weekly
  schedule and it is not a holiday (regular or special).

KEY CONCEPTS:
  - Date: a calendar day with no time-of-day or zone component
  - WeekdaySet: which weekdays count as work (e.g., Mon-Fri)
  - HolidaySet: dates excluded from the working calendar
  - CountWorkingDays: inclusive day-by-day count over a closed range

DESIGN:
  Everything here is a pure function of its inputs. The day-counting loop is
  restartable: calling it twice with the same range yields the same result,
  and no state survives a call.

SEE ALSO:
  - timeofday.go: intra-day time points for the attendance window
  - leave/daycount.go: turns a date range plus half-day flags into a day total
*/
package calendar

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day value type
// =============================================================================

// Date is a calendar day. It carries no time-of-day and no zone; two Dates
// compare equal iff they name the same day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	// Normalize through time.Time so callers may pass e.g. day 32.
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// DateOf truncates a time.Time to its calendar day.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDate parses an ISO-8601 calendar date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// At combines the date with a time of day into a UTC instant.
func (d Date) At(hour, minute int) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, time.UTC)
}

func (d Date) AddDays(n int) Date       { return DateOf(d.Time().AddDate(0, 0, n)) }
func (d Date) Weekday() time.Weekday    { return d.Time().Weekday() }
func (d Date) Before(other Date) bool   { return d.Time().Before(other.Time()) }
func (d Date) After(other Date) bool    { return d.Time().After(other.Time()) }
func (d Date) Equal(other Date) bool    { return d == other }
func (d Date) IsZero() bool             { return d == Date{} }
func (d Date) String() string           { return d.Time().Format("2006-01-02") }

func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// DaysUntil returns the signed number of days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time().Sub(d.Time()).Hours() / 24)
}

// =============================================================================
// WEEKDAY SET - The weekly work schedule
// =============================================================================

// WeekdaySet is the set of weekdays that count as working days.
type WeekdaySet map[time.Weekday]bool

// Weekdays builds a set from the given weekdays.
func Weekdays(days ...time.Weekday) WeekdaySet {
	s := make(WeekdaySet, len(days))
	for _, d := range days {
		s[d] = true
	}
	return s
}

// MondayToFriday is the default five-day schedule.
func MondayToFriday() WeekdaySet {
	return Weekdays(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
}

func (s WeekdaySet) Contains(d time.Weekday) bool { return s[d] }

// Indices returns the set as sorted weekday indices (0=Sun..6=Sat), the form
// used for storage and over the wire.
func (s WeekdaySet) Indices() []int {
	var out []int
	for i := 0; i < 7; i++ {
		if s[time.Weekday(i)] {
			out = append(out, i)
		}
	}
	return out
}

// WeekdaysFromIndices is the inverse of Indices. Out-of-range values are ignored.
func WeekdaysFromIndices(indices []int) WeekdaySet {
	s := make(WeekdaySet)
	for _, i := range indices {
		if i >= 0 && i <= 6 {
			s[time.Weekday(i)] = true
		}
	}
	return s
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// Holiday is a named non-working date.
type Holiday struct {
	ID   string
	Date Date
	Name string
}

// HolidaySet is a lookup of non-working dates. The value is the holiday name
// (possibly empty for unnamed special holidays).
type HolidaySet map[Date]string

func NewHolidaySet(holidays ...Holiday) HolidaySet {
	s := make(HolidaySet, len(holidays))
	for _, h := range holidays {
		s[h.Date] = h.Name
	}
	return s
}

func (s HolidaySet) Contains(d Date) bool { return len(s) > 0 && hasDate(s, d) }

func hasDate(s HolidaySet, d Date) bool {
	_, ok := s[d]
	return ok
}

// Add inserts a date into the set, keeping the first name seen.
func (s HolidaySet) Add(d Date, name string) {
	if _, ok := s[d]; !ok {
		s[d] = name
	}
}

// Merge returns the union of both sets.
func (s HolidaySet) Merge(other HolidaySet) HolidaySet {
	out := make(HolidaySet, len(s)+len(other))
	for d, n := range s {
		out[d] = n
	}
	for d, n := range other {
		out.Add(d, n)
	}
	return out
}

// HolidayStore is the persistence contract for the holiday table.
type HolidayStore interface {
	// HolidaysInRange returns holidays with start <= date <= end.
	HolidaysInRange(ctx context.Context, start, end Date) ([]Holiday, error)
	SaveHoliday(ctx context.Context, h Holiday) error
	DeleteHoliday(ctx context.Context, id string) error
}

// =============================================================================
// WORKING-DAY RESOLUTION
// =============================================================================

// IsWorkingDay reports whether date counts as a working day: its weekday is in
// the weekly schedule and it is not a holiday.
func IsWorkingDay(date Date, workdays WeekdaySet, holidays HolidaySet) bool {
	if !workdays.Contains(date.Weekday()) {
		return false
	}
	return !holidays.Contains(date)
}

// CountWorkingDays counts working days in the inclusive range [start, end].
// Callers must guarantee start <= end; the count for an inverted range is 0.
func CountWorkingDays(start, end Date, workdays WeekdaySet, holidays HolidaySet) int {
	n := 0
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		if IsWorkingDay(d, workdays, holidays) {
			n++
		}
	}
	return n
}
