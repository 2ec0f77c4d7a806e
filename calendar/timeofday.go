package calendar

import (
	"fmt"
	"time"
)

// =============================================================================
// TIME OF DAY - Intra-day time points (HH:mm, local policy time)
// =============================================================================

// TimeOfDay is a minute-resolution point within a day, stored as minutes
// since midnight. The attendance window (start, end, break) is expressed in
// these, independent of any calendar date.
type TimeOfDay struct {
	minutes int
}

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay{minutes: hour*60 + minute}
}

// ParseTimeOfDay parses an "HH:mm" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return NewTimeOfDay(t.Hour(), t.Minute()), nil
}

// TimeOfDayOf extracts the time-of-day from an instant.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute())
}

func (t TimeOfDay) Hour() int   { return t.minutes / 60 }
func (t TimeOfDay) Minute() int { return t.minutes % 60 }

func (t TimeOfDay) Before(other TimeOfDay) bool { return t.minutes < other.minutes }
func (t TimeOfDay) After(other TimeOfDay) bool  { return t.minutes > other.minutes }
func (t TimeOfDay) Equal(other TimeOfDay) bool  { return t.minutes == other.minutes }

// AddMinutes returns the time shifted by n minutes. The result may fall
// outside [00:00, 24:00); comparisons still behave, which is what the
// "start minus four hours" window check relies on.
func (t TimeOfDay) AddMinutes(n int) TimeOfDay {
	return TimeOfDay{minutes: t.minutes + n}
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}
