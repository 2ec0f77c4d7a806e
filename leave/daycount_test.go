package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hr-engine/calendar"
	"github.com/warp/hr-engine/leave"
)

// Monday 2026-03-02 through Friday 2026-03-06 is a clean five-day week.

func date(day int) calendar.Date {
	return calendar.NewDate(2026, time.March, day)
}

func calc(t *testing.T, start, end calendar.Date, sd, ed leave.Duration, holidays calendar.HolidaySet) leave.Days {
	t.Helper()
	total, err := leave.CalculateTotalDays(start, end, sd, ed, calendar.MondayToFriday(), holidays)
	require.NoError(t, err)
	return total
}

func TestCalculateTotalDays_FullWeek(t *testing.T) {
	total := calc(t, date(2), date(6), leave.DurationFull, leave.DurationFull, nil)
	assert.Equal(t, "5.00", total.String())
}

func TestCalculateTotalDays_HalfDayBothEnds(t *testing.T) {
	// GIVEN: Mon-Fri request with half-day flags on both boundary days
	// THEN: 5 - 0.5 - 0.5 = 4.0

	total := calc(t, date(2), date(6), leave.DurationHalfAfternoon, leave.DurationHalfMorning, nil)
	assert.Equal(t, "4.00", total.String())
}

func TestCalculateTotalDays_SingleFullDay(t *testing.T) {
	total := calc(t, date(2), date(2), leave.DurationFull, leave.DurationFull, nil)
	assert.Equal(t, "1.00", total.String())
}

func TestCalculateTotalDays_SingleHalfDay(t *testing.T) {
	// A single-day request counts 0.5 when either flag is a half.
	total := calc(t, date(2), date(2), leave.DurationHalfMorning, leave.DurationFull, nil)
	assert.Equal(t, "0.50", total.String())

	total = calc(t, date(2), date(2), leave.DurationFull, leave.DurationHalfAfternoon, nil)
	assert.Equal(t, "0.50", total.String())
}

func TestCalculateTotalDays_WeekendSpanNotCounted(t *testing.T) {
	// Friday through Monday: only Friday and Monday are working days.
	total := calc(t, date(6), date(9), leave.DurationFull, leave.DurationFull, nil)
	assert.Equal(t, "2.00", total.String())
}

func TestCalculateTotalDays_HolidayInsideRange(t *testing.T) {
	holidays := calendar.HolidaySet{date(4): "Founding Day"}

	total := calc(t, date(2), date(6), leave.DurationFull, leave.DurationFull, holidays)
	assert.Equal(t, "4.00", total.String())
}

func TestCalculateTotalDays_HalfFlagOnNonWorkingBoundary(t *testing.T) {
	// GIVEN: the end date itself is a holiday
	// THEN: its half-day flag does not subtract anything; the day already
	// contributes zero.

	holidays := calendar.HolidaySet{date(6): "Founding Day"}

	total := calc(t, date(2), date(6), leave.DurationFull, leave.DurationHalfMorning, holidays)
	assert.Equal(t, "4.00", total.String())
}

func TestCalculateTotalDays_AllDaysOffSchedule(t *testing.T) {
	// Saturday-Sunday only: zero working days, zero total.
	total := calc(t, date(7), date(8), leave.DurationHalfMorning, leave.DurationHalfAfternoon, nil)
	assert.True(t, total.IsZero())
}

func TestCalculateTotalDays_ReversedRange(t *testing.T) {
	_, err := leave.CalculateTotalDays(date(6), date(2),
		leave.DurationFull, leave.DurationFull, calendar.MondayToFriday(), nil)
	assert.ErrorIs(t, err, leave.ErrInvalidDateRange)
}

func TestCalculateTotalDays_InvalidDuration(t *testing.T) {
	_, err := leave.CalculateTotalDays(date(2), date(6),
		leave.Duration("quarter"), leave.DurationFull, calendar.MondayToFriday(), nil)
	assert.ErrorIs(t, err, leave.ErrInvalidDuration)
}

func TestCalculateTotalDays_NeverNegative(t *testing.T) {
	// A 1-working-day span with half flags on both ends still floors at 0.5,
	// never below zero.
	holidays := calendar.HolidaySet{date(3): "h", date(4): "h", date(5): "h", date(6): "h"}

	total := calc(t, date(2), date(6), leave.DurationHalfAfternoon, leave.DurationHalfMorning, holidays)
	assert.False(t, total.IsNegative())
}
