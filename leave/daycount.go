/*
daycount.go - Turning a date range plus half-day flags into a day total

ALGORITHM:
  n = working days in [start, end] (weekly schedule minus holidays)

  n == 0: the whole range falls on non-working days. The request costs 0.00 -
          legal, just free.
  n == 1: a single working day is either 0.5 (any half flag) or 1.0. A lone
          day never mixes a morning half with an afternoon half into 1.0;
          that asymmetry against the multi-day rule is deliberate.
  n  > 1: start from n; subtract 0.5 for a half-day start flag only when the
          start date itself works, and independently 0.5 for a half-day end
          flag when the end date works. Both may apply (n - 1.0).

  Result is clamped to >= 0 and rounded to 2 decimals.
*/
package leave

import (
	"github.com/warp/hr-engine/calendar"
)

var half = DaysFromFloat(0.5)

// CalculateTotalDays sizes a leave request in working days. It is a pure
// function of its inputs; the caller supplies the merged holiday set
// (regular holidays plus the policy's special holidays).
func CalculateTotalDays(
	start, end calendar.Date,
	startDur, endDur Duration,
	workdays calendar.WeekdaySet,
	holidays calendar.HolidaySet,
) (Days, error) {
	if start.After(end) {
		return ZeroDays(), ErrInvalidDateRange
	}
	if !startDur.Valid() || !endDur.Valid() {
		return ZeroDays(), ErrInvalidDuration
	}

	n := calendar.CountWorkingDays(start, end, workdays, holidays)
	if n == 0 {
		return ZeroDays(), nil
	}

	if n == 1 {
		if startDur.IsHalf() || endDur.IsHalf() {
			return half, nil
		}
		return DaysFromInt(1), nil
	}

	total := DaysFromInt(n)
	if startDur.IsHalf() && calendar.IsWorkingDay(start, workdays, holidays) {
		total = total.Sub(half)
	}
	if endDur.IsHalf() && calendar.IsWorkingDay(end, workdays, holidays) {
		total = total.Sub(half)
	}

	if total.IsNegative() {
		total = ZeroDays()
	}
	return total.Round2(), nil
}
