package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hr-engine/attendance"
	"github.com/warp/hr-engine/calendar"
	"github.com/warp/hr-engine/clock"
	"github.com/warp/hr-engine/leave"
	"github.com/warp/hr-engine/policy"
	"github.com/warp/hr-engine/store/memory"
)

// All tests run on Monday 2026-03-02 under a 09:00-18:00 schedule with a
// 12:00-13:00 break and a 5 minute grace window.

type leaveStub struct {
	req *leave.Request
}

func (s leaveStub) ApprovedLeaveOn(_ context.Context, _ string, date calendar.Date) (*leave.Request, error) {
	if s.req != nil && s.req.Covers(date) {
		return s.req, nil
	}
	return nil, nil
}

func gatePolicy() *policy.AttendancePolicy {
	return &policy.AttendancePolicy{
		Start:        calendar.NewTimeOfDay(9, 0),
		End:          calendar.NewTimeOfDay(18, 0),
		BreakStart:   calendar.NewTimeOfDay(12, 0),
		BreakEnd:     calendar.NewTimeOfDay(13, 0),
		GraceMinutes: 5,
		WorkingDays: calendar.Weekdays(
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
		SpecialHolidays: calendar.HolidaySet{},
	}
}

func newGate(t *testing.T, clk clock.Clock, lookup attendance.LeaveLookup) (*attendance.Gate, *memory.Memory) {
	t.Helper()
	store := memory.NewMemory()
	require.NoError(t, store.SavePolicy(context.Background(), gatePolicy()))
	if lookup == nil {
		lookup = leaveStub{}
	}
	return attendance.NewGate(store, store, lookup, clk, nil), store
}

func at(hour, minute int) clock.Fixed {
	return clock.At(2026, time.March, 2, hour, minute)
}

func leaveOn(start, end calendar.Date, sd, ed leave.Duration) leaveStub {
	return leaveStub{req: &leave.Request{
		ID:            "req-1",
		EmployeeID:    "emp-1",
		StartDate:     start,
		EndDate:       end,
		StartDuration: sd,
		EndDuration:   ed,
		Status:        leave.StatusApproved,
	}}
}

func today() calendar.Date { return calendar.NewDate(2026, time.March, 2) }

// =============================================================================
// CHECK-IN
// =============================================================================

func TestCheckIn_OnTime(t *testing.T) {
	gate, _ := newGate(t, at(8, 55), nil)

	rec, err := gate.CheckIn(context.Background(), "emp-1")

	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, today(), rec.WorkDate)
	assert.False(t, rec.IsLate)
	assert.Nil(t, rec.CheckOutTime)
}

func TestCheckIn_GraceWindow(t *testing.T) {
	// 09:04 is inside the 5 minute grace; 09:05 is its last on-time minute;
	// 09:06 is late.
	cases := []struct {
		minute int
		late   bool
	}{
		{4, false},
		{5, false},
		{6, true},
	}
	for _, tc := range cases {
		gate, _ := newGate(t, at(9, tc.minute), nil)
		rec, err := gate.CheckIn(context.Background(), "emp-1")
		require.NoError(t, err)
		assert.Equalf(t, tc.late, rec.IsLate, "09:%02d", tc.minute)
	}
}

func TestCheckIn_Twice(t *testing.T) {
	gate, _ := newGate(t, at(9, 0), nil)
	ctx := context.Background()

	_, err := gate.CheckIn(ctx, "emp-1")
	require.NoError(t, err)

	_, err = gate.CheckIn(ctx, "emp-1")
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
}

func TestCheckIn_TooEarly(t *testing.T) {
	// The window opens four hours before start, at 05:00.
	gate, _ := newGate(t, at(4, 59), nil)
	_, err := gate.CheckIn(context.Background(), "emp-1")
	assert.ErrorIs(t, err, attendance.ErrTooEarly)

	gate, _ = newGate(t, at(5, 0), nil)
	rec, err := gate.CheckIn(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.False(t, rec.IsLate)
}

func TestCheckIn_AfterEnd(t *testing.T) {
	gate, _ := newGate(t, at(18, 1), nil)

	_, err := gate.CheckIn(context.Background(), "emp-1")

	assert.ErrorIs(t, err, attendance.ErrCheckInWindowClosed)
}

func TestCheckIn_SpecialHoliday(t *testing.T) {
	store := memory.NewMemory()
	pol := gatePolicy()
	pol.SpecialHolidays = calendar.HolidaySet{today(): "Company Day"}
	require.NoError(t, store.SavePolicy(context.Background(), pol))
	gate := attendance.NewGate(store, store, leaveStub{}, at(9, 0), nil)

	_, err := gate.CheckIn(context.Background(), "emp-1")

	assert.ErrorIs(t, err, attendance.ErrSpecialHoliday)
}

func TestCheckIn_FullDayLeave(t *testing.T) {
	lookup := leaveOn(today(), today(), leave.DurationFull, leave.DurationFull)
	gate, _ := newGate(t, at(9, 0), lookup)

	_, err := gate.CheckIn(context.Background(), "emp-1")

	assert.ErrorIs(t, err, attendance.ErrFullDayLeaveActive)
}

func TestCheckIn_FullDayLeaveAfterBreakStart(t *testing.T) {
	// The full-day rejection must win over the closed-window one even once
	// the afternoon deadline has passed.
	lookup := leaveOn(today(), today(), leave.DurationFull, leave.DurationFull)
	gate, _ := newGate(t, at(14, 0), lookup)

	_, err := gate.CheckIn(context.Background(), "emp-1")

	assert.ErrorIs(t, err, attendance.ErrFullDayLeaveActive)
}

func TestCheckIn_InteriorDayOfMultiDayLeave(t *testing.T) {
	// Half-day flags only shape the boundary days; the middle is full leave.
	lookup := leaveOn(
		calendar.NewDate(2026, time.March, 2), calendar.NewDate(2026, time.March, 4),
		leave.DurationHalfAfternoon, leave.DurationHalfMorning)
	gate, _ := newGate(t, clock.At(2026, time.March, 3, 9, 0), lookup)

	_, err := gate.CheckIn(context.Background(), "emp-1")

	assert.ErrorIs(t, err, attendance.ErrFullDayLeaveActive)
}

func TestCheckIn_MorningLeave(t *testing.T) {
	lookup := leaveOn(today(), today(), leave.DurationHalfMorning, leave.DurationHalfMorning)

	// Before the break opens the punch is rejected.
	gate, _ := newGate(t, at(11, 59), lookup)
	_, err := gate.CheckIn(context.Background(), "emp-1")
	assert.ErrorIs(t, err, attendance.ErrTooEarlyForHalfDay)

	// At break start it is accepted and lateness is measured against break
	// end: 13:05 is still on time, 13:06 is late.
	gate, _ = newGate(t, at(12, 0), lookup)
	rec, err := gate.CheckIn(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.False(t, rec.IsLate)

	gate, _ = newGate(t, at(13, 5), lookup)
	rec, err = gate.CheckIn(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.False(t, rec.IsLate)

	gate, _ = newGate(t, at(13, 6), lookup)
	rec, err = gate.CheckIn(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.True(t, rec.IsLate)
}

func TestCheckIn_AfternoonLeaveClosesWindowAtBreak(t *testing.T) {
	lookup := leaveOn(today(), today(), leave.DurationHalfAfternoon, leave.DurationHalfAfternoon)

	gate, _ := newGate(t, at(9, 0), lookup)
	rec, err := gate.CheckIn(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.False(t, rec.IsLate)

	gate, _ = newGate(t, at(12, 1), lookup)
	_, err = gate.CheckIn(context.Background(), "emp-1")
	assert.ErrorIs(t, err, attendance.ErrCheckInWindowClosed)
}

func TestCheckIn_NoPolicy(t *testing.T) {
	store := memory.NewMemory()
	gate := attendance.NewGate(store, store, leaveStub{}, at(9, 0), nil)

	_, err := gate.CheckIn(context.Background(), "emp-1")

	assert.ErrorIs(t, err, policy.ErrPolicyMissing)
}

// =============================================================================
// CHECK-OUT
// =============================================================================

func checkInAt(t *testing.T, store *memory.Memory, hour, minute int) {
	t.Helper()
	gate := attendance.NewGate(store, store, leaveStub{}, at(hour, minute), nil)
	_, err := gate.CheckIn(context.Background(), "emp-1")
	require.NoError(t, err)
}

func TestCheckOut_AtEnd(t *testing.T) {
	_, store := newGate(t, at(9, 0), nil)
	checkInAt(t, store, 9, 0)

	gate := attendance.NewGate(store, store, leaveStub{}, at(18, 0), nil)
	rec, err := gate.CheckOut(context.Background(), "emp-1")

	require.NoError(t, err)
	require.NotNil(t, rec.CheckOutTime)
	assert.True(t, rec.CheckedOut())
}

func TestCheckOut_BeforeEnd(t *testing.T) {
	_, store := newGate(t, at(9, 0), nil)
	checkInAt(t, store, 9, 0)

	gate := attendance.NewGate(store, store, leaveStub{}, at(17, 59), nil)
	_, err := gate.CheckOut(context.Background(), "emp-1")

	assert.ErrorIs(t, err, attendance.ErrTooEarlyToCheckOut)
}

func TestCheckOut_WithoutCheckIn(t *testing.T) {
	gate, _ := newGate(t, at(18, 0), nil)

	_, err := gate.CheckOut(context.Background(), "emp-1")

	assert.ErrorIs(t, err, attendance.ErrNoCheckInFound)
}

func TestCheckOut_Twice(t *testing.T) {
	_, store := newGate(t, at(9, 0), nil)
	checkInAt(t, store, 9, 0)
	ctx := context.Background()

	gate := attendance.NewGate(store, store, leaveStub{}, at(18, 0), nil)
	_, err := gate.CheckOut(ctx, "emp-1")
	require.NoError(t, err)

	_, err = gate.CheckOut(ctx, "emp-1")
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
}

func TestCheckOut_AfternoonLeaveAllowsLeavingAtBreak(t *testing.T) {
	lookup := leaveOn(today(), today(), leave.DurationHalfAfternoon, leave.DurationHalfAfternoon)
	store := memory.NewMemory()
	require.NoError(t, store.SavePolicy(context.Background(), gatePolicy()))

	gate := attendance.NewGate(store, store, lookup, at(9, 0), nil)
	_, err := gate.CheckIn(context.Background(), "emp-1")
	require.NoError(t, err)

	gate = attendance.NewGate(store, store, lookup, at(11, 59), nil)
	_, err = gate.CheckOut(context.Background(), "emp-1")
	assert.ErrorIs(t, err, attendance.ErrTooEarlyToCheckOut)

	gate = attendance.NewGate(store, store, lookup, at(12, 0), nil)
	rec, err := gate.CheckOut(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.True(t, rec.CheckedOut())
}

// =============================================================================
// HISTORY
// =============================================================================

func TestHistory(t *testing.T) {
	_, store := newGate(t, at(9, 0), nil)
	ctx := context.Background()

	for day := 2; day <= 4; day++ {
		gate := attendance.NewGate(store, store, leaveStub{},
			clock.At(2026, time.March, day, 9, 0), nil)
		_, err := gate.CheckIn(ctx, "emp-1")
		require.NoError(t, err)
	}

	gate := attendance.NewGate(store, store, leaveStub{}, at(9, 0), nil)

	recs, err := gate.History(ctx, "emp-1",
		calendar.NewDate(2026, time.March, 2), calendar.NewDate(2026, time.March, 3))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, calendar.NewDate(2026, time.March, 2), recs[0].WorkDate)
	assert.Equal(t, calendar.NewDate(2026, time.March, 3), recs[1].WorkDate)

	_, err = gate.History(ctx, "emp-1",
		calendar.NewDate(2026, time.March, 3), calendar.NewDate(2026, time.March, 2))
	assert.ErrorIs(t, err, leave.ErrInvalidDateRange)
}
