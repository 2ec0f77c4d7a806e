package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hr-engine/calendar"
	"github.com/warp/hr-engine/clock"
	"github.com/warp/hr-engine/leave"
	"github.com/warp/hr-engine/policy"
	"github.com/warp/hr-engine/store/memory"
)

// Fixture anchor: Monday 2026-02-23, gap of 3 days, so the earliest legal
// start is Thursday 2026-02-26. The week of 2026-03-02 (Mon) to 2026-03-06
// (Fri) is clean of weekends and holidays.

func testPolicy() *policy.AttendancePolicy {
	return &policy.AttendancePolicy{
		Start:        calendar.NewTimeOfDay(9, 0),
		End:          calendar.NewTimeOfDay(18, 0),
		BreakStart:   calendar.NewTimeOfDay(12, 0),
		BreakEnd:     calendar.NewTimeOfDay(13, 0),
		GraceMinutes: 5,
		WorkingDays: calendar.Weekdays(
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
		LeaveGapDays:    3,
		SpecialHolidays: calendar.HolidaySet{},
	}
}

type captureNotifier struct {
	events []leave.Event
}

func (n *captureNotifier) Notify(_ context.Context, _ string, ev leave.Event) error {
	n.events = append(n.events, ev)
	return nil
}

type fixture struct {
	store    *memory.Memory
	svc      *leave.Service
	notifier *captureNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewMemory()
	require.NoError(t, store.SavePolicy(ctx, testPolicy()))
	require.NoError(t, store.SaveLeaveType(ctx, annual))
	require.NoError(t, store.SaveLeaveType(ctx, unpaid))
	require.NoError(t, store.SaveQuota(ctx, leave.Quota{
		EmployeeID:  "emp-1",
		LeaveTypeID: "annual",
		Year:        2026,
		TotalDays:   leave.MustDays("10"),
	}))

	notifier := &captureNotifier{}
	svc := leave.NewService(leave.ServiceConfig{
		Store:    store,
		Holidays: store,
		Policies: store,
		Clock:    clock.At(2026, time.February, 23, 10, 0),
		Notifier: notifier,
	})
	return &fixture{store: store, svc: svc, notifier: notifier}
}

func submitInput() leave.SubmitInput {
	return leave.SubmitInput{
		EmployeeID:    "emp-1",
		LeaveTypeID:   "annual",
		StartDate:     calendar.NewDate(2026, time.March, 2),
		EndDate:       calendar.NewDate(2026, time.March, 6),
		StartDuration: leave.DurationFull,
		EndDuration:   leave.DurationFull,
		Reason:        "family trip",
	}
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_CreatesPendingRequest(t *testing.T) {
	f := newFixture(t)

	req, err := f.svc.Submit(context.Background(), submitInput())

	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, leave.StatusPending, req.Status)
	assert.Equal(t, "5.00", req.TotalDays.String())

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, leave.EventSubmitted, f.notifier.events[0].Type)
}

func TestSubmit_HalfDayBoundaries(t *testing.T) {
	f := newFixture(t)
	in := submitInput()
	in.StartDuration = leave.DurationHalfAfternoon
	in.EndDuration = leave.DurationHalfMorning

	req, err := f.svc.Submit(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, "4.00", req.TotalDays.String())
}

func TestSubmit_ReversedRange(t *testing.T) {
	f := newFixture(t)
	in := submitInput()
	in.StartDate, in.EndDate = in.EndDate, in.StartDate

	_, err := f.svc.Submit(context.Background(), in)

	assert.ErrorIs(t, err, leave.ErrInvalidDateRange)
}

func TestSubmit_UnknownLeaveType(t *testing.T) {
	f := newFixture(t)
	in := submitInput()
	in.LeaveTypeID = "sabbatical"

	_, err := f.svc.Submit(context.Background(), in)

	assert.ErrorIs(t, err, leave.ErrLeaveTypeNotFound)
}

func TestSubmit_GapBoundary(t *testing.T) {
	// Today is Mon 2026-02-23 and the gap is 3 days: Thu 2026-02-26 is
	// exactly 3 days out and allowed, Wed 2026-02-25 is not.
	f := newFixture(t)
	ctx := context.Background()

	in := submitInput()
	in.StartDate = calendar.NewDate(2026, time.February, 26)
	in.EndDate = in.StartDate
	_, err := f.svc.Submit(ctx, in)
	require.NoError(t, err, "start exactly at the gap boundary must pass")

	in = submitInput()
	in.EmployeeID = "emp-2"
	in.StartDate = calendar.NewDate(2026, time.February, 25)
	in.EndDate = in.StartDate
	in.LeaveTypeID = "unpaid"
	_, err = f.svc.Submit(ctx, in)
	assert.ErrorIs(t, err, leave.ErrLeaveGapViolation)

	var ge *leave.GapError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, 3, ge.RequiredDays)
	assert.Equal(t, 2, ge.ActualDays)
}

func TestSubmit_OverlapRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, submitInput())
	require.NoError(t, err)

	in := submitInput()
	in.StartDate = calendar.NewDate(2026, time.March, 5)
	in.EndDate = calendar.NewDate(2026, time.March, 10)
	_, err = f.svc.Submit(ctx, in)

	assert.ErrorIs(t, err, leave.ErrOverlapConflict)
	var oe *leave.OverlapError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, first.ID, oe.ExistingID)
}

func TestSubmit_OverlapIgnoresOtherEmployees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, submitInput())
	require.NoError(t, err)

	in := submitInput()
	in.EmployeeID = "emp-2"
	in.LeaveTypeID = "unpaid"
	_, err = f.svc.Submit(ctx, in)
	assert.NoError(t, err)
}

func TestSubmit_NonWorkingDayRejected(t *testing.T) {
	// Fri 2026-03-06 through Mon 2026-03-09 crosses a weekend. The schedule
	// guard rejects the range outright instead of zero-costing the weekend.
	f := newFixture(t)
	in := submitInput()
	in.StartDate = calendar.NewDate(2026, time.March, 6)
	in.EndDate = calendar.NewDate(2026, time.March, 9)

	_, err := f.svc.Submit(context.Background(), in)

	assert.ErrorIs(t, err, leave.ErrNonWorkingDay)
	var ne *leave.NonWorkingDayError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, calendar.NewDate(2026, time.March, 7), ne.Date)
}

func TestSubmit_HolidayZeroesOutSingleDay(t *testing.T) {
	// A holiday is still a scheduled weekday, so the schedule guard passes;
	// the computed total comes out zero and the zero-day guard fires.
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.SaveHoliday(ctx, calendar.Holiday{
		ID:   "h1",
		Date: calendar.NewDate(2026, time.March, 2),
		Name: "Founders Day",
	}))

	in := submitInput()
	in.EndDate = in.StartDate

	_, err := f.svc.Submit(ctx, in)

	assert.ErrorIs(t, err, leave.ErrZeroDayRequest)
}

func TestSubmit_SpecialHolidayAlsoZeroCosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pol := testPolicy()
	pol.SpecialHolidays = calendar.HolidaySet{
		calendar.NewDate(2026, time.March, 2): "Company Day",
	}
	require.NoError(t, f.store.SavePolicy(ctx, pol))

	in := submitInput()
	in.EndDate = in.StartDate

	_, err := f.svc.Submit(ctx, in)

	assert.ErrorIs(t, err, leave.ErrZeroDayRequest)
}

func TestSubmit_QuotaExceeded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.SaveQuota(ctx, leave.Quota{
		EmployeeID:  "emp-1",
		LeaveTypeID: "annual",
		Year:        2026,
		TotalDays:   leave.MustDays("3"),
	}))

	_, err := f.svc.Submit(ctx, submitInput())

	assert.ErrorIs(t, err, leave.ErrQuotaExceeded)
}

func TestSubmit_UnpaidBypassesQuota(t *testing.T) {
	f := newFixture(t)
	in := submitInput()
	in.EmployeeID = "emp-2" // no quota row at all
	in.LeaveTypeID = "unpaid"

	req, err := f.svc.Submit(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, "5.00", req.TotalDays.String())
}

// =============================================================================
// APPROVE / REJECT / CANCEL / DELETE
// =============================================================================

func TestApprove_DebitsQuota(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, submitInput())
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, req.ID, "hr-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, approved.Status)
	assert.Equal(t, "hr-1", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovalDate)

	q, err := f.svc.Balance(ctx, "emp-1", "annual", 2026)
	require.NoError(t, err)
	assert.Equal(t, "5.00", q.UsedDays.String())
	assert.Equal(t, "5.00", q.Available().String())

	require.Len(t, f.notifier.events, 2)
	assert.Equal(t, leave.EventApproved, f.notifier.events[1].Type)
}

func TestApprove_TwiceFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, submitInput())
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, req.ID, "hr-1")
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, req.ID, "hr-1")
	assert.ErrorIs(t, err, leave.ErrInvalidState)

	// The double approval must not debit again.
	q, _ := f.svc.Balance(ctx, "emp-1", "annual", 2026)
	assert.Equal(t, "5.00", q.UsedDays.String())
}

func TestApprove_UnknownRequest(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Approve(context.Background(), "no-such-id", "hr-1")

	assert.ErrorIs(t, err, leave.ErrRequestNotFound)
}

func TestApprove_QuotaDrainedBetweenSubmitAndApprove(t *testing.T) {
	// The balance is drained between submission and approval, so the
	// approval's re-check inside the transaction fails and the request
	// stays pending.
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, submitInput())
	require.NoError(t, err)

	require.NoError(t, f.store.SaveQuota(ctx, leave.Quota{
		EmployeeID:  "emp-1",
		LeaveTypeID: "annual",
		Year:        2026,
		TotalDays:   leave.MustDays("10"),
		UsedDays:    leave.MustDays("8"),
	}))

	_, err = f.svc.Approve(ctx, req.ID, "hr-1")
	assert.ErrorIs(t, err, leave.ErrQuotaExceeded)

	got, err := f.svc.Request(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, got.Status, "failed approval must roll back")
}

func TestReject_NoLedgerEffect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, submitInput())
	require.NoError(t, err)

	rejected, err := f.svc.Reject(ctx, req.ID, "hr-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusRejected, rejected.Status)

	q, _ := f.svc.Balance(ctx, "emp-1", "annual", 2026)
	assert.True(t, q.UsedDays.IsZero())
}

func TestCancel_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, submitInput())
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, req.ID, "emp-2")
	assert.ErrorIs(t, err, leave.ErrNotOwner)

	cancelled, err := f.svc.Cancel(ctx, req.ID, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusCancelled, cancelled.Status)
}

func TestCancel_ApprovedRequestFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, submitInput())
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, req.ID, "hr-1")
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, req.ID, "emp-1")
	assert.ErrorIs(t, err, leave.ErrInvalidState)
}

func TestDelete_ApprovedCreditsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, submitInput())
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, req.ID, "hr-1")
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, req.ID))

	_, err = f.svc.Request(ctx, req.ID)
	assert.ErrorIs(t, err, leave.ErrRequestNotFound)

	q, _ := f.svc.Balance(ctx, "emp-1", "annual", 2026)
	assert.True(t, q.UsedDays.IsZero(), "approved debit must be credited back")
}

func TestDelete_PendingLeavesLedgerAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, submitInput())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, req.ID))

	q, _ := f.svc.Balance(ctx, "emp-1", "annual", 2026)
	assert.True(t, q.UsedDays.IsZero())
}

// =============================================================================
// QUERIES
// =============================================================================

func TestApprovedLeaveOn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, submitInput())
	require.NoError(t, err)

	got, err := f.svc.ApprovedLeaveOn(ctx, "emp-1", calendar.NewDate(2026, time.March, 4))
	require.NoError(t, err)
	assert.Nil(t, got, "pending requests are not approved leave")

	_, err = f.svc.Approve(ctx, req.ID, "hr-1")
	require.NoError(t, err)

	got, err = f.svc.ApprovedLeaveOn(ctx, "emp-1", calendar.NewDate(2026, time.March, 4))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, req.ID, got.ID)

	got, err = f.svc.ApprovedLeaveOn(ctx, "emp-1", calendar.NewDate(2026, time.March, 9))
	require.NoError(t, err)
	assert.Nil(t, got, "date outside the range")
}

func TestRequestsByEmployee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, submitInput())
	require.NoError(t, err)

	in := submitInput()
	in.StartDate = calendar.NewDate(2026, time.March, 9)
	in.EndDate = calendar.NewDate(2026, time.March, 10)
	_, err = f.svc.Submit(ctx, in)
	require.NoError(t, err)

	reqs, err := f.svc.RequestsByEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Len(t, reqs, 2)

	reqs, err = f.svc.RequestsByEmployee(ctx, "emp-2")
	require.NoError(t, err)
	assert.Empty(t, reqs)
}
