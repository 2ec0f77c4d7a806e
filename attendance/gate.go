/*
gate.go - The check-in/check-out gate

PURPOSE:
  Decide whether a punch is allowed right now and, for check-in, whether it
  counts as late. The rules come from the active policy and from any approved
  leave covering today.

KEY RULES:
  - Check-in is open from four hours before the scheduled start until the
    scheduled end (break start instead, when afternoon leave is approved).
  - Approved full-day leave means no punch at all.
  - Approved morning leave moves the day's start to the end of the lunch
    break: checking in before the break opens is rejected, and lateness is
    measured against break end.
  - Lateness is strict: now must be past target plus the grace window.
  - Check-out is allowed from the scheduled end, or from break start when
    afternoon leave is approved.
*/
package attendance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/hr-engine/calendar"
	"github.com/warp/hr-engine/clock"
	"github.com/warp/hr-engine/leave"
	"github.com/warp/hr-engine/policy"
)

// earlyWindowMinutes is how far before the scheduled start a check-in is
// accepted.
const earlyWindowMinutes = 4 * 60

// LeaveLookup answers whether approved leave covers a given day.
// *leave.Service satisfies it.
type LeaveLookup interface {
	ApprovedLeaveOn(ctx context.Context, employeeID string, date calendar.Date) (*leave.Request, error)
}

// Gate applies the punch rules.
type Gate struct {
	store    Store
	policies policy.Store
	leaves   LeaveLookup
	clock    clock.Clock
	log      *zap.Logger
}

func NewGate(store Store, policies policy.Store, leaves LeaveLookup, clk clock.Clock, log *zap.Logger) *Gate {
	if clk == nil {
		clk = clock.System{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{store: store, policies: policies, leaves: leaves, clock: clk, log: log}
}

// CheckIn records the employee's arrival, rejecting punches outside the
// window and flagging late ones.
func (g *Gate) CheckIn(ctx context.Context, employeeID string) (*TimeRecord, error) {
	now := g.clock.Now()
	today := calendar.DateOf(now)

	existing, err := g.store.TimeRecord(ctx, employeeID, today)
	if err != nil {
		return nil, fmt.Errorf("load time record: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyCheckedIn
	}

	pol, err := g.policies.ActivePolicy(ctx)
	if err != nil {
		return nil, err
	}
	if pol.IsSpecialHoliday(today) {
		return nil, ErrSpecialHoliday
	}

	cover, err := g.coverFor(ctx, employeeID, today)
	if err != nil {
		return nil, err
	}

	// Full-day leave blocks the punch outright, before any window math: a
	// full day also sets the afternoon flag, and the closed-window error
	// would mask the real reason.
	if cover.FullDay() {
		return nil, ErrFullDayLeaveActive
	}

	nowT := calendar.TimeOfDayOf(now)

	// Afternoon leave closes the window at break start.
	deadline := pol.End
	if cover.Afternoon {
		deadline = pol.BreakStart
	}
	if nowT.After(deadline) {
		return nil, ErrCheckInWindowClosed
	}

	if nowT.Before(pol.Start.AddMinutes(-earlyWindowMinutes)) {
		return nil, ErrTooEarly
	}

	target := pol.Start
	if cover.Morning {
		if nowT.Before(pol.BreakStart) {
			return nil, ErrTooEarlyForHalfDay
		}
		target = pol.BreakEnd
	}

	rec := &TimeRecord{
		ID:          uuid.NewString(),
		EmployeeID:  employeeID,
		WorkDate:    today,
		CheckInTime: now,
		IsLate:      nowT.After(target.AddMinutes(pol.GraceMinutes)),
		CreatedAt:   now,
	}
	if err := g.store.CreateTimeRecord(ctx, rec); err != nil {
		return nil, err
	}

	if rec.IsLate {
		g.log.Info("late check-in",
			zap.String("employee_id", employeeID),
			zap.String("date", today.String()),
			zap.String("time", nowT.String()))
	}
	return rec, nil
}

// CheckOut completes today's record, rejecting early departures.
func (g *Gate) CheckOut(ctx context.Context, employeeID string) (*TimeRecord, error) {
	now := g.clock.Now()
	today := calendar.DateOf(now)

	rec, err := g.store.TimeRecord(ctx, employeeID, today)
	if err != nil {
		return nil, fmt.Errorf("load time record: %w", err)
	}
	if rec == nil {
		return nil, ErrNoCheckInFound
	}
	if rec.CheckedOut() {
		return nil, ErrAlreadyCheckedOut
	}

	pol, err := g.policies.ActivePolicy(ctx)
	if err != nil {
		return nil, err
	}

	cover, err := g.coverFor(ctx, employeeID, today)
	if err != nil {
		return nil, err
	}

	earliest := pol.End
	if cover.Afternoon {
		earliest = pol.BreakStart
	}
	if calendar.TimeOfDayOf(now).Before(earliest) {
		return nil, ErrTooEarlyToCheckOut
	}

	out := now
	rec.CheckOutTime = &out
	if err := g.store.UpdateTimeRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("update time record: %w", err)
	}
	return rec, nil
}

// History returns the employee's records for the given range, oldest first.
func (g *Gate) History(ctx context.Context, employeeID string, from, to calendar.Date) ([]TimeRecord, error) {
	if from.After(to) {
		return nil, leave.ErrInvalidDateRange
	}
	return g.store.TimeRecordsByEmployee(ctx, employeeID, from, to)
}

func (g *Gate) coverFor(ctx context.Context, employeeID string, day calendar.Date) (leave.DayCover, error) {
	req, err := g.leaves.ApprovedLeaveOn(ctx, employeeID, day)
	if err != nil {
		return leave.DayCover{}, fmt.Errorf("look up approved leave: %w", err)
	}
	if req == nil {
		return leave.DayCover{}, nil
	}
	return req.CoverOn(day), nil
}
