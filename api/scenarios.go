/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates the policy, the leave
	type catalog, employees, quotas, and optionally requests and punches.

AVAILABLE SCENARIOS:

	starter:    Policy, catalog, and a small team with fresh quotas
	busy-team:  Starter data plus approved/pending requests and punch history
	year-end:   Last year's quotas with remainders, ready for carry-forward

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Save the attendance policy
 3. Load the leave type catalog via the factory
 4. Create employees and seed quotas
 5. Optionally add requests and time records

	Dates are computed relative to the handler clock so demo data always
	lands in the current week.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "busy-team"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ListScenarios, LoadScenario handlers
  - factory/policy.go: leave type catalog JSON
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/warp/hr-engine/attendance"
	"github.com/warp/hr-engine/calendar"
	"github.com/warp/hr-engine/factory"
	"github.com/warp/hr-engine/leave"
	"github.com/warp/hr-engine/policy"
)

// Resetter clears all stored data. Both store implementations provide it.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Scenario describes one loadable demo dataset.
type Scenario struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var scenarios = []Scenario{
	{
		ID:          "starter",
		Name:        "Starter",
		Description: "Attendance policy, leave type catalog, and a three-person team with fresh quotas",
	},
	{
		ID:          "busy-team",
		Name:        "Busy Team",
		Description: "Starter data plus an approved request, a pending request, and a week of punches",
	},
	{
		ID:          "year-end",
		Name:        "Year End",
		Description: "Last year's quotas with unused balances, ready for a carry-forward run",
	},
}

// ListScenarios returns the available demo datasets.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario resets the database and loads the named dataset.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	if h.Resetter == nil {
		writeError(w, http.StatusServiceUnavailable, "Scenario loading not enabled", nil)
		return
	}

	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	ctx := r.Context()
	if err := h.Resetter.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "starter":
		err = h.loadStarterScenario(ctx)
	case "busy-team":
		err = h.loadBusyTeamScenario(ctx)
	case "year-end":
		err = h.loadYearEndScenario(ctx)
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.Log.Info("scenario loaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario_id": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

var demoTeam = []leave.Employee{
	{ID: "emp-ada", Name: "Ada Okafor", Active: true},
	{ID: "emp-bruno", Name: "Bruno Reyes", Active: true},
	{ID: "emp-chen", Name: "Chen Wei", Active: true},
}

func demoPolicy() *policy.AttendancePolicy {
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

// loadStarterScenario seeds the policy, the catalog, and fresh quotas for
// the current year.
func (h *Handler) loadStarterScenario(ctx context.Context) error {
	if err := h.Policies.SavePolicy(ctx, demoPolicy()); err != nil {
		return err
	}

	catalog, err := factory.NewLeaveTypeFactory().ParseCatalog(factory.DefaultCatalogJSON)
	if err != nil {
		return err
	}
	for _, lt := range catalog {
		if err := h.Store.SaveLeaveType(ctx, lt); err != nil {
			return err
		}
	}

	year := h.now().Year()
	for _, emp := range demoTeam {
		if err := h.Store.SaveEmployee(ctx, emp); err != nil {
			return err
		}
		for _, lt := range catalog {
			if !lt.IsPaid {
				continue
			}
			q := leave.Quota{
				EmployeeID:  emp.ID,
				LeaveTypeID: lt.ID,
				Year:        year,
				TotalDays:   lt.DefaultDays,
			}
			if err := h.Store.SaveQuota(ctx, q); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadBusyTeamScenario layers requests and punch history on the starter
// data: Ada has approved leave next week, Bruno has a pending request, and
// everyone has punched this week.
func (h *Handler) loadBusyTeamScenario(ctx context.Context) error {
	if err := h.loadStarterScenario(ctx); err != nil {
		return err
	}

	now := h.now()
	today := calendar.DateOf(now)
	year := now.Year()

	// Ada: approved full week starting next Monday, quota debited.
	start := nextWeekday(today.AddDays(1), time.Monday)
	approvedAt := now.Add(-24 * time.Hour)
	ada := &leave.Request{
		ID:            uuid.NewString(),
		EmployeeID:    "emp-ada",
		LeaveTypeID:   "annual",
		StartDate:     start,
		EndDate:       start.AddDays(4),
		StartDuration: leave.DurationFull,
		EndDuration:   leave.DurationFull,
		TotalDays:     leave.MustDays("5"),
		Status:        leave.StatusApproved,
		Reason:        "family trip",
		ApprovedBy:    "hr-demo",
		ApprovalDate:  &approvedAt,
		CreatedAt:     now.Add(-72 * time.Hour),
		UpdatedAt:     approvedAt,
	}
	if err := h.Store.SaveRequest(ctx, ada); err != nil {
		return err
	}
	q, err := h.Store.Quota(ctx, "emp-ada", "annual", year)
	if err != nil {
		return err
	}
	if q != nil {
		q.UsedDays = leave.MustDays("5")
		if err := h.Store.SaveQuota(ctx, *q); err != nil {
			return err
		}
	}

	// Bruno: pending half-day, waiting for HR.
	pendingDay := nextWeekday(start.AddDays(7), time.Wednesday)
	bruno := &leave.Request{
		ID:            uuid.NewString(),
		EmployeeID:    "emp-bruno",
		LeaveTypeID:   "annual",
		StartDate:     pendingDay,
		EndDate:       pendingDay,
		StartDuration: leave.DurationHalfMorning,
		EndDuration:   leave.DurationHalfMorning,
		TotalDays:     leave.MustDays("0.5"),
		Status:        leave.StatusPending,
		Reason:        "dentist",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.Store.SaveRequest(ctx, bruno); err != nil {
		return err
	}

	// Punch history: the past five days, skipping non-working days. Bruno
	// was late once, on the first seeded day (a fixed offset could land on
	// a weekend and never seed the late punch).
	lateSeeded := false
	for offset := 5; offset >= 1; offset-- {
		day := today.AddDays(-offset)
		if !demoPolicy().WorkingDays.Contains(day.Weekday()) {
			continue
		}
		for _, emp := range demoTeam {
			checkIn := day.At(8, 55)
			late := emp.ID == "emp-bruno" && !lateSeeded
			if late {
				checkIn = day.At(9, 20)
				lateSeeded = true
			}
			checkOut := day.At(18, 5)
			rec := &attendance.TimeRecord{
				ID:           uuid.NewString(),
				EmployeeID:   emp.ID,
				WorkDate:     day,
				CheckInTime:  checkIn,
				CheckOutTime: &checkOut,
				IsLate:       late,
				CreatedAt:    checkIn,
			}
			if err := h.Attendance.CreateTimeRecord(ctx, rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadYearEndScenario seeds last year's quotas with unused balances so a
// carry-forward run has something to roll.
func (h *Handler) loadYearEndScenario(ctx context.Context) error {
	if err := h.loadStarterScenario(ctx); err != nil {
		return err
	}

	lastYear := h.now().Year() - 1
	used := map[string]string{
		"emp-ada":   "3",  // carries the 5-day cap
		"emp-bruno": "8",  // carries the 2-day remainder
		"emp-chen":  "10", // nothing left to carry
	}
	for emp, u := range used {
		q := leave.Quota{
			EmployeeID:  emp,
			LeaveTypeID: "annual",
			Year:        lastYear,
			TotalDays:   leave.MustDays("10"),
			UsedDays:    leave.MustDays(u),
		}
		if err := h.Store.SaveQuota(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// nextWeekday returns the first date on or after d that falls on the given
// weekday.
func nextWeekday(d calendar.Date, wd time.Weekday) calendar.Date {
	for d.Weekday() != wd {
		d = d.AddDays(1)
	}
	return d
}
