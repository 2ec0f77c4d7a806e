/*
service.go - The leave request state machine

LIFECYCLE:
  Pending -> Approved   (HR, debits the ledger inside one transaction)
  Pending -> Rejected   (HR, no ledger effect)
  Pending -> Cancelled  (requester only, no ledger effect, attachment released)
  Approved -> deleted   (HR override, ledger debit credited back)

SUBMISSION GUARDS, in order:
  1. lead-time gap     (policy.LeaveGapDays)
  2. overlap           (any pending/approved request intersecting the range)
  3. schedule          (every requested day must be a scheduled weekday;
                        stricter than the day calculator, which merely
                        zero-costs non-working days)
  4. zero-day guard    (computed total must be positive)
  5. quota             (via the ledger)

  The schedule guard only looks at the weekly schedule: a holiday inside the
  range does not reject the request, it just reduces the computed total.
*/
package leave

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/hr-engine/calendar"
	"github.com/warp/hr-engine/clock"
	"github.com/warp/hr-engine/policy"
)

// ServiceConfig wires the service's collaborators. Store, Holidays and
// Policies are required; the rest default to no-ops.
type ServiceConfig struct {
	Store    TxStore
	Holidays calendar.HolidayStore
	Policies policy.Store
	Clock    clock.Clock
	Notifier Notifier
	Files    FileStore
	Logger   *zap.Logger
}

// Service runs the leave request lifecycle.
type Service struct {
	store    TxStore
	holidays calendar.HolidayStore
	policies policy.Store
	clock    clock.Clock
	notifier Notifier
	files    FileStore
	log      *zap.Logger
}

func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		store:    cfg.Store,
		holidays: cfg.Holidays,
		policies: cfg.Policies,
		clock:    cfg.Clock,
		notifier: cfg.Notifier,
		files:    cfg.Files,
		log:      cfg.Logger,
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.notifier == nil {
		s.notifier = NopNotifier{}
	}
	if s.files == nil {
		s.files = NopFileStore{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// SubmitInput is a new leave request.
type SubmitInput struct {
	EmployeeID    string
	LeaveTypeID   string
	StartDate     calendar.Date
	EndDate       calendar.Date
	StartDuration Duration
	EndDuration   Duration
	Reason        string
	AttachmentRef string
}

// Submit validates the request against the policy and creates it Pending.
// The day total is computed and stored here, once.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Request, error) {
	if in.StartDate.After(in.EndDate) {
		return nil, ErrInvalidDateRange
	}
	if !in.StartDuration.Valid() || !in.EndDuration.Valid() {
		return nil, ErrInvalidDuration
	}

	pol, err := s.policies.ActivePolicy(ctx)
	if err != nil {
		return nil, err
	}

	lt, err := s.store.LeaveType(ctx, in.LeaveTypeID)
	if err != nil {
		return nil, fmt.Errorf("load leave type: %w", err)
	}
	if lt == nil {
		return nil, fmt.Errorf("%w: %s", ErrLeaveTypeNotFound, in.LeaveTypeID)
	}

	now := s.clock.Now()
	today := calendar.DateOf(now)

	// 1. Lead-time gap. Starting exactly gap days out is allowed.
	if pol.LeaveGapDays > 0 {
		lead := today.DaysUntil(in.StartDate)
		if lead < pol.LeaveGapDays {
			return nil, &GapError{RequiredDays: pol.LeaveGapDays, ActualDays: lead, StartDate: in.StartDate}
		}
	}

	// 2. Overlap against pending and approved requests.
	open, err := s.store.OpenRequestsOverlapping(ctx, in.EmployeeID, in.StartDate, in.EndDate)
	if err != nil {
		return nil, fmt.Errorf("check overlap: %w", err)
	}
	if len(open) > 0 {
		ex := open[0]
		return nil, &OverlapError{ExistingID: ex.ID, Start: ex.StartDate, End: ex.EndDate}
	}

	// 3. Every requested day must be in the weekly schedule.
	for d := in.StartDate; d.BeforeOrEqual(in.EndDate); d = d.AddDays(1) {
		if !pol.WorkingDays.Contains(d.Weekday()) {
			return nil, &NonWorkingDayError{Date: d}
		}
	}

	holidays, err := s.holidaySet(ctx, pol, in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}

	total, err := CalculateTotalDays(in.StartDate, in.EndDate, in.StartDuration, in.EndDuration, pol.WorkingDays, holidays)
	if err != nil {
		return nil, err
	}

	// 4. Zero-day guard.
	if !total.IsPositive() {
		return nil, ErrZeroDayRequest
	}

	// 5. Quota.
	ledger := NewLedger(s.store)
	if _, err := ledger.CheckAvailability(ctx, in.EmployeeID, *lt, in.StartDate.Year, total); err != nil {
		return nil, err
	}

	req := &Request{
		ID:            uuid.NewString(),
		EmployeeID:    in.EmployeeID,
		LeaveTypeID:   in.LeaveTypeID,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		StartDuration: in.StartDuration,
		EndDuration:   in.EndDuration,
		TotalDays:     total,
		Status:        StatusPending,
		Reason:        in.Reason,
		AttachmentRef: in.AttachmentRef,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.SaveRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("save request: %w", err)
	}

	s.notify(ctx, req, EventSubmitted, "leave request submitted")
	return req, nil
}

// Approve moves a pending request to Approved, re-checking and debiting the
// quota inside one storage transaction so concurrent approvals cannot both
// pass against a stale balance.
func (s *Service) Approve(ctx context.Context, requestID, hrID string) (*Request, error) {
	var approved *Request
	err := s.store.WithTx(ctx, func(tx Store) error {
		req, err := tx.Request(ctx, requestID)
		if err != nil {
			return fmt.Errorf("load request: %w", err)
		}
		if req == nil {
			return fmt.Errorf("%w: %s", ErrRequestNotFound, requestID)
		}
		if req.Status != StatusPending {
			return fmt.Errorf("%w: cannot approve %s request", ErrInvalidState, req.Status)
		}

		lt, err := tx.LeaveType(ctx, req.LeaveTypeID)
		if err != nil {
			return fmt.Errorf("load leave type: %w", err)
		}
		if lt == nil {
			return fmt.Errorf("%w: %s", ErrLeaveTypeNotFound, req.LeaveTypeID)
		}

		ledger := NewLedger(tx)
		if err := ledger.Debit(ctx, req.EmployeeID, *lt, req.StartDate.Year, req.TotalDays); err != nil {
			return err
		}

		now := s.clock.Now()
		req.Status = StatusApproved
		req.ApprovedBy = hrID
		req.ApprovalDate = &now
		req.UpdatedAt = now
		if err := tx.SaveRequest(ctx, req); err != nil {
			return fmt.Errorf("save request: %w", err)
		}
		approved = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, approved, EventApproved, "leave request approved")
	return approved, nil
}

// Reject moves a pending request to Rejected. The ledger is untouched since
// nothing was debited.
func (s *Service) Reject(ctx context.Context, requestID, hrID string) (*Request, error) {
	req, err := s.pending(ctx, requestID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	req.Status = StatusRejected
	req.ApprovedBy = hrID
	req.ApprovalDate = &now
	req.UpdatedAt = now
	if err := s.store.SaveRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("save request: %w", err)
	}

	s.notify(ctx, req, EventRejected, "leave request rejected")
	return req, nil
}

// Cancel lets the requester withdraw a pending request. Any stored attachment
// is released to the file store; a release failure is logged, not returned.
func (s *Service) Cancel(ctx context.Context, requestID, actorID string) (*Request, error) {
	req, err := s.pending(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.EmployeeID != actorID {
		return nil, ErrNotOwner
	}

	req.Status = StatusCancelled
	req.UpdatedAt = s.clock.Now()
	if err := s.store.SaveRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("save request: %w", err)
	}

	if req.AttachmentRef != "" {
		if err := s.files.Release(ctx, req.AttachmentRef); err != nil {
			s.log.Warn("attachment release failed",
				zap.String("request_id", req.ID),
				zap.String("ref", req.AttachmentRef),
				zap.Error(err))
		}
	}
	return req, nil
}

// Delete is the HR override that removes a request outright. If the request
// was approved its quota debit is credited back, in the same transaction as
// the removal.
func (s *Service) Delete(ctx context.Context, requestID string) error {
	return s.store.WithTx(ctx, func(tx Store) error {
		req, err := tx.Request(ctx, requestID)
		if err != nil {
			return fmt.Errorf("load request: %w", err)
		}
		if req == nil {
			return fmt.Errorf("%w: %s", ErrRequestNotFound, requestID)
		}

		if req.Status == StatusApproved {
			lt, err := tx.LeaveType(ctx, req.LeaveTypeID)
			if err != nil {
				return fmt.Errorf("load leave type: %w", err)
			}
			if lt != nil {
				if err := NewLedger(tx).Credit(ctx, req.EmployeeID, *lt, req.StartDate.Year, req.TotalDays); err != nil {
					return err
				}
			}
		}

		if err := tx.DeleteRequest(ctx, req.ID); err != nil {
			return fmt.Errorf("delete request: %w", err)
		}

		if req.AttachmentRef != "" {
			if err := s.files.Release(ctx, req.AttachmentRef); err != nil {
				s.log.Warn("attachment release failed",
					zap.String("request_id", req.ID),
					zap.String("ref", req.AttachmentRef),
					zap.Error(err))
			}
		}
		return nil
	})
}

// Request returns a request by ID.
func (s *Service) Request(ctx context.Context, requestID string) (*Request, error) {
	req, err := s.store.Request(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, requestID)
	}
	return req, nil
}

// RequestsByEmployee lists an employee's requests.
func (s *Service) RequestsByEmployee(ctx context.Context, employeeID string) ([]Request, error) {
	return s.store.RequestsByEmployee(ctx, employeeID)
}

// ApprovedLeaveOn returns the employee's approved leave covering date, if
// any. The attendance gate uses this to shrink the check-in window around
// partial-day leave.
func (s *Service) ApprovedLeaveOn(ctx context.Context, employeeID string, date calendar.Date) (*Request, error) {
	return s.store.ApprovedRequestOn(ctx, employeeID, date)
}

// Balance reports availability for one employee/type/year without mutating
// anything.
func (s *Service) Balance(ctx context.Context, employeeID, leaveTypeID string, year int) (*Quota, error) {
	return s.store.Quota(ctx, employeeID, leaveTypeID, year)
}

func (s *Service) pending(ctx context.Context, requestID string) (*Request, error) {
	req, err := s.store.Request(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, requestID)
	}
	if req.Status != StatusPending {
		return nil, fmt.Errorf("%w: request is %s", ErrInvalidState, req.Status)
	}
	return req, nil
}

// holidaySet merges stored holidays in [start, end] with the policy's
// special holidays.
func (s *Service) holidaySet(ctx context.Context, pol *policy.AttendancePolicy, start, end calendar.Date) (calendar.HolidaySet, error) {
	rows, err := s.holidays.HolidaysInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load holidays: %w", err)
	}
	return calendar.NewHolidaySet(rows...).Merge(pol.SpecialHolidays), nil
}

func (s *Service) notify(ctx context.Context, req *Request, evType EventType, msg string) {
	ev := Event{
		Type:        evType,
		RequestID:   req.ID,
		EmployeeID:  req.EmployeeID,
		LeaveTypeID: req.LeaveTypeID,
		TotalDays:   req.TotalDays,
		Message:     msg,
	}
	if err := s.notifier.Notify(ctx, req.EmployeeID, ev); err != nil {
		s.log.Warn("notification delivery failed",
			zap.String("request_id", req.ID),
			zap.String("event", string(evType)),
			zap.Error(err))
	}
}
