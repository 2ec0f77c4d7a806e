/*
store.go - Persistence and collaborator contracts for the leave engine

PURPOSE:
  The engine never assumes a storage technology or delivery transport. It
  talks to these interfaces; store/memory and store/sqlite implement the
  persistence side, the server wires the rest.

ATOMICITY:
  TxStore.WithTx is the one concurrency tool the engine needs: the quota
  re-check plus debit during approval must observe and mutate the same ledger
  snapshot, or two concurrent approvals could both pass a stale check.
*/
package leave

import (
	"context"

	"go.uber.org/zap"

	"github.com/warp/hr-engine/calendar"
)

// Employee is the minimal directory record the engine needs: batch operations
// iterate active employees. Full employee management lives elsewhere.
type Employee struct {
	ID     string
	Name   string
	Active bool
}

// =============================================================================
// STORE - Persistence contract
// =============================================================================

// Store is the leave-side persistence contract. Lookups for missing rows
// return (nil, nil); services translate that into domain errors.
type Store interface {
	// Leave types
	LeaveType(ctx context.Context, id string) (*LeaveType, error)
	ListLeaveTypes(ctx context.Context) ([]LeaveType, error)
	SaveLeaveType(ctx context.Context, lt LeaveType) error

	// Quota ledger rows, unique per (employee, leave type, year)
	Quota(ctx context.Context, employeeID, leaveTypeID string, year int) (*Quota, error)
	SaveQuota(ctx context.Context, q Quota) error
	QuotasByEmployee(ctx context.Context, employeeID string, year int) ([]Quota, error)

	// Requests
	SaveRequest(ctx context.Context, r *Request) error
	Request(ctx context.Context, id string) (*Request, error)
	RequestsByEmployee(ctx context.Context, employeeID string) ([]Request, error)
	// OpenRequestsOverlapping returns the employee's pending and approved
	// requests whose inclusive interval intersects [start, end].
	OpenRequestsOverlapping(ctx context.Context, employeeID string, start, end calendar.Date) ([]Request, error)
	// ApprovedRequestOn returns an approved request covering date, if any.
	ApprovedRequestOn(ctx context.Context, employeeID string, date calendar.Date) (*Request, error)
	DeleteRequest(ctx context.Context, id string) error

	// Employee directory
	ListEmployees(ctx context.Context) ([]Employee, error)
	SaveEmployee(ctx context.Context, e Employee) error
}

// TxStore adds transactional execution. If fn returns an error the writes it
// performed are rolled back.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// NOTIFIER - Fire-and-forget state change delivery
// =============================================================================

type EventType string

const (
	EventSubmitted EventType = "leave_request_submitted"
	EventApproved  EventType = "leave_request_approved"
	EventRejected  EventType = "leave_request_rejected"
)

// Event is a request state change pushed to the requester.
type Event struct {
	Type        EventType
	RequestID   string
	EmployeeID  string
	LeaveTypeID string
	TotalDays   Days
	Message     string
}

// Notifier delivers events to a real-time channel. Delivery failures must
// never roll back the triggering operation; the engine logs and moves on.
type Notifier interface {
	Notify(ctx context.Context, employeeID string, ev Event) error
}

// NopNotifier drops all events.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, Event) error { return nil }

// LogNotifier writes events to a structured log. Useful as a default wiring
// when no push channel is attached.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) Notify(_ context.Context, employeeID string, ev Event) error {
	n.Log.Info("leave event",
		zap.String("event", string(ev.Type)),
		zap.String("employee_id", employeeID),
		zap.String("request_id", ev.RequestID),
		zap.String("days", ev.TotalDays.String()),
	)
	return nil
}

// =============================================================================
// FILE STORE - Attachment references
// =============================================================================

// FileStore releases stored attachments. The engine only tracks references;
// the bytes live elsewhere.
type FileStore interface {
	Release(ctx context.Context, ref string) error
}

// NopFileStore ignores releases.
type NopFileStore struct{}

func (NopFileStore) Release(context.Context, string) error { return nil }
