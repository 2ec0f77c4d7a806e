/*
attendance.go - Daily time records

One TimeRecord per employee per working day. The record is created at
check-in with the lateness verdict already computed, and completed at
check-out. The store enforces the one-per-day rule; a duplicate insert must
surface ErrAlreadyCheckedIn.
*/
package attendance

import (
	"context"
	"time"

	"github.com/warp/hr-engine/calendar"
)

// TimeRecord is a single day's punch pair.
type TimeRecord struct {
	ID           string        `json:"id"`
	EmployeeID   string        `json:"employee_id"`
	WorkDate     calendar.Date `json:"work_date"`
	CheckInTime  time.Time     `json:"check_in_time"`
	CheckOutTime *time.Time    `json:"check_out_time,omitempty"`
	IsLate       bool          `json:"is_late"`
	CreatedAt    time.Time     `json:"created_at"`
}

// CheckedOut reports whether the day's record is complete.
func (r *TimeRecord) CheckedOut() bool { return r.CheckOutTime != nil }

// Store persists time records.
type Store interface {
	// CreateTimeRecord inserts a new record. A record already existing for
	// the same employee and work date returns ErrAlreadyCheckedIn.
	CreateTimeRecord(ctx context.Context, rec *TimeRecord) error
	// TimeRecord returns the employee's record for date, or nil.
	TimeRecord(ctx context.Context, employeeID string, date calendar.Date) (*TimeRecord, error)
	UpdateTimeRecord(ctx context.Context, rec *TimeRecord) error
	// TimeRecordsByEmployee returns records with from <= work date <= to,
	// oldest first.
	TimeRecordsByEmployee(ctx context.Context, employeeID string, from, to calendar.Date) ([]TimeRecord, error)
}
