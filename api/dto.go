/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

ENCODING:
  Dates travel as "YYYY-MM-DD", times of day as "HH:mm", day counts as
  decimal strings ("4.50") so clients never see float artifacts.

VALIDATION:
  Parsing/validation happens in handlers; DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/hr-engine/attendance"
	"github.com/warp/hr-engine/calendar"
	"github.com/warp/hr-engine/leave"
	"github.com/warp/hr-engine/policy"
)

// =============================================================================
// POLICY
// =============================================================================

// PolicyDTO is the attendance policy over the wire.
type PolicyDTO struct {
	StartTime       string            `json:"start_time"`
	EndTime         string            `json:"end_time"`
	BreakStartTime  string            `json:"break_start_time"`
	BreakEndTime    string            `json:"break_end_time"`
	GraceMinutes    int               `json:"grace_minutes"`
	WorkingDays     []int             `json:"working_days"`
	LeaveGapDays    int               `json:"leave_gap_days"`
	SpecialHolidays map[string]string `json:"special_holidays"`
	Version         int               `json:"version,omitempty"`
}

func toPolicyDTO(p *policy.AttendancePolicy) PolicyDTO {
	holidays := make(map[string]string, len(p.SpecialHolidays))
	for d, name := range p.SpecialHolidays {
		holidays[d.String()] = name
	}
	return PolicyDTO{
		StartTime:       p.Start.String(),
		EndTime:         p.End.String(),
		BreakStartTime:  p.BreakStart.String(),
		BreakEndTime:    p.BreakEnd.String(),
		GraceMinutes:    p.GraceMinutes,
		WorkingDays:     p.WorkingDays.Indices(),
		LeaveGapDays:    p.LeaveGapDays,
		SpecialHolidays: holidays,
		Version:         p.Version,
	}
}

func (dto PolicyDTO) toDomain() (*policy.AttendancePolicy, error) {
	start, err := calendar.ParseTimeOfDay(dto.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := calendar.ParseTimeOfDay(dto.EndTime)
	if err != nil {
		return nil, err
	}
	breakStart, err := calendar.ParseTimeOfDay(dto.BreakStartTime)
	if err != nil {
		return nil, err
	}
	breakEnd, err := calendar.ParseTimeOfDay(dto.BreakEndTime)
	if err != nil {
		return nil, err
	}

	holidays := make(calendar.HolidaySet, len(dto.SpecialHolidays))
	for s, name := range dto.SpecialHolidays {
		d, err := calendar.ParseDate(s)
		if err != nil {
			return nil, err
		}
		holidays[d] = name
	}

	return &policy.AttendancePolicy{
		Start:           start,
		End:             end,
		BreakStart:      breakStart,
		BreakEnd:        breakEnd,
		GraceMinutes:    dto.GraceMinutes,
		WorkingDays:     calendar.WeekdaysFromIndices(dto.WorkingDays),
		LeaveGapDays:    dto.LeaveGapDays,
		SpecialHolidays: holidays,
	}, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

type HolidayDTO struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Name string `json:"name"`
}

type CreateHolidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// =============================================================================
// LEAVE TYPES AND QUOTAS
// =============================================================================

type LeaveTypeDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	IsPaid          bool   `json:"is_paid"`
	DefaultDays     string `json:"default_days"`
	CanCarryForward bool   `json:"can_carry_forward"`
	MaxCarryDays    string `json:"max_carry_days"`
}

func toLeaveTypeDTO(lt leave.LeaveType) LeaveTypeDTO {
	return LeaveTypeDTO{
		ID:              lt.ID,
		Name:            lt.Name,
		IsPaid:          lt.IsPaid,
		DefaultDays:     lt.DefaultDays.String(),
		CanCarryForward: lt.CanCarryForward,
		MaxCarryDays:    lt.MaxCarryDays.String(),
	}
}

type QuotaDTO struct {
	EmployeeID      string `json:"employee_id"`
	LeaveTypeID     string `json:"leave_type_id"`
	Year            int    `json:"year"`
	TotalDays       string `json:"total_days"`
	CarriedOverDays string `json:"carried_over_days"`
	UsedDays        string `json:"used_days"`
	AvailableDays   string `json:"available_days"`
}

func toQuotaDTO(q leave.Quota) QuotaDTO {
	return QuotaDTO{
		EmployeeID:      q.EmployeeID,
		LeaveTypeID:     q.LeaveTypeID,
		Year:            q.Year,
		TotalDays:       q.TotalDays.String(),
		CarriedOverDays: q.CarriedOverDays.String(),
		UsedDays:        q.UsedDays.String(),
		AvailableDays:   q.Available().String(),
	}
}

// SeedQuotaRequest sets one quota row.
type SeedQuotaRequest struct {
	LeaveTypeID string `json:"leave_type_id"`
	Year        int    `json:"year"`
	TotalDays   string `json:"total_days"`
}

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// SubmitLeaveRequest is the body for creating a leave request.
type SubmitLeaveRequest struct {
	EmployeeID    string `json:"employee_id"`
	LeaveTypeID   string `json:"leave_type_id"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	StartDuration string `json:"start_duration"`
	EndDuration   string `json:"end_duration"`
	Reason        string `json:"reason,omitempty"`
	AttachmentRef string `json:"attachment_ref,omitempty"`
}

// ActorRequest carries the acting user for a transition.
type ActorRequest struct {
	ActorID string `json:"actor_id"`
}

type LeaveRequestDTO struct {
	ID            string `json:"id"`
	EmployeeID    string `json:"employee_id"`
	LeaveTypeID   string `json:"leave_type_id"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	StartDuration string `json:"start_duration"`
	EndDuration   string `json:"end_duration"`
	TotalDays     string `json:"total_days"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
	AttachmentRef string `json:"attachment_ref,omitempty"`
	ApprovedBy    string `json:"approved_by,omitempty"`
	ApprovalDate  string `json:"approval_date,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func toLeaveRequestDTO(r *leave.Request) LeaveRequestDTO {
	dto := LeaveRequestDTO{
		ID:            r.ID,
		EmployeeID:    r.EmployeeID,
		LeaveTypeID:   r.LeaveTypeID,
		StartDate:     r.StartDate.String(),
		EndDate:       r.EndDate.String(),
		StartDuration: string(r.StartDuration),
		EndDuration:   string(r.EndDuration),
		TotalDays:     r.TotalDays.String(),
		Status:        string(r.Status),
		Reason:        r.Reason,
		AttachmentRef: r.AttachmentRef,
		ApprovedBy:    r.ApprovedBy,
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     r.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if r.ApprovalDate != nil {
		dto.ApprovalDate = r.ApprovalDate.UTC().Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// PunchRequest identifies the employee checking in or out.
type PunchRequest struct {
	EmployeeID string `json:"employee_id"`
}

type TimeRecordDTO struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	WorkDate     string `json:"work_date"`
	CheckInTime  string `json:"check_in_time"`
	CheckOutTime string `json:"check_out_time,omitempty"`
	IsLate       bool   `json:"is_late"`
}

func toTimeRecordDTO(rec *attendance.TimeRecord) TimeRecordDTO {
	dto := TimeRecordDTO{
		ID:          rec.ID,
		EmployeeID:  rec.EmployeeID,
		WorkDate:    rec.WorkDate.String(),
		CheckInTime: rec.CheckInTime.UTC().Format(time.RFC3339),
		IsLate:      rec.IsLate,
	}
	if rec.CheckOutTime != nil {
		dto.CheckOutTime = rec.CheckOutTime.UTC().Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// CARRY-FORWARD
// =============================================================================

// CarryForwardRequest triggers the year-end batch.
type CarryForwardRequest struct {
	FromYear int `json:"from_year"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
