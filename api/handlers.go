/*
handlers.go - HTTP API handlers for the leave and attendance engine

PURPOSE:
  Exposes the engine via REST. Handles HTTP request/response, JSON
  serialization, and delegates to domain logic.

ENDPOINTS:
  Policy:
    GET    /api/policy                       Active attendance policy
    PUT    /api/policy                       Upsert the policy

  Holidays:
    GET    /api/holidays?from=&to=           Holidays in a range
    POST   /api/holidays                     Add a holiday
    DELETE /api/holidays/{id}                Remove a holiday

  Leave types:
    GET    /api/leave-types
    PUT    /api/leave-types

  Employees:
    GET    /api/employees
    PUT    /api/employees
    GET    /api/employees/{id}/balance?year= Quota rows for a year
    PUT    /api/employees/{id}/quotas        Seed/overwrite a quota row
    GET    /api/employees/{id}/requests      Leave request history
    GET    /api/employees/{id}/attendance?from=&to=

  Leave requests:
    POST   /api/requests                     Submit
    GET    /api/requests/{id}
    POST   /api/requests/{id}/approve        HR approval (debits quota)
    POST   /api/requests/{id}/reject
    POST   /api/requests/{id}/cancel         Requester withdrawal
    DELETE /api/requests/{id}                HR removal (credits if approved)

  Attendance:
    POST   /api/attendance/check-in
    POST   /api/attendance/check-out

  Admin:
    POST   /api/admin/carry-forward          Year-end quota rollover

  Scenarios (dev/demo only):
    GET    /api/scenarios                    Available demo datasets
    POST   /api/scenarios/load               Reset and load one

ERROR HANDLING:
  Errors map to JSON with an HTTP status:
  - 400: Malformed input
  - 404: Unknown request / leave type
  - 409: State conflicts (wrong lifecycle status, duplicate punch)
  - 422: Policy rejections (gap, overlap, quota, punch window, no policy)
  - 500: Everything else

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/hr-engine/attendance"
	"github.com/warp/hr-engine/calendar"
	"github.com/warp/hr-engine/clock"
	"github.com/warp/hr-engine/leave"
	"github.com/warp/hr-engine/policy"
)

// Handler holds all dependencies for HTTP handlers. Attendance, Resetter and
// Clock are only needed for the demo scenario loaders.
type Handler struct {
	Leave      *leave.Service
	Gate       *attendance.Gate
	Carry      *leave.CarryForward
	Store      leave.Store
	Holidays   calendar.HolidayStore
	Policies   policy.Store
	Attendance attendance.Store
	Resetter   Resetter
	Clock      clock.Clock
	Log        *zap.Logger
}

// NewHandler wires a handler. Log defaults to a no-op logger, Clock to the
// wall clock.
func NewHandler(h Handler) *Handler {
	if h.Log == nil {
		h.Log = zap.NewNop()
	}
	if h.Clock == nil {
		h.Clock = clock.System{}
	}
	return &h
}

func (h *Handler) now() time.Time { return h.Clock.Now() }

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// GetPolicy returns the active attendance policy.
// GET /api/policy
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	p, err := h.Policies.ActivePolicy(r.Context())
	if err != nil {
		if errors.Is(err, policy.ErrPolicyMissing) {
			writeError(w, http.StatusNotFound, "No attendance policy configured", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load policy", err)
		return
	}
	writeJSON(w, http.StatusOK, toPolicyDTO(p))
}

// SavePolicy upserts the single attendance policy.
// PUT /api/policy
func (h *Handler) SavePolicy(w http.ResponseWriter, r *http.Request) {
	var dto PolicyDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	p, err := dto.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid policy", err)
		return
	}
	if err := h.Policies.SavePolicy(r.Context(), p); err != nil {
		writeError(w, http.StatusBadRequest, "Policy rejected", err)
		return
	}

	h.Log.Info("attendance policy updated", zap.Int("version", p.Version))
	writeJSON(w, http.StatusOK, toPolicyDTO(p))
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns holidays in [from, to]. Without bounds it returns the
// whole stored calendar.
// GET /api/holidays?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	holidays, err := h.Holidays.HolidaysInRange(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = HolidayDTO{ID: hol.ID, Date: hol.Date.String(), Name: hol.Name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a holiday to the calendar.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	hol := calendar.Holiday{ID: uuid.NewString(), Date: date, Name: req.Name}
	if err := h.Holidays.SaveHoliday(r.Context(), hol); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, HolidayDTO{ID: hol.ID, Date: hol.Date.String(), Name: hol.Name})
}

// DeleteHoliday removes a holiday by ID.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Holidays.DeleteHoliday(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete holiday", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LEAVE TYPE HANDLERS
// =============================================================================

// ListLeaveTypes returns all configured leave types.
// GET /api/leave-types
func (h *Handler) ListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Store.ListLeaveTypes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list leave types", err)
		return
	}

	dtos := make([]LeaveTypeDTO, len(types))
	for i, lt := range types {
		dtos[i] = toLeaveTypeDTO(lt)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveLeaveType upserts a leave type.
// PUT /api/leave-types
func (h *Handler) SaveLeaveType(w http.ResponseWriter, r *http.Request) {
	var dto LeaveTypeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if dto.ID == "" || dto.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	defaultDays, err := leave.DaysFromString(dto.DefaultDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid default_days", err)
		return
	}
	maxCarry, err := leave.DaysFromString(dto.MaxCarryDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid max_carry_days", err)
		return
	}

	lt := leave.LeaveType{
		ID:              dto.ID,
		Name:            dto.Name,
		IsPaid:          dto.IsPaid,
		DefaultDays:     defaultDays,
		CanCarryForward: dto.CanCarryForward,
		MaxCarryDays:    maxCarry,
	}
	if err := h.Store.SaveLeaveType(r.Context(), lt); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save leave type", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveTypeDTO(lt))
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns the directory.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = EmployeeDTO{ID: e.ID, Name: e.Name, Active: e.Active}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveEmployee upserts a directory record.
// PUT /api/employees
func (h *Handler) SaveEmployee(w http.ResponseWriter, r *http.Request) {
	var dto EmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if dto.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required", nil)
		return
	}

	e := leave.Employee{ID: dto.ID, Name: dto.Name, Active: dto.Active}
	if err := h.Store.SaveEmployee(r.Context(), e); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetBalance returns the employee's quota rows for a year.
// GET /api/employees/{id}/balance?year=2026
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	year, err := parseYear(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	quotas, err := h.Store.QuotasByEmployee(r.Context(), employeeID, year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load quotas", err)
		return
	}

	dtos := make([]QuotaDTO, len(quotas))
	for i, q := range quotas {
		dtos[i] = toQuotaDTO(q)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SeedQuota sets the employee's quota row for a type/year. Existing usage is
// preserved; only the total changes.
// PUT /api/employees/{id}/quotas
func (h *Handler) SeedQuota(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	var req SeedQuotaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	total, err := leave.DaysFromString(req.TotalDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid total_days", err)
		return
	}

	existing, err := h.Store.Quota(r.Context(), employeeID, req.LeaveTypeID, req.Year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load quota", err)
		return
	}

	q := leave.Quota{EmployeeID: employeeID, LeaveTypeID: req.LeaveTypeID, Year: req.Year}
	if existing != nil {
		q = *existing
	}
	q.TotalDays = total
	if err := h.Store.SaveQuota(r.Context(), q); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save quota", err)
		return
	}
	writeJSON(w, http.StatusOK, toQuotaDTO(q))
}

// ListEmployeeRequests returns the employee's leave requests, newest first.
// GET /api/employees/{id}/requests
func (h *Handler) ListEmployeeRequests(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	requests, err := h.Leave.RequestsByEmployee(r.Context(), employeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}

	dtos := make([]LeaveRequestDTO, len(requests))
	for i := range requests {
		dtos[i] = toLeaveRequestDTO(&requests[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAttendanceHistory returns punch records in a range.
// GET /api/employees/{id}/attendance?from=&to=
func (h *Handler) GetAttendanceHistory(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	records, err := h.Gate.History(r.Context(), employeeID, from, to)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to load records", err)
		return
	}

	dtos := make([]TimeRecordDTO, len(records))
	for i := range records {
		dtos[i] = toTimeRecordDTO(&records[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LEAVE REQUEST HANDLERS
// =============================================================================

// SubmitRequest creates a leave request in Pending.
// POST /api/requests
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	start, err := calendar.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	end, err := calendar.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}
	startDur, err := leave.ParseDuration(req.StartDuration)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_duration", err)
		return
	}
	endDur, err := leave.ParseDuration(req.EndDuration)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_duration", err)
		return
	}

	created, err := h.Leave.Submit(r.Context(), leave.SubmitInput{
		EmployeeID:    req.EmployeeID,
		LeaveTypeID:   req.LeaveTypeID,
		StartDate:     start,
		EndDate:       end,
		StartDuration: startDur,
		EndDuration:   endDur,
		Reason:        req.Reason,
		AttachmentRef: req.AttachmentRef,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveRequestDTO(created))
}

// GetRequest returns one leave request.
// GET /api/requests/{id}
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.Leave.Request(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(req))
}

// ApproveRequest approves a pending request, debiting the quota.
// POST /api/requests/{id}/approve
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := decodeActor(w, r)
	if !ok {
		return
	}

	req, err := h.Leave.Approve(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(req))
}

// RejectRequest rejects a pending request.
// POST /api/requests/{id}/reject
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := decodeActor(w, r)
	if !ok {
		return
	}

	req, err := h.Leave.Reject(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(req))
}

// CancelRequest lets the requester withdraw a pending request.
// POST /api/requests/{id}/cancel
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := decodeActor(w, r)
	if !ok {
		return
	}

	req, err := h.Leave.Cancel(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(req))
}

// DeleteRequest removes a request outright (HR override).
// DELETE /api/requests/{id}
func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.Leave.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ATTENDANCE HANDLERS
// =============================================================================

// CheckIn records the employee's arrival.
// POST /api/attendance/check-in
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req PunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	rec, err := h.Gate.CheckIn(r.Context(), req.EmployeeID)
	if err != nil {
		writePunchError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTimeRecordDTO(rec))
}

// CheckOut records the departure.
// POST /api/attendance/check-out
func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	var req PunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	rec, err := h.Gate.CheckOut(r.Context(), req.EmployeeID)
	if err != nil {
		writePunchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimeRecordDTO(rec))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// RunCarryForward rolls quota balances into the next year.
// POST /api/admin/carry-forward
func (h *Handler) RunCarryForward(w http.ResponseWriter, r *http.Request) {
	var req CarryForwardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if req.FromYear < 1900 || req.FromYear > 3000 {
		writeError(w, http.StatusBadRequest, "Invalid from_year", nil)
		return
	}

	summary, err := h.Carry.Run(r.Context(), req.FromYear)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Carry-forward failed", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// =============================================================================
// HELPERS
// =============================================================================

func decodeActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req ActorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return "", false
	}
	if req.ActorID == "" {
		writeError(w, http.StatusBadRequest, "actor_id is required", nil)
		return "", false
	}
	return req.ActorID, true
}

func parseYear(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return 0, errors.New("year query parameter required")
	}
	return strconv.Atoi(raw)
}

// parseRange reads from/to query bounds; both omitted means "everything".
func parseRange(r *http.Request) (calendar.Date, calendar.Date, error) {
	fromRaw := r.URL.Query().Get("from")
	toRaw := r.URL.Query().Get("to")

	if fromRaw == "" && toRaw == "" {
		return calendar.NewDate(1900, 1, 1), calendar.NewDate(3000, 12, 31), nil
	}
	if fromRaw == "" || toRaw == "" {
		return calendar.Date{}, calendar.Date{}, errors.New("from and to must be given together")
	}

	from, err := calendar.ParseDate(fromRaw)
	if err != nil {
		return calendar.Date{}, calendar.Date{}, err
	}
	to, err := calendar.ParseDate(toRaw)
	if err != nil {
		return calendar.Date{}, calendar.Date{}, err
	}
	return from, to, nil
}

// writeDomainError maps leave engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case leave.IsValidation(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	case errors.Is(err, leave.ErrRequestNotFound), errors.Is(err, leave.ErrLeaveTypeNotFound):
		writeError(w, http.StatusNotFound, "Not found", err)
	case leave.IsStateConflict(err):
		writeError(w, http.StatusConflict, "Conflict", err)
	case leave.IsPolicyViolation(err), errors.Is(err, policy.ErrPolicyMissing):
		writeError(w, http.StatusUnprocessableEntity, "Request rejected", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

// writePunchError maps attendance gate errors onto HTTP statuses.
func writePunchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, attendance.ErrAlreadyCheckedIn),
		errors.Is(err, attendance.ErrAlreadyCheckedOut),
		errors.Is(err, attendance.ErrNoCheckInFound):
		writeError(w, http.StatusConflict, "Conflict", err)
	case errors.Is(err, attendance.ErrSpecialHoliday),
		errors.Is(err, attendance.ErrCheckInWindowClosed),
		errors.Is(err, attendance.ErrTooEarly),
		errors.Is(err, attendance.ErrFullDayLeaveActive),
		errors.Is(err, attendance.ErrTooEarlyForHalfDay),
		errors.Is(err, attendance.ErrTooEarlyToCheckOut),
		errors.Is(err, policy.ErrPolicyMissing):
		writeError(w, http.StatusUnprocessableEntity, "Punch rejected", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
