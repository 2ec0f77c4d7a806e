/*
Package sqlite is the SQLite-backed store.

PURPOSE:
  Implements every persistence contract the engine defines (leave.TxStore,
  calendar.HolidayStore, policy.Store, attendance.Store) on a single SQLite
  file. The same SQL shapes port to PostgreSQL with only dialect changes.

KEY TABLES:
  attendance_policies: the singleton policy row (id is always 1)
  holidays:            company holiday calendar
  leave_types:         per-type configuration
  leave_quotas:        the ledger, one row per (employee, leave type, year)
  leave_requests:      requests with lifecycle status
  employees:           minimal directory
  time_records:        one punch pair per employee per day

CONSTRAINTS:
  leave_quotas has a composite primary key; upserts go through ON CONFLICT.
  time_records carries UNIQUE(employee_id, work_date) - a duplicate insert is
  mapped to attendance.ErrAlreadyCheckedIn rather than a raw driver error.

ENCODING:
  Dates are stored as "YYYY-MM-DD" text, instants as RFC3339, day counts as
  decimal strings (never REAL), times of day as minutes since midnight.

WAL MODE:
  The database opens with WAL journaling and foreign keys on: readers don't
  block each other, one writer at a time.

MIGRATION:
  Schema is auto-migrated on New(). For production use a versioned migration
  tool (golang-migrate, goose).
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/hr-engine/attendance"
	"github.com/warp/hr-engine/calendar"
	"github.com/warp/hr-engine/leave"
	"github.com/warp/hr-engine/policy"
)

// Store implements all storage contracts on SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Singleton attendance policy (id fixed at 1, versioned on upsert)
	CREATE TABLE IF NOT EXISTS attendance_policies (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		start_minutes INTEGER NOT NULL,
		end_minutes INTEGER NOT NULL,
		break_start_minutes INTEGER NOT NULL,
		break_end_minutes INTEGER NOT NULL,
		grace_minutes INTEGER NOT NULL,
		working_days_json TEXT NOT NULL,
		leave_gap_days INTEGER NOT NULL,
		special_holidays_json TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TEXT NOT NULL
	);

	-- Company holiday calendar
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_date ON holidays(date);

	-- Leave type configuration
	CREATE TABLE IF NOT EXISTS leave_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		is_paid BOOLEAN NOT NULL,
		default_days TEXT NOT NULL,
		can_carry_forward BOOLEAN NOT NULL,
		max_carry_days TEXT NOT NULL
	);

	-- The quota ledger: one row per employee, leave type and year
	CREATE TABLE IF NOT EXISTS leave_quotas (
		employee_id TEXT NOT NULL,
		leave_type_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		total_days TEXT NOT NULL,
		carried_over_days TEXT NOT NULL,
		used_days TEXT NOT NULL,
		PRIMARY KEY (employee_id, leave_type_id, year)
	);

	CREATE INDEX IF NOT EXISTS idx_quotas_employee_year
		ON leave_quotas(employee_id, year);

	-- Leave requests with lifecycle status
	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		leave_type_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		start_duration TEXT NOT NULL,
		end_duration TEXT NOT NULL,
		total_days TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT,
		attachment_ref TEXT,
		approved_by TEXT,
		approval_date TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON leave_requests(employee_id);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON leave_requests(status);
	-- Overlap checks scan an employee's open requests by range
	CREATE INDEX IF NOT EXISTS idx_requests_employee_dates
		ON leave_requests(employee_id, start_date, end_date);

	-- Minimal employee directory
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE
	);

	-- Daily punch records; the unique index enforces one per day
	CREATE TABLE IF NOT EXISTS time_records (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		work_date TEXT NOT NULL,
		check_in_time TEXT NOT NULL,
		check_out_time TEXT,
		is_late BOOLEAN NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_time_records_unique_day
		ON time_records(employee_id, work_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// queryable is satisfied by both *sql.DB and *sql.Tx, so every statement
// helper works inside and outside WithTx.
type queryable interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// LEAVE STORE (leave.Store interface)
// =============================================================================

func (s *Store) LeaveType(ctx context.Context, id string) (*leave.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getLeaveType(ctx, s.db, id)
}

func getLeaveType(ctx context.Context, q queryable, id string) (*leave.LeaveType, error) {
	row := q.QueryRowContext(ctx,
		"SELECT id, name, is_paid, default_days, can_carry_forward, max_carry_days FROM leave_types WHERE id = ?",
		id,
	)

	var lt leave.LeaveType
	var defaultDays, maxCarry string
	err := row.Scan(&lt.ID, &lt.Name, &lt.IsPaid, &defaultDays, &lt.CanCarryForward, &maxCarry)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan leave type: %w", err)
	}

	if lt.DefaultDays, err = leave.DaysFromString(defaultDays); err != nil {
		return nil, err
	}
	if lt.MaxCarryDays, err = leave.DaysFromString(maxCarry); err != nil {
		return nil, err
	}
	return &lt, nil
}

func (s *Store) ListLeaveTypes(ctx context.Context) ([]leave.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listLeaveTypes(ctx, s.db)
}

func listLeaveTypes(ctx context.Context, q queryable) ([]leave.LeaveType, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, name, is_paid, default_days, can_carry_forward, max_carry_days FROM leave_types ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []leave.LeaveType
	for rows.Next() {
		var lt leave.LeaveType
		var defaultDays, maxCarry string
		if err := rows.Scan(&lt.ID, &lt.Name, &lt.IsPaid, &defaultDays, &lt.CanCarryForward, &maxCarry); err != nil {
			return nil, err
		}
		if lt.DefaultDays, err = leave.DaysFromString(defaultDays); err != nil {
			return nil, err
		}
		if lt.MaxCarryDays, err = leave.DaysFromString(maxCarry); err != nil {
			return nil, err
		}
		types = append(types, lt)
	}
	return types, rows.Err()
}

func (s *Store) SaveLeaveType(ctx context.Context, lt leave.LeaveType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveLeaveType(ctx, s.db, lt)
}

func saveLeaveType(ctx context.Context, q queryable, lt leave.LeaveType) error {
	query := `
		INSERT INTO leave_types (id, name, is_paid, default_days, can_carry_forward, max_carry_days)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			is_paid = excluded.is_paid,
			default_days = excluded.default_days,
			can_carry_forward = excluded.can_carry_forward,
			max_carry_days = excluded.max_carry_days
	`
	_, err := q.ExecContext(ctx, query,
		lt.ID, lt.Name, lt.IsPaid, lt.DefaultDays.String(), lt.CanCarryForward, lt.MaxCarryDays.String(),
	)
	return err
}

func (s *Store) Quota(ctx context.Context, employeeID, leaveTypeID string, year int) (*leave.Quota, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getQuota(ctx, s.db, employeeID, leaveTypeID, year)
}

func getQuota(ctx context.Context, q queryable, employeeID, leaveTypeID string, year int) (*leave.Quota, error) {
	row := q.QueryRowContext(ctx,
		`SELECT employee_id, leave_type_id, year, total_days, carried_over_days, used_days
		 FROM leave_quotas WHERE employee_id = ? AND leave_type_id = ? AND year = ?`,
		employeeID, leaveTypeID, year,
	)
	quota, err := scanQuota(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return quota, nil
}

func scanQuota(scan func(...any) error) (*leave.Quota, error) {
	var quota leave.Quota
	var total, carried, used string
	if err := scan(&quota.EmployeeID, &quota.LeaveTypeID, &quota.Year, &total, &carried, &used); err != nil {
		return nil, err
	}

	var err error
	if quota.TotalDays, err = leave.DaysFromString(total); err != nil {
		return nil, err
	}
	if quota.CarriedOverDays, err = leave.DaysFromString(carried); err != nil {
		return nil, err
	}
	if quota.UsedDays, err = leave.DaysFromString(used); err != nil {
		return nil, err
	}
	return &quota, nil
}

func (s *Store) SaveQuota(ctx context.Context, quota leave.Quota) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveQuota(ctx, s.db, quota)
}

func saveQuota(ctx context.Context, q queryable, quota leave.Quota) error {
	query := `
		INSERT INTO leave_quotas (employee_id, leave_type_id, year, total_days, carried_over_days, used_days)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, leave_type_id, year) DO UPDATE SET
			total_days = excluded.total_days,
			carried_over_days = excluded.carried_over_days,
			used_days = excluded.used_days
	`
	_, err := q.ExecContext(ctx, query,
		quota.EmployeeID, quota.LeaveTypeID, quota.Year,
		quota.TotalDays.String(), quota.CarriedOverDays.String(), quota.UsedDays.String(),
	)
	return err
}

func (s *Store) QuotasByEmployee(ctx context.Context, employeeID string, year int) ([]leave.Quota, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return quotasByEmployee(ctx, s.db, employeeID, year)
}

func quotasByEmployee(ctx context.Context, q queryable, employeeID string, year int) ([]leave.Quota, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT employee_id, leave_type_id, year, total_days, carried_over_days, used_days
		 FROM leave_quotas WHERE employee_id = ? AND year = ?
		 ORDER BY leave_type_id`,
		employeeID, year,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotas []leave.Quota
	for rows.Next() {
		quota, err := scanQuota(rows.Scan)
		if err != nil {
			return nil, err
		}
		quotas = append(quotas, *quota)
	}
	return quotas, rows.Err()
}

const requestColumns = `id, employee_id, leave_type_id, start_date, end_date,
	start_duration, end_duration, total_days, status, reason, attachment_ref,
	approved_by, approval_date, created_at, updated_at`

func (s *Store) SaveRequest(ctx context.Context, r *leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveRequest(ctx, s.db, r)
}

func saveRequest(ctx context.Context, q queryable, r *leave.Request) error {
	query := `
		INSERT INTO leave_requests (` + requestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			approved_by = excluded.approved_by,
			approval_date = excluded.approval_date,
			updated_at = excluded.updated_at
	`

	var approvalDate *string
	if r.ApprovalDate != nil {
		t := r.ApprovalDate.UTC().Format(time.RFC3339)
		approvalDate = &t
	}

	_, err := q.ExecContext(ctx, query,
		r.ID, r.EmployeeID, r.LeaveTypeID,
		r.StartDate.String(), r.EndDate.String(),
		string(r.StartDuration), string(r.EndDuration),
		r.TotalDays.String(), string(r.Status),
		nullString(r.Reason), nullString(r.AttachmentRef), nullString(r.ApprovedBy),
		approvalDate,
		r.CreatedAt.UTC().Format(time.RFC3339), r.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) Request(ctx context.Context, id string) (*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getRequest(ctx, s.db, id)
}

func getRequest(ctx context.Context, q queryable, id string) (*leave.Request, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM leave_requests WHERE id = ?", id)
	r, err := scanRequest(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func scanRequest(scan func(...any) error) (*leave.Request, error) {
	var r leave.Request
	var startDate, endDate, startDur, endDur, totalDays, status string
	var reason, attachmentRef, approvedBy, approvalDate sql.NullString
	var createdAt, updatedAt string

	err := scan(
		&r.ID, &r.EmployeeID, &r.LeaveTypeID, &startDate, &endDate,
		&startDur, &endDur, &totalDays, &status, &reason, &attachmentRef,
		&approvedBy, &approvalDate, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if r.StartDate, err = calendar.ParseDate(startDate); err != nil {
		return nil, err
	}
	if r.EndDate, err = calendar.ParseDate(endDate); err != nil {
		return nil, err
	}
	r.StartDuration = leave.Duration(startDur)
	r.EndDuration = leave.Duration(endDur)
	if r.TotalDays, err = leave.DaysFromString(totalDays); err != nil {
		return nil, err
	}
	r.Status = leave.Status(status)
	r.Reason = reason.String
	r.AttachmentRef = attachmentRef.String
	r.ApprovedBy = approvedBy.String
	if approvalDate.Valid {
		t, err := time.Parse(time.RFC3339, approvalDate.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt approval date: %w", err)
		}
		r.ApprovalDate = &t
	}
	if r.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("corrupt created_at: %w", err)
	}
	if r.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("corrupt updated_at: %w", err)
	}
	return &r, nil
}

func (s *Store) RequestsByEmployee(ctx context.Context, employeeID string) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryRequests(ctx, s.db,
		"SELECT "+requestColumns+" FROM leave_requests WHERE employee_id = ? ORDER BY created_at DESC",
		employeeID)
}

func (s *Store) OpenRequestsOverlapping(ctx context.Context, employeeID string, start, end calendar.Date) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return openRequestsOverlapping(ctx, s.db, employeeID, start, end)
}

func openRequestsOverlapping(ctx context.Context, q queryable, employeeID string, start, end calendar.Date) ([]leave.Request, error) {
	// Inclusive interval intersection on lexicographically ordered dates.
	query := `
		SELECT ` + requestColumns + ` FROM leave_requests
		WHERE employee_id = ?
		  AND status IN ('pending', 'approved')
		  AND start_date <= ? AND end_date >= ?
		ORDER BY start_date
	`
	return queryRequests(ctx, q, query, employeeID, end.String(), start.String())
}

func (s *Store) ApprovedRequestOn(ctx context.Context, employeeID string, date calendar.Date) (*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT ` + requestColumns + ` FROM leave_requests
		WHERE employee_id = ? AND status = 'approved'
		  AND start_date <= ? AND end_date >= ?
		LIMIT 1
	`
	requests, err := queryRequests(ctx, s.db, query, employeeID, date.String(), date.String())
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, nil
	}
	return &requests[0], nil
}

func queryRequests(ctx context.Context, q queryable, query string, args ...any) ([]leave.Request, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		r, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

func (s *Store) DeleteRequest(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteRequest(ctx, s.db, id)
}

func deleteRequest(ctx context.Context, q queryable, id string) error {
	_, err := q.ExecContext(ctx, "DELETE FROM leave_requests WHERE id = ?", id)
	return err
}

func (s *Store) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listEmployees(ctx, s.db)
}

func listEmployees(ctx context.Context, q queryable) ([]leave.Employee, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, name, active FROM employees ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []leave.Employee
	for rows.Next() {
		var e leave.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Active); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (s *Store) SaveEmployee(ctx context.Context, e leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveEmployee(ctx, s.db, e)
}

func saveEmployee(ctx context.Context, q queryable, e leave.Employee) error {
	query := `
		INSERT INTO employees (id, name, active)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			active = excluded.active
	`
	_, err := q.ExecContext(ctx, query, e.ID, e.Name, e.Active)
	return err
}

// =============================================================================
// TRANSACTIONS (leave.TxStore interface)
// =============================================================================

// WithTx runs fn inside a database transaction. The closure's store view
// shares the outer lock, so nothing else writes while it runs.
func (s *Store) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) LeaveType(ctx context.Context, id string) (*leave.LeaveType, error) {
	return getLeaveType(ctx, ts.tx, id)
}

func (ts *txStore) ListLeaveTypes(ctx context.Context) ([]leave.LeaveType, error) {
	return listLeaveTypes(ctx, ts.tx)
}

func (ts *txStore) SaveLeaveType(ctx context.Context, lt leave.LeaveType) error {
	return saveLeaveType(ctx, ts.tx, lt)
}

func (ts *txStore) Quota(ctx context.Context, employeeID, leaveTypeID string, year int) (*leave.Quota, error) {
	return getQuota(ctx, ts.tx, employeeID, leaveTypeID, year)
}

func (ts *txStore) SaveQuota(ctx context.Context, quota leave.Quota) error {
	return saveQuota(ctx, ts.tx, quota)
}

func (ts *txStore) QuotasByEmployee(ctx context.Context, employeeID string, year int) ([]leave.Quota, error) {
	return quotasByEmployee(ctx, ts.tx, employeeID, year)
}

func (ts *txStore) SaveRequest(ctx context.Context, r *leave.Request) error {
	return saveRequest(ctx, ts.tx, r)
}

func (ts *txStore) Request(ctx context.Context, id string) (*leave.Request, error) {
	return getRequest(ctx, ts.tx, id)
}

func (ts *txStore) RequestsByEmployee(ctx context.Context, employeeID string) ([]leave.Request, error) {
	return queryRequests(ctx, ts.tx,
		"SELECT "+requestColumns+" FROM leave_requests WHERE employee_id = ? ORDER BY created_at DESC",
		employeeID)
}

func (ts *txStore) OpenRequestsOverlapping(ctx context.Context, employeeID string, start, end calendar.Date) ([]leave.Request, error) {
	return openRequestsOverlapping(ctx, ts.tx, employeeID, start, end)
}

func (ts *txStore) ApprovedRequestOn(ctx context.Context, employeeID string, date calendar.Date) (*leave.Request, error) {
	query := `
		SELECT ` + requestColumns + ` FROM leave_requests
		WHERE employee_id = ? AND status = 'approved'
		  AND start_date <= ? AND end_date >= ?
		LIMIT 1
	`
	requests, err := queryRequests(ctx, ts.tx, query, employeeID, date.String(), date.String())
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, nil
	}
	return &requests[0], nil
}

func (ts *txStore) DeleteRequest(ctx context.Context, id string) error {
	return deleteRequest(ctx, ts.tx, id)
}

func (ts *txStore) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	return listEmployees(ctx, ts.tx)
}

func (ts *txStore) SaveEmployee(ctx context.Context, e leave.Employee) error {
	return saveEmployee(ctx, ts.tx, e)
}

// =============================================================================
// POLICY STORE (policy.Store interface)
// =============================================================================

func (s *Store) ActivePolicy(ctx context.Context) (*policy.AttendancePolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT start_minutes, end_minutes, break_start_minutes, break_end_minutes,
		        grace_minutes, working_days_json, leave_gap_days, special_holidays_json, version
		 FROM attendance_policies WHERE id = 1`,
	)

	var startMin, endMin, breakStartMin, breakEndMin int
	var p policy.AttendancePolicy
	var workingDaysJSON, specialHolidaysJSON string
	err := row.Scan(&startMin, &endMin, &breakStartMin, &breakEndMin,
		&p.GraceMinutes, &workingDaysJSON, &p.LeaveGapDays, &specialHolidaysJSON, &p.Version)
	if err == sql.ErrNoRows {
		return nil, policy.ErrPolicyMissing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan policy: %w", err)
	}

	p.Start = minutesToTime(startMin)
	p.End = minutesToTime(endMin)
	p.BreakStart = minutesToTime(breakStartMin)
	p.BreakEnd = minutesToTime(breakEndMin)

	var indices []int
	if err := json.Unmarshal([]byte(workingDaysJSON), &indices); err != nil {
		return nil, fmt.Errorf("corrupt working days: %w", err)
	}
	p.WorkingDays = calendar.WeekdaysFromIndices(indices)

	if p.SpecialHolidays, err = decodeHolidaySet(specialHolidaysJSON); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) SavePolicy(ctx context.Context, p *policy.AttendancePolicy) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	workingDaysJSON, _ := json.Marshal(p.WorkingDays.Indices())
	specialHolidaysJSON, err := encodeHolidaySet(p.SpecialHolidays)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO attendance_policies
		(id, start_minutes, end_minutes, break_start_minutes, break_end_minutes,
		 grace_minutes, working_days_json, leave_gap_days, special_holidays_json, version, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_minutes = excluded.start_minutes,
			end_minutes = excluded.end_minutes,
			break_start_minutes = excluded.break_start_minutes,
			break_end_minutes = excluded.break_end_minutes,
			grace_minutes = excluded.grace_minutes,
			working_days_json = excluded.working_days_json,
			leave_gap_days = excluded.leave_gap_days,
			special_holidays_json = excluded.special_holidays_json,
			version = attendance_policies.version + 1,
			updated_at = excluded.updated_at
	`
	if _, err = s.db.ExecContext(ctx, query,
		timeToMinutes(p.Start), timeToMinutes(p.End),
		timeToMinutes(p.BreakStart), timeToMinutes(p.BreakEnd),
		p.GraceMinutes, string(workingDaysJSON), p.LeaveGapDays, specialHolidaysJSON,
		time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return err
	}

	// Callers see the stored version, same as the in-memory store.
	return s.db.QueryRowContext(ctx,
		"SELECT version FROM attendance_policies WHERE id = 1").Scan(&p.Version)
}

func timeToMinutes(t calendar.TimeOfDay) int { return t.Hour()*60 + t.Minute() }

func minutesToTime(m int) calendar.TimeOfDay { return calendar.NewTimeOfDay(m/60, m%60) }

// encodeHolidaySet stores special holidays as a date -> name JSON object.
func encodeHolidaySet(set calendar.HolidaySet) (string, error) {
	m := make(map[string]string, len(set))
	for d, name := range set {
		m[d.String()] = name
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeHolidaySet(raw string) (calendar.HolidaySet, error) {
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("corrupt special holidays: %w", err)
	}
	set := make(calendar.HolidaySet, len(m))
	for s, name := range m {
		d, err := calendar.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("corrupt special holidays: %w", err)
		}
		set[d] = name
	}
	return set, nil
}

// =============================================================================
// HOLIDAY STORE (calendar.HolidayStore interface)
// =============================================================================

func (s *Store) HolidaysInRange(ctx context.Context, start, end calendar.Date) ([]calendar.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, date, name FROM holidays WHERE date >= ? AND date <= ? ORDER BY date",
		start.String(), end.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []calendar.Holiday
	for rows.Next() {
		var h calendar.Holiday
		var date string
		if err := rows.Scan(&h.ID, &date, &h.Name); err != nil {
			return nil, err
		}
		if h.Date, err = calendar.ParseDate(date); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func (s *Store) SaveHoliday(ctx context.Context, h calendar.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holidays (id, date, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			name = excluded.name
	`
	_, err := s.db.ExecContext(ctx, query,
		h.ID, h.Date.String(), h.Name, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	return err
}

// =============================================================================
// ATTENDANCE STORE (attendance.Store interface)
// =============================================================================

func (s *Store) CreateTimeRecord(ctx context.Context, rec *attendance.TimeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var checkOut *string
	if rec.CheckOutTime != nil {
		t := rec.CheckOutTime.UTC().Format(time.RFC3339)
		checkOut = &t
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO time_records (id, employee_id, work_date, check_in_time, check_out_time, is_late, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.EmployeeID, rec.WorkDate.String(),
		rec.CheckInTime.UTC().Format(time.RFC3339), checkOut, rec.IsLate,
		rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return attendance.ErrAlreadyCheckedIn
		}
		return fmt.Errorf("failed to insert time record: %w", err)
	}
	return nil
}

func (s *Store) TimeRecord(ctx context.Context, employeeID string, date calendar.Date) (*attendance.TimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, employee_id, work_date, check_in_time, check_out_time, is_late, created_at
		 FROM time_records WHERE employee_id = ? AND work_date = ?`,
		employeeID, date.String(),
	)
	rec, err := scanTimeRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func scanTimeRecord(scan func(...any) error) (*attendance.TimeRecord, error) {
	var rec attendance.TimeRecord
	var workDate, checkIn, createdAt string
	var checkOut sql.NullString

	err := scan(&rec.ID, &rec.EmployeeID, &workDate, &checkIn, &checkOut, &rec.IsLate, &createdAt)
	if err != nil {
		return nil, err
	}

	if rec.WorkDate, err = calendar.ParseDate(workDate); err != nil {
		return nil, err
	}
	if rec.CheckInTime, err = time.Parse(time.RFC3339, checkIn); err != nil {
		return nil, fmt.Errorf("corrupt check-in time: %w", err)
	}
	if checkOut.Valid {
		t, err := time.Parse(time.RFC3339, checkOut.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt check-out time: %w", err)
		}
		rec.CheckOutTime = &t
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("corrupt created_at: %w", err)
	}
	return &rec, nil
}

func (s *Store) UpdateTimeRecord(ctx context.Context, rec *attendance.TimeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var checkOut *string
	if rec.CheckOutTime != nil {
		t := rec.CheckOutTime.UTC().Format(time.RFC3339)
		checkOut = &t
	}

	_, err := s.db.ExecContext(ctx,
		"UPDATE time_records SET check_out_time = ?, is_late = ? WHERE id = ?",
		checkOut, rec.IsLate, rec.ID,
	)
	return err
}

func (s *Store) TimeRecordsByEmployee(ctx context.Context, employeeID string, from, to calendar.Date) ([]attendance.TimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, employee_id, work_date, check_in_time, check_out_time, is_late, created_at
		 FROM time_records
		 WHERE employee_id = ? AND work_date >= ? AND work_date <= ?
		 ORDER BY work_date`,
		employeeID, from.String(), to.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []attendance.TimeRecord
	for rows.Next() {
		rec, err := scanTimeRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"leave_requests", "leave_quotas", "time_records", "holidays", "leave_types", "employees", "attendance_policies"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}

var (
	_ leave.TxStore         = (*Store)(nil)
	_ calendar.HolidayStore = (*Store)(nil)
	_ policy.Store          = (*Store)(nil)
	_ attendance.Store      = (*Store)(nil)
)
