/*
Package memory is the in-memory store, used by tests and dev servers.

It implements every persistence contract the engine defines: leave.TxStore,
calendar.HolidayStore, policy.Store and attendance.Store. WithTx is simulated
with a deep snapshot taken under the write lock and restored if the closure
fails.
*/
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/hr-engine/attendance"
	"github.com/warp/hr-engine/calendar"
	"github.com/warp/hr-engine/leave"
	"github.com/warp/hr-engine/policy"
)

type quotaKey struct {
	EmployeeID  string
	LeaveTypeID string
	Year        int
}

type recordKey struct {
	EmployeeID string
	Date       calendar.Date
}

// data holds all tables. Its methods do no locking; Memory wraps them.
type data struct {
	leaveTypes map[string]leave.LeaveType
	quotas     map[quotaKey]leave.Quota
	requests   map[string]leave.Request
	employees  map[string]leave.Employee
	holidays   map[string]calendar.Holiday
	records    map[recordKey]attendance.TimeRecord
	policy     *policy.AttendancePolicy
}

func newData() *data {
	return &data{
		leaveTypes: make(map[string]leave.LeaveType),
		quotas:     make(map[quotaKey]leave.Quota),
		requests:   make(map[string]leave.Request),
		employees:  make(map[string]leave.Employee),
		holidays:   make(map[string]calendar.Holiday),
		records:    make(map[recordKey]attendance.TimeRecord),
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.leaveTypes {
		c.leaveTypes[k] = v
	}
	for k, v := range d.quotas {
		c.quotas[k] = v
	}
	for k, v := range d.requests {
		c.requests[k] = v
	}
	for k, v := range d.employees {
		c.employees[k] = v
	}
	for k, v := range d.holidays {
		c.holidays[k] = v
	}
	for k, v := range d.records {
		c.records[k] = v
	}
	if d.policy != nil {
		p := *d.policy
		c.policy = &p
	}
	return c
}

// =============================================================================
// LEAVE STORE (unlocked)
// =============================================================================

func (d *data) LeaveType(_ context.Context, id string) (*leave.LeaveType, error) {
	lt, ok := d.leaveTypes[id]
	if !ok {
		return nil, nil
	}
	return &lt, nil
}

func (d *data) ListLeaveTypes(_ context.Context) ([]leave.LeaveType, error) {
	out := make([]leave.LeaveType, 0, len(d.leaveTypes))
	for _, lt := range d.leaveTypes {
		out = append(out, lt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *data) SaveLeaveType(_ context.Context, lt leave.LeaveType) error {
	d.leaveTypes[lt.ID] = lt
	return nil
}

func (d *data) Quota(_ context.Context, employeeID, leaveTypeID string, year int) (*leave.Quota, error) {
	q, ok := d.quotas[quotaKey{employeeID, leaveTypeID, year}]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

func (d *data) SaveQuota(_ context.Context, q leave.Quota) error {
	d.quotas[quotaKey{q.EmployeeID, q.LeaveTypeID, q.Year}] = q
	return nil
}

func (d *data) QuotasByEmployee(_ context.Context, employeeID string, year int) ([]leave.Quota, error) {
	var out []leave.Quota
	for k, q := range d.quotas {
		if k.EmployeeID == employeeID && k.Year == year {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LeaveTypeID < out[j].LeaveTypeID })
	return out, nil
}

func (d *data) SaveRequest(_ context.Context, r *leave.Request) error {
	d.requests[r.ID] = *r
	return nil
}

func (d *data) Request(_ context.Context, id string) (*leave.Request, error) {
	r, ok := d.requests[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (d *data) RequestsByEmployee(_ context.Context, employeeID string) ([]leave.Request, error) {
	var out []leave.Request
	for _, r := range d.requests {
		if r.EmployeeID == employeeID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (d *data) OpenRequestsOverlapping(_ context.Context, employeeID string, start, end calendar.Date) ([]leave.Request, error) {
	var out []leave.Request
	for _, r := range d.requests {
		if r.EmployeeID != employeeID {
			continue
		}
		if r.Status != leave.StatusPending && r.Status != leave.StatusApproved {
			continue
		}
		if r.Overlaps(start, end) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (d *data) ApprovedRequestOn(_ context.Context, employeeID string, date calendar.Date) (*leave.Request, error) {
	for _, r := range d.requests {
		if r.EmployeeID == employeeID && r.Status == leave.StatusApproved && r.Covers(date) {
			match := r
			return &match, nil
		}
	}
	return nil, nil
}

func (d *data) DeleteRequest(_ context.Context, id string) error {
	delete(d.requests, id)
	return nil
}

func (d *data) ListEmployees(_ context.Context) ([]leave.Employee, error) {
	out := make([]leave.Employee, 0, len(d.employees))
	for _, e := range d.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *data) SaveEmployee(_ context.Context, e leave.Employee) error {
	d.employees[e.ID] = e
	return nil
}

// =============================================================================
// MEMORY - Locked wrapper with snapshot transactions
// =============================================================================

type Memory struct {
	mu sync.RWMutex
	d  *data
}

func NewMemory() *Memory {
	return &Memory{d: newData()}
}

// Reset clears all data (for testing/demo).
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.d = newData()
	return nil
}

func (m *Memory) LeaveType(ctx context.Context, id string) (*leave.LeaveType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.LeaveType(ctx, id)
}

func (m *Memory) ListLeaveTypes(ctx context.Context) ([]leave.LeaveType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.ListLeaveTypes(ctx)
}

func (m *Memory) SaveLeaveType(ctx context.Context, lt leave.LeaveType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.d.SaveLeaveType(ctx, lt)
}

func (m *Memory) Quota(ctx context.Context, employeeID, leaveTypeID string, year int) (*leave.Quota, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.Quota(ctx, employeeID, leaveTypeID, year)
}

func (m *Memory) SaveQuota(ctx context.Context, q leave.Quota) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.d.SaveQuota(ctx, q)
}

func (m *Memory) QuotasByEmployee(ctx context.Context, employeeID string, year int) ([]leave.Quota, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.QuotasByEmployee(ctx, employeeID, year)
}

func (m *Memory) SaveRequest(ctx context.Context, r *leave.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.d.SaveRequest(ctx, r)
}

func (m *Memory) Request(ctx context.Context, id string) (*leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.Request(ctx, id)
}

func (m *Memory) RequestsByEmployee(ctx context.Context, employeeID string) ([]leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.RequestsByEmployee(ctx, employeeID)
}

func (m *Memory) OpenRequestsOverlapping(ctx context.Context, employeeID string, start, end calendar.Date) ([]leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.OpenRequestsOverlapping(ctx, employeeID, start, end)
}

func (m *Memory) ApprovedRequestOn(ctx context.Context, employeeID string, date calendar.Date) (*leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.ApprovedRequestOn(ctx, employeeID, date)
}

func (m *Memory) DeleteRequest(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.d.DeleteRequest(ctx, id)
}

func (m *Memory) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.ListEmployees(ctx)
}

func (m *Memory) SaveEmployee(ctx context.Context, e leave.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.d.SaveEmployee(ctx, e)
}

// WithTx executes fn against the unlocked tables under the write lock,
// restoring a pre-transaction snapshot if fn fails.
func (m *Memory) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.d.clone()
	if err := fn(m.d); err != nil {
		m.d = snapshot
		return err
	}
	return nil
}

// =============================================================================
// HOLIDAY STORE
// =============================================================================

func (m *Memory) HolidaysInRange(_ context.Context, start, end calendar.Date) ([]calendar.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []calendar.Holiday
	for _, h := range m.d.holidays {
		if start.BeforeOrEqual(h.Date) && h.Date.BeforeOrEqual(end) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) SaveHoliday(_ context.Context, h calendar.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.d.holidays[h.ID] = h
	return nil
}

func (m *Memory) DeleteHoliday(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.d.holidays, id)
	return nil
}

// =============================================================================
// POLICY STORE
// =============================================================================

func (m *Memory) ActivePolicy(_ context.Context) (*policy.AttendancePolicy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.d.policy == nil {
		return nil, policy.ErrPolicyMissing
	}
	p := *m.d.policy
	return &p, nil
}

func (m *Memory) SavePolicy(_ context.Context, p *policy.AttendancePolicy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.d.policy != nil {
		p.Version = m.d.policy.Version + 1
	} else {
		p.Version = 1
	}
	stored := *p
	m.d.policy = &stored
	return nil
}

// =============================================================================
// ATTENDANCE STORE
// =============================================================================

func (m *Memory) CreateTimeRecord(_ context.Context, rec *attendance.TimeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := recordKey{rec.EmployeeID, rec.WorkDate}
	if _, exists := m.d.records[k]; exists {
		return attendance.ErrAlreadyCheckedIn
	}
	m.d.records[k] = *rec
	return nil
}

func (m *Memory) TimeRecord(_ context.Context, employeeID string, date calendar.Date) (*attendance.TimeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.d.records[recordKey{employeeID, date}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *Memory) UpdateTimeRecord(_ context.Context, rec *attendance.TimeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.d.records[recordKey{rec.EmployeeID, rec.WorkDate}] = *rec
	return nil
}

func (m *Memory) TimeRecordsByEmployee(_ context.Context, employeeID string, from, to calendar.Date) ([]attendance.TimeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []attendance.TimeRecord
	for k, rec := range m.d.records {
		if k.EmployeeID == employeeID && from.BeforeOrEqual(k.Date) && k.Date.BeforeOrEqual(to) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkDate.Before(out[j].WorkDate) })
	return out, nil
}

var (
	_ leave.TxStore         = (*Memory)(nil)
	_ calendar.HolidayStore = (*Memory)(nil)
	_ policy.Store          = (*Memory)(nil)
	_ attendance.Store      = (*Memory)(nil)
)
