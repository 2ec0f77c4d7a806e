/*
Package factory provides JSON to Go leave-type conversion.

PURPOSE:
  Converts JSON leave-type definitions into leave.LeaveType values. This
  enables catalog configuration without code changes - HR can define leave
  types in JSON, and the factory creates the proper Go structs.

WHY JSON?
  - Non-developers can modify the catalog
  - Easy integration with admin UI
  - Version control for catalog definitions

JSON SCHEMA:
  {
    "id": "annual",
    "name": "Annual Leave",
    "is_paid": true,
    "default_days": "10",
    "can_carry_forward": true,
    "max_carry_days": "5"
  }

  Day counts are decimal strings so definitions survive round trips without
  float artifacts, matching the wire encoding everywhere else.

USAGE:
  factory := NewLeaveTypeFactory()

  lt, err := factory.Parse(jsonString)

  // Or load the built-in starter catalog:
  catalog, err := factory.ParseCatalog(DefaultCatalogJSON)

SEE ALSO:
  - leave/types.go: LeaveType definition
  - api/scenarios.go: demo loaders built on the catalog
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/warp/hr-engine/leave"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// LeaveTypeJSON is the JSON representation of a leave type.
type LeaveTypeJSON struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	IsPaid          bool   `json:"is_paid"`
	DefaultDays     string `json:"default_days"`
	CanCarryForward bool   `json:"can_carry_forward"`
	MaxCarryDays    string `json:"max_carry_days,omitempty"`
}

// LeaveTypeFactory parses JSON leave-type definitions.
type LeaveTypeFactory struct{}

func NewLeaveTypeFactory() *LeaveTypeFactory {
	return &LeaveTypeFactory{}
}

// Parse converts one JSON definition into a LeaveType.
func (f *LeaveTypeFactory) Parse(raw string) (leave.LeaveType, error) {
	var def LeaveTypeJSON
	if err := json.Unmarshal([]byte(raw), &def); err != nil {
		return leave.LeaveType{}, fmt.Errorf("invalid leave type JSON: %w", err)
	}
	return f.build(def)
}

// ParseCatalog converts a JSON array of definitions.
func (f *LeaveTypeFactory) ParseCatalog(raw string) ([]leave.LeaveType, error) {
	var defs []LeaveTypeJSON
	if err := json.Unmarshal([]byte(raw), &defs); err != nil {
		return nil, fmt.Errorf("invalid catalog JSON: %w", err)
	}

	types := make([]leave.LeaveType, 0, len(defs))
	for i, def := range defs {
		lt, err := f.build(def)
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		types = append(types, lt)
	}
	return types, nil
}

func (f *LeaveTypeFactory) build(def LeaveTypeJSON) (leave.LeaveType, error) {
	if def.ID == "" {
		return leave.LeaveType{}, fmt.Errorf("leave type id is required")
	}
	if def.Name == "" {
		return leave.LeaveType{}, fmt.Errorf("leave type %s: name is required", def.ID)
	}

	defaultDays, err := leave.DaysFromString(def.DefaultDays)
	if err != nil {
		return leave.LeaveType{}, fmt.Errorf("leave type %s: %w", def.ID, err)
	}
	if defaultDays.IsNegative() {
		return leave.LeaveType{}, fmt.Errorf("leave type %s: default_days must be >= 0", def.ID)
	}

	maxCarry := leave.ZeroDays()
	if def.MaxCarryDays != "" {
		if maxCarry, err = leave.DaysFromString(def.MaxCarryDays); err != nil {
			return leave.LeaveType{}, fmt.Errorf("leave type %s: %w", def.ID, err)
		}
	}
	if def.CanCarryForward && maxCarry.IsZero() {
		return leave.LeaveType{}, fmt.Errorf("leave type %s: carry-forward needs max_carry_days > 0", def.ID)
	}

	return leave.LeaveType{
		ID:              def.ID,
		Name:            def.Name,
		IsPaid:          def.IsPaid,
		DefaultDays:     defaultDays,
		CanCarryForward: def.CanCarryForward,
		MaxCarryDays:    maxCarry,
	}, nil
}

// =============================================================================
// BUILT-IN CATALOG
// =============================================================================

// DefaultCatalogJSON is a starter catalog covering the common cases: annual
// leave with capped carry-forward, sick leave that resets yearly, and
// unlimited unpaid leave.
const DefaultCatalogJSON = `[
  {
    "id": "annual",
    "name": "Annual Leave",
    "is_paid": true,
    "default_days": "10",
    "can_carry_forward": true,
    "max_carry_days": "5"
  },
  {
    "id": "sick",
    "name": "Sick Leave",
    "is_paid": true,
    "default_days": "8"
  },
  {
    "id": "unpaid",
    "name": "Unpaid Leave",
    "is_paid": false,
    "default_days": "0"
  }
]`
