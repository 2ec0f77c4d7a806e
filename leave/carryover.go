/*
carryover.go - Year-end carry-forward

Rolls unused balances from one quota year into the next for every active
employee and every leave type that allows it. The carried amount is the
remaining balance clamped to the type's MaxCarryDays cap; employees with no
quota row for the source year carry nothing.

The whole run executes inside one storage transaction. Running it twice for
the same year is safe: the target row's carried-over amount is overwritten
with the same value, its total is reset to the type's current default, and
its used amount is preserved.
*/
package leave

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// CarryForward is the year-end processor.
type CarryForward struct {
	store TxStore
	log   *zap.Logger
}

func NewCarryForward(store TxStore, log *zap.Logger) *CarryForward {
	if log == nil {
		log = zap.NewNop()
	}
	return &CarryForward{store: store, log: log}
}

// CarryResult is one employee/type outcome of a run.
type CarryResult struct {
	EmployeeID  string `json:"employee_id"`
	LeaveTypeID string `json:"leave_type_id"`
	Carried     Days   `json:"carried_days"`
}

// CarrySummary reports a completed run.
type CarrySummary struct {
	FromYear  int           `json:"from_year"`
	ToYear    int           `json:"to_year"`
	Processed int           `json:"processed"`
	Results   []CarryResult `json:"results"`
}

// Run carries balances from fromYear into fromYear+1.
func (c *CarryForward) Run(ctx context.Context, fromYear int) (*CarrySummary, error) {
	summary := &CarrySummary{FromYear: fromYear, ToYear: fromYear + 1}

	err := c.store.WithTx(ctx, func(tx Store) error {
		employees, err := tx.ListEmployees(ctx)
		if err != nil {
			return fmt.Errorf("list employees: %w", err)
		}
		types, err := tx.ListLeaveTypes(ctx)
		if err != nil {
			return fmt.Errorf("list leave types: %w", err)
		}

		for _, emp := range employees {
			if !emp.Active {
				continue
			}
			for _, lt := range types {
				if !lt.CanCarryForward {
					continue
				}

				carried := ZeroDays()
				src, err := tx.Quota(ctx, emp.ID, lt.ID, fromYear)
				if err != nil {
					return fmt.Errorf("load quota %s/%s/%d: %w", emp.ID, lt.ID, fromYear, err)
				}
				if src != nil {
					carried = src.Available().Clamp(ZeroDays(), lt.MaxCarryDays)
				}

				next, err := tx.Quota(ctx, emp.ID, lt.ID, fromYear+1)
				if err != nil {
					return fmt.Errorf("load quota %s/%s/%d: %w", emp.ID, lt.ID, fromYear+1, err)
				}
				if next == nil {
					next = &Quota{
						EmployeeID:  emp.ID,
						LeaveTypeID: lt.ID,
						Year:        fromYear + 1,
						UsedDays:    ZeroDays(),
					}
				}
				// The new year always starts from the type's current
				// default, even when the row was seeded earlier.
				next.TotalDays = lt.DefaultDays
				next.CarriedOverDays = carried
				if err := tx.SaveQuota(ctx, *next); err != nil {
					return fmt.Errorf("save quota %s/%s/%d: %w", emp.ID, lt.ID, fromYear+1, err)
				}

				summary.Processed++
				summary.Results = append(summary.Results, CarryResult{
					EmployeeID:  emp.ID,
					LeaveTypeID: lt.ID,
					Carried:     carried,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Info("carry-forward complete",
		zap.Int("from_year", fromYear),
		zap.Int("processed", summary.Processed))
	return summary, nil
}
