package leave_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hr-engine/leave"
	"github.com/warp/hr-engine/store/memory"
)

func carryFixture(t *testing.T) (*memory.Memory, *leave.CarryForward) {
	t.Helper()
	ctx := context.Background()

	store := memory.NewMemory()
	require.NoError(t, store.SaveLeaveType(ctx, annual)) // carries, cap 5
	require.NoError(t, store.SaveLeaveType(ctx, leave.LeaveType{
		ID:          "sick",
		Name:        "Sick Leave",
		IsPaid:      true,
		DefaultDays: leave.MustDays("8"),
	})) // does not carry
	require.NoError(t, store.SaveEmployee(ctx, leave.Employee{ID: "emp-1", Name: "Ada", Active: true}))

	return store, leave.NewCarryForward(store, nil)
}

func quota(t *testing.T, store *memory.Memory, year int, total, carried, used string) {
	t.Helper()
	require.NoError(t, store.SaveQuota(context.Background(), leave.Quota{
		EmployeeID:      "emp-1",
		LeaveTypeID:     "annual",
		Year:            year,
		TotalDays:       leave.MustDays(total),
		CarriedOverDays: leave.MustDays(carried),
		UsedDays:        leave.MustDays(used),
	}))
}

func TestCarryForward_CapsAtMaxCarryDays(t *testing.T) {
	store, cf := carryFixture(t)
	quota(t, store, 2026, "10", "0", "2") // 8 remaining, cap is 5
	ctx := context.Background()

	summary, err := cf.Run(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 2026, summary.FromYear)
	assert.Equal(t, 2027, summary.ToYear)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, "5.00", summary.Results[0].Carried.String())

	next, err := store.Quota(ctx, "emp-1", "annual", 2027)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "10.00", next.TotalDays.String(), "new row seeded from the type default")
	assert.Equal(t, "5.00", next.CarriedOverDays.String())
	assert.Equal(t, "15.00", next.Available().String())
}

func TestCarryForward_UnderCapCarriesRemainder(t *testing.T) {
	store, cf := carryFixture(t)
	quota(t, store, 2026, "10", "0", "7") // 3 remaining

	summary, err := cf.Run(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, "3.00", summary.Results[0].Carried.String())
}

func TestCarryForward_NoSourceRowCarriesNothing(t *testing.T) {
	store, cf := carryFixture(t)
	ctx := context.Background()

	summary, err := cf.Run(ctx, 2026)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Processed)
	assert.True(t, summary.Results[0].Carried.IsZero())

	next, err := store.Quota(ctx, "emp-1", "annual", 2027)
	require.NoError(t, err)
	require.NotNil(t, next, "target row is still seeded for the new year")
	assert.Equal(t, "10.00", next.TotalDays.String())
	assert.True(t, next.CarriedOverDays.IsZero())
}

func TestCarryForward_OverdrawnSourceClampsToZero(t *testing.T) {
	store, cf := carryFixture(t)
	quota(t, store, 2026, "10", "0", "10")

	summary, err := cf.Run(context.Background(), 2026)
	require.NoError(t, err)
	assert.True(t, summary.Results[0].Carried.IsZero())
}

func TestCarryForward_SkipsNonCarryingTypes(t *testing.T) {
	store, cf := carryFixture(t)
	quota(t, store, 2026, "10", "0", "0")
	ctx := context.Background()
	require.NoError(t, store.SaveQuota(ctx, leave.Quota{
		EmployeeID:  "emp-1",
		LeaveTypeID: "sick",
		Year:        2026,
		TotalDays:   leave.MustDays("8"),
	}))

	summary, err := cf.Run(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed, "sick leave must not appear")

	next, err := store.Quota(ctx, "emp-1", "sick", 2027)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestCarryForward_SkipsInactiveEmployees(t *testing.T) {
	store, cf := carryFixture(t)
	ctx := context.Background()
	require.NoError(t, store.SaveEmployee(ctx, leave.Employee{ID: "emp-2", Name: "Bob", Active: false}))
	require.NoError(t, store.SaveQuota(ctx, leave.Quota{
		EmployeeID:  "emp-2",
		LeaveTypeID: "annual",
		Year:        2026,
		TotalDays:   leave.MustDays("10"),
	}))

	summary, err := cf.Run(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)

	next, err := store.Quota(ctx, "emp-2", "annual", 2027)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestCarryForward_RerunPicksUpNewDefaultDays(t *testing.T) {
	store, cf := carryFixture(t)
	quota(t, store, 2026, "10", "0", "6")
	ctx := context.Background()

	_, err := cf.Run(ctx, 2026)
	require.NoError(t, err)

	// HR raises the annual allowance before the batch reruns.
	raised := annual
	raised.DefaultDays = leave.MustDays("12")
	require.NoError(t, store.SaveLeaveType(ctx, raised))

	_, err = cf.Run(ctx, 2026)
	require.NoError(t, err)

	next, err := store.Quota(ctx, "emp-1", "annual", 2027)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "12.00", next.TotalDays.String(), "existing row reset to the type's current default")
	assert.Equal(t, "4.00", next.CarriedOverDays.String())
}

func TestCarryForward_SecondRunIsIdempotent(t *testing.T) {
	store, cf := carryFixture(t)
	quota(t, store, 2026, "10", "0", "6") // carries 4
	ctx := context.Background()

	_, err := cf.Run(ctx, 2026)
	require.NoError(t, err)

	// Some usage lands in the new year before the rerun.
	next, err := store.Quota(ctx, "emp-1", "annual", 2027)
	require.NoError(t, err)
	next.UsedDays = leave.MustDays("2")
	require.NoError(t, store.SaveQuota(ctx, *next))

	_, err = cf.Run(ctx, 2026)
	require.NoError(t, err)

	next, err = store.Quota(ctx, "emp-1", "annual", 2027)
	require.NoError(t, err)
	assert.Equal(t, "4.00", next.CarriedOverDays.String(), "carried amount overwritten with the same value")
	assert.Equal(t, "2.00", next.UsedDays.String(), "usage in the new year preserved")
}
