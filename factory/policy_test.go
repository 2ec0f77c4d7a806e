package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLeaveType(t *testing.T) {
	f := NewLeaveTypeFactory()

	lt, err := f.Parse(`{
		"id": "annual",
		"name": "Annual Leave",
		"is_paid": true,
		"default_days": "12.5",
		"can_carry_forward": true,
		"max_carry_days": "5"
	}`)

	require.NoError(t, err)
	assert.Equal(t, "annual", lt.ID)
	assert.True(t, lt.IsPaid)
	assert.Equal(t, "12.50", lt.DefaultDays.String())
	assert.True(t, lt.CanCarryForward)
	assert.Equal(t, "5.00", lt.MaxCarryDays.String())
}

func TestParseRejectsBadDefinitions(t *testing.T) {
	f := NewLeaveTypeFactory()

	cases := []struct {
		name string
		raw  string
	}{
		{"missing id", `{"name": "X", "default_days": "1"}`},
		{"missing name", `{"id": "x", "default_days": "1"}`},
		{"bad days", `{"id": "x", "name": "X", "default_days": "lots"}`},
		{"negative days", `{"id": "x", "name": "X", "default_days": "-1"}`},
		{"carry without cap", `{"id": "x", "name": "X", "default_days": "1", "can_carry_forward": true}`},
		{"not json", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.Parse(tc.raw)
			assert.Error(t, err)
		})
	}
}

func TestDefaultCatalog(t *testing.T) {
	catalog, err := NewLeaveTypeFactory().ParseCatalog(DefaultCatalogJSON)

	require.NoError(t, err)
	require.Len(t, catalog, 3)

	byID := map[string]int{}
	for i, lt := range catalog {
		byID[lt.ID] = i
	}
	annual := catalog[byID["annual"]]
	assert.True(t, annual.CanCarryForward)
	assert.Equal(t, "5.00", annual.MaxCarryDays.String())

	sick := catalog[byID["sick"]]
	assert.False(t, sick.CanCarryForward)

	unpaid := catalog[byID["unpaid"]]
	assert.False(t, unpaid.IsPaid)
	assert.True(t, unpaid.DefaultDays.IsZero())
}
