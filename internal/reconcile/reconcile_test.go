package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLayout() []LayoutEntry {
	return []LayoutEntry{
		{LayoutID: 1, RowLabel: "A", ColumnNumber: 1, SeatType: "REGULAR", IsActive: true},
		{LayoutID: 2, RowLabel: "A", ColumnNumber: 2, SeatType: "REGULAR", IsActive: true},
		{LayoutID: 3, RowLabel: "A", ColumnNumber: 3, SeatType: "VIP", IsActive: true},
		{LayoutID: 4, RowLabel: "B", ColumnNumber: 1, SeatType: "REGULAR", IsActive: false},
	}
}

func statusOf(t *testing.T, views []SeatView, layoutID uint64) Status {
	t.Helper()
	for _, v := range views {
		if v.LayoutID == layoutID {
			return v.Status
		}
	}
	t.Fatalf("seat %d not in view", layoutID)
	return ""
}

func TestComputeViewPrecedence(t *testing.T) {
	views := ComputeView(sampleLayout(), []uint64{2}, []uint64{3}, []uint64{1})
	assert.Equal(t, StatusSelected, statusOf(t, views, 1))
	assert.Equal(t, StatusOccupied, statusOf(t, views, 2), "booked blocks selection")
	assert.Equal(t, StatusOccupied, statusOf(t, views, 3), "pending is indistinguishable from booked")
}

func TestComputeViewBookedBeatsLocalSelection(t *testing.T) {
	// a seat in both the booked set and the local selection resolves to
	// Occupied, never Selected: the caller lost the race
	views := ComputeView(sampleLayout(), []uint64{2}, nil, []uint64{2})
	assert.Equal(t, StatusOccupied, statusOf(t, views, 2))
}

func TestComputeViewInactiveSeatIsOccupied(t *testing.T) {
	views := ComputeView(sampleLayout(), nil, nil, []uint64{4})
	assert.Equal(t, StatusOccupied, statusOf(t, views, 4))
}

func TestComputeViewDeterministicOrder(t *testing.T) {
	shuffled := []LayoutEntry{
		{LayoutID: 3, RowLabel: "A", ColumnNumber: 3, IsActive: true},
		{LayoutID: 4, RowLabel: "B", ColumnNumber: 1, IsActive: true},
		{LayoutID: 1, RowLabel: "A", ColumnNumber: 1, IsActive: true},
		{LayoutID: 2, RowLabel: "A", ColumnNumber: 2, IsActive: true},
	}
	views := ComputeView(shuffled, nil, nil, nil)
	require.Len(t, views, 4)
	assert.Equal(t, []uint64{1, 2, 3, 4}, []uint64{
		views[0].LayoutID, views[1].LayoutID, views[2].LayoutID, views[3].LayoutID,
	})
}

func TestComputeViewSheetRowOrder(t *testing.T) {
	wide := []LayoutEntry{
		{LayoutID: 3, RowLabel: "AA", ColumnNumber: 1, IsActive: true},
		{LayoutID: 1, RowLabel: "B", ColumnNumber: 1, IsActive: true},
		{LayoutID: 2, RowLabel: "Z", ColumnNumber: 1, IsActive: true},
	}
	views := ComputeView(wide, nil, nil, nil)
	require.Len(t, views, 3)
	assert.Equal(t, []string{"B", "Z", "AA"}, []string{
		views[0].RowLabel, views[1].RowLabel, views[2].RowLabel,
	}, "multi-letter rows sort after single-letter rows")
}

func TestComputeViewAllAvailable(t *testing.T) {
	views := ComputeView(sampleLayout(), nil, nil, nil)
	for _, v := range views {
		if v.LayoutID == 4 {
			continue // inactive
		}
		assert.Equal(t, StatusAvailable, v.Status)
	}
}

func TestComputeOperatorViewKeepsPendingDistinct(t *testing.T) {
	views := ComputeOperatorView(sampleLayout(), []uint64{2}, []uint64{2, 3})
	assert.Equal(t, StatusOccupied, statusOf(t, views, 2), "booked wins over pending")
	assert.Equal(t, StatusPending, statusOf(t, views, 3))
	for _, v := range views {
		assert.NotEqual(t, uint64(4), v.LayoutID, "inactive seats are omitted from the operator view")
	}
}
