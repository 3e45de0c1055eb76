package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2 rows x 3 columns: A1..A3 are ids 1..3, B1..B3 are ids 4..6.
func testGrid() []GridSeat {
	return []GridSeat{
		{ID: 1, RowLabel: "A", ColumnNumber: 1},
		{ID: 2, RowLabel: "A", ColumnNumber: 2},
		{ID: 3, RowLabel: "A", ColumnNumber: 3},
		{ID: 4, RowLabel: "B", ColumnNumber: 1},
		{ID: 5, RowLabel: "B", ColumnNumber: 2},
		{ID: 6, RowLabel: "B", ColumnNumber: 3},
	}
}

func TestToggleSeat(t *testing.T) {
	s := NewSelector(testGrid())
	assert.True(t, s.ToggleSeat(2))
	assert.Equal(t, []uint64{2}, s.Selected())
	assert.False(t, s.ToggleSeat(2))
	assert.Empty(t, s.Selected())
	// unknown ids never enter the selection
	assert.False(t, s.ToggleSeat(99))
	assert.Empty(t, s.Selected())
}

func TestToggleRowSelectsThenClears(t *testing.T) {
	s := NewSelector(testGrid())
	s.ToggleRow("B")
	assert.Equal(t, []uint64{4, 5, 6}, s.Selected())
	// second toggle with the full row selected clears exactly that row
	s.ToggleSeat(1)
	s.ToggleRow("B")
	assert.Equal(t, []uint64{1}, s.Selected())
}

func TestToggleRowCompletesPartialSelection(t *testing.T) {
	s := NewSelector(testGrid())
	s.ToggleSeat(4)
	s.ToggleRow("b") // case-insensitive, union not per-seat toggle
	assert.Equal(t, []uint64{4, 5, 6}, s.Selected())
}

func TestToggleColumnAcrossRows(t *testing.T) {
	s := NewSelector(testGrid())
	s.ToggleColumn(2)
	assert.Equal(t, []uint64{2, 5}, s.Selected())
	s.ToggleColumn(2)
	assert.Empty(t, s.Selected())
}

func TestApplyEmptySelection(t *testing.T) {
	s := NewSelector(testGrid())
	_, err := s.Apply("VIP", true)
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestApplyUppercasesAndClears(t *testing.T) {
	s := NewSelector(testGrid())
	s.ToggleSeat(3)
	s.ToggleSeat(1)
	change, err := s.Apply("vip", false)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 3}, change.SeatIDs)
	assert.Equal(t, "VIP", change.SeatType)
	assert.False(t, change.IsActive)
	assert.Zero(t, s.Count(), "selection must be cleared after apply")
}
