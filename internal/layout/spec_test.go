package layout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRowsRange(t *testing.T) {
	labels, err := ParseRows("A-E")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, labels)
}

func TestParseRowsSingleLetterRange(t *testing.T) {
	labels, err := ParseRows("C-C")
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, labels)
}

func TestParseRowsList(t *testing.T) {
	labels, err := ParseRows("A, C ,E")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C", "E"}, labels)
}

func TestParseRowsListKeepsArbitraryLabels(t *testing.T) {
	labels, err := ParseRows("AA,BB")
	require.NoError(t, err)
	assert.Equal(t, []string{"AA", "BB"}, labels)
}

func TestParseRowsEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", ",,"} {
		_, err := ParseRows(input)
		var perr *ParseError
		require.ErrorAs(t, err, &perr, "input %q", input)
		assert.Equal(t, "rows", perr.Field)
	}
}

func TestParseRowsBadRange(t *testing.T) {
	for _, input := range []string{"E-A", "AB-C", "A-CD", "-"} {
		_, err := ParseRows(input)
		var perr *ParseError
		assert.ErrorAs(t, err, &perr, "input %q", input)
	}
}

func TestParseEmptyColumnsLenient(t *testing.T) {
	set := ParseEmptyColumns("3, 7, x, -1, ,9.5")
	assert.Len(t, set, 2)
	assert.Contains(t, set, 3)
	assert.Contains(t, set, 7)
}

func TestResolveRejectsNonPositiveColumns(t *testing.T) {
	for _, cols := range []int{0, -4} {
		_, err := Spec{RowsInput: "A-B", ColumnsPerRow: cols}.Resolve()
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "columns", perr.Field)
	}
}

func TestResolveDefaultsSeatType(t *testing.T) {
	r, err := Spec{RowsInput: "A-B", ColumnsPerRow: 5}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "REGULAR", r.SeatType)

	r, err = Spec{RowsInput: "A-B", ColumnsPerRow: 5, SeatType: " vip "}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "VIP", r.SeatType)
}

func TestEmitSkipsEmptyColumns(t *testing.T) {
	r, err := Spec{
		RowsInput:         "A-D",
		ColumnsPerRow:     10,
		EmptyColumnsInput: "3,7",
	}.Resolve()
	require.NoError(t, err)

	seats := r.Emit()
	assert.Len(t, seats, 32) // 4 rows x (10-2) columns
	for _, s := range seats {
		assert.NotEqual(t, uint32(3), s.ColumnNumber)
		assert.NotEqual(t, uint32(7), s.ColumnNumber)
		assert.True(t, s.ColumnNumber >= 1 && s.ColumnNumber <= 10)
		assert.Equal(t, "REGULAR", s.SeatType)
	}
}

func TestEmitOrderAndPositions(t *testing.T) {
	r, err := Spec{RowsInput: "A-B", ColumnsPerRow: 2}.Resolve()
	require.NoError(t, err)
	seats := r.Emit()
	require.Len(t, seats, 4)
	assert.Equal(t, Placement{RowLabel: "A", ColumnNumber: 1, SeatType: "REGULAR"}, seats[0])
	assert.Equal(t, Placement{RowLabel: "B", ColumnNumber: 2, SeatType: "REGULAR"}, seats[3])
}

// The capacity check counts every grid slot including empty columns. This
// matches the admin tool the input format comes from; rooms created under
// that rule must keep validating against rows x columns.
func TestValidateCountsEmptyColumnsTowardCapacity(t *testing.T) {
	r, err := Spec{
		RowsInput:         "A-D",
		ColumnsPerRow:     10,
		EmptyColumnsInput: "3,7",
	}.Resolve()
	require.NoError(t, err)

	assert.NoError(t, r.Validate(40))

	err = r.Validate(32)
	var mismatch *CapacityMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 32, mismatch.Declared)
	assert.Equal(t, 40, mismatch.Calculated)
}

func TestRowLabelRoundTrip(t *testing.T) {
	cases := map[int]string{0: "A", 1: "B", 25: "Z", 26: "AA", 27: "AB", 51: "AZ", 52: "BA"}
	for idx, label := range cases {
		assert.Equal(t, label, IndexToRowLabel(idx))
		got, ok := RowLabelToIndex(label)
		require.True(t, ok)
		assert.Equal(t, idx, got)
	}
	_, ok := RowLabelToIndex("")
	assert.False(t, ok)
	_, ok = RowLabelToIndex("A1")
	assert.False(t, ok)
}
