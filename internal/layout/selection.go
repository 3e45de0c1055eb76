package layout

import (
	"errors"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// ErrEmptySelection is returned by Apply when nothing is selected.
var ErrEmptySelection = errors.New("empty selection")

// GridSeat is the minimal seat view the selector needs: identity plus grid
// position. Handlers build these from stored layout entries.
type GridSeat struct {
	ID           uint64
	RowLabel     string
	ColumnNumber uint32
}

// BulkChange is the outcome of applying a selection: the affected seat ids
// and the values to persist for each of them.
type BulkChange struct {
	SeatIDs  []uint64
	SeatType string
	IsActive bool
}

// Selector tracks an ephemeral set of selected seats over a room's grid.
// Selection state lives only for the duration of an edit; only the values
// applied through Apply ever persist. Selector is not safe for concurrent
// use; each admin edit works on its own instance.
type Selector struct {
	byID   map[uint64]GridSeat
	byRow  map[string][]uint64
	byCol  map[uint32][]uint64
	picked mapset.Set[uint64]
}

// NewSelector indexes the given seats by id, row and column.
func NewSelector(seats []GridSeat) *Selector {
	s := &Selector{
		byID:   make(map[uint64]GridSeat, len(seats)),
		byRow:  make(map[string][]uint64),
		byCol:  make(map[uint32][]uint64),
		picked: mapset.NewThreadUnsafeSet[uint64](),
	}
	for _, seat := range seats {
		s.byID[seat.ID] = seat
		row := NormalizeRowLabel(seat.RowLabel)
		s.byRow[row] = append(s.byRow[row], seat.ID)
		s.byCol[seat.ColumnNumber] = append(s.byCol[seat.ColumnNumber], seat.ID)
	}
	return s
}

// ToggleSeat adds the seat to the selection, or removes it when already
// selected. Unknown ids are ignored. It reports whether the seat is selected
// after the call.
func (s *Selector) ToggleSeat(id uint64) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	if s.picked.Contains(id) {
		s.picked.Remove(id)
		return false
	}
	s.picked.Add(id)
	return true
}

// ToggleRow selects every seat in the row, unless the whole row is already
// selected, in which case the row is deselected. Partially selected rows are
// completed, not cleared.
func (s *Selector) ToggleRow(rowLabel string) {
	ids := s.byRow[NormalizeRowLabel(rowLabel)]
	s.toggleAll(ids)
}

// ToggleColumn applies the same all-selected-clears rule across every row
// for one column number.
func (s *Selector) ToggleColumn(col uint32) {
	s.toggleAll(s.byCol[col])
}

func (s *Selector) toggleAll(ids []uint64) {
	if len(ids) == 0 {
		return
	}
	all := true
	for _, id := range ids {
		if !s.picked.Contains(id) {
			all = false
			break
		}
	}
	for _, id := range ids {
		if all {
			s.picked.Remove(id)
		} else {
			s.picked.Add(id)
		}
	}
}

// Selected returns the current selection in ascending id order.
func (s *Selector) Selected() []uint64 {
	ids := s.picked.ToSlice()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Count returns the number of selected seats.
func (s *Selector) Count() int { return s.picked.Cardinality() }

// Clear drops the whole selection.
func (s *Selector) Clear() { s.picked.Clear() }

// Apply resolves the selection into a BulkChange with the seat type
// upper-cased, then clears the selection. It fails with ErrEmptySelection
// when nothing is selected; the selection is left untouched in that case.
func (s *Selector) Apply(newType string, active bool) (BulkChange, error) {
	if s.picked.Cardinality() == 0 {
		return BulkChange{}, ErrEmptySelection
	}
	change := BulkChange{
		SeatIDs:  s.Selected(),
		SeatType: strings.ToUpper(strings.TrimSpace(newType)),
		IsActive: active,
	}
	s.picked.Clear()
	return change, nil
}
