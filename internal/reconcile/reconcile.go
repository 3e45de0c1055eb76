// Package reconcile merges the static seat layout of a room with the
// per-showtime booking state into the seat statuses a caller can act on.
// The merge is a pure function: every change to the booked set, the pending
// set or the local selection produces a full recompute, never an incremental
// patch of a previous view.
package reconcile

import (
	"sort"

	"github.com/seatgrid/seatgrid/internal/layout"
)

// Status is the availability of one seat for one showtime as seen by one
// caller.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusSelected  Status = "SELECTED"
	StatusPending   Status = "PENDING"
	StatusOccupied  Status = "OCCUPIED"
)

// LayoutEntry is the static layout input: one stored seat of the room.
type LayoutEntry struct {
	LayoutID     uint64
	RowLabel     string
	ColumnNumber uint32
	SeatType     string
	IsActive     bool
}

// SeatView is one seat of the computed availability view.
type SeatView struct {
	LayoutID     uint64 `json:"layout_id"`
	RowLabel     string `json:"row_label"`
	ColumnNumber uint32 `json:"column_number"`
	SeatType     string `json:"seat_type"`
	Status       Status `json:"status"`
}

// ComputeView builds the customer-facing availability view. Precedence,
// highest first: booked or pending seats are Occupied (a customer cannot
// tell a confirmed booking from another session's hold, and must not be able
// to select either), then the caller's local selection is Selected, then
// Available. Inactive seats are reported Occupied so they are never
// choosable. The result is ordered by row label then column number.
func ComputeView(layout []LayoutEntry, bookedIDs, pendingIDs, localSelection []uint64) []SeatView {
	booked := toSet(bookedIDs)
	pending := toSet(pendingIDs)
	local := toSet(localSelection)

	out := make([]SeatView, 0, len(layout))
	for _, e := range layout {
		v := SeatView{
			LayoutID:     e.LayoutID,
			RowLabel:     e.RowLabel,
			ColumnNumber: e.ColumnNumber,
			SeatType:     e.SeatType,
			Status:       StatusAvailable,
		}
		switch {
		case !e.IsActive:
			v.Status = StatusOccupied
		case contains(booked, e.LayoutID) || contains(pending, e.LayoutID):
			v.Status = StatusOccupied
		case contains(local, e.LayoutID):
			v.Status = StatusSelected
		}
		out = append(out, v)
	}
	sortViews(out)
	return out
}

// ComputeOperatorView is the admin variant: pending holds stay
// distinguishable from confirmed bookings, and inactive seats are simply
// omitted rather than masked as Occupied. Booked wins over pending when a
// seat somehow appears in both sets.
func ComputeOperatorView(layout []LayoutEntry, bookedIDs, pendingIDs []uint64) []SeatView {
	booked := toSet(bookedIDs)
	pending := toSet(pendingIDs)

	out := make([]SeatView, 0, len(layout))
	for _, e := range layout {
		if !e.IsActive {
			continue
		}
		v := SeatView{
			LayoutID:     e.LayoutID,
			RowLabel:     e.RowLabel,
			ColumnNumber: e.ColumnNumber,
			SeatType:     e.SeatType,
			Status:       StatusAvailable,
		}
		switch {
		case contains(booked, e.LayoutID):
			v.Status = StatusOccupied
		case contains(pending, e.LayoutID):
			v.Status = StatusPending
		}
		out = append(out, v)
	}
	sortViews(out)
	return out
}

func toSet(ids []uint64) map[uint64]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func contains(set map[uint64]struct{}, id uint64) bool {
	_, ok := set[id]
	return ok
}

func sortViews(views []SeatView) {
	sort.Slice(views, func(i, j int) bool {
		if views[i].RowLabel != views[j].RowLabel {
			return rowLess(views[i].RowLabel, views[j].RowLabel)
		}
		return views[i].ColumnNumber < views[j].ColumnNumber
	})
}

// rowLess orders row labels in sheet order: Z before AA. Labels that are
// not plain letters sort after the regular rows, lexicographically.
func rowLess(a, b string) bool {
	ai, aok := layout.RowLabelToIndex(a)
	bi, bok := layout.RowLabelToIndex(b)
	switch {
	case aok && bok:
		return ai < bi
	case aok != bok:
		return aok
	default:
		return a < b
	}
}
