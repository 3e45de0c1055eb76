// Package layout implements the seat-grid model for a cinema room: parsing
// the compact admin input that describes a grid, emitting the concrete seat
// placements, and the ephemeral selection set used for bulk edits.
package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultSeatType is assigned when the admin does not pick a type.
const DefaultSeatType = "REGULAR"

// Spec is the raw admin input describing how to generate a room's grid.
// RowsInput is either a contiguous range ("A-E") or an explicit comma list
// ("A,C,E"). EmptyColumnsInput lists column numbers that occupy grid width
// but never become seats. Overwrite requests a full replacement of any
// existing layout.
type Spec struct {
	RowsInput         string
	ColumnsPerRow     int
	EmptyColumnsInput string
	SeatType          string
	Overwrite         bool
}

// Placement is one emitted seat position. It carries no identity; the store
// assigns layout ids on insert.
type Placement struct {
	RowLabel     string
	ColumnNumber uint32
	SeatType     string
}

// Resolved is a validated Spec with every field in canonical form, ready to
// emit placements.
type Resolved struct {
	RowLabels    []string
	Columns      int
	EmptyColumns map[int]struct{}
	SeatType     string
	Overwrite    bool
}

// ParseError reports invalid admin input for a single field. It never
// indicates a storage problem; nothing has been written when it is returned.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CapacityMismatchError is returned when the grid implied by the spec does
// not match the room's declared capacity. Both numbers are carried so the
// admin sees what was compared.
type CapacityMismatchError struct {
	Declared   int
	Calculated int
}

func (e *CapacityMismatchError) Error() string {
	return fmt.Sprintf("layout produces %d seats but room capacity is %d", e.Calculated, e.Declared)
}

// ParseRows resolves the rows input into an ordered list of row labels.
//
// A hyphen selects the range form: both endpoints must be exactly one
// character after trimming and the start must not sort after the end; the
// result is the inclusive character sequence. Anything else is treated as a
// comma list whose non-empty trimmed tokens are kept verbatim, so the list
// form permits arbitrary labels like "AA" or non-contiguous letters.
func ParseRows(input string) ([]string, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return nil, &ParseError{Field: "rows", Reason: "rows required"}
	}
	if strings.Contains(raw, "-") {
		parts := strings.SplitN(raw, "-", 2)
		start := strings.TrimSpace(parts[0])
		end := strings.TrimSpace(parts[1])
		if len(start) != 1 || len(end) != 1 {
			return nil, &ParseError{Field: "rows", Reason: "range endpoints must be single characters"}
		}
		if start[0] > end[0] {
			return nil, &ParseError{Field: "rows", Reason: "range start is after range end"}
		}
		labels := make([]string, 0, int(end[0]-start[0])+1)
		for ch := start[0]; ; ch++ {
			labels = append(labels, string(ch))
			if ch == end[0] {
				break
			}
		}
		return labels, nil
	}
	var labels []string
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			labels = append(labels, tok)
		}
	}
	if len(labels) == 0 {
		return nil, &ParseError{Field: "rows", Reason: "rows required"}
	}
	return labels, nil
}

// ParseEmptyColumns resolves the empty-columns input into a set of column
// numbers. Tokens that are not non-negative integers are discarded without
// error, matching the leniency of the admin tool this input comes from.
func ParseEmptyColumns(input string) map[int]struct{} {
	set := make(map[int]struct{})
	for _, tok := range strings.Split(input, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}

// Resolve parses every field of the spec and returns its canonical form.
// The seat type is upper-cased and defaults to REGULAR.
func (s Spec) Resolve() (*Resolved, error) {
	labels, err := ParseRows(s.RowsInput)
	if err != nil {
		return nil, err
	}
	if s.ColumnsPerRow <= 0 {
		return nil, &ParseError{Field: "columns", Reason: "columns must be a positive integer"}
	}
	seatType := strings.ToUpper(strings.TrimSpace(s.SeatType))
	if seatType == "" {
		seatType = DefaultSeatType
	}
	return &Resolved{
		RowLabels:    labels,
		Columns:      s.ColumnsPerRow,
		EmptyColumns: ParseEmptyColumns(s.EmptyColumnsInput),
		SeatType:     seatType,
		Overwrite:    s.Overwrite,
	}, nil
}

// Validate checks the grid against the room's declared capacity. The check
// deliberately compares rows × columns to the capacity without subtracting
// empty columns, even though empty columns never become seats; the admin
// tooling this parser replaces has always counted full grid slots, and rooms
// created under that rule must keep validating. Callers skip Validate on the
// overwrite path.
func (r *Resolved) Validate(declaredCapacity int) error {
	calculated := len(r.RowLabels) * r.Columns
	if calculated != declaredCapacity {
		return &CapacityMismatchError{Declared: declaredCapacity, Calculated: calculated}
	}
	return nil
}

// Emit produces one placement per (row, column) slot that is not an empty
// column. Column numbers are 1-based. All emitted seats share the resolved
// seat type and start active.
func (r *Resolved) Emit() []Placement {
	out := make([]Placement, 0, len(r.RowLabels)*r.Columns)
	for _, label := range r.RowLabels {
		for col := 1; col <= r.Columns; col++ {
			if _, skip := r.EmptyColumns[col]; skip {
				continue
			}
			out = append(out, Placement{
				RowLabel:     label,
				ColumnNumber: uint32(col),
				SeatType:     r.SeatType,
			})
		}
	}
	return out
}
