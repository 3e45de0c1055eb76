package model

import "time"

// SeatLayoutEntry is one physical seat of a room's grid. The id is the
// stable identity every downstream system references; row, column and room
// never change once the seat exists. Type and active flag may change, and an
// inactive seat stays addressable for layout edits while never being offered
// to customers.
//
// Fields:
//  ID           – layout id, stable seat identity.
//  RoomID       – room owning the seat.
//  RowLabel     – row letter such as "A".
//  ColumnNumber – 1-based position within the row.
//  SeatType     – REGULAR, VIP (extensible string).
//  IsActive     – whether the seat may be sold.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type SeatLayoutEntry struct {
	ID           uint64    `json:"id"`
	RoomID       uint64    `json:"room_id"`
	RowLabel     string    `json:"row_label"`
	ColumnNumber uint32    `json:"column_number"`
	SeatType     string    `json:"seat_type"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
