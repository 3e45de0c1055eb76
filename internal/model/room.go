package model

import "time"

// Room represents one cinema room. The declared capacity is validated
// against the grid implied by a layout spec when seats are generated; a room
// without a layout has no seat rows yet.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – room name, unique per cinema installation.
//  Capacity  – declared seat count the layout must satisfy.
//  RoomType  – projection type, e.g. 2D, 3D, IMAX.
//  Status    – operational status (AVAILABLE, MAINTENANCE, CLOSED).
//  IsActive  – whether the room is offered for new showtimes.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Room struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	RoomType  string    `json:"room_type"`
	Status    string    `json:"status"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
