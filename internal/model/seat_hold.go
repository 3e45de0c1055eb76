package model

import "time"

// SeatHold is the persisted form of a claim: a temporary exclusive hold on
// one seat for one showtime. Holds expire at ExpiresAt and are enforced
// server-side; a row surviving past its expiry is treated as released.
// The (showtime_id, seat_id) pair is unique so the database backs up the
// in-process claim ledger.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – customer owning the hold.
//  SessionID  – reservation session the hold belongs to.
//  ShowtimeID – showtime the seat is held for.
//  SeatID     – layout id of the held seat.
//  HoldToken  – opaque token returned to the client.
//  ExpiresAt  – when the hold lapses.
//  CreatedAt  – when the hold was created.
type SeatHold struct {
	ID         uint64    `json:"id"`
	UserID     uint64    `json:"user_id"`
	SessionID  string    `json:"session_id"`
	ShowtimeID uint64    `json:"showtime_id"`
	SeatID     uint64    `json:"seat_id"`
	HoldToken  string    `json:"hold_token"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}
