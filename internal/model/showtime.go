package model

import "time"

// Showtime schedules a movie in a room. Seat prices are fixed per seat type
// when the showtime is created.
//
// Fields:
//  ID                – primary key identifier.
//  RoomID            – room hosting the showtime.
//  MovieTitle        – title shown to customers.
//  StartsAt          – start of the screening (UTC).
//  EndsAt            – end of the screening (UTC).
//  PriceRegularCents – price of a REGULAR seat in cents.
//  PriceVIPCents     – price of a VIP seat in cents.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type Showtime struct {
	ID                uint64    `json:"id"`
	RoomID            uint64    `json:"room_id"`
	MovieTitle        string    `json:"movie_title"`
	StartsAt          time.Time `json:"starts_at"`
	EndsAt            time.Time `json:"ends_at"`
	PriceRegularCents int64     `json:"price_regular_cents"`
	PriceVIPCents     int64     `json:"price_vip_cents"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
