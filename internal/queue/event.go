// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a booking is successfully
// confirmed. It carries enough context for downstream consumers to log or
// notify without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID     uint64   `json:"booking_id"`
	UserID        uint64   `json:"user_id"`
	ShowtimeID    uint64   `json:"showtime_id"`
	RoomID        uint64   `json:"room_id"`
	RoomName      string   `json:"room_name"`
	MovieTitle    string   `json:"movie_title"`
	StartsAt      string   `json:"starts_at"`
	EndsAt        string   `json:"ends_at"`
	SeatLabels    []string `json:"seats"`
	SubtotalCents int64    `json:"subtotal_cents"`
	TotalCents    int64    `json:"total_cents"`
	CouponCode    string   `json:"coupon_code,omitempty"`
	ConfirmedAt   string   `json:"confirmed_at"`
}
