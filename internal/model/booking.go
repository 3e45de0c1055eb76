package model

import "time"

// Booking records a confirmed purchase of one or more seats for a showtime.
// A booking references seats by layout id and never mutates the layout.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – customer who booked.
//  ShowtimeID     – showtime booked.
//  Status         – CONFIRMED or CANCELLED.
//  SubtotalCents  – seat prices before discount.
//  TotalCents     – charged amount after coupon.
//  CouponCode     – applied coupon, if any.
//  PaymentRef     – external payment reference, if any.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Booking struct {
	ID            uint64    `json:"id"`
	UserID        uint64    `json:"user_id"`
	ShowtimeID    uint64    `json:"showtime_id"`
	Status        string    `json:"status"`
	SubtotalCents int64     `json:"subtotal_cents"`
	TotalCents    int64     `json:"total_cents"`
	CouponCode    *string   `json:"coupon_code,omitempty"`
	PaymentRef    *string   `json:"payment_ref,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BookingSeat links a booking to one seat. The (showtime_id, seat_id) pair
// is unique across all bookings, which makes double-selling a database
// constraint violation even if every in-process guard failed.
//
// Fields:
//  ID         – primary key identifier.
//  BookingID  – owning booking.
//  ShowtimeID – showtime the seat was booked for.
//  SeatID     – layout id of the booked seat.
//  PriceCents – price paid for this seat.
//  CreatedAt  – creation timestamp.
type BookingSeat struct {
	ID         uint64    `json:"id"`
	BookingID  uint64    `json:"booking_id"`
	ShowtimeID uint64    `json:"showtime_id"`
	SeatID     uint64    `json:"seat_id"`
	PriceCents int64     `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
}
