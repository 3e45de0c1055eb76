// Package repository implements data access over MySQL. Sentinel errors
// let handlers map storage failures to HTTP statuses without string
// matching.
package repository

import "errors"

// ErrRoomNotFound is returned when a room lookup yields no rows.
var ErrRoomNotFound = errors.New("room not found")

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

// ErrShowtimeNotFound is returned when a showtime lookup yields no rows.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ErrBookingNotFound is returned when a booking lookup yields no rows.
var ErrBookingNotFound = errors.New("booking not found")

// ErrDuplicateSeat is returned when an insert would violate the
// (room, row, column) uniqueness of the layout. The statement that caused
// it is rolled back; a bulk insert is never partially applied.
var ErrDuplicateSeat = errors.New("seat position already exists")

// ErrForbidden is returned when the caller does not own the resource.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// dependent state, such as deleting seats that appear in bookings.
var ErrConflict = errors.New("conflict")
