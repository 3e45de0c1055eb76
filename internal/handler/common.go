// Package handler contains the HTTP handlers for the API.
package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/seatgrid/seatgrid/internal/booking"
	"github.com/seatgrid/seatgrid/internal/claim"
	"github.com/seatgrid/seatgrid/internal/repository"
)

// AdminHandler bundles the dependencies for room, layout and showtime
// administration.
type AdminHandler struct {
	RoomRepo     *repository.RoomRepo
	SeatRepo     *repository.SeatRepo
	ShowtimeRepo *repository.ShowtimeRepo
	HoldRepo     *repository.SeatHoldRepo
	BookingRepo  *repository.BookingRepo
	Ledger       *claim.Ledger
}

// NewAdminHandler constructs an AdminHandler and panics on nil dependencies.
func NewAdminHandler(rooms *repository.RoomRepo, seats *repository.SeatRepo, showtimes *repository.ShowtimeRepo, holds *repository.SeatHoldRepo, bookings *repository.BookingRepo, ledger *claim.Ledger) *AdminHandler {
	if rooms == nil || seats == nil || showtimes == nil || holds == nil || bookings == nil || ledger == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{
		RoomRepo:     rooms,
		SeatRepo:     seats,
		ShowtimeRepo: showtimes,
		HoldRepo:     holds,
		BookingRepo:  bookings,
		Ledger:       ledger,
	}
}

// CustomerHandler bundles the dependencies for the customer-facing booking
// flow. Sessions live in memory; holds and bookings are persisted through
// the repositories.
type CustomerHandler struct {
	RoomRepo     *repository.RoomRepo
	SeatRepo     *repository.SeatRepo
	ShowtimeRepo *repository.ShowtimeRepo
	HoldRepo     *repository.SeatHoldRepo
	BookingRepo  *repository.BookingRepo
	Ledger       *claim.Ledger
	Sessions     *booking.Manager
	Claimer      booking.SeatClaimer
	Coupons      booking.CouponBook
}

// NewCustomerHandler constructs a CustomerHandler and panics on nil
// dependencies. The coupon book may be empty but not nil.
func NewCustomerHandler(rooms *repository.RoomRepo, seats *repository.SeatRepo, showtimes *repository.ShowtimeRepo, holds *repository.SeatHoldRepo, bookings *repository.BookingRepo, ledger *claim.Ledger, sessions *booking.Manager, claimer booking.SeatClaimer, coupons booking.CouponBook) *CustomerHandler {
	if rooms == nil || seats == nil || showtimes == nil || holds == nil || bookings == nil || ledger == nil || sessions == nil || claimer == nil {
		panic("nil dependency passed to NewCustomerHandler")
	}
	if coupons == nil {
		coupons = booking.CouponBook{}
	}
	return &CustomerHandler{
		RoomRepo:     rooms,
		SeatRepo:     seats,
		ShowtimeRepo: showtimes,
		HoldRepo:     holds,
		BookingRepo:  bookings,
		Ledger:       ledger,
		Sessions:     sessions,
		Claimer:      claimer,
		Coupons:      coupons,
	}
}

// getUserID extracts the authenticated user id stored in context by the JWT
// middleware. Numeric JWT claims decode as float64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// parseID parses a numeric path parameter, rejecting zero.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// pendingSeatIDs merges the in-process ledger's pending seats with the
// unexpired holds persisted in the database. After a restart the ledger is
// empty and the database rows keep foreign holds visible.
func pendingSeatIDs(ctx context.Context, ledger *claim.Ledger, holds *repository.SeatHoldRepo, showtimeID uint64) ([]uint64, error) {
	fromDB, err := holds.PendingSeatIDs(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	seen := make(map[uint64]struct{}, len(fromDB))
	merged := make([]uint64, 0, len(fromDB))
	for _, id := range fromDB {
		seen[id] = struct{}{}
		merged = append(merged, id)
	}
	for _, id := range ledger.PendingSeatIDs(showtimeID) {
		if _, ok := seen[id]; !ok {
			merged = append(merged, id)
		}
	}
	return merged, nil
}
