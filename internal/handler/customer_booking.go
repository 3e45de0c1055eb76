package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seatgrid/seatgrid/internal/booking"
	"github.com/seatgrid/seatgrid/internal/claim"
	"github.com/seatgrid/seatgrid/internal/model"
	"github.com/seatgrid/seatgrid/internal/queue"
	"github.com/seatgrid/seatgrid/internal/reconcile"
	"github.com/seatgrid/seatgrid/internal/repository"
	queue_publisher "github.com/seatgrid/seatgrid/internal/service"
)

// SeatMap handles GET /v1/showtimes/:id/seats. It returns the static layout
// together with the booked and pending id sets; the client reconciles them
// with its own local selection into per-seat states.
func (h *CustomerHandler) SeatMap(c echo.Context) error {
	showtimeID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	ctx := c.Request().Context()
	st, err := h.ShowtimeRepo.GetByID(ctx, showtimeID)
	if err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seats, err := h.SeatRepo.GetByRoom(ctx, st.RoomID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	booked, err := h.BookingRepo.BookedSeatIDs(ctx, showtimeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	pending, err := pendingSeatIDs(ctx, h.Ledger, h.HoldRepo, showtimeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if booked == nil {
		booked = []uint64{}
	}
	if pending == nil {
		pending = []uint64{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"showtime_id":        showtimeID,
		"layout":             seats,
		"booked_layout_ids":  booked,
		"pending_layout_ids": pending,
	})
}

// ClaimSeats handles POST /v1/showtimes/:id/claim. The body names the full
// desired selection; the session is synchronized to it and then proceeds to
// an all-or-nothing claim. On conflict the response lists the unavailable
// ids and the session stays in Selecting with its selection intact.
func (h *CustomerHandler) ClaimSeats(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showtimeID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	var body struct {
		SeatIDs []uint64 `json:"seat_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	requested := dedupeIDs(body.SeatIDs)
	if len(requested) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
	}
	if len(requested) > booking.MaxSeatsPerSession {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": booking.ErrMaxSeats.Error()})
	}

	ctx := c.Request().Context()
	st, err := h.ShowtimeRepo.GetByID(ctx, showtimeID)
	if err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	sess := h.Sessions.GetOrCreate(userID, showtimeID, priceTable(st))
	if sess.State() == booking.StateAwaiting {
		if sess.Claim().ExpiresAt.After(time.Now().UTC()) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a claim is already pending; confirm or release it first"})
		}
		// Lapsed claim: tidy up and start over.
		if sess.Expire(time.Now().UTC()) {
			_ = h.Claimer.Release(ctx, showtimeID, sess.ID)
		}
		h.Sessions.Remove(userID, showtimeID)
		sess = h.Sessions.GetOrCreate(userID, showtimeID, priceTable(st))
	}

	views, err := h.seatViews(ctx, st, sess.Selected())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	// Drop previously selected seats missing from this request, then add
	// the rest against the fresh view.
	want := make(map[uint64]struct{}, len(requested))
	for _, id := range requested {
		want[id] = struct{}{}
	}
	for _, id := range sess.Selected() {
		if _, ok := want[id]; !ok {
			_ = sess.Deselect(id)
		}
	}
	var unavailable []uint64
	for _, id := range requested {
		v, ok := views[id]
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat does not belong to this showtime", "seat_id": id})
		}
		switch err := sess.Select(v); {
		case err == nil:
		case errors.Is(err, booking.ErrSeatUnavailable):
			unavailable = append(unavailable, id)
		case errors.Is(err, booking.ErrMaxSeats):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		default:
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		}
	}
	if len(unavailable) > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "some seats are unavailable", "unavailable": unavailable})
	}

	granted, err := sess.Proceed(ctx, h.Claimer)
	if err != nil {
		var conflict *claim.ConflictError
		switch {
		case errors.As(err, &conflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "some seats are unavailable", "unavailable": conflict.UnavailableIDs})
		case errors.Is(err, booking.ErrEmptySelection):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, booking.ErrInvalidState):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to claim seats"})
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"session_id":     sess.ID,
		"hold_token":     granted.Token,
		"seat_ids":       granted.SeatIDs,
		"expires_at":     granted.ExpiresAt.UTC().Format(time.RFC3339),
		"subtotal_cents": sess.Subtotal(),
		"total_cents":    sess.Total(),
	})
}

// ReleaseClaim handles DELETE /v1/showtimes/:id/claim. Releasing without an
// active claim is a no-op.
func (h *CustomerHandler) ReleaseClaim(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showtimeID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	if sess, ok := h.Sessions.Get(userID, showtimeID); ok {
		_ = sess.Cancel(c.Request().Context(), h.Claimer)
		h.Sessions.Remove(userID, showtimeID)
	}
	return c.NoContent(http.StatusNoContent)
}

// ConfirmBooking handles POST /v1/showtimes/:id/confirm. It converts the
// session's active claim into a durable booking. Payment itself is out of
// scope; the request may carry an opaque payment reference and an optional
// coupon code.
func (h *CustomerHandler) ConfirmBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showtimeID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	var body struct {
		CouponCode string `json:"coupon_code"`
		PaymentRef string `json:"payment_ref"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	sess, ok := h.Sessions.Get(userID, showtimeID)
	if !ok || sess.State() != booking.StateAwaiting {
		return c.JSON(http.StatusConflict, echo.Map{"error": "no pending claim to confirm"})
	}
	now := time.Now().UTC()
	if !sess.Claim().ExpiresAt.After(now) {
		if sess.Expire(now) {
			_ = h.Claimer.Release(ctx, showtimeID, sess.ID)
		}
		h.Sessions.Remove(userID, showtimeID)
		return c.JSON(http.StatusConflict, echo.Map{"error": "claim expired; select seats again"})
	}

	if code := strings.TrimSpace(body.CouponCode); code != "" {
		cp, ok := h.Coupons.Lookup(code)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown coupon code"})
		}
		sess.ApplyCoupon(cp)
	}

	st, err := h.ShowtimeRepo.GetByID(ctx, showtimeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seats, err := h.SeatRepo.GetByRoom(ctx, st.RoomID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seatByID := make(map[uint64]model.SeatLayoutEntry, len(seats))
	for _, s := range seats {
		seatByID[s.ID] = s
	}
	prices := priceTable(st)
	selected := sess.Selected()
	subtotal := sess.Subtotal()
	total := sess.Total()

	tx, err := h.ShowtimeRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	holds, err := h.HoldRepo.ActiveBySessionTx(ctx, tx, showtimeID, sess.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(holds) != len(selected) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "claim expired; select seats again"})
	}

	bk := &model.Booking{
		UserID:        userID,
		ShowtimeID:    showtimeID,
		Status:        "CONFIRMED",
		SubtotalCents: subtotal,
		TotalCents:    total,
	}
	if code := strings.TrimSpace(body.CouponCode); code != "" {
		up := strings.ToUpper(code)
		bk.CouponCode = &up
	}
	if ref := strings.TrimSpace(body.PaymentRef); ref != "" {
		bk.PaymentRef = &ref
	}
	if err := h.BookingRepo.CreateTx(ctx, tx, bk); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}

	bookingSeats := make([]model.BookingSeat, 0, len(selected))
	for _, id := range selected {
		seat := seatByID[id]
		bookingSeats = append(bookingSeats, model.BookingSeat{
			BookingID:  bk.ID,
			ShowtimeID: showtimeID,
			SeatID:     id,
			PriceCents: prices[seat.SeatType],
		})
	}
	if err := h.BookingRepo.CreateSeatsBulkTx(ctx, tx, bookingSeats); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a seat was sold to another booking"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record seats"})
	}
	if _, err := h.HoldRepo.DeleteBySessionTx(ctx, tx, showtimeID, sess.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to clear holds"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit booking"})
	}
	committed = true

	if _, err := sess.Confirm(); err != nil {
		// The booking is durable; the session just missed its transition.
		c.Logger().Warnf("session %s confirm transition: %v", sess.ID, err)
	}
	h.Ledger.Release(showtimeID, sess.ID)
	h.Sessions.Remove(userID, showtimeID)

	go h.publishConfirmed(st, bk, selected, seatByID)

	return c.JSON(http.StatusCreated, echo.Map{
		"booking_id":     bk.ID,
		"subtotal_cents": subtotal,
		"total_cents":    total,
		"seat_ids":       selected,
	})
}

// publishConfirmed emits the booking.confirmed event. Failures are logged by
// the publisher and deliberately not surfaced to the customer.
func (h *CustomerHandler) publishConfirmed(st *model.Showtime, bk *model.Booking, seatIDs []uint64, seatByID map[uint64]model.SeatLayoutEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	roomName := ""
	if room, err := h.RoomRepo.GetByID(ctx, st.RoomID); err == nil {
		roomName = room.Name
	}
	labels := make([]string, 0, len(seatIDs))
	for _, id := range seatIDs {
		if s, ok := seatByID[id]; ok {
			labels = append(labels, fmt.Sprintf("%s%d", s.RowLabel, s.ColumnNumber))
		}
	}
	ev := queue.BookingConfirmedEvent{
		BookingID:     bk.ID,
		UserID:        bk.UserID,
		ShowtimeID:    st.ID,
		RoomID:        st.RoomID,
		RoomName:      roomName,
		MovieTitle:    st.MovieTitle,
		StartsAt:      st.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:        st.EndsAt.UTC().Format(time.RFC3339),
		SeatLabels:    labels,
		SubtotalCents: bk.SubtotalCents,
		TotalCents:    bk.TotalCents,
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if bk.CouponCode != nil {
		ev.CouponCode = *bk.CouponCode
	}
	_ = queue_publisher.PublishBookingConfirmed(ctx, ev)
}

// MyBookings handles GET /v1/my-bookings.
func (h *CustomerHandler) MyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookings, err := h.BookingRepo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings, "count": len(bookings)})
}

// GetBooking handles GET /v1/bookings/:id.
func (h *CustomerHandler) GetBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	bk, err := h.BookingRepo.GetByIDForUser(c.Request().Context(), bookingID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	return c.JSON(http.StatusOK, bk)
}

// CancelBooking handles DELETE /v1/bookings/:id. Cancellation is allowed
// until the showtime starts; the booked seats become available again.
func (h *CustomerHandler) CancelBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx := c.Request().Context()
	tx, err := h.ShowtimeRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	_, startsAt, seatIDs, err := h.BookingRepo.CancelInfoForUserTx(ctx, tx, bookingID, userID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	if !startsAt.After(time.Now().UTC()) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "showtime already started"})
	}
	if err := h.BookingRepo.CancelTx(ctx, tx, bookingID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel booking"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit cancellation"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{"booking_id": bookingID, "cancelled": true, "seats_released": len(seatIDs)})
}

// seatViews loads everything the reconciler needs and returns the computed
// view keyed by layout id.
func (h *CustomerHandler) seatViews(ctx context.Context, st *model.Showtime, localSelection []uint64) (map[uint64]reconcile.SeatView, error) {
	seats, err := h.SeatRepo.GetByRoom(ctx, st.RoomID)
	if err != nil {
		return nil, err
	}
	booked, err := h.BookingRepo.BookedSeatIDs(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	pending, err := pendingSeatIDs(ctx, h.Ledger, h.HoldRepo, st.ID)
	if err != nil {
		return nil, err
	}
	entries := make([]reconcile.LayoutEntry, 0, len(seats))
	for _, s := range seats {
		entries = append(entries, reconcile.LayoutEntry{
			LayoutID:     s.ID,
			RowLabel:     s.RowLabel,
			ColumnNumber: s.ColumnNumber,
			SeatType:     s.SeatType,
			IsActive:     s.IsActive,
		})
	}
	views := reconcile.ComputeView(entries, booked, pending, localSelection)
	byID := make(map[uint64]reconcile.SeatView, len(views))
	for _, v := range views {
		byID[v.LayoutID] = v
	}
	return byID, nil
}

// priceTable derives the per-type seat prices of one showtime.
func priceTable(st *model.Showtime) booking.PriceTable {
	return booking.PriceTable{
		"REGULAR": st.PriceRegularCents,
		"VIP":     st.PriceVIPCents,
	}
}

// dedupeIDs drops zeros and duplicates while keeping order.
func dedupeIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
