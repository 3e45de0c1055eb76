package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seatgrid/seatgrid/internal/model"
	"github.com/seatgrid/seatgrid/internal/reconcile"
	"github.com/seatgrid/seatgrid/internal/repository"
)

const sqlTimeLayout = "2006-01-02 15:04:05"

// CreateShowtime handles POST /v1/showtimes. Seat prices are fixed per seat
// type at creation time. Overlapping showtimes in the same room are
// rejected.
func (h *AdminHandler) CreateShowtime(c echo.Context) error {
	var body struct {
		RoomID            uint64 `json:"room_id"`
		MovieTitle        string `json:"movie_title"`
		StartsAt          string `json:"starts_at"`
		EndsAt            string `json:"ends_at"`
		PriceRegularCents int64  `json:"price_regular_cents"`
		PriceVIPCents     int64  `json:"price_vip_cents"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	title := strings.TrimSpace(body.MovieTitle)
	if body.RoomID == 0 || title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id and movie_title are required"})
	}
	starts, err := time.Parse(time.RFC3339, body.StartsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC3339"})
	}
	ends, err := time.Parse(time.RFC3339, body.EndsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be RFC3339"})
	}
	if !ends.After(starts) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
	}
	if body.PriceRegularCents < 0 || body.PriceVIPCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "prices must not be negative"})
	}

	ctx := c.Request().Context()
	room, err := h.RoomRepo.GetByID(ctx, body.RoomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !room.IsActive || room.Status != "AVAILABLE" {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room is not available for showtimes"})
	}

	overlapping, err := h.ShowtimeRepo.FindOverlapping(ctx, body.RoomID,
		starts.UTC().Format(sqlTimeLayout), ends.UTC().Format(sqlTimeLayout))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(overlapping) > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room already has a showtime in this interval"})
	}

	st := &model.Showtime{
		RoomID:            body.RoomID,
		MovieTitle:        title,
		StartsAt:          starts.UTC(),
		EndsAt:            ends.UTC(),
		PriceRegularCents: body.PriceRegularCents,
		PriceVIPCents:     body.PriceVIPCents,
	}
	if err := h.ShowtimeRepo.Create(ctx, st); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create showtime"})
	}
	return c.JSON(http.StatusCreated, st)
}

// ListShowtimes handles GET /v1/rooms/:id/showtimes.
func (h *AdminHandler) ListShowtimes(c echo.Context) error {
	roomID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	showtimes, err := h.ShowtimeRepo.ListByRoom(c.Request().Context(), roomID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"room_id": roomID, "showtimes": showtimes, "count": len(showtimes)})
}

// OperatorSeatMap handles GET /v1/showtimes/:id/seats/operator. Unlike the
// customer view it keeps Pending distinct from Occupied, so an operator
// sees what is holding a seat up; inactive seats are omitted.
func (h *AdminHandler) OperatorSeatMap(c echo.Context) error {
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

	layoutEntries := make([]reconcile.LayoutEntry, 0, len(seats))
	for _, s := range seats {
		layoutEntries = append(layoutEntries, reconcile.LayoutEntry{
			LayoutID:     s.ID,
			RowLabel:     s.RowLabel,
			ColumnNumber: s.ColumnNumber,
			SeatType:     s.SeatType,
			IsActive:     s.IsActive,
		})
	}
	views := reconcile.ComputeOperatorView(layoutEntries, booked, pending)
	return c.JSON(http.StatusOK, echo.Map{"showtime_id": showtimeID, "seats": views})
}
