package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/seatgrid/seatgrid/internal/layout"
	"github.com/seatgrid/seatgrid/internal/repository"
)

// BulkUpdateSeats handles PUT /v1/rooms/:id/seats/bulk. The request selects
// seats by explicit id, whole row or whole column; each named row/column is
// toggled with the usual all-or-nothing semantics, so naming a fully
// selected row deselects it. The resulting selection gets the new seat type
// and active flag in one statement.
func (h *AdminHandler) BulkUpdateSeats(c echo.Context) error {
	roomID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var body struct {
		SeatIDs  []uint64 `json:"seat_ids"`
		Rows     []string `json:"rows"`
		Columns  []uint32 `json:"columns"`
		SeatType string   `json:"seat_type"`
		IsActive *bool    `json:"is_active"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	seats, err := h.SeatRepo.GetByRoom(ctx, roomID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(seats) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room has no seats"})
	}

	grid := make([]layout.GridSeat, 0, len(seats))
	byID := make(map[uint64]struct{}, len(seats))
	for _, s := range seats {
		grid = append(grid, layout.GridSeat{ID: s.ID, RowLabel: s.RowLabel, ColumnNumber: s.ColumnNumber})
		byID[s.ID] = struct{}{}
	}
	sel := layout.NewSelector(grid)
	for _, id := range body.SeatIDs {
		if _, ok := byID[id]; !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat does not belong to this room", "seat_id": id})
		}
		sel.ToggleSeat(id)
	}
	for _, row := range body.Rows {
		sel.ToggleRow(row)
	}
	for _, col := range body.Columns {
		sel.ToggleColumn(col)
	}

	seatType := body.SeatType
	if seatType == "" {
		seatType = layout.DefaultSeatType
	}
	active := true
	if body.IsActive != nil {
		active = *body.IsActive
	}
	change, err := sel.Apply(seatType, active)
	if err != nil {
		if errors.Is(err, layout.ErrEmptySelection) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "selection resolves to no seats"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve selection"})
	}

	if err := h.SeatRepo.BulkSetTypeAndActive(ctx, change.SeatIDs, change.SeatType, change.IsActive); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update seats"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"room_id":   roomID,
		"updated":   len(change.SeatIDs),
		"seat_ids":  change.SeatIDs,
		"seat_type": change.SeatType,
		"is_active": change.IsActive,
	})
}

// UpdateSeatStatus handles PATCH /v1/seats/:id/status. Only the active flag
// changes; the seat type is preserved.
func (h *AdminHandler) UpdateSeatStatus(c echo.Context) error {
	seatID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	var body struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.Bind(&body); err != nil || body.IsActive == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "is_active is required"})
	}
	if err := h.SeatRepo.SetActive(c.Request().Context(), seatID, *body.IsActive); err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": seatID, "is_active": *body.IsActive})
}

// BulkDeleteSeats handles DELETE /v1/rooms/:id/seats. Ids that do not exist
// are skipped, so the operation is idempotent; the response reports how many
// rows were actually removed.
func (h *AdminHandler) BulkDeleteSeats(c echo.Context) error {
	roomID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var body struct {
		SeatIDs []uint64 `json:"seat_ids"`
	}
	if err := c.Bind(&body); err != nil || len(body.SeatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
	}
	deleted, err := h.SeatRepo.BulkDeleteByIDs(c.Request().Context(), body.SeatIDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete seats"})
	}
	return c.JSON(http.StatusOK, echo.Map{"room_id": roomID, "deleted": deleted})
}
