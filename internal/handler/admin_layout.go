package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/seatgrid/seatgrid/internal/layout"
	"github.com/seatgrid/seatgrid/internal/model"
	"github.com/seatgrid/seatgrid/internal/repository"
)

// GenerateLayout handles POST /v1/rooms/:id/layout. It turns the compact
// grid description into concrete seat rows. Without overwrite the generated
// grid must match the room's declared capacity and collides with any
// existing seats; with overwrite the previous layout is replaced in one
// transaction.
func (h *AdminHandler) GenerateLayout(c echo.Context) error {
	roomID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	ctx := c.Request().Context()
	room, err := h.RoomRepo.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	var body struct {
		Rows         string `json:"rows"`
		Columns      int    `json:"columns"`
		EmptyColumns string `json:"empty_columns"`
		SeatType     string `json:"seat_type"`
		Overwrite    bool   `json:"overwrite"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	spec := layout.Spec{
		RowsInput:         body.Rows,
		ColumnsPerRow:     body.Columns,
		EmptyColumnsInput: body.EmptyColumns,
		SeatType:          body.SeatType,
		Overwrite:         body.Overwrite,
	}
	resolved, err := spec.Resolve()
	if err != nil {
		var pe *layout.ParseError
		if errors.As(err, &pe) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": pe.Error(), "field": pe.Field})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	// Capacity is enforced on the create path only; an explicit overwrite
	// is allowed to reshape the room.
	if !resolved.Overwrite {
		if err := resolved.Validate(room.Capacity); err != nil {
			var cm *layout.CapacityMismatchError
			if errors.As(err, &cm) {
				return c.JSON(http.StatusBadRequest, echo.Map{
					"error":      cm.Error(),
					"declared":   cm.Declared,
					"calculated": cm.Calculated,
				})
			}
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
	}

	placements := resolved.Emit()
	seats := make([]model.SeatLayoutEntry, 0, len(placements))
	for _, p := range placements {
		seats = append(seats, model.SeatLayoutEntry{
			RoomID:       roomID,
			RowLabel:     p.RowLabel,
			ColumnNumber: p.ColumnNumber,
			SeatType:     p.SeatType,
			IsActive:     true,
		})
	}

	if resolved.Overwrite {
		err = h.SeatRepo.ReplaceLayout(ctx, roomID, seats)
	} else {
		err = h.SeatRepo.BulkInsert(ctx, seats)
	}
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateSeat) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "room already has seats at these positions; use overwrite to replace the layout"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create seats"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"room_id":       roomID,
		"seats_created": len(seats),
		"rows":          resolved.RowLabels,
		"columns":       resolved.Columns,
		"overwrite":     resolved.Overwrite,
	})
}

// GetSeats handles GET /v1/rooms/:id/seats. The optional ?active=true|false
// query filters by the active flag.
func (h *AdminHandler) GetSeats(c echo.Context) error {
	roomID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	seats, err := h.SeatRepo.GetByRoom(c.Request().Context(), roomID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	switch strings.ToLower(c.QueryParam("active")) {
	case "true":
		seats = filterSeats(seats, true)
	case "false":
		seats = filterSeats(seats, false)
	}
	return c.JSON(http.StatusOK, echo.Map{"room_id": roomID, "seats": seats, "count": len(seats)})
}

// GetLayoutGrouped handles GET /v1/rooms/:id/seats/layout and returns the
// seats grouped per row, rows sorted by label.
func (h *AdminHandler) GetLayoutGrouped(c echo.Context) error {
	roomID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	seats, err := h.SeatRepo.GetByRoom(c.Request().Context(), roomID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	type rowView struct {
		RowLabel string                  `json:"row_label"`
		Seats    []model.SeatLayoutEntry `json:"seats"`
	}
	// GetByRoom orders by row then column, so rows come out contiguous.
	rows := make([]rowView, 0)
	for _, s := range seats {
		if n := len(rows); n == 0 || rows[n-1].RowLabel != s.RowLabel {
			rows = append(rows, rowView{RowLabel: s.RowLabel})
		}
		rows[len(rows)-1].Seats = append(rows[len(rows)-1].Seats, s)
	}
	return c.JSON(http.StatusOK, echo.Map{"room_id": roomID, "rows": rows, "total_seats": len(seats)})
}

func filterSeats(seats []model.SeatLayoutEntry, active bool) []model.SeatLayoutEntry {
	out := seats[:0]
	for _, s := range seats {
		if s.IsActive == active {
			out = append(out, s)
		}
	}
	return out
}
