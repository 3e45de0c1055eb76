package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/seatgrid/seatgrid/internal/model"
	"github.com/seatgrid/seatgrid/internal/repository"
)

// validRoomStatus lists the accepted operational states of a room.
var validRoomStatus = map[string]bool{
	"AVAILABLE":   true,
	"MAINTENANCE": true,
	"CLOSED":      true,
}

// CreateRoom handles POST /v1/rooms. The declared capacity is what a later
// layout generation is validated against.
func (h *AdminHandler) CreateRoom(c echo.Context) error {
	var body struct {
		Name     string `json:"name"`
		Capacity int    `json:"capacity"`
		RoomType string `json:"room_type"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" || body.Capacity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and a positive capacity are required"})
	}
	roomType := strings.ToUpper(strings.TrimSpace(body.RoomType))
	if roomType == "" {
		roomType = "2D"
	}
	room := &model.Room{
		Name:     name,
		Capacity: body.Capacity,
		RoomType: roomType,
		Status:   "AVAILABLE",
		IsActive: true,
	}
	if err := h.RoomRepo.Create(c.Request().Context(), room); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create room"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":        room.ID,
		"name":      room.Name,
		"capacity":  room.Capacity,
		"room_type": room.RoomType,
		"status":    room.Status,
	})
}

// ListRooms handles GET /v1/rooms.
func (h *AdminHandler) ListRooms(c echo.Context) error {
	rooms, err := h.RoomRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": rooms, "count": len(rooms)})
}

// GetRoom handles GET /v1/rooms/:id.
func (h *AdminHandler) GetRoom(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	room, err := h.RoomRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, room)
}

// UpdateRoomStatus handles PATCH /v1/rooms/:id/status.
func (h *AdminHandler) UpdateRoomStatus(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status := strings.ToUpper(strings.TrimSpace(body.Status))
	if !validRoomStatus[status] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be AVAILABLE, MAINTENANCE or CLOSED"})
	}
	if err := h.RoomRepo.UpdateStatus(c.Request().Context(), id, status); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": status})
}
