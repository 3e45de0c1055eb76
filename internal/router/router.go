// Package router registers the HTTP routes of the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/seatgrid/seatgrid/internal/config"
	"github.com/seatgrid/seatgrid/internal/handler"
	"github.com/seatgrid/seatgrid/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the auth endpoints. Register, login, refresh and
// logout run without the JWT middleware; /v1/me is protected.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout accepts either a refresh token in the body or a bearer token,
	// so it stays outside the JWT middleware.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterAdmin registers ADMIN-scoped endpoints under /v1.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// ---- Rooms ----
	g.POST("/rooms", a.CreateRoom)
	g.GET("/rooms", a.ListRooms)
	g.GET("/rooms/:id", a.GetRoom)
	g.PATCH("/rooms/:id/status", a.UpdateRoomStatus)

	// ---- Layout ----
	g.POST("/rooms/:id/layout", a.GenerateLayout)
	g.GET("/rooms/:id/seats", a.GetSeats)
	g.GET("/rooms/:id/seats/layout", a.GetLayoutGrouped)
	g.PUT("/rooms/:id/seats/bulk", a.BulkUpdateSeats)
	g.DELETE("/rooms/:id/seats", a.BulkDeleteSeats)
	g.PATCH("/seats/:id/status", a.UpdateSeatStatus)

	// ---- Showtimes ----
	g.POST("/showtimes", a.CreateShowtime)
	g.GET("/rooms/:id/showtimes", a.ListShowtimes)
	g.GET("/showtimes/:id/seats/operator", a.OperatorSeatMap)
}

// RegisterCustomer registers CUSTOMER-scoped endpoints under /v1. The claim
// and confirm endpoints get the Redis token bucket on top of auth, since
// they are the contended ones.
func RegisterCustomer(e *echo.Echo, h *handler.CustomerHandler, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
	)

	g.GET("/showtimes/:id/seats", h.SeatMap)

	limited := g.Group("", middleware.NewTokenBucket(rlCfg, rdb))
	limited.POST("/showtimes/:id/claim", h.ClaimSeats)
	limited.DELETE("/showtimes/:id/claim", h.ReleaseClaim)
	limited.POST("/showtimes/:id/confirm", h.ConfirmBooking)

	g.GET("/my-bookings", h.MyBookings)
	g.GET("/bookings/:id", h.GetBooking)
	g.DELETE("/bookings/:id", h.CancelBooking)
}
