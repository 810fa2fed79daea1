package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-reservation/internal/handler"
	"github.com/iliyamo/hotel-room-reservation/internal/middleware"
)

// RegisterCustomer registers the booking and cancellation endpoints.  All
// of them require a valid JWT; ownership of individual reservations is
// checked by the engines.  limiter guards the state-changing routes.
func RegisterCustomer(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleCustomer, middleware.RoleStaff),
	)
	g.POST("/rooms/:id/reservations", h.Book, limiter)
	g.GET("/my-reservations", h.ListMine)
	g.GET("/reservations/:id", h.GetReservation)

	// two-step cancellation: view, then confirm
	g.GET("/reservations/:id/cancel", h.CancellationView)
	g.POST("/reservations/:id/cancel", h.ConfirmCancellation, limiter)
}
