package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/hotel-room-reservation/internal/config"
	"github.com/iliyamo/hotel-room-reservation/internal/handler"
	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
	"github.com/iliyamo/hotel-room-reservation/internal/service"
)

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func newEcho() *echo.Echo {
	rooms := repository.NewMemoryRoomDirectory(model.Room{ID: 1, Name: "Chambre 101", NightlyRateCents: 9000, IsActive: true})
	store := repository.NewMemoryReservationStore()
	booking := service.NewBookingService(rooms, store, nil, nil, nil)
	cancels := service.NewCancellationService(store, rooms, service.CancellationPolicy{}, nil, nil)
	cfg := config.Config{JWTSecret: "s"}

	e := echo.New()
	RegisterRoutes(e, handler.NewHealthHandler(nil))
	RegisterAuth(e, handler.NewAuthHandler(cfg, repository.NewMemoryUserStore(), repository.NewMemoryTokenStore(), nil), cfg.JWTSecret)
	RegisterPublic(e, handler.NewRoomHandler(rooms, nil), passThrough)
	RegisterCustomer(e, handler.NewReservationHandler(booking, cancels, nil, nil), cfg.JWTSecret, passThrough)
	return e
}

func TestRoutesRegistered(t *testing.T) {
	e := newEcho()
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"POST /v1/auth/register",
		"POST /v1/auth/login",
		"POST /v1/auth/refresh",
		"POST /v1/auth/refresh-access",
		"POST /v1/auth/logout",
		"GET /v1/me",
		"GET /v1/rooms/:id",
		"POST /v1/rooms/:id/reservations",
		"GET /v1/my-reservations",
		"GET /v1/reservations/:id",
		"GET /v1/reservations/:id/cancel",
		"POST /v1/reservations/:id/cancel",
	} {
		assert.True(t, have[want], want)
	}
}

func TestGuestRoutesRequireToken(t *testing.T) {
	e := newEcho()
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/v1/rooms/1/reservations"},
		{http.MethodGet, "/v1/my-reservations"},
		{http.MethodGet, "/v1/reservations/1/cancel"},
		{http.MethodPost, "/v1/reservations/1/cancel"},
		{http.MethodGet, "/v1/me"},
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.method+" "+tc.path)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/rooms/1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
