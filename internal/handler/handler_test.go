package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-room-reservation/internal/config"
	"github.com/iliyamo/hotel-room-reservation/internal/middleware"
	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
	"github.com/iliyamo/hotel-room-reservation/internal/service"
	"github.com/iliyamo/hotel-room-reservation/internal/utils"
)

const testSecret = "handler-secret"

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	e     *echo.Echo
	store *repository.MemoryReservationStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	rooms := repository.NewMemoryRoomDirectory(
		model.Room{ID: 1, Name: "Chambre 101", NightlyRateCents: 10000, IsActive: true},
		model.Room{ID: 2, Name: "Chambre 102", NightlyRateCents: 8000, IsActive: false},
	)
	store := repository.NewMemoryReservationStore()
	clock := service.FixedClock(testNow)
	booking := service.NewBookingService(rooms, store, nil, clock, nil)
	cancels := service.NewCancellationService(store, rooms, service.NewCancellationPolicy(0), nil, nil)

	cfg := config.Config{JWTSecret: testSecret, AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: 4}
	auth := NewAuthHandler(cfg, repository.NewMemoryUserStore(), repository.NewMemoryTokenStore(), nil)
	res := NewReservationHandler(booking, cancels, clock, nil)
	roomsH := NewRoomHandler(rooms, nil)

	e := echo.New()
	e.POST("/v1/auth/register", auth.Register)
	e.POST("/v1/auth/login", auth.Login)
	e.POST("/v1/auth/refresh", auth.Refresh)
	e.POST("/v1/auth/refresh-access", auth.RefreshAccess)
	e.POST("/v1/auth/logout", auth.Logout)
	e.GET("/v1/rooms/:id", roomsH.GetRoom)
	g := e.Group("/v1", middleware.JWTAuth(testSecret))
	g.GET("/me", auth.Me)
	g.POST("/rooms/:id/reservations", res.Book)
	g.GET("/my-reservations", res.ListMine)
	g.GET("/reservations/:id", res.GetReservation)
	g.GET("/reservations/:id/cancel", res.CancellationView)
	g.POST("/reservations/:id/cancel", res.ConfirmCancellation)
	return &testServer{e: e, store: store}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	var out map[string]any
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec, out
}

func bearer(t *testing.T, userID uint64) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, userID, middleware.RoleCustomer, 5)
	require.NoError(t, err)
	return tok.Token
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	rec, out := s.do(t, http.MethodPost, "/v1/auth/register", "",
		`{"email":"Guest@Example.com","username":"guest","password":"longenough","confirm_password":"longenough"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	access := out["access"].(map[string]any)["token"].(string)
	refresh := out["refresh"].(map[string]any)["token"].(string)
	assert.Equal(t, "guest@example.com", out["user"].(map[string]any)["email"])

	rec, _ = s.do(t, http.MethodPost, "/v1/auth/register", "",
		`{"email":"guest@example.com","username":"again","password":"longenough","confirm_password":"longenough"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, out = s.do(t, http.MethodPost, "/v1/auth/register", "", `{"email":"bad","username":"x","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, out["error"], "email must be a valid email")

	rec, out = s.do(t, http.MethodPost, "/v1/auth/register", "",
		`{"email":"other@example.com","username":"other","password":"longenough","confirm_password":"longenougH"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password confirmation does not match", out["error"])

	rec, out = s.do(t, http.MethodGet, "/v1/me", access, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CUSTOMER", out["role"])

	rec, _ = s.do(t, http.MethodPost, "/v1/auth/login", "", `{"email":"guest@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = s.do(t, http.MethodPost, "/v1/auth/login", "", `{"email":"guest@example.com","password":"longenough"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/v1/auth/refresh-access", "", `{"refresh_token":"`+refresh+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, out = s.do(t, http.MethodPost, "/v1/auth/refresh", "", `{"refresh_token":"`+refresh+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rotated := out["refresh"].(map[string]any)["token"].(string)

	// the old refresh token was revoked by rotation
	rec, _ = s.do(t, http.MethodPost, "/v1/auth/refresh", "", `{"refresh_token":"`+refresh+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/v1/auth/logout", "", `{"refresh_token":"`+rotated+`"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = s.do(t, http.MethodPost, "/v1/auth/logout", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRoom(t *testing.T) {
	s := newTestServer(t)
	rec, out := s.do(t, http.MethodGet, "/v1/rooms/1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 10000, out["nightly_rate_cents"])

	for _, path := range []string{"/v1/rooms/2", "/v1/rooms/99"} {
		rec, _ = s.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	rec, _ = s.do(t, http.MethodGet, "/v1/rooms/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookStatusCodes(t *testing.T) {
	s := newTestServer(t)
	tok := bearer(t, 5)

	rec, out := s.do(t, http.MethodPost, "/v1/rooms/1/reservations", tok,
		`{"check_in":"2024-06-10","check_out":"2024-06-12","guests":2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 2, out["nights"])
	assert.EqualValues(t, 20000, out["total_cents"])
	assert.Equal(t, "CONFIRMED", out["status"])
	assert.Equal(t, "2024-06-10", out["check_in"])

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"overlap", "/v1/rooms/1/reservations", `{"check_in":"2024-06-11","check_out":"2024-06-13","guests":1}`, http.StatusConflict},
		{"inverted", "/v1/rooms/1/reservations", `{"check_in":"2024-06-20","check_out":"2024-06-18","guests":1}`, http.StatusBadRequest},
		{"missing guests", "/v1/rooms/1/reservations", `{"check_in":"2024-06-20","check_out":"2024-06-22"}`, http.StatusBadRequest},
		{"oversized guests", "/v1/rooms/1/reservations", `{"check_in":"2024-06-20","check_out":"2024-06-22","guests":4294967296}`, http.StatusBadRequest},
		{"inactive room", "/v1/rooms/2/reservations", `{"check_in":"2024-06-20","check_out":"2024-06-22","guests":1}`, http.StatusNotFound},
		{"unknown room", "/v1/rooms/42/reservations", `{"check_in":"2024-06-20","check_out":"2024-06-22","guests":1}`, http.StatusNotFound},
		{"bad json", "/v1/rooms/1/reservations", `{"check_in":`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, _ := s.do(t, http.MethodPost, tc.path, tok, tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}

	rec, _ = s.do(t, http.MethodPost, "/v1/rooms/1/reservations", "", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReservationsAndCancellation(t *testing.T) {
	s := newTestServer(t)
	owner, other := bearer(t, 5), bearer(t, 6)

	rec, out := s.do(t, http.MethodPost, "/v1/rooms/1/reservations", owner,
		`{"check_in":"2024-06-10","check_out":"2024-06-12","guests":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := int(out["id"].(float64))
	path := "/v1/reservations/" + strconv.Itoa(id)

	rec, out = s.do(t, http.MethodGet, "/v1/my-reservations", owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := out["reservations"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "Chambre 101", list[0].(map[string]any)["room_name"])

	rec, _ = s.do(t, http.MethodGet, path, other, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = s.do(t, http.MethodGet, "/v1/reservations/999", owner, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, out = s.do(t, http.MethodGet, path+"/cancel", owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["can_cancel"])

	rec, _ = s.do(t, http.MethodPost, path+"/cancel", other, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, out = s.do(t, http.MethodPost, path+"/cancel", owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELLED", out["reservation"].(map[string]any)["status"])

	rec, _ = s.do(t, http.MethodPost, path+"/cancel", owner, "")
	assert.Equal(t, http.StatusOK, rec.Code, "repeat confirm is idempotent")

	rec, out = s.do(t, http.MethodGet, path+"/cancel", owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, out["can_cancel"])
	assert.Equal(t, "already_cancelled", out["reason"])
}

func TestConfirmCancellationTooClose(t *testing.T) {
	s := newTestServer(t)
	tok := bearer(t, 5)
	// check-in 2024-06-02 is less than 48h after testNow
	rec, out := s.do(t, http.MethodPost, "/v1/rooms/1/reservations", tok,
		`{"check_in":"2024-06-02","check_out":"2024-06-04","guests":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	path := "/v1/reservations/" + strconv.Itoa(int(out["id"].(float64))) + "/cancel"

	rec, out = s.do(t, http.MethodGet, path, tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "too_close_to_check_in", out["reason"])

	rec, _ = s.do(t, http.MethodPost, path, tok, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/v1/reservations/777/cancel", tok, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type brokenRooms struct{}

func (brokenRooms) FindByID(context.Context, uint64) (*model.Room, error) {
	return nil, errors.New("connection refused")
}

func TestStorageFaultIs500(t *testing.T) {
	h := NewRoomHandler(brokenRooms{}, nil)
	e := echo.New()
	e.GET("/v1/rooms/:id", h.GetRoom)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/rooms/1", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestHealth(t *testing.T) {
	e := echo.New()
	e.GET("/ok", NewHealthHandler(nil).Health)
	e.GET("/down", NewHealthHandler(map[string]Pinger{
		"mysql": func(context.Context) error { return errors.New("down") },
	}).Health)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/down", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","dependencies":{"mysql":"down"}}`, rec.Body.String())
}
