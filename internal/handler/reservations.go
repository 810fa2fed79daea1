package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-room-reservation/internal/interval"
	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
	"github.com/iliyamo/hotel-room-reservation/internal/service"
)

// ReservationHandler serves the guest-facing booking and cancellation
// endpoints.  JWTAuth must run first; the token subject is the requester.
type ReservationHandler struct {
	Booking      *service.BookingService
	Cancellation *service.CancellationService
	Clock        service.Clock
	Log          *zap.Logger
}

func NewReservationHandler(b *service.BookingService, cs *service.CancellationService, clock service.Clock, log *zap.Logger) *ReservationHandler {
	if b == nil || cs == nil {
		panic("nil service passed to NewReservationHandler")
	}
	if clock == nil {
		clock = service.RealClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReservationHandler{Booking: b, Cancellation: cs, Clock: clock, Log: log}
}

type reservationView struct {
	ID          uint64     `json:"id"`
	RoomID      uint64     `json:"room_id"`
	RoomName    string     `json:"room_name,omitempty"`
	CheckIn     string     `json:"check_in"`
	CheckOut    string     `json:"check_out"`
	Guests      uint32     `json:"guests"`
	Status      string     `json:"status"`
	Nights      int        `json:"nights"`
	TotalCents  uint64     `json:"total_cents"`
	CreatedAt   time.Time  `json:"created_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

func viewOf(res model.Reservation) reservationView {
	return reservationView{
		ID:          res.ID,
		RoomID:      res.RoomID,
		CheckIn:     res.CheckIn.Format(interval.DateLayout),
		CheckOut:    res.CheckOut.Format(interval.DateLayout),
		Guests:      res.Guests,
		Status:      string(res.Status),
		Nights:      interval.NightsBetween(res.CheckIn, res.CheckOut),
		CreatedAt:   res.CreatedAt,
		CancelledAt: res.CancelledAt,
	}
}

func stayView(st service.Stay) reservationView {
	v := viewOf(st.Reservation)
	v.RoomName = st.RoomName
	v.Nights = st.Nights
	v.TotalCents = st.TotalCents
	return v
}

// Book handles POST /v1/rooms/:id/reservations.
func (h *ReservationHandler) Book(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var req service.BookRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.RequesterID = userID
	req.RoomID = roomID

	result, err := h.Booking.Book(c.Request().Context(), req)
	if err != nil {
		return internalError(c, h.Log, "booking failed", err)
	}
	switch result.Outcome {
	case service.BookConfirmed:
		v := viewOf(*result.Reservation)
		v.Nights = result.Nights
		v.TotalCents = result.TotalCents
		return c.JSON(http.StatusCreated, v)
	case service.BookValidationFailed:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "details": result.Problems})
	case service.BookInvalidInterval:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "check_out must be after check_in"})
	case service.BookResourceUnavailable:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not available"})
	case service.BookDatesUnavailable:
		return c.JSON(http.StatusConflict, echo.Map{"error": "room already booked for these dates"})
	}
	return internalError(c, h.Log, "booking failed", errors.New("unexpected outcome "+result.Outcome.String()))
}

// ListMine handles GET /v1/my-reservations.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	stays, err := h.Booking.ListMine(c.Request().Context(), userID)
	if err != nil {
		return internalError(c, h.Log, "failed to list reservations", err)
	}
	out := make([]reservationView, 0, len(stays))
	for _, st := range stays {
		out = append(out, stayView(st))
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

// GetReservation handles GET /v1/reservations/:id.
func (h *ReservationHandler) GetReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	st, err := h.Booking.Get(c.Request().Context(), userID, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case err != nil:
		return internalError(c, h.Log, "database error", err)
	}
	return c.JSON(http.StatusOK, stayView(st))
}

// CancellationView handles GET /v1/reservations/:id/cancel: the first step
// of the cancellation flow.  Nothing is modified.
func (h *ReservationHandler) CancellationView(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	view, err := h.Cancellation.RequestCancellation(c.Request().Context(), userID, id, h.Clock.Now())
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case err != nil:
		return internalError(c, h.Log, "database error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reservation": viewOf(*view.Reservation),
		"can_cancel":  view.CanCancel,
		"reason":      string(view.Reason),
	})
}

// ConfirmCancellation handles POST /v1/reservations/:id/cancel.
// Repeating it after success answers 200 again.
func (h *ReservationHandler) ConfirmCancellation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	result, err := h.Cancellation.ConfirmCancellation(c.Request().Context(), userID, id, h.Clock.Now())
	if err != nil {
		return internalError(c, h.Log, "cancellation failed", err)
	}
	switch result.Outcome {
	case service.CancelDone:
		return c.JSON(http.StatusOK, echo.Map{"reservation": viewOf(*result.Reservation)})
	case service.CancelTooClose:
		return c.JSON(http.StatusConflict, echo.Map{"error": "too close to check-in to cancel"})
	case service.CancelForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case service.CancelNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	}
	return internalError(c, h.Log, "cancellation failed", errors.New("unexpected outcome "+result.Outcome.String()))
}
