// Package service holds the reservation core: admission of new bookings,
// the cancellation policy and the cancellation workflow.  Business
// outcomes are returned as result values; a non-nil error always means a
// storage or infrastructure fault that the caller should surface as such.
package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-room-reservation/internal/interval"
	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/queue"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
)

// BookOutcome enumerates the results of a booking attempt.
type BookOutcome int

const (
	BookConfirmed BookOutcome = iota + 1
	BookResourceUnavailable
	BookInvalidInterval
	BookDatesUnavailable
	BookValidationFailed
)

func (o BookOutcome) String() string {
	switch o {
	case BookConfirmed:
		return "confirmed"
	case BookResourceUnavailable:
		return "resource_unavailable"
	case BookInvalidInterval:
		return "invalid_interval"
	case BookDatesUnavailable:
		return "dates_unavailable"
	case BookValidationFailed:
		return "validation_failed"
	}
	return "unknown"
}

// MaxGuests caps the party size of a single reservation.
const MaxGuests = 50

// BookRequest is the input of Book.  Dates use the YYYY-MM-DD layout.
type BookRequest struct {
	RequesterID uint64 `json:"-" validate:"required"`
	RoomID      uint64 `json:"-" validate:"required"`
	CheckIn     string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut    string `json:"check_out" validate:"required,datetime=2006-01-02"`
	Guests      int    `json:"guests" validate:"required,gt=0,lte=50"`
}

// BookResult carries the outcome of Book.  Reservation, Nights and
// TotalCents are set only for BookConfirmed; Problems only for
// BookValidationFailed.
type BookResult struct {
	Outcome     BookOutcome
	Reservation *model.Reservation
	Nights      int
	TotalCents  uint64
	Problems    []string
}

// Stay is a reservation together with its computed price.
type Stay struct {
	Reservation model.Reservation
	RoomName    string
	Nights      int
	TotalCents  uint64
}

// TotalPrice returns nights * nightly rate in cents.
func TotalPrice(nights int, rateCents uint32) uint64 {
	return uint64(nights) * uint64(rateCents)
}

// BookingService admits reservations.  It keeps no reservation state
// between calls; every decision is taken against the store.
type BookingService struct {
	rooms     RoomDirectory
	store     ReservationStore
	publisher EventPublisher
	clock     Clock
	validate  *validator.Validate
	log       *zap.Logger
}

// NewBookingService wires the booking engine.  A nil publisher disables
// event publishing and a nil logger disables logging.
func NewBookingService(rooms RoomDirectory, store ReservationStore, publisher EventPublisher, clock Clock, log *zap.Logger) *BookingService {
	if rooms == nil || store == nil {
		panic("nil dependency passed to NewBookingService")
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if clock == nil {
		clock = RealClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingService{
		rooms:     rooms,
		store:     store,
		publisher: publisher,
		clock:     clock,
		validate:  newValidator(),
		log:       log,
	}
}

// Book validates req, checks the room is bookable and atomically creates a
// confirmed reservation unless the dates overlap an existing one.  Either
// exactly one reservation is created (BookConfirmed) or none is.
func (s *BookingService) Book(ctx context.Context, req BookRequest) (BookResult, error) {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return BookResult{Outcome: BookValidationFailed, Problems: describeValidation(verrs)}, nil
		}
		return BookResult{}, err
	}
	// Both dates passed the datetime validator.
	checkIn, _ := interval.ParseDate(req.CheckIn)
	checkOut, _ := interval.ParseDate(req.CheckOut)

	room, err := s.rooms.FindByID(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return BookResult{Outcome: BookResourceUnavailable}, nil
		}
		return BookResult{}, fmt.Errorf("load room %d: %w", req.RoomID, err)
	}
	if !room.IsActive {
		return BookResult{Outcome: BookResourceUnavailable}, nil
	}

	if !checkOut.After(checkIn) {
		return BookResult{Outcome: BookInvalidInterval}, nil
	}

	res := &model.Reservation{
		UserID:   req.RequesterID,
		RoomID:   room.ID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Guests:   uint32(req.Guests),
		Status:   model.StatusConfirmed,
	}
	if err := s.store.CreateIfNoConflict(ctx, res); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			s.log.Info("booking rejected: dates unavailable",
				zap.Uint64("room_id", room.ID),
				zap.Uint64("user_id", req.RequesterID),
				zap.String("check_in", req.CheckIn),
				zap.String("check_out", req.CheckOut))
			return BookResult{Outcome: BookDatesUnavailable}, nil
		case errors.Is(err, repository.ErrNotFound):
			return BookResult{Outcome: BookResourceUnavailable}, nil
		}
		return BookResult{}, fmt.Errorf("create reservation: %w", err)
	}

	nights := interval.NightsBetween(res.CheckIn, res.CheckOut)
	total := TotalPrice(nights, room.NightlyRateCents)

	s.log.Info("booking confirmed",
		zap.Uint64("reservation_id", res.ID),
		zap.Uint64("room_id", room.ID),
		zap.Uint64("user_id", res.UserID),
		zap.Int("nights", nights),
		zap.Uint64("total_cents", total))
	s.publish(ctx, queue.NewReservationEvent(queue.EventReservationConfirmed, res, room, nights, s.clock.Now()))

	return BookResult{Outcome: BookConfirmed, Reservation: res, Nights: nights, TotalCents: total}, nil
}

// ListMine returns the requester's reservations, latest check-in first,
// each priced with its room's current nightly rate.  A reservation whose
// room no longer exists is reported with a total of zero.
func (s *BookingService) ListMine(ctx context.Context, requesterID uint64) ([]Stay, error) {
	list, err := s.store.ListByUser(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	rooms := make(map[uint64]*model.Room)
	stays := make([]Stay, 0, len(list))
	for _, res := range list {
		room, seen := rooms[res.RoomID]
		if !seen {
			room, err = s.rooms.FindByID(ctx, res.RoomID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("load room %d: %w", res.RoomID, err)
			}
			rooms[res.RoomID] = room
		}
		stays = append(stays, s.price(res, room))
	}
	return stays, nil
}

// Get returns one of the requester's reservations.  It fails with
// repository.ErrNotFound or repository.ErrForbidden.
func (s *BookingService) Get(ctx context.Context, requesterID, reservationID uint64) (Stay, error) {
	res, err := s.store.FindByID(ctx, reservationID)
	if err != nil {
		return Stay{}, err
	}
	if res.UserID != requesterID {
		return Stay{}, repository.ErrForbidden
	}
	room, err := s.rooms.FindByID(ctx, res.RoomID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return Stay{}, fmt.Errorf("load room %d: %w", res.RoomID, err)
	}
	return s.price(*res, room), nil
}

func (s *BookingService) price(res model.Reservation, room *model.Room) Stay {
	st := Stay{Reservation: res, Nights: interval.NightsBetween(res.CheckIn, res.CheckOut)}
	if room != nil {
		st.RoomName = room.Name
		st.TotalCents = TotalPrice(st.Nights, room.NightlyRateCents)
	}
	return st
}

func (s *BookingService) publish(ctx context.Context, ev queue.ReservationEvent) {
	if err := s.publisher.PublishReservationEvent(ctx, ev); err != nil {
		s.log.Warn("publish reservation event failed",
			zap.String("type", string(ev.Type)),
			zap.Uint64("reservation_id", ev.ReservationID),
			zap.Error(err))
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so problems read the same as the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func describeValidation(verrs validator.ValidationErrors) []string {
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out = append(out, fe.Field()+" is required")
		case "datetime":
			out = append(out, fe.Field()+" must be a date formatted YYYY-MM-DD")
		case "gt":
			out = append(out, fe.Field()+" must be greater than "+fe.Param())
		case "lte":
			out = append(out, fe.Field()+" must be at most "+fe.Param())
		default:
			out = append(out, fe.Field()+" is invalid")
		}
	}
	return out
}
