package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/hotel-room-reservation/internal/interval"
	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/queue"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
)

// CancellationView is what a requester sees before confirming a
// cancellation: the reservation and whether the policy allows it now.
type CancellationView struct {
	Reservation *model.Reservation
	CanCancel   bool
	Reason      DenialReason
}

// CancelOutcome enumerates the results of ConfirmCancellation.
type CancelOutcome int

const (
	CancelDone CancelOutcome = iota + 1
	CancelTooClose
	CancelForbidden
	CancelNotFound
)

func (o CancelOutcome) String() string {
	switch o {
	case CancelDone:
		return "cancelled"
	case CancelTooClose:
		return "still_too_close"
	case CancelForbidden:
		return "forbidden"
	case CancelNotFound:
		return "not_found"
	}
	return "unknown"
}

// CancelResult carries the outcome of ConfirmCancellation.  Reservation is
// nil for CancelForbidden and CancelNotFound so nothing about another
// user's booking leaks.
type CancelResult struct {
	Outcome     CancelOutcome
	Reservation *model.Reservation
}

// CancellationService runs the owner-initiated cancellation flow.
type CancellationService struct {
	store     ReservationStore
	rooms     RoomDirectory
	policy    CancellationPolicy
	publisher EventPublisher
	log       *zap.Logger
}

// NewCancellationService wires the cancellation engine.  rooms is only used
// to enrich published events and may be nil.
func NewCancellationService(store ReservationStore, rooms RoomDirectory, policy CancellationPolicy, publisher EventPublisher, log *zap.Logger) *CancellationService {
	if store == nil {
		panic("nil store passed to NewCancellationService")
	}
	if policy.Window <= 0 {
		policy = NewCancellationPolicy(DefaultCancellationWindow)
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CancellationService{store: store, rooms: rooms, policy: policy, publisher: publisher, log: log}
}

// load fetches the reservation and checks ownership.
func (s *CancellationService) load(ctx context.Context, requesterID, reservationID uint64) (*model.Reservation, error) {
	res, err := s.store.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != requesterID {
		return nil, repository.ErrForbidden
	}
	return res, nil
}

// RequestCancellation returns the cancellation view for the requester's
// reservation.  It fails with repository.ErrNotFound or
// repository.ErrForbidden; nothing is modified.
func (s *CancellationService) RequestCancellation(ctx context.Context, requesterID, reservationID uint64, now time.Time) (CancellationView, error) {
	res, err := s.load(ctx, requesterID, reservationID)
	if err != nil {
		return CancellationView{}, err
	}
	ok, reason := s.policy.Evaluate(res, now)
	return CancellationView{Reservation: res, CanCancel: ok, Reason: reason}, nil
}

// ConfirmCancellation cancels the requester's reservation when the policy
// allows it at now.  Confirming an already cancelled reservation reports
// CancelDone again without touching it.  Only storage faults are returned
// as errors.
func (s *CancellationService) ConfirmCancellation(ctx context.Context, requesterID, reservationID uint64, now time.Time) (CancelResult, error) {
	res, err := s.load(ctx, requesterID, reservationID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return CancelResult{Outcome: CancelNotFound}, nil
	case errors.Is(err, repository.ErrForbidden):
		s.log.Info("cancellation forbidden",
			zap.Uint64("reservation_id", reservationID),
			zap.Uint64("user_id", requesterID))
		return CancelResult{Outcome: CancelForbidden}, nil
	case err != nil:
		return CancelResult{}, fmt.Errorf("load reservation %d: %w", reservationID, err)
	}

	if res.Status == model.StatusCancelled {
		return CancelResult{Outcome: CancelDone, Reservation: res}, nil
	}
	if ok, reason := s.policy.Evaluate(res, now); !ok {
		s.log.Info("cancellation denied",
			zap.Uint64("reservation_id", res.ID),
			zap.String("reason", string(reason)))
		return CancelResult{Outcome: CancelTooClose, Reservation: res}, nil
	}

	cancelled, changed, err := s.store.Cancel(ctx, res.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return CancelResult{Outcome: CancelNotFound}, nil
		}
		return CancelResult{}, fmt.Errorf("cancel reservation %d: %w", res.ID, err)
	}
	if !changed {
		// A concurrent confirm got there first and owns the event.
		return CancelResult{Outcome: CancelDone, Reservation: cancelled}, nil
	}

	s.log.Info("reservation cancelled",
		zap.Uint64("reservation_id", cancelled.ID),
		zap.Uint64("room_id", cancelled.RoomID),
		zap.Uint64("user_id", cancelled.UserID))
	s.publishCancelled(ctx, cancelled, now)
	return CancelResult{Outcome: CancelDone, Reservation: cancelled}, nil
}

func (s *CancellationService) publishCancelled(ctx context.Context, res *model.Reservation, now time.Time) {
	var room *model.Room
	if s.rooms != nil {
		if r, err := s.rooms.FindByID(ctx, res.RoomID); err == nil {
			room = r
		}
	}
	nights := interval.NightsBetween(res.CheckIn, res.CheckOut)
	ev := queue.NewReservationEvent(queue.EventReservationCancelled, res, room, nights, now)
	if err := s.publisher.PublishReservationEvent(ctx, ev); err != nil {
		s.log.Warn("publish reservation event failed",
			zap.String("type", string(ev.Type)),
			zap.Uint64("reservation_id", ev.ReservationID),
			zap.Error(err))
	}
}
