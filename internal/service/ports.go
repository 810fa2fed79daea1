package service

import (
	"context"
	"time"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/queue"
)

// RoomDirectory looks rooms up by ID.  Missing rooms are reported with
// repository.ErrNotFound.
type RoomDirectory interface {
	FindByID(ctx context.Context, id uint64) (*model.Room, error)
}

// ReservationStore owns the durable reservation records.  Only
// CreateIfNoConflict and Cancel mutate state, and both are atomic.  Cancel
// reports whether the call itself moved the reservation to CANCELLED.
type ReservationStore interface {
	FindConflict(ctx context.Context, roomID uint64, checkIn, checkOut time.Time) (*model.Reservation, error)
	CreateIfNoConflict(ctx context.Context, res *model.Reservation) error
	FindByID(ctx context.Context, id uint64) (*model.Reservation, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
	Cancel(ctx context.Context, id uint64) (*model.Reservation, bool, error)
}

// EventPublisher forwards reservation lifecycle events to the broker.
type EventPublisher interface {
	PublishReservationEvent(ctx context.Context, ev queue.ReservationEvent) error
}

// NopPublisher discards events.  It is used when messaging is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishReservationEvent(context.Context, queue.ReservationEvent) error { return nil }
