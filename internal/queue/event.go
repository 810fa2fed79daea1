// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/hotel-room-reservation/internal/interval"
	"github.com/iliyamo/hotel-room-reservation/internal/model"
)

// EventType names a reservation lifecycle event.  It doubles as the
// routing key and queue name on the broker.
type EventType string

const (
	EventReservationConfirmed EventType = "reservation.confirmed"
	EventReservationCancelled EventType = "reservation.cancelled"
)

// ReservationEvent is published when a reservation is confirmed or
// cancelled.  It contains enough information for downstream consumers to
// log, notify, or trigger analytics without querying the primary database.
type ReservationEvent struct {
	EventID          string    `json:"event_id"`
	Type             EventType `json:"type"`
	ReservationID    uint64    `json:"reservation_id"`
	UserID           uint64    `json:"user_id"`
	RoomID           uint64    `json:"room_id"`
	RoomName         string    `json:"room_name"`
	CheckIn          string    `json:"check_in"`
	CheckOut         string    `json:"check_out"`
	Guests           uint32    `json:"guests"`
	Nights           int       `json:"nights"`
	TotalAmountCents uint64    `json:"total_amount_cents"`
	OccurredAt       string    `json:"occurred_at"`
}

// NewReservationEvent builds an event for res.  room may be nil when the
// room could not be loaded; the name and total are then left empty.
func NewReservationEvent(t EventType, res *model.Reservation, room *model.Room, nights int, at time.Time) ReservationEvent {
	ev := ReservationEvent{
		EventID:       uuid.NewString(),
		Type:          t,
		ReservationID: res.ID,
		UserID:        res.UserID,
		RoomID:        res.RoomID,
		CheckIn:       res.CheckIn.Format(interval.DateLayout),
		CheckOut:      res.CheckOut.Format(interval.DateLayout),
		Guests:        res.Guests,
		Nights:        nights,
		OccurredAt:    at.UTC().Format(time.RFC3339),
	}
	if room != nil {
		ev.RoomName = room.Name
		ev.TotalAmountCents = uint64(nights) * uint64(room.NightlyRateCents)
	}
	return ev
}
