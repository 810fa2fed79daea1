package model

import "time"

// ReservationStatus is the lifecycle state of a reservation.  The only
// transition is CONFIRMED -> CANCELLED; CANCELLED is terminal.
type ReservationStatus string

const (
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusCancelled ReservationStatus = "CANCELLED"
)

// CanTransitionTo reports whether moving from s to next is a legal
// status change.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	return s == StatusConfirmed && next == StatusCancelled
}

// Reservation records a user's claim on a room for the half-open date
// range [CheckIn, CheckOut).  Everything except Status and CancelledAt is
// fixed at creation.  Reservations are never deleted; a cancelled row is
// kept as an audit trail.
//
// Fields:
//  ID          - primary key identifier, assigned on creation.
//  UserID      - requester who made the reservation.
//  RoomID      - room being reserved.
//  CheckIn     - arrival date (UTC midnight).
//  CheckOut    - departure date (UTC midnight), strictly after CheckIn.
//  Guests      - number of guests, positive.
//  Status      - CONFIRMED or CANCELLED.
//  CreatedAt   - creation timestamp.
//  CancelledAt - when the reservation was cancelled (nil while confirmed).
type Reservation struct {
	ID          uint64            // reservations.id
	UserID      uint64            // reservations.user_id
	RoomID      uint64            // reservations.room_id
	CheckIn     time.Time         // reservations.check_in
	CheckOut    time.Time         // reservations.check_out
	Guests      uint32            // reservations.guests
	Status      ReservationStatus // reservations.status
	CreatedAt   time.Time         // reservations.created_at
	CancelledAt *time.Time        // reservations.cancelled_at (nullable)
}
