package model

// Room is a bookable unit as supplied by the room catalog.  The booking
// core only reads it: a reservation may be taken only while IsActive is
// true, and the price of a stay is NightlyRateCents times the number of
// nights.
//
// Fields:
//  ID               - primary key identifier.
//  Name             - display name (e.g. "Chambre 101").
//  NightlyRateCents - positive price of one night in cents.
//  IsActive         - whether the room can currently be booked.
type Room struct {
	ID               uint64 // rooms.id
	Name             string // rooms.name
	NightlyRateCents uint32 // rooms.nightly_rate_cents
	IsActive         bool   // rooms.is_active
}
