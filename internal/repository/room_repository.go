package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
)

// RoomRepo is the read-only view of the room catalog used by the booking
// core.  Catalog management (creating rooms, toggling is_active) happens
// outside of this service.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// FindByID returns the room with the given ID or ErrNotFound.  Inactive
// rooms are returned as-is; callers decide whether they are bookable.
func (r *RoomRepo) FindByID(ctx context.Context, id uint64) (*model.Room, error) {
	const q = `SELECT id, name, nightly_rate_cents, is_active FROM rooms WHERE id = ?`
	var room model.Room
	err := r.db.QueryRowContext(ctx, q, id).Scan(&room.ID, &room.Name, &room.NightlyRateCents, &room.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}
