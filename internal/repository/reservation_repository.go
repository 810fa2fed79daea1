package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/hotel-room-reservation/internal/interval"
	"github.com/iliyamo/hotel-room-reservation/internal/model"
)

// ReservationRepo persists reservations in MySQL.  Dates are stored in DATE
// columns and scanned back as UTC midnight (the DSN uses parseTime=true and
// loc=UTC).  Rows are never deleted; cancellation only flips the status.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, user_id, room_id, check_in, check_out, guests, status, created_at, cancelled_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var (
		res         model.Reservation
		status      string
		cancelledAt sql.NullTime
	)
	if err := row.Scan(
		&res.ID, &res.UserID, &res.RoomID, &res.CheckIn, &res.CheckOut,
		&res.Guests, &status, &res.CreatedAt, &cancelledAt,
	); err != nil {
		return nil, err
	}
	res.Status = model.ReservationStatus(status)
	res.CheckIn = interval.Midnight(res.CheckIn)
	res.CheckOut = interval.Midnight(res.CheckOut)
	if cancelledAt.Valid {
		t := cancelledAt.Time.UTC()
		res.CancelledAt = &t
	}
	return &res, nil
}

func sqlDate(t time.Time) string { return interval.Midnight(t).Format(interval.DateLayout) }

// FindConflict returns a confirmed reservation on roomID whose dates overlap
// [checkIn, checkOut), or nil when the range is free.  It is a read-only
// check; admission must go through CreateIfNoConflict.
func (r *ReservationRepo) FindConflict(ctx context.Context, roomID uint64, checkIn, checkOut time.Time) (*model.Reservation, error) {
	return findConflict(ctx, r.db, roomID, checkIn, checkOut, false)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func findConflict(ctx context.Context, q querier, roomID uint64, checkIn, checkOut time.Time, lock bool) (*model.Reservation, error) {
	// Half-open overlap: existing.check_in < checkOut AND checkIn < existing.check_out
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE room_id = ? AND status = ? AND check_in < ? AND check_out > ?
		ORDER BY check_in
		LIMIT 1`
	if lock {
		query += ` FOR UPDATE`
	}
	res, err := scanReservation(q.QueryRowContext(ctx, query,
		roomID, string(model.StatusConfirmed), sqlDate(checkOut), sqlDate(checkIn)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return res, nil
}

// CreateIfNoConflict inserts res only when no confirmed reservation for the
// same room overlaps its dates.  The room row is locked with SELECT ... FOR
// UPDATE first, so concurrent bookings of one room are serialised for the
// duration of the transaction while other rooms proceed in parallel.  On
// success the generated ID and created_at are written back into res.  It
// returns ErrConflict when the dates are taken and ErrNotFound when the room
// row does not exist.
func (r *ReservationRepo) CreateIfNoConflict(ctx context.Context, res *model.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reservation tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var lockedRoom uint64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM rooms WHERE id = ? FOR UPDATE`, res.RoomID).Scan(&lockedRoom); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock room %d: %w", res.RoomID, err)
	}

	existing, err := findConflict(ctx, tx, res.RoomID, res.CheckIn, res.CheckOut, true)
	if err != nil {
		return fmt.Errorf("check overlap: %w", err)
	}
	if existing != nil {
		return ErrConflict
	}

	const ins = `INSERT INTO reservations (user_id, room_id, check_in, check_out, guests, status)
		VALUES (?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, ins,
		res.UserID, res.RoomID, sqlDate(res.CheckIn), sqlDate(res.CheckOut), res.Guests, string(model.StatusConfirmed))
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	// Query back the full row to populate timestamps and defaults
	stored, err := scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reservation: %w", err)
	}
	committed = true
	*res = *stored
	return nil
}

// FindByID returns the reservation with the given ID or ErrNotFound.
func (r *ReservationRepo) FindByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

// ListByUser returns every reservation made by userID, confirmed and
// cancelled, ordered by check-in date descending (latest stay first).
// When no reservations exist, an empty slice is returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE user_id = ? ORDER BY check_in DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel moves a confirmed reservation to CANCELLED with a single
// conditional UPDATE, so two concurrent cancels cannot both transition it.
// A reservation that is already cancelled is returned unchanged with
// changed false; changed is true only for the call whose UPDATE hit the row.
// ErrNotFound is returned for an unknown ID and ErrStaleState when the row
// vanished between the update and the read-back.
func (r *ReservationRepo) Cancel(ctx context.Context, id uint64) (*model.Reservation, bool, error) {
	const upd = `UPDATE reservations SET status = ?, cancelled_at = UTC_TIMESTAMP()
		WHERE id = ? AND status = ?`
	result, err := r.db.ExecContext(ctx, upd, string(model.StatusCancelled), id, string(model.StatusConfirmed))
	if err != nil {
		return nil, false, fmt.Errorf("cancel reservation %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	changed := affected == 1
	res, err := r.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) && changed {
			return nil, false, ErrStaleState
		}
		return nil, false, err
	}
	if res.Status != model.StatusCancelled {
		return nil, false, ErrStaleState
	}
	return res, changed, nil
}
