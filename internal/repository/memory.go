package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/hotel-room-reservation/internal/interval"
	"github.com/iliyamo/hotel-room-reservation/internal/model"
)

// MemoryRoomDirectory is an in-process room catalog used by the memory
// store backend and by tests.
type MemoryRoomDirectory struct {
	mu    sync.RWMutex
	rooms map[uint64]model.Room
}

// NewMemoryRoomDirectory returns a directory pre-populated with rooms.
func NewMemoryRoomDirectory(rooms ...model.Room) *MemoryRoomDirectory {
	d := &MemoryRoomDirectory{rooms: make(map[uint64]model.Room, len(rooms))}
	for _, r := range rooms {
		d.rooms[r.ID] = r
	}
	return d
}

// Put adds or replaces a room.
func (d *MemoryRoomDirectory) Put(room model.Room) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rooms[room.ID] = room
}

// FindByID returns a copy of the room or ErrNotFound.
func (d *MemoryRoomDirectory) FindByID(ctx context.Context, id uint64) (*model.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &room, nil
}

// MemoryReservationStore keeps reservations in process memory.  Admission
// is serialised per room: CreateIfNoConflict holds the room's mutex across
// the overlap check and the insert, so bookings for different rooms never
// wait on each other.
type MemoryReservationStore struct {
	roomLocks sync.Map // room id -> *sync.Mutex

	mu     sync.RWMutex
	nextID uint64
	byID   map[uint64]*model.Reservation
	byRoom map[uint64][]*model.Reservation
	now    func() time.Time
}

// NewMemoryReservationStore returns an empty store.
func NewMemoryReservationStore() *MemoryReservationStore {
	return &MemoryReservationStore{
		byID:   make(map[uint64]*model.Reservation),
		byRoom: make(map[uint64][]*model.Reservation),
		now:    time.Now,
	}
}

func (s *MemoryReservationStore) roomLock(roomID uint64) *sync.Mutex {
	l, _ := s.roomLocks.LoadOrStore(roomID, &sync.Mutex{})
	return l.(*sync.Mutex)
}

func (s *MemoryReservationStore) conflictLocked(roomID uint64, checkIn, checkOut time.Time) *model.Reservation {
	for _, existing := range s.byRoom[roomID] {
		if existing.Status != model.StatusConfirmed {
			continue
		}
		if interval.Overlaps(existing.CheckIn, existing.CheckOut, checkIn, checkOut) {
			return existing
		}
	}
	return nil
}

// FindConflict returns a confirmed reservation overlapping the range or nil.
func (s *MemoryReservationStore) FindConflict(ctx context.Context, roomID uint64, checkIn, checkOut time.Time) (*model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c := s.conflictLocked(roomID, interval.Midnight(checkIn), interval.Midnight(checkOut)); c != nil {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

// CreateIfNoConflict stores res as confirmed unless its dates overlap a
// confirmed reservation of the same room, in which case ErrConflict is
// returned and nothing is stored.
func (s *MemoryReservationStore) CreateIfNoConflict(ctx context.Context, res *model.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lock := s.roomLock(res.RoomID)
	lock.Lock()
	defer lock.Unlock()

	checkIn, checkOut := interval.Midnight(res.CheckIn), interval.Midnight(res.CheckOut)

	s.mu.RLock()
	conflict := s.conflictLocked(res.RoomID, checkIn, checkOut)
	s.mu.RUnlock()
	if conflict != nil {
		return ErrConflict
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	stored := &model.Reservation{
		ID:        s.nextID,
		UserID:    res.UserID,
		RoomID:    res.RoomID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Guests:    res.Guests,
		Status:    model.StatusConfirmed,
		CreatedAt: s.now().UTC(),
	}
	s.byID[stored.ID] = stored
	s.byRoom[stored.RoomID] = append(s.byRoom[stored.RoomID], stored)
	*res = *stored
	return nil
}

// FindByID returns a copy of the reservation or ErrNotFound.
func (s *MemoryReservationStore) FindByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *res
	return &cp, nil
}

// ListByUser returns the user's reservations, latest check-in first.
func (s *MemoryReservationStore) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]model.Reservation, 0)
	for _, res := range s.byID {
		if res.UserID == userID {
			out = append(out, *res)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CheckIn.Equal(out[j].CheckIn) {
			return out[i].CheckIn.After(out[j].CheckIn)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Cancel transitions a confirmed reservation to CANCELLED.  Cancelling an
// already cancelled reservation returns it unchanged with changed false.
func (s *MemoryReservationStore) Cancel(ctx context.Context, id uint64) (*model.Reservation, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.byID[id]
	if !ok {
		return nil, false, ErrNotFound
	}
	changed := res.Status.CanTransitionTo(model.StatusCancelled)
	if changed {
		now := s.now().UTC()
		res.Status = model.StatusCancelled
		res.CancelledAt = &now
	}
	if res.Status != model.StatusCancelled {
		return nil, false, ErrStaleState
	}
	cp := *res
	return &cp, changed, nil
}
