package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/queue"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
)

var errStorageDown = errors.New("storage down")

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
	err    error
}

func (p *recordingPublisher) PublishReservationEvent(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// faultyStore wraps a real store and lets tests override single calls.
type faultyStore struct {
	*repository.MemoryReservationStore
	createFunc func(ctx context.Context, res *model.Reservation) error
	findFunc   func(ctx context.Context, id uint64) (*model.Reservation, error)
	cancelFunc func(ctx context.Context, id uint64) (*model.Reservation, bool, error)
	listFunc   func(ctx context.Context, userID uint64) ([]model.Reservation, error)
}

func (s *faultyStore) CreateIfNoConflict(ctx context.Context, res *model.Reservation) error {
	if s.createFunc != nil {
		return s.createFunc(ctx, res)
	}
	return s.MemoryReservationStore.CreateIfNoConflict(ctx, res)
}

func (s *faultyStore) FindByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	if s.findFunc != nil {
		return s.findFunc(ctx, id)
	}
	return s.MemoryReservationStore.FindByID(ctx, id)
}

func (s *faultyStore) Cancel(ctx context.Context, id uint64) (*model.Reservation, bool, error) {
	if s.cancelFunc != nil {
		return s.cancelFunc(ctx, id)
	}
	return s.MemoryReservationStore.Cancel(ctx, id)
}

func (s *faultyStore) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, userID)
	}
	return s.MemoryReservationStore.ListByUser(ctx, userID)
}

type failingRooms struct{}

func (failingRooms) FindByID(context.Context, uint64) (*model.Room, error) { return nil, errStorageDown }

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
