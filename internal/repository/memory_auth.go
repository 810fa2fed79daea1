package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/utils"
)

// MemoryUserStore mirrors UserRepo for the memory backend.
type MemoryUserStore struct {
	mu      sync.RWMutex
	nextID  uint64
	byID    map[uint64]model.User
	byEmail map[string]uint64
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{byID: map[uint64]model.User{}, byEmail: map[string]uint64{}}
}

// Create stores a new active user and returns its ID.
func (s *MemoryUserStore) Create(ctx context.Context, email, username, password, role string, cost int) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[email]; taken {
		return 0, ErrEmailExists
	}
	s.nextID++
	now := time.Now().UTC()
	s.byID[s.nextID] = model.User{
		ID: s.nextID, Email: email, Username: strings.TrimSpace(username),
		PasswordHash: hash, Role: role, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	s.byEmail[email] = s.nextID
	return s.nextID, nil
}

func (s *MemoryUserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	s.mu.RLock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	s.mu.RUnlock()
	if !ok {
		return model.User{}, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *MemoryUserStore) GetByID(ctx context.Context, id uint64) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

// MemoryTokenStore mirrors TokenRepo for the memory backend.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*model.RefreshToken
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: map[string]*model.RefreshToken{}}
}

func (s *MemoryTokenStore) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenHash] = &model.RefreshToken{
		UserID: userID, TokenHash: tokenHash, ExpiresAt: exp.UTC(), CreatedAt: time.Now().UTC(),
	}
	return nil
}

// ValidateRefresh yields ErrNotFound for unknown, revoked and expired tokens.
func (s *MemoryTokenStore) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenHash]
	if !ok || t.RevokedAt != nil || time.Now().UTC().After(t.ExpiresAt) {
		return 0, ErrNotFound
	}
	return t.UserID, nil
}

func (s *MemoryTokenStore) RevokeByHash(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokens[tokenHash]; ok && t.RevokedAt == nil {
		now := time.Now().UTC()
		t.RevokedAt = &now
	}
	return nil
}

func (s *MemoryTokenStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, t := range s.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}
