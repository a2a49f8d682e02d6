package session

import (
	"sync"
	"time"

	"gateway-console/internal/logger"
)

const (
	AdminRole = "admin"
	UserRole  = "user"
)

// Identity is the operator session record as returned by the backend's
// login endpoint. The zero-value is not meaningful; use Sentinel.
type Identity struct {
	UserID   int    `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Token    string `json:"token"`
	Expires  string `json:"expires"`
}

// Sentinel is the well-known "no session" record.
func Sentinel() Identity {
	return Identity{UserID: -1}
}

// IsSentinel reports whether the record carries no session.
func (id Identity) IsSentinel() bool {
	return id.UserID == -1
}

// Expired reports whether the record's expiry has passed. An absent or
// unparseable expires timestamp counts as already expired.
func (id Identity) Expired(now time.Time) bool {
	t, err := time.Parse(time.RFC3339, id.Expires)
	if err != nil {
		return true
	}
	return !t.After(now)
}

// Store is the single source of truth for "who is logged in". The record
// is replaced wholesale on every write; readers never observe a partial
// identity. One Store exists per process; the login and logout flows are
// its only writers.
type Store struct {
	mu      sync.RWMutex
	current Identity
	storage Storage
}

// NewStore restores the persisted identity, falling back to the sentinel
// when nothing is persisted or the persisted state cannot be decoded.
func NewStore(storage Storage) *Store {
	s := &Store{current: Sentinel(), storage: storage}
	if storage == nil {
		return s
	}
	id, err := storage.Load()
	if err != nil {
		logger.Sugar.Debugw("no persisted session restored", "err", err)
		return s
	}
	s.current = id
	return s
}

// Read returns the current identity. It always succeeds.
func (s *Store) Read() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Write replaces the whole record atomically and persists it.
func (s *Store) Write(id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = id
	if s.storage == nil {
		return nil
	}
	return s.storage.Save(id)
}

// Clear is equivalent to writing the sentinel.
func (s *Store) Clear() error {
	return s.Write(Sentinel())
}

// Role is a projection of the current record's role.
func (s *Store) Role() string {
	return s.Read().Role
}

// Token is a projection of the current record's bearer credential.
func (s *Store) Token() string {
	return s.Read().Token
}

// Valid reports whether a non-sentinel, unexpired session is held.
func (s *Store) Valid(now time.Time) bool {
	id := s.Read()
	return !id.IsSentinel() && !id.Expired(now)
}
