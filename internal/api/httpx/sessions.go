package httpx

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/grocery-storefront/internal/navigation"
)

var ErrSessionNotFound = errors.New("session not found")

// Sessions keeps one navigation controller per shopper in memory. Sessions
// idle for longer than the TTL are dropped on the next Create.
type Sessions struct {
	mu      sync.Mutex
	entries map[string]*session
	factory func() *navigation.Controller
	ttl     time.Duration
	now     func() time.Time
}

type session struct {
	ctrl     *navigation.Controller
	lastSeen time.Time
}

const DefaultSessionTTL = 2 * time.Hour

func NewSessions(factory func() *navigation.Controller, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		entries: map[string]*session{},
		factory: factory,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *Sessions) Create() (string, *navigation.Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()

	id := uuid.NewString()
	ctrl := s.factory()
	s.entries[id] = &session{ctrl: ctrl, lastSeen: s.now()}
	return id, ctrl
}

func (s *Sessions) Get(id string) (*navigation.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastSeen = s.now()
	return e.ctrl, nil
}

func (s *Sessions) Delete(id string) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	e.ctrl.Close()
	return nil
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close abandons the lookups of every session.
func (s *Sessions) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		e.ctrl.Close()
		delete(s.entries, id)
	}
}

func (s *Sessions) evictLocked() {
	cutoff := s.now().Add(-s.ttl)
	for id, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			e.ctrl.Close()
			delete(s.entries, id)
		}
	}
}
