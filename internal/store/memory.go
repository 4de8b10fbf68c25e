package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/feedhound/marketnews/internal/aggregate"
	"github.com/feedhound/marketnews/internal/interest"
)

// MemoryStore is a mutex-guarded in-memory Store.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]interest.Profile
	sources  map[string][]aggregate.Source
	prefs    map[string]Preference
	tokens   map[string]DeviceToken // keyed by token string
	users    map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]interest.Profile),
		sources:  make(map[string][]aggregate.Source),
		prefs:    make(map[string]Preference),
		tokens:   make(map[string]DeviceToken),
		users:    make(map[string]struct{}),
	}
}

func (s *MemoryStore) Profile(_ context.Context, userID string) (interest.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return interest.Profile{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) SaveProfile(_ context.Context, userID string, p interest.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[userID] = p
	s.users[userID] = struct{}{}
	return nil
}

func (s *MemoryStore) Sources(_ context.Context, userID string) ([]aggregate.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src, ok := s.sources[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]aggregate.Source, len(src))
	copy(out, src)
	return out, nil
}

func (s *MemoryStore) SaveSources(_ context.Context, userID string, sources []aggregate.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]aggregate.Source, len(sources))
	copy(cp, sources)
	s.sources[userID] = cp
	s.users[userID] = struct{}{}
	return nil
}

func (s *MemoryStore) Preferences(_ context.Context, userID string) (Preference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prefs[userID]
	if !ok {
		return Preference{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) SavePreferences(_ context.Context, p Preference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs[p.UserID] = p
	s.users[p.UserID] = struct{}{}
	return nil
}

func (s *MemoryStore) Tokens(_ context.Context, userID string) ([]DeviceToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []DeviceToken
	for _, t := range s.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

// UpsertToken registers a token or reactivates an existing one.
func (s *MemoryStore) UpsertToken(_ context.Context, t DeviceToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.tokens[t.Token]; ok {
		existing.Active = true
		existing.DeviceType = t.DeviceType
		existing.UserID = t.UserID
		existing.LastUsed = time.Now()
		s.tokens[t.Token] = existing
		return nil
	}

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.Active = true
	t.LastUsed = time.Now()
	s.tokens[t.Token] = t
	s.users[t.UserID] = struct{}{}
	return nil
}

func (s *MemoryStore) DeactivateToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[token]
	if !ok {
		return ErrNotFound
	}
	t.Active = false
	s.tokens[token] = t
	return nil
}

func (s *MemoryStore) TouchToken(_ context.Context, token string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[token]
	if !ok {
		return ErrNotFound
	}
	t.LastUsed = at
	s.tokens[token] = t
	return nil
}

func (s *MemoryStore) Users(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.users))
	for u := range s.users {
		out = append(out, u)
	}
	return out, nil
}
