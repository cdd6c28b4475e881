package order

import (
	"sync"
	"time"
)

// Store keeps at most one draft per user. Operations on different
// users never interfere; per-user sequencing is provided by the
// transport, which delivers one update per user at a time.
type Store interface {
	Get(userID int64) (*Draft, bool)
	Put(userID int64, d *Draft)
	Remove(userID int64)
	Len() int
	// PurgeIdle removes drafts not touched within ttl and returns how
	// many were dropped. A ttl <= 0 purges nothing.
	PurgeIdle(ttl time.Duration) int
}

// memoryStore guards the whole map with one lock scoped to the store.
// Per-user locks would leak, since the user population is unbounded.
type memoryStore struct {
	mu     sync.RWMutex
	drafts map[int64]*Draft
	now    func() time.Time
}

// NewMemoryStore constructs the in-memory Store used in production.
func NewMemoryStore() Store {
	return &memoryStore{
		drafts: make(map[int64]*Draft),
		now:    time.Now,
	}
}

// Get returns the draft for a user if one exists.
func (s *memoryStore) Get(userID int64) (*Draft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[userID]
	return d, ok
}

// Put creates or overwrites the draft for a user.
func (s *memoryStore) Put(userID int64, d *Draft) {
	if d == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[userID] = d
}

// Remove deletes the draft for a user.
func (s *memoryStore) Remove(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, userID)
}

// Len reports the number of active drafts.
func (s *memoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts)
}

// PurgeIdle drops drafts whose last mutation is older than ttl.
func (s *memoryStore) PurgeIdle(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, d := range s.drafts {
		if d.UpdatedAt.Before(cutoff) {
			delete(s.drafts, id)
			purged++
		}
	}
	return purged
}
