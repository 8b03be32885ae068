package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/logging"
)

// Store is a write-through in-memory cache over a durable core.RecordStore.
// All mutations run under a store-level lock so a guard check and the
// following write are atomic as a unit; the cache is updated first, then
// flushed to durable storage before the call returns. Returned sessions are
// clones, safe for caller mutation.
type Store struct {
	mu      sync.RWMutex
	backend core.RecordStore
	cache   map[string]*core.ResearchSession
	logger  logging.Logger
}

// NewStore constructs a Store over the given durable backend. A nil logger
// is replaced with a NoOpLogger.
func NewStore(backend core.RecordStore, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Store{
		backend: backend,
		cache:   make(map[string]*core.ResearchSession),
		logger:  logger,
	}
}

// Load rehydrates the cache from durable storage. Records that fail to load
// are logged and skipped so one corrupt file does not block every other
// session from resuming.
func (s *Store) Load() error {
	ids, err := s.backend.ListIDs()
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		session, err := s.backend.Get(id)
		if err != nil {
			s.logger.Warn("skipping unreadable session record", "session_id", id, "error", err)
			continue
		}
		s.cache[id] = session
	}
	return nil
}

// Create inserts a new session or fails with core.ErrDuplicateSession if the
// id is already present.
func (s *Store) Create(session *core.ResearchSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cache[session.ID]; exists {
		return fmt.Errorf("create session %q: %w", session.ID, core.ErrDuplicateSession)
	}
	if err := s.backend.Put(session); err != nil {
		return err
	}
	s.cache[session.ID] = session.Clone()
	return nil
}

// Get returns a clone of the cached session or core.ErrNotFound.
func (s *Store) Get(id string) (*core.ResearchSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.cache[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return session.Clone(), nil
}

// Update applies fn to the session under the store lock, refreshes
// UpdatedAt, persists and returns the updated snapshot. fn runs on a working
// clone: if it returns an error or the persist fails, the cached state is
// left untouched.
func (s *Store) Update(id string, fn func(*core.ResearchSession) error) (*core.ResearchSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.cache[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now().UTC()
	if err := s.backend.Put(next); err != nil {
		return nil, err
	}
	s.cache[id] = next
	return next.Clone(), nil
}

// Delete removes the session from cache and durable storage.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[id]; !ok {
		return core.ErrNotFound
	}
	if err := s.backend.Delete(id); err != nil {
		return fmt.Errorf("delete session %q: %w", id, err)
	}
	delete(s.cache, id)
	return nil
}

// List returns clones of all cached sessions in unspecified order.
func (s *Store) List() []*core.ResearchSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]*core.ResearchSession, 0, len(s.cache))
	for _, session := range s.cache {
		sessions = append(sessions, session.Clone())
	}
	return sessions
}

// Len returns the number of cached sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}
