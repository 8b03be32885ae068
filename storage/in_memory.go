package storage

import (
	"sync"

	"github.com/hupe1980/researchmesh/core"
)

// InMemoryStore is a volatile RecordStore / CheckpointStore implementation
// keeping everything in process-local maps. It is safe for concurrent access
// and best suited for tests or ephemeral demo runs. Sessions are cloned and
// blobs copied on save and retrieval to prevent external mutation of
// internal state.
type InMemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*core.ResearchSession
	checkpoints map[string][]byte
}

var (
	_ core.RecordStore     = (*InMemoryStore)(nil)
	_ core.CheckpointStore = (*InMemoryStore)(nil)
)

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions:    make(map[string]*core.ResearchSession),
		checkpoints: make(map[string][]byte),
	}
}

// Put stores a clone of the provided session snapshot.
func (s *InMemoryStore) Put(session *core.ResearchSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session.Clone()
	return nil
}

// Get returns a clone of the stored session or core.ErrNotFound.
func (s *InMemoryStore) Get(id string) (*core.ResearchSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return session.Clone(), nil
}

// Delete removes the session and its checkpoint or returns core.ErrNotFound.
func (s *InMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.sessions, id)
	delete(s.checkpoints, id)
	return nil
}

// ListIDs returns a snapshot of all stored session ids.
func (s *InMemoryStore) ListIDs() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

// SaveCheckpoint stores a copy of the blob for the session id.
func (s *InMemoryStore) SaveCheckpoint(id string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(blob))
	copy(cp, blob)
	s.checkpoints[id] = cp
	return nil
}

// LoadCheckpoint returns a copy of the stored blob or core.ErrNotFound.
func (s *InMemoryStore) LoadCheckpoint(id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.checkpoints[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	return cp, nil
}

// DeleteCheckpoint removes the blob if present.
func (s *InMemoryStore) DeleteCheckpoint(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, id)
	return nil
}
