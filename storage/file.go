package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hupe1980/researchmesh/core"
)

const (
	recordSuffix     = ".json"
	checkpointSuffix = ".checkpoint"
)

// FileStore persists session records and checkpoint blobs on the local
// filesystem, one `<id>.json` document and one optional `<id>.checkpoint`
// blob per session. Writes go to a temporary file in the same directory and
// are renamed into place, so a reader never observes a half-written record
// and a crash mid-write leaves the prior value intact.
//
// The store assumes a single writer process; cross-process file locking is a
// deployment concern, not handled here.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

var (
	_ core.RecordStore     = (*FileStore)(nil)
	_ core.CheckpointStore = (*FileStore)(nil)
)

// NewFileStore creates the storage directory if needed and returns a store
// rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %q: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the storage directory root.
func (f *FileStore) Dir() string { return f.dir }

// Put durably stores the session record, overwriting any prior value.
func (f *FileStore) Put(session *core.ResearchSession) error {
	data, err := session.MarshalRecord()
	if err != nil {
		return fmt.Errorf("encode session %q: %w", session.ID, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.writeAtomic(session.ID+recordSuffix, data); err != nil {
		return fmt.Errorf("put session %q: %w", session.ID, err)
	}
	return nil
}

// Get returns the stored session or core.ErrNotFound.
func (f *FileStore) Get(id string) (*core.ResearchSession, error) {
	data, err := os.ReadFile(f.path(id + recordSuffix))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get session %q: %w", id, err)
	}
	session, err := core.UnmarshalRecord(data)
	if err != nil {
		return nil, fmt.Errorf("decode session %q: %w", id, err)
	}
	return session, nil
}

// Delete removes the session record and any checkpoint blob. Returns
// core.ErrNotFound if no record exists.
func (f *FileStore) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path(id + recordSuffix)); err != nil {
		if os.IsNotExist(err) {
			return core.ErrNotFound
		}
		return fmt.Errorf("delete session %q: %w", id, err)
	}
	// Checkpoint is best effort; the session may never have checkpointed.
	_ = os.Remove(f.path(id + checkpointSuffix))
	return nil
}

// ListIDs enumerates the ids of all stored session records.
func (f *FileStore) ListIDs() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, recordSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, recordSuffix))
	}
	return ids, nil
}

// SaveCheckpoint stores (or overwrites) the opaque blob for the session id.
func (f *FileStore) SaveCheckpoint(id string, blob []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.writeAtomic(id+checkpointSuffix, blob); err != nil {
		return fmt.Errorf("save checkpoint %q: %w", id, err)
	}
	return nil
}

// LoadCheckpoint returns the stored blob or core.ErrNotFound.
func (f *FileStore) LoadCheckpoint(id string) ([]byte, error) {
	data, err := os.ReadFile(f.path(id + checkpointSuffix))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("load checkpoint %q: %w", id, err)
	}
	return data, nil
}

// DeleteCheckpoint removes the blob if present.
func (f *FileStore) DeleteCheckpoint(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path(id + checkpointSuffix)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete checkpoint %q: %w", id, err)
	}
	return nil
}

func (f *FileStore) path(name string) string {
	return filepath.Join(f.dir, name)
}

// writeAtomic writes data to a temp file in the store directory and renames
// it over the target. Caller must hold the mutex.
func (f *FileStore) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, f.path(name)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
