package core

// RecordStore is the durable persistence contract for session records, one
// record per session id. Implementations must make each Put atomic with
// respect to its id: a reader never observes a half-written record, and a
// crash immediately after a successful Put leaves the store consistent.
type RecordStore interface {
	// Put durably stores the session keyed by its id, overwriting any prior value.
	Put(session *ResearchSession) error
	// Get returns the stored session or ErrNotFound.
	Get(id string) (*ResearchSession, error)
	// Delete removes the record or returns ErrNotFound.
	Delete(id string) error
	// ListIDs enumerates all currently stored session ids.
	ListIDs() ([]string, error)
}

// CheckpointStore persists one opaque blob per session id, separately keyed
// from the structured record. The blob's structure is owned entirely by the
// external collaborator; write and read are whole-blob replace and fetch.
type CheckpointStore interface {
	// SaveCheckpoint stores (or overwrites) the blob for the session id.
	SaveCheckpoint(id string, blob []byte) error
	// LoadCheckpoint returns the stored blob or ErrNotFound.
	LoadCheckpoint(id string) ([]byte, error)
	// DeleteCheckpoint removes the blob. Missing blobs are not an error;
	// a session may never have checkpointed.
	DeleteCheckpoint(id string) error
}
