// Package session implements the research session lifecycle: a write-through
// in-memory Store over a durable core.RecordStore, and a Manager enforcing
// the pause/resume state machine on top of it.
//
// The Store is the source of truth for current state; every mutation updates
// the cache first and is flushed to durable storage before the call returns.
// Load rehydrates the cache after a process restart, so a paused session can
// resume from the exact checkpoint it was suspended at.
package session
