// Package storage houses concrete implementations of the core.RecordStore
// and core.CheckpointStore contracts. The interfaces themselves live in the
// core package to centralize domain contracts; keeping only implementations
// here prevents higher level packages (session manager, façade) from
// depending on concrete persistence.
//
// FileStore is the production backend: one JSON document and one optional
// checkpoint blob per session id, written atomically via rename. InMemoryStore
// backs tests and ephemeral demos. Additional backends (object storage,
// database) can be added in sub-packages without changing any calling code.
package storage
