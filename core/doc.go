// Package core provides the foundational domain types, interfaces and error
// taxonomy used by ResearchMesh. It defines the core abstractions for:
//
//   - Sessions (persisted state of one long-running research job)
//   - Messages (immutable units of agent-to-agent communication)
//   - Pluggable stores for session records and checkpoint blobs
//
// The package intentionally keeps implementation concerns (file persistence,
// queueing, lifecycle orchestration) out of scope, exposing small interfaces
// so higher level packages can swap backends without changing calling code.
package core
