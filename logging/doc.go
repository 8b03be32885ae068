// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a richer ResearchLogger with contextual
// helpers (component, session) and domain specific logging helpers for
// lifecycle transitions and message traffic.
package logging
