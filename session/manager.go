package session

import (
	"fmt"
	"sort"

	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/logging"
)

// ProgressUpdate carries a partial progress mutation. Nil fields are left
// untouched so background workers can report only what changed.
type ProgressUpdate struct {
	Stage             *string
	PapersFound       *int
	PapersAnalyzed    *int
	CurrentPaperIndex *int
}

// Results carries the opaque result payloads produced by external
// collaborators. Nil fields are left untouched.
type Results struct {
	SearchResults    map[string]any
	AnalyzedPapers   []map[string]any
	DrugInteractions map[string]any
	SynthesisResults map[string]any
	Report           *string
}

// Statistics aggregates session counts across the store.
type Statistics struct {
	TotalSessions       int                 `json:"total_sessions"`
	ByStatus            map[core.Status]int `json:"by_status"`
	TotalPapersAnalyzed int                 `json:"total_papers_analyzed"`
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// Logger receives lifecycle transition logs. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Manager governs research session lifecycle transitions. It is the single
// mutation path for sessions: create, pause, resume, complete, fail,
// progress updates and deletion. Guard violations are reported as explicit
// InvalidTransitionError values carrying the session's actual status; they
// are expected, recoverable conditions, never panics.
//
// Transition graph: running ⇄ paused; running/paused → completed | failed;
// completed and failed are terminal.
type Manager struct {
	store       *Store
	checkpoints core.CheckpointStore
	logger      logging.Logger
}

// NewManager constructs a Manager over the given durable stores and
// rehydrates previously persisted sessions so they survive restarts.
func NewManager(records core.RecordStore, checkpoints core.CheckpointStore, optFns ...func(o *ManagerOptions)) (*Manager, error) {
	opts := ManagerOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	store := NewStore(records, opts.Logger)
	if err := store.Load(); err != nil {
		return nil, err
	}

	return &Manager{store: store, checkpoints: checkpoints, logger: opts.Logger}, nil
}

// Create builds a new running session in its initializing stage, persists it
// and returns a snapshot. Fails with core.ErrDuplicateSession if the id is
// already in use.
func (m *Manager) Create(id, query string, config map[string]any) (*core.ResearchSession, error) {
	session := core.NewResearchSession(id, query, config)
	if err := m.store.Create(session); err != nil {
		return nil, err
	}
	m.logger.Info("session created", "session_id", id, "query", query)
	return session.Clone(), nil
}

// Get returns a snapshot of the session or core.ErrNotFound. Never mutates.
func (m *Manager) Get(id string) (*core.ResearchSession, error) {
	return m.store.Get(id)
}

// UpdateProgress applies a partial progress update and persists the result.
// Unknown ids are reported as core.ErrNotFound rather than silently ignored;
// fire-and-forget callers can discard the error.
func (m *Manager) UpdateProgress(id string, update ProgressUpdate) error {
	_, err := m.store.Update(id, func(s *core.ResearchSession) error {
		if update.Stage != nil {
			s.Stage = *update.Stage
		}
		if update.PapersFound != nil {
			s.PapersFound = *update.PapersFound
		}
		if update.PapersAnalyzed != nil {
			s.PapersAnalyzed = *update.PapersAnalyzed
		}
		if update.CurrentPaperIndex != nil {
			s.CurrentPaperIndex = *update.CurrentPaperIndex
		}
		return nil
	})
	return err
}

// SetResults stores opaque result payloads on the session. The core never
// interprets them.
func (m *Manager) SetResults(id string, results Results) error {
	_, err := m.store.Update(id, func(s *core.ResearchSession) error {
		if results.SearchResults != nil {
			s.SearchResults = results.SearchResults
		}
		if results.AnalyzedPapers != nil {
			s.AnalyzedPapers = results.AnalyzedPapers
		}
		if results.DrugInteractions != nil {
			s.DrugInteractions = results.DrugInteractions
		}
		if results.SynthesisResults != nil {
			s.SynthesisResults = results.SynthesisResults
		}
		if results.Report != nil {
			s.Report = *results.Report
		}
		return nil
	})
	return err
}

// Pause suspends a running session. Only running sessions can pause; any
// other status yields an InvalidTransitionError carrying the actual status.
func (m *Manager) Pause(id string) error {
	_, err := m.store.Update(id, func(s *core.ResearchSession) error {
		if s.Status != core.StatusRunning {
			return &core.InvalidTransitionError{SessionID: id, Event: "pause", Current: s.Status}
		}
		s.Status = core.StatusPaused
		return nil
	})
	if err != nil {
		return err
	}
	m.logger.Info("session paused", "session_id", id)
	return nil
}

// Resume reactivates a paused session and returns its snapshot so the caller
// can pick up from the recorded stage and progress counters.
func (m *Manager) Resume(id string) (*core.ResearchSession, error) {
	session, err := m.store.Update(id, func(s *core.ResearchSession) error {
		if s.Status != core.StatusPaused {
			return &core.InvalidTransitionError{SessionID: id, Event: "resume", Current: s.Status}
		}
		s.Status = core.StatusRunning
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("session resumed", "session_id", id, "stage", session.Stage)
	return session, nil
}

// Complete marks a session as finished. Allowed from any non-terminal status.
func (m *Manager) Complete(id string) error {
	_, err := m.store.Update(id, func(s *core.ResearchSession) error {
		if s.Status.Terminal() {
			return &core.InvalidTransitionError{SessionID: id, Event: "complete", Current: s.Status}
		}
		s.Status = core.StatusCompleted
		s.Stage = "completed"
		return nil
	})
	if err != nil {
		return err
	}
	m.logger.Info("session completed", "session_id", id)
	return nil
}

// Fail marks a session as failed, recording the error message in the stage.
// Allowed from any non-terminal status.
func (m *Manager) Fail(id, errorMessage string) error {
	_, err := m.store.Update(id, func(s *core.ResearchSession) error {
		if s.Status.Terminal() {
			return &core.InvalidTransitionError{SessionID: id, Event: "fail", Current: s.Status}
		}
		s.Status = core.StatusFailed
		s.Stage = "failed: " + errorMessage
		return nil
	})
	if err != nil {
		return err
	}
	m.logger.Warn("session failed", "session_id", id, "error", errorMessage)
	return nil
}

// Delete removes the session and its checkpoint from memory and durable
// storage. Fails with core.ErrNotFound if absent.
func (m *Manager) Delete(id string) error {
	if err := m.store.Delete(id); err != nil {
		return err
	}
	if m.checkpoints != nil {
		if err := m.checkpoints.DeleteCheckpoint(id); err != nil {
			return fmt.Errorf("delete checkpoint %q: %w", id, err)
		}
	}
	m.logger.Info("session deleted", "session_id", id)
	return nil
}

// List returns all sessions ordered by UpdatedAt descending. An empty status
// returns every session; otherwise only sessions in that status.
func (m *Manager) List(status core.Status) []*core.ResearchSession {
	sessions := m.store.List()
	if status != "" {
		filtered := sessions[:0]
		for _, s := range sessions {
			if s.Status == status {
				filtered = append(filtered, s)
			}
		}
		sessions = filtered
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions
}

// Statistics returns aggregate counts over all sessions.
func (m *Manager) Statistics() Statistics {
	stats := Statistics{ByStatus: make(map[core.Status]int)}
	for _, s := range m.store.List() {
		stats.TotalSessions++
		stats.ByStatus[s.Status]++
		stats.TotalPapersAnalyzed += s.PapersAnalyzed
	}
	return stats
}

// SaveCheckpoint stores an opaque checkpoint blob for the session so complex
// in-flight state can be restored on resume. The session must exist.
func (m *Manager) SaveCheckpoint(id string, blob []byte) error {
	if m.checkpoints == nil {
		return fmt.Errorf("save checkpoint %q: no checkpoint store configured", id)
	}
	if _, err := m.store.Get(id); err != nil {
		return err
	}
	return m.checkpoints.SaveCheckpoint(id, blob)
}

// LoadCheckpoint returns the stored checkpoint blob or core.ErrNotFound.
func (m *Manager) LoadCheckpoint(id string) ([]byte, error) {
	if m.checkpoints == nil {
		return nil, fmt.Errorf("load checkpoint %q: no checkpoint store configured", id)
	}
	return m.checkpoints.LoadCheckpoint(id)
}
