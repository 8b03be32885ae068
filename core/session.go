package core

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle state of a research session. Completed and failed
// are terminal; no further status transition is permitted from either.
type Status string

const (
	// StatusRunning marks a session that is actively being processed.
	StatusRunning Status = "running"
	// StatusPaused marks a session suspended at a checkpoint.
	StatusPaused Status = "paused"
	// StatusCompleted marks a session that finished successfully. Terminal.
	StatusCompleted Status = "completed"
	// StatusFailed marks a session that ended with an error. Terminal.
	StatusFailed Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is one of the four known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusRunning, StatusPaused, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// ResearchSession is the persisted record of one long-running research job.
// The lifecycle manager owns all mutation; callers receive clones and must
// treat them as snapshots.
//
// Contract:
//   - ID and Query are immutable after creation
//   - UpdatedAt is refreshed on every mutation
//   - Result blob fields are opaque payloads owned by external collaborators;
//     the core stores and returns them but never interprets them
//   - Clone performs deep copies of maps/slices for safe divergence.
type ResearchSession struct {
	ID        string    `json:"session_id"`
	Query     string    `json:"query"`
	Status    Status    `json:"status"`
	Stage     string    `json:"stage"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Progress tracking.
	PapersFound       int `json:"papers_found"`
	PapersAnalyzed    int `json:"papers_analyzed"`
	CurrentPaperIndex int `json:"current_paper_index"`

	// Opaque result payloads produced by external collaborators.
	SearchResults    map[string]any   `json:"search_results,omitempty"`
	AnalyzedPapers   []map[string]any `json:"analyzed_papers,omitempty"`
	DrugInteractions map[string]any   `json:"drug_interactions,omitempty"`
	SynthesisResults map[string]any   `json:"synthesis_results,omitempty"`
	Report           string           `json:"report,omitempty"`

	// Configuration supplied at creation. Immutable.
	Config map[string]any `json:"config,omitempty"`
}

// NewResearchSession creates a running session in its initializing stage.
func NewResearchSession(id, query string, config map[string]any) *ResearchSession {
	now := time.Now().UTC()
	if config == nil {
		config = map[string]any{}
	}
	return &ResearchSession{
		ID:        id,
		Query:     query,
		Status:    StatusRunning,
		Stage:     "initializing",
		CreatedAt: now,
		UpdatedAt: now,
		Config:    config,
	}
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *ResearchSession) Clone() *ResearchSession {
	clone := *s
	clone.SearchResults = cloneMap(s.SearchResults)
	clone.DrugInteractions = cloneMap(s.DrugInteractions)
	clone.SynthesisResults = cloneMap(s.SynthesisResults)
	clone.Config = cloneMap(s.Config)
	if s.AnalyzedPapers != nil {
		clone.AnalyzedPapers = make([]map[string]any, len(s.AnalyzedPapers))
		for i, p := range s.AnalyzedPapers {
			clone.AnalyzedPapers[i] = cloneMap(p)
		}
	}
	return &clone
}

// MarshalRecord serializes the session into its durable JSON document form.
func (s *ResearchSession) MarshalRecord() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// UnmarshalRecord deserializes a durable JSON document into a session.
// Absent optional fields become zero values rather than errors.
func UnmarshalRecord(data []byte) (*ResearchSession, error) {
	var s ResearchSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
