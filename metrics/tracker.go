// Package metrics tracks per-session research metrics and per-agent call
// performance. The Tracker is an explicitly constructed, injected instance
// owned by the composition point; there is no process-global tracker.
package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// SessionMetrics collects the measurable outcomes of one research session.
type SessionMetrics struct {
	SessionID             string    `json:"session_id"`
	PapersSearched        int       `json:"papers_searched"`
	PapersAnalyzed        int       `json:"papers_analyzed"`
	AverageQualityScore   float64   `json:"avg_quality_score"`
	DrugInteractionsFound int       `json:"drug_interactions"`
	ProcessingTime        int64     `json:"processing_time_ms"`
	CitationAccuracyRate  float64   `json:"citation_accuracy"`
	StartTime             time.Time `json:"start_time"`
	EndTime               time.Time `json:"end_time,omitzero"`
	Status                string    `json:"status"`
}

// AgentPerformance aggregates call statistics for one agent.
type AgentPerformance struct {
	AgentName       string    `json:"agent_name"`
	TotalCalls      int       `json:"total_calls"`
	SuccessfulCalls int       `json:"successful_calls"`
	FailedCalls     int       `json:"failed_calls"`
	TotalDuration   int64     `json:"total_duration_ms"`
	AverageDuration float64   `json:"average_duration_ms"`
	LastCalled      time.Time `json:"last_called"`
}

// SuccessRate returns the fraction of calls that succeeded.
func (p *AgentPerformance) SuccessRate() float64 {
	if p.TotalCalls == 0 {
		return 0
	}
	return float64(p.SuccessfulCalls) / float64(p.TotalCalls)
}

// Report is a point-in-time snapshot across all tracked sessions and agents.
type Report struct {
	Timestamp        time.Time                    `json:"timestamp"`
	TotalSessions    int                          `json:"total_sessions"`
	ActiveSessions   int                          `json:"active_sessions"`
	TotalAgents      int                          `json:"total_agents"`
	AgentPerformance map[string]*AgentPerformance `json:"agent_performance"`
	SessionMetrics   []*SessionMetrics            `json:"session_metrics"`
}

// Tracker records metrics across research sessions and agents. Safe for
// concurrent use.
type Tracker struct {
	mu       sync.RWMutex
	sessions map[string]*SessionMetrics
	agents   map[string]*AgentPerformance
}

// NewTracker constructs an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		sessions: make(map[string]*SessionMetrics),
		agents:   make(map[string]*AgentPerformance),
	}
}

// StartSession begins tracking a research session.
func (t *Tracker) StartSession(sessionID string) *SessionMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := &SessionMetrics{SessionID: sessionID, StartTime: time.Now().UTC(), Status: "running"}
	t.sessions[sessionID] = m
	snapshot := *m
	return &snapshot
}

// FinishSession marks the session's end time and final status.
func (t *Tracker) FinishSession(sessionID, status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.sessions[sessionID]
	if !ok {
		return
	}
	m.EndTime = time.Now().UTC()
	m.Status = status
	m.ProcessingTime = m.EndTime.Sub(m.StartTime).Milliseconds()
}

// UpdateSession applies fn to the session's metrics under the tracker lock.
func (t *Tracker) UpdateSession(sessionID string, fn func(*SessionMetrics)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if m, ok := t.sessions[sessionID]; ok {
		fn(m)
	}
}

// SessionMetrics returns a snapshot of the session's metrics, or nil when
// the session was never tracked.
func (t *Tracker) SessionMetrics(sessionID string) *SessionMetrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.sessions[sessionID]
	if !ok {
		return nil
	}
	snapshot := *m
	return &snapshot
}

// TrackAgentCall records one agent call with its duration and outcome.
func (t *Tracker) TrackAgentCall(agentName string, duration time.Duration, success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	perf, ok := t.agents[agentName]
	if !ok {
		perf = &AgentPerformance{AgentName: agentName}
		t.agents[agentName] = perf
	}
	perf.TotalCalls++
	if success {
		perf.SuccessfulCalls++
	} else {
		perf.FailedCalls++
	}
	perf.TotalDuration += duration.Milliseconds()
	perf.AverageDuration = float64(perf.TotalDuration) / float64(perf.TotalCalls)
	perf.LastCalled = time.Now().UTC()
}

// AgentPerformance returns a snapshot of one agent's statistics, or nil when
// the agent was never called.
func (t *Tracker) AgentPerformance(agentName string) *AgentPerformance {
	t.mu.RLock()
	defer t.mu.RUnlock()
	perf, ok := t.agents[agentName]
	if !ok {
		return nil
	}
	snapshot := *perf
	return &snapshot
}

// GenerateReport builds a snapshot across all sessions and agents.
func (t *Tracker) GenerateReport() *Report {
	t.mu.RLock()
	defer t.mu.RUnlock()
	report := &Report{
		Timestamp:        time.Now().UTC(),
		TotalSessions:    len(t.sessions),
		TotalAgents:      len(t.agents),
		AgentPerformance: make(map[string]*AgentPerformance, len(t.agents)),
	}
	for name, perf := range t.agents {
		snapshot := *perf
		report.AgentPerformance[name] = &snapshot
	}
	for _, m := range t.sessions {
		if m.Status == "running" {
			report.ActiveSessions++
		}
		snapshot := *m
		report.SessionMetrics = append(report.SessionMetrics, &snapshot)
	}
	return report
}

// ExportReport writes the current report as indented JSON to path.
func (t *Tracker) ExportReport(path string) error {
	data, err := json.MarshalIndent(t.GenerateReport(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode metrics report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export metrics report: %w", err)
	}
	return nil
}
