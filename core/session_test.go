package core

import "testing"

func TestNewResearchSession_Defaults(t *testing.T) {
	s := NewResearchSession("s1", "hypertension", nil)

	if s.Status != StatusRunning {
		t.Fatalf("expected running, got %s", s.Status)
	}
	if s.Stage != "initializing" {
		t.Fatalf("expected initializing stage, got %q", s.Stage)
	}
	if s.Config == nil {
		t.Error("config should never be nil")
	}
	if s.CreatedAt.IsZero() || !s.CreatedAt.Equal(s.UpdatedAt) {
		t.Error("timestamps should be set and equal at creation")
	}
}

func TestResearchSession_Clone(t *testing.T) {
	s := NewResearchSession("s1", "q", map[string]any{"depth": 2})
	s.SearchResults = map[string]any{"hits": 10}
	s.AnalyzedPapers = []map[string]any{{"title": "a"}}

	clone := s.Clone()
	if clone == s {
		t.Fatal("Clone should be a different pointer")
	}

	clone.SearchResults["hits"] = 99
	clone.AnalyzedPapers[0]["title"] = "changed"
	clone.Config["depth"] = 5

	if s.SearchResults["hits"] != 10 {
		t.Error("original search results mutated through clone")
	}
	if s.AnalyzedPapers[0]["title"] != "a" {
		t.Error("original analyzed papers mutated through clone")
	}
	if s.Config["depth"] != 2 {
		t.Error("original config mutated through clone")
	}
}

func TestResearchSession_RecordRoundTrip(t *testing.T) {
	s := NewResearchSession("s1", "aspirin interactions", map[string]any{"max_papers": float64(50)})
	s.PapersFound = 12
	s.Report = "draft"

	data, err := s.MarshalRecord()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := UnmarshalRecord(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if back.ID != s.ID || back.Query != s.Query || back.Status != s.Status {
		t.Errorf("identity fields lost in round trip: %+v", back)
	}
	if back.PapersFound != 12 || back.Report != "draft" {
		t.Errorf("progress/result fields lost in round trip: %+v", back)
	}
	if back.SearchResults != nil {
		t.Error("absent optional field should stay zero valued")
	}
}

func TestStatus_Terminal(t *testing.T) {
	if StatusRunning.Terminal() || StatusPaused.Terminal() {
		t.Error("running/paused must not be terminal")
	}
	if !StatusCompleted.Terminal() || !StatusFailed.Terminal() {
		t.Error("completed/failed must be terminal")
	}
}
